package models

import "time"

// Location - географические координаты события
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// UserShort - краткое представление пользователя в ответах
type UserShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryOut - категория события в ответах
type CategoryOut struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewEventRequest - модель для создания события
type NewEventRequest struct {
	Title             string   `json:"title" binding:"required"`
	Annotation        string   `json:"annotation" binding:"required"`
	Description       string   `json:"description" binding:"required"`
	Category          int64    `json:"category" binding:"required"`
	EventDate         DateTime `json:"eventDate" binding:"required"`
	Location          Location `json:"location" binding:"required"`
	Paid              *bool    `json:"paid"`
	ParticipantLimit  *int     `json:"participantLimit"`
	RequestModeration *bool    `json:"requestModeration"`
}

// UpdateEventRequest - модель частичного обновления события; применяются
// только непустые поля
type UpdateEventRequest struct {
	Title             *string   `json:"title"`
	Annotation        *string   `json:"annotation"`
	Description       *string   `json:"description"`
	Category          *int64    `json:"category"`
	EventDate         *DateTime `json:"eventDate"`
	Location          *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"location"`
	Paid              *bool   `json:"paid"`
	ParticipantLimit  *int    `json:"participantLimit"`
	RequestModeration *bool   `json:"requestModeration"`
	StateAction       *string `json:"stateAction"`
}

// EventFullResponse - полное представление события
type EventFullResponse struct {
	Annotation        string      `json:"annotation"`
	Category          CategoryOut `json:"category"`
	ConfirmedRequests int         `json:"confirmedRequests"`
	CreatedOn         DateTime    `json:"createdOn"`
	Description       string      `json:"description"`
	EventDate         DateTime    `json:"eventDate"`
	ID                int64       `json:"id"`
	Initiator         UserShort   `json:"initiator"`
	Location          Location    `json:"location"`
	Paid              bool        `json:"paid"`
	ParticipantLimit  int         `json:"participantLimit"`
	PublishedOn       *DateTime   `json:"publishedOn,omitempty"`
	RequestModeration bool        `json:"requestModeration"`
	State             EventState  `json:"state"`
	Title             string      `json:"title"`
	Views             int64       `json:"views"`
	Rating            int64       `json:"rating"`
}

// EventShortResponse - краткое представление события для публичных списков
type EventShortResponse struct {
	Annotation        string      `json:"annotation"`
	Category          CategoryOut `json:"category"`
	ConfirmedRequests int         `json:"confirmedRequests"`
	EventDate         DateTime    `json:"eventDate"`
	ID                int64       `json:"id"`
	Initiator         UserShort   `json:"initiator"`
	Paid              bool        `json:"paid"`
	Title             string      `json:"title"`
	Views             int64       `json:"views"`
}

// ParticipationRequestResponse - заявка на участие в событии
type ParticipationRequestResponse struct {
	Created   DateTimeMilli `json:"created"`
	Event     int64         `json:"event"`
	ID        int64         `json:"id"`
	Requester int64         `json:"requester"`
	Status    RequestStatus `json:"status"`
}

// RequestStatusUpdate - модель батч-модерации заявок события
type RequestStatusUpdate struct {
	RequestIDs []int64 `json:"requestIds"`
	Status     string  `json:"status"`
}

// RequestStatusUpdateResult - результат батч-модерации
type RequestStatusUpdateResult struct {
	ConfirmedRequests []ParticipationRequestResponse `json:"confirmedRequests"`
	RejectedRequests  []ParticipationRequestResponse `json:"rejectedRequests"`
}

// ReactionResponse - реакция участника на событие
type ReactionResponse struct {
	ID          int64          `json:"id"`
	Event       int64          `json:"event"`
	Participant int64          `json:"participant"`
	Status      ReactionStatus `json:"status"`
	Created     DateTimeMilli  `json:"created"`
}

// APIError - унифицированный ответ об ошибке
type APIError struct {
	Status    string   `json:"status"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Timestamp DateTime `json:"timestamp"`
}

// PublicEventFilter - фильтры публичного поиска событий
type PublicEventFilter struct {
	Text          string
	Categories    []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          string
	From          int
	Size          int
}

// AdminEventFilter - фильтры админского поиска событий
type AdminEventFilter struct {
	Users      []int64
	States     []EventState
	Categories []int64
	RangeStart *time.Time
	RangeEnd   *time.Time
	From       int
	Size       int
}
