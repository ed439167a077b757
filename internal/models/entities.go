package models

import (
	"time"
)

// EventState is the moderation state of an event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// EventStateFrom parses a state name, reporting whether it is known.
func EventStateFrom(s string) (EventState, bool) {
	switch EventState(s) {
	case EventPending, EventPublished, EventCanceled:
		return EventState(s), true
	}
	return "", false
}

// StateAction is a moderation action requested through an event patch.
type StateAction string

const (
	ActionPublish StateAction = "PUBLISH_EVENT"
	ActionReject  StateAction = "REJECT_EVENT"
)

// RequestStatus is the state of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// ReactionStatus is a like or dislike left by a participant.
type ReactionStatus string

const (
	ReactionLike    ReactionStatus = "LIKE"
	ReactionDislike ReactionStatus = "DISLIKE"
)

// ReactionStatusFrom parses a reaction name, reporting whether it is known.
func ReactionStatusFrom(s string) (ReactionStatus, bool) {
	switch ReactionStatus(s) {
	case ReactionLike, ReactionDislike:
		return ReactionStatus(s), true
	}
	return "", false
}

// User is a read-only snapshot from the identity store.
type User struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Category is a read-only snapshot from the catalog store.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Event is a user-created activity with a moderated, capacity-limited join
// process. PublishedOn is set exactly when the event first reaches PUBLISHED.
type Event struct {
	ID                int64      `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	Annotation        string     `json:"annotation" db:"annotation"`
	Description       string     `json:"description" db:"description"`
	CategoryID        int64      `json:"category_id" db:"category_id"`
	InitiatorID       int64      `json:"initiator_id" db:"initiator_id"`
	Lat               float64    `json:"lat" db:"lat"`
	Lon               float64    `json:"lon" db:"lon"`
	EventDate         time.Time  `json:"event_date" db:"event_date"`
	Paid              bool       `json:"paid" db:"paid"`
	ParticipantLimit  int        `json:"participant_limit" db:"participant_limit"`
	RequestModeration bool       `json:"request_moderation" db:"request_moderation"`
	State             EventState `json:"state" db:"state"`
	CreatedOn         time.Time  `json:"created_on" db:"created_on"`
	PublishedOn       *time.Time `json:"published_on" db:"published_on"`
}

// Request is a user's application to join a published event.
type Request struct {
	ID          int64         `json:"id" db:"id"`
	EventID     int64         `json:"event_id" db:"event_id"`
	RequesterID int64         `json:"requester_id" db:"requester_id"`
	Status      RequestStatus `json:"status" db:"status"`
	Created     time.Time     `json:"created" db:"created"`
}

// Terminal reports whether the request no longer blocks a new submission by
// the same user.
func (r *Request) Terminal() bool {
	return r.Status == RequestCanceled || r.Status == RequestRejected
}

// Reaction is a like/dislike left on an event by a user who holds a
// participation request on it. At most one per (participant, event).
type Reaction struct {
	ID            int64          `json:"id" db:"id"`
	EventID       int64          `json:"event_id" db:"event_id"`
	ParticipantID int64          `json:"participant_id" db:"participant_id"`
	Status        ReactionStatus `json:"status" db:"status"`
	Created       time.Time      `json:"created" db:"created"`
}
