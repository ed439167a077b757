package models

import "time"

// NATS notification subjects
const (
	NotifyEventPublished       = "event.published"
	NotifyEventCanceled        = "event.canceled"
	NotifyRequestStatusChanged = "request.status.changed"
)

// EventStateChangedNotification is published after an event moderation
// transition commits.
type EventStateChangedNotification struct {
	EventID     int64      `json:"event_id"`
	InitiatorID int64      `json:"initiator_id"`
	State       EventState `json:"state"`
	Timestamp   time.Time  `json:"timestamp"`
}

// RequestStatusChangedNotification is published after a participation
// request changes status, one message per request.
type RequestStatusChangedNotification struct {
	RequestID   int64         `json:"request_id"`
	EventID     int64         `json:"event_id"`
	RequesterID int64         `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	Timestamp   time.Time     `json:"timestamp"`
}
