package service

import (
	"context"

	"afisha/internal/models"
	"afisha/internal/repository"
)

// Notifier publishes lifecycle notifications; failures are logged by the
// callers and never fail the surrounding operation.
type Notifier interface {
	Publish(subject string, data interface{}) error
}

// ViewsProvider enriches read results with view counters from the stat
/// collector. It never returns errors: failures degrade to zero views.
type ViewsProvider interface {
	RecordHit(ctx context.Context, uri, clientIP string)
	Views(ctx context.Context, eventIDs []int64) map[int64]int64
}

// EventIndex is the public-search index of published events.
type EventIndex interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	Search(ctx context.Context, filter models.PublicEventFilter) ([]int64, error)
}

type Services struct {
	Events   *EventService
	Requests *RequestService
	Ratings  *RatingService
}

// NewServices wires the business services. index and notifier may be nil;
// the services then skip search indexing and notifications.
func NewServices(repos *repository.Repositories, views ViewsProvider, index EventIndex, notifier Notifier) *Services {
	return &Services{
		Events:   NewEventService(repos, views, index, notifier),
		Requests: NewRequestService(repos, notifier),
		Ratings:  NewRatingService(repos),
	}
}
