package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"afisha/internal/errs"
	"afisha/internal/logger"
	"afisha/internal/models"
	"afisha/internal/repository"
)

// eventDateLeadTime is the minimum gap between "now" and an event's start,
// enforced at creation and on every update that changes the date.
const eventDateLeadTime = 2 * time.Hour

// transitions is the moderation state machine: (current state, action) ->
// next state. Absent combinations are conflicts. CANCELED never transitions
// anywhere else; re-rejecting a canceled event is a harmless self-loop.
var transitions = map[transitionKey]models.EventState{
	{models.EventPending, models.ActionPublish}: models.EventPublished,
	{models.EventPending, models.ActionReject}:  models.EventCanceled,
	{models.EventCanceled, models.ActionReject}: models.EventCanceled,
}

type transitionKey struct {
	state  models.EventState
	action models.StateAction
}

type EventService struct {
	events     repository.EventRepository
	requests   repository.RequestRepository
	reactions  repository.ReactionRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	views      ViewsProvider
	index      EventIndex
	notifier   Notifier
}

func NewEventService(repos *repository.Repositories, views ViewsProvider, index EventIndex, notifier Notifier) *EventService {
	return &EventService{
		events:     repos.Events,
		requests:   repos.Requests,
		reactions:  repos.Reactions,
		users:      repos.Users,
		categories: repos.Categories,
		views:      views,
		index:      index,
		notifier:   notifier,
	}
}

func (s *EventService) Create(ctx context.Context, userID int64, req *models.NewEventRequest) (*models.EventFullResponse, error) {
	if err := checkEventDate(req.EventDate.Time()); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("User with id=%d was not found", userID)
	}

	category, err := s.categories.GetByID(ctx, req.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, errs.NotFound("Category with id=%d was not found", req.Category)
	}

	event := &models.Event{
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.Category,
		InitiatorID:       userID,
		Lat:               req.Location.Lat,
		Lon:               req.Location.Lon,
		EventDate:         req.EventDate.Time(),
		State:             models.EventPending,
		RequestModeration: true,
	}
	if req.Paid != nil {
		event.Paid = *req.Paid
	}
	if req.ParticipantLimit != nil {
		if *req.ParticipantLimit < 0 {
			return nil, errs.Validation("Field: participantLimit. Error: must not be negative. Value: %d", *req.ParticipantLimit)
		}
		event.ParticipantLimit = *req.ParticipantLimit
	}
	if req.RequestModeration != nil {
		event.RequestModeration = *req.RequestModeration
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return s.toFullResponse(ctx, event)
}

// Update applies the non-nil patch fields under the moderation rules. The
// admin path passes isAdmin=true and any actorID; the private path requires
// the actor to be the initiator.
func (s *EventService) Update(ctx context.Context, actorID, eventID int64, patch *models.UpdateEventRequest, isAdmin bool) (*models.EventFullResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}

	if !isAdmin && event.InitiatorID != actorID {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}
	if !isAdmin && event.State == models.EventPublished {
		return nil, errs.Conflict("Only pending or canceled events can be changed")
	}

	if patch.EventDate != nil {
		if err := checkEventDate(patch.EventDate.Time()); err != nil {
			return nil, err
		}
		event.EventDate = patch.EventDate.Time()
	}

	wasPublished := event.State == models.EventPublished
	if patch.StateAction != nil {
		if err := s.applyStateAction(event, *patch.StateAction, isAdmin); err != nil {
			return nil, err
		}
	}

	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Annotation != nil {
		event.Annotation = *patch.Annotation
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Category != nil {
		category, err := s.categories.GetByID(ctx, *patch.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
		if category == nil {
			return nil, errs.NotFound("Category with id=%d was not found", *patch.Category)
		}
		event.CategoryID = *patch.Category
	}
	if patch.Location != nil {
		if patch.Location.Lat != nil {
			event.Lat = *patch.Location.Lat
		}
		if patch.Location.Lon != nil {
			event.Lon = *patch.Location.Lon
		}
	}
	if patch.Paid != nil {
		event.Paid = *patch.Paid
	}
	if patch.ParticipantLimit != nil {
		if *patch.ParticipantLimit < 0 {
			return nil, errs.Validation("Field: participantLimit. Error: must not be negative. Value: %d", *patch.ParticipantLimit)
		}
		event.ParticipantLimit = *patch.ParticipantLimit
	}
	if patch.RequestModeration != nil {
		event.RequestModeration = *patch.RequestModeration
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.syncAfterStateChange(ctx, event, wasPublished)

	return s.toFullResponse(ctx, event)
}

// applyStateAction resolves a requested moderation action against the
// transition table and mutates the event on success.
func (s *EventService) applyStateAction(event *models.Event, action string, isAdmin bool) error {
	stateAction := models.StateAction(action)
	if stateAction != models.ActionPublish && stateAction != models.ActionReject {
		return errs.Validation("Unknown stateAction: %s", action)
	}

	if !isAdmin && stateAction == models.ActionPublish {
		return errs.Validation("stateAction: %s is available to admin only", action)
	}

	next, ok := transitions[transitionKey{state: event.State, action: stateAction}]
	if !ok {
		if stateAction == models.ActionPublish {
			return errs.Conflict("Cannot publish the event because it's not in the right state: %s", event.State)
		}
		return errs.Conflict("Cannot reject the event because it's not in the right state: %s", event.State)
	}

	event.State = next
	if stateAction == models.ActionPublish {
		now := time.Now()
		event.PublishedOn = &now
	}

	return nil
}

// syncAfterStateChange maintains the search index and emits notifications.
// Both are best-effort: storage already committed.
func (s *EventService) syncAfterStateChange(ctx context.Context, event *models.Event, wasPublished bool) {
	if event.State == models.EventPublished && !wasPublished {
		if s.index != nil {
			if err := s.index.IndexEvent(ctx, event); err != nil {
				logger.WithContext(ctx).Error("Failed to index published event",
					"error", err, "event_id", event.ID)
			}
		}
		s.notify(ctx, models.NotifyEventPublished, event)
	}

	if event.State == models.EventCanceled && wasPublished {
		if s.index != nil {
			if err := s.index.DeleteEvent(ctx, event.ID); err != nil {
				logger.WithContext(ctx).Error("Failed to remove canceled event from index",
					"error", err, "event_id", event.ID)
			}
		}
		s.notify(ctx, models.NotifyEventCanceled, event)
	}
}

func (s *EventService) notify(ctx context.Context, subject string, event *models.Event) {
	if s.notifier == nil {
		return
	}
	notification := models.EventStateChangedNotification{
		EventID:     event.ID,
		InitiatorID: event.InitiatorID,
		State:       event.State,
		Timestamp:   time.Now(),
	}
	if err := s.notifier.Publish(subject, notification); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event notification",
			"error", err, "event_id", event.ID, "subject", subject)
	}
}

func (s *EventService) GetUserEvents(ctx context.Context, userID int64, from, size int) ([]models.EventFullResponse, error) {
	events, err := s.events.ByInitiator(ctx, userID, from, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list user events: %w", err)
	}
	return s.toFullResponses(ctx, events)
}

func (s *EventService) GetUserEventByID(ctx context.Context, userID, eventID int64) (*models.EventFullResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || event.InitiatorID != userID {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}
	return s.toFullResponse(ctx, event)
}

func (s *EventService) AdminSearch(ctx context.Context, filter models.AdminEventFilter) ([]models.EventFullResponse, error) {
	events, err := s.events.AdminSearch(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	return s.toFullResponses(ctx, events)
}

// PublicSearch lists published events. Text queries go through the search
// index when it is available; on failure the Postgres full-text path takes
// over so the listing keeps working with stale-index tolerance.
func (s *EventService) PublicSearch(ctx context.Context, filter models.PublicEventFilter) ([]models.EventShortResponse, error) {
	var events []models.Event

	if s.index != nil {
		ids, err := s.index.Search(ctx, filter)
		if err == nil {
			events, err = s.eventsInOrder(ctx, ids)
			if err != nil {
				return nil, err
			}
		} else {
			logger.WithContext(ctx).Error("Search index unavailable, falling back to database",
				"error", err)
		}
	}

	if events == nil {
		var err error
		events, err = s.events.PublicSearch(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to search events: %w", err)
		}
	}

	responses, err := s.toShortResponses(ctx, events)
	if err != nil {
		return nil, err
	}

	if filter.OnlyAvailable {
		responses = filterAvailable(responses, events)
	}
	if filter.Sort == "views" {
		sortByViews(responses)
	}

	return responses, nil
}

func (s *EventService) GetPublishedEvent(ctx context.Context, eventID int64) (*models.EventFullResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || event.State != models.EventPublished {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}
	return s.toFullResponse(ctx, event)
}

// RecordHit registers a public page view with the stat collector.
func (s *EventService) RecordHit(ctx context.Context, uri, clientIP string) {
	if s.views != nil {
		s.views.RecordHit(ctx, uri, clientIP)
	}
}

// eventsInOrder loads events by id preserving the index ranking.
func (s *EventService) eventsInOrder(ctx context.Context, ids []int64) ([]models.Event, error) {
	loaded, err := s.events.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	byID := make(map[int64]models.Event, len(loaded))
	for _, event := range loaded {
		byID[event.ID] = event
	}

	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if event, ok := byID[id]; ok && event.State == models.EventPublished {
			events = append(events, event)
		}
	}

	return events, nil
}

// enrichment collects the per-event read-side aggregates in bulk.
type enrichment struct {
	categories map[int64]models.Category
	users      map[int64]models.User
	confirmed  map[int64]int
	views      map[int64]int64
	ratings    map[int64]int64
}

func (s *EventService) enrich(ctx context.Context, events []models.Event, withRatings bool) (*enrichment, error) {
	eventIDs := make([]int64, 0, len(events))
	categoryIDs := make([]int64, 0, len(events))
	userIDs := make([]int64, 0, len(events))
	for _, event := range events {
		eventIDs = append(eventIDs, event.ID)
		categoryIDs = append(categoryIDs, event.CategoryID)
		userIDs = append(userIDs, event.InitiatorID)
	}

	categories, err := s.categories.GetByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	confirmed, err := s.requests.ConfirmedCounts(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count confirmed requests: %w", err)
	}

	e := &enrichment{
		categories: categories,
		users:      users,
		confirmed:  confirmed,
		views:      map[int64]int64{},
		ratings:    map[int64]int64{},
	}

	if s.views != nil {
		e.views = s.views.Views(ctx, eventIDs)
	}
	if withRatings {
		e.ratings, err = s.reactions.UserRatings(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load ratings: %w", err)
		}
	}

	return e, nil
}

func (s *EventService) toFullResponse(ctx context.Context, event *models.Event) (*models.EventFullResponse, error) {
	responses, err := s.toFullResponses(ctx, []models.Event{*event})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (s *EventService) toFullResponses(ctx context.Context, events []models.Event) ([]models.EventFullResponse, error) {
	e, err := s.enrich(ctx, events, true)
	if err != nil {
		return nil, err
	}

	responses := make([]models.EventFullResponse, len(events))
	for i, event := range events {
		category := e.categories[event.CategoryID]
		initiator := e.users[event.InitiatorID]

		resp := models.EventFullResponse{
			Annotation:        event.Annotation,
			Category:          models.CategoryOut{ID: category.ID, Name: category.Name},
			ConfirmedRequests: e.confirmed[event.ID],
			CreatedOn:         models.DateTime(event.CreatedOn),
			Description:       event.Description,
			EventDate:         models.DateTime(event.EventDate),
			ID:                event.ID,
			Initiator:         models.UserShort{ID: initiator.ID, Name: initiator.Name},
			Location:          models.Location{Lat: event.Lat, Lon: event.Lon},
			Paid:              event.Paid,
			ParticipantLimit:  event.ParticipantLimit,
			RequestModeration: event.RequestModeration,
			State:             event.State,
			Title:             event.Title,
			Views:             e.views[event.ID],
			Rating:            e.ratings[event.InitiatorID],
		}
		if event.PublishedOn != nil {
			publishedOn := models.DateTime(*event.PublishedOn)
			resp.PublishedOn = &publishedOn
		}
		responses[i] = resp
	}

	return responses, nil
}

func (s *EventService) toShortResponses(ctx context.Context, events []models.Event) ([]models.EventShortResponse, error) {
	e, err := s.enrich(ctx, events, false)
	if err != nil {
		return nil, err
	}

	responses := make([]models.EventShortResponse, len(events))
	for i, event := range events {
		category := e.categories[event.CategoryID]
		initiator := e.users[event.InitiatorID]

		responses[i] = models.EventShortResponse{
			Annotation:        event.Annotation,
			Category:          models.CategoryOut{ID: category.ID, Name: category.Name},
			ConfirmedRequests: e.confirmed[event.ID],
			EventDate:         models.DateTime(event.EventDate),
			ID:                event.ID,
			Initiator:         models.UserShort{ID: initiator.ID, Name: initiator.Name},
			Paid:              event.Paid,
			Title:             event.Title,
			Views:             e.views[event.ID],
		}
	}

	return responses, nil
}

// filterAvailable drops events whose confirmed count already reached a
// nonzero participant limit.
func filterAvailable(responses []models.EventShortResponse, events []models.Event) []models.EventShortResponse {
	limits := make(map[int64]int, len(events))
	for _, event := range events {
		limits[event.ID] = event.ParticipantLimit
	}

	available := responses[:0]
	for _, resp := range responses {
		limit := limits[resp.ID]
		if limit == 0 || resp.ConfirmedRequests < limit {
			available = append(available, resp)
		}
	}
	return available
}

func sortByViews(responses []models.EventShortResponse) {
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].Views > responses[j].Views
	})
}

func checkEventDate(date time.Time) error {
	if date.Before(time.Now().Add(eventDateLeadTime)) {
		return errs.Validation("Field: eventDate. Error: must be at least two hours from now. Value: %s",
			date.Format(models.DateTimeLayout))
	}
	return nil
}
