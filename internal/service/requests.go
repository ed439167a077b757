package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"afisha/internal/errs"
	"afisha/internal/logger"
	"afisha/internal/models"
	"afisha/internal/repository"
)

type RequestService struct {
	requests repository.RequestRepository
	events   repository.EventRepository
	users    repository.UserRepository
	notifier Notifier
}

func NewRequestService(repos *repository.Repositories, notifier Notifier) *RequestService {
	return &RequestService{
		requests: repos.Requests,
		events:   repos.Events,
		users:    repos.Users,
		notifier: notifier,
	}
}

// Submit files a participation request. The whole check-then-insert runs
// under the event row lock so the capacity check cannot race concurrent
// submissions or batch confirmations.
func (s *RequestService) Submit(ctx context.Context, userID, eventID int64) (*models.ParticipationRequestResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("User with id=%d was not found", userID)
	}

	var created *models.Request
	err = s.requests.InEventTx(ctx, eventID, func(tx repository.EventTx) error {
		event := tx.Event()

		if event.InitiatorID == userID {
			return errs.Conflict("Initiator can't request participation in his own event")
		}
		if event.State != models.EventPublished {
			return errs.Conflict("Cannot participate in an unpublished event")
		}

		existing, err := tx.RequestByRequester(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check existing request: %w", err)
		}
		if existing != nil && !existing.Terminal() {
			return errs.Conflict("Request from user id=%d to event id=%d already exists", userID, eventID)
		}

		if event.ParticipantLimit > 0 {
			confirmed, err := tx.ConfirmedCount(ctx)
			if err != nil {
				return fmt.Errorf("failed to count confirmed requests: %w", err)
			}
			if confirmed >= event.ParticipantLimit {
				return errs.Conflict("The participant limit has been reached")
			}
		}

		status := models.RequestPending
		if !event.RequestModeration || event.ParticipantLimit == 0 {
			status = models.RequestConfirmed
		}

		created = &models.Request{
			EventID:     eventID,
			RequesterID: userID,
			Status:      status,
		}
		return tx.InsertRequest(ctx, created)
	})
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, errs.NotFound("Event with id=%d was not found", eventID)
		}
		return nil, err
	}

	s.notifyStatusChanged(ctx, created)

	return toRequestResponse(created), nil
}

// Cancel withdraws the user's own request. Canceling an already canceled
// request is a no-op returning the current state.
func (s *RequestService) Cancel(ctx context.Context, userID, requestID int64) (*models.ParticipationRequestResponse, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if req == nil || req.RequesterID != userID {
		return nil, errs.NotFound("Request with id=%d was not found", requestID)
	}

	if req.Status == models.RequestCanceled {
		return toRequestResponse(req), nil
	}

	req.Status = models.RequestCanceled
	if err := s.requests.UpdateStatus(ctx, requestID, models.RequestCanceled); err != nil {
		return nil, fmt.Errorf("failed to cancel request: %w", err)
	}

	s.notifyStatusChanged(ctx, req)

	return toRequestResponse(req), nil
}

func (s *RequestService) ByRequester(ctx context.Context, userID int64) ([]models.ParticipationRequestResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("User with id=%d was not found", userID)
	}

	requests, err := s.requests.ByRequester(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	return toRequestResponses(requests), nil
}

// EventRequests lists the requests to an event for its initiator.
func (s *RequestService) EventRequests(ctx context.Context, userID, eventID int64) ([]models.ParticipationRequestResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || event.InitiatorID != userID {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}

	requests, err := s.requests.ByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	return toRequestResponses(requests), nil
}

// UpdateStatuses is the initiator's batch moderation of pending requests.
// Confirmations that fill the participant limit exactly auto-reject every
// remaining pending request in the same transaction.
func (s *RequestService) UpdateStatuses(ctx context.Context, userID, eventID int64, update *models.RequestStatusUpdate) (*models.RequestStatusUpdateResult, error) {
	target := models.RequestStatus(update.Status)
	if target != models.RequestConfirmed && target != models.RequestRejected {
		return nil, errs.Validation("Unknown status: %s", update.Status)
	}

	result := &models.RequestStatusUpdateResult{
		ConfirmedRequests: []models.ParticipationRequestResponse{},
		RejectedRequests:  []models.ParticipationRequestResponse{},
	}

	var changed []models.Request
	err := s.requests.InEventTx(ctx, eventID, func(tx repository.EventTx) error {
		event := tx.Event()

		if event.InitiatorID != userID {
			return errs.NotFound("Event with id=%d was not found", eventID)
		}

		ids := dedupe(update.RequestIDs)
		if len(ids) == 0 {
			return nil
		}

		// Requests to such events are confirmed on submission, the batch
		// has nothing to moderate.
		if event.ParticipantLimit == 0 || !event.RequestModeration {
			return nil
		}

		confirmed, err := tx.ConfirmedCount(ctx)
		if err != nil {
			return fmt.Errorf("failed to count confirmed requests: %w", err)
		}
		if target == models.RequestConfirmed && confirmed >= event.ParticipantLimit {
			return errs.Conflict("The participant limit has been reached")
		}

		pending, err := tx.PendingRequests(ctx)
		if err != nil {
			return fmt.Errorf("failed to load pending requests: %w", err)
		}
		pendingByID := make(map[int64]models.Request, len(pending))
		for _, req := range pending {
			pendingByID[req.ID] = req
		}

		selected := make([]models.Request, 0, len(ids))
		for _, id := range ids {
			req, ok := pendingByID[id]
			if !ok {
				return errs.Conflict("Request must have status PENDING")
			}
			selected = append(selected, req)
		}

		if target == models.RequestConfirmed && confirmed+len(selected) > event.ParticipantLimit {
			return errs.Conflict("The participant limit has been reached")
		}

		selectedIDs := make([]int64, len(selected))
		for i, req := range selected {
			selectedIDs[i] = req.ID
		}
		if err := tx.UpdateRequestStatuses(ctx, selectedIDs, target); err != nil {
			return fmt.Errorf("failed to update request statuses: %w", err)
		}
		for i := range selected {
			selected[i].Status = target
		}
		changed = append(changed, selected...)

		if target == models.RequestConfirmed {
			result.ConfirmedRequests = toRequestResponses(selected)
		} else {
			result.RejectedRequests = toRequestResponses(selected)
		}

		// Exact fill: nobody else can get in, reject the rest of the queue.
		if target == models.RequestConfirmed && confirmed+len(selected) == event.ParticipantLimit {
			inSelected := make(map[int64]bool, len(selected))
			for _, req := range selected {
				inSelected[req.ID] = true
			}

			var remainder []models.Request
			for _, req := range pending {
				if !inSelected[req.ID] {
					remainder = append(remainder, req)
				}
			}
			if len(remainder) > 0 {
				remainderIDs := make([]int64, len(remainder))
				for i, req := range remainder {
					remainderIDs[i] = req.ID
				}
				if err := tx.UpdateRequestStatuses(ctx, remainderIDs, models.RequestRejected); err != nil {
					return fmt.Errorf("failed to reject remaining requests: %w", err)
				}
				for i := range remainder {
					remainder[i].Status = models.RequestRejected
				}
				changed = append(changed, remainder...)
				result.RejectedRequests = toRequestResponses(remainder)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, errs.NotFound("Event with id=%d was not found", eventID)
		}
		return nil, err
	}

	for i := range changed {
		s.notifyStatusChanged(ctx, &changed[i])
	}

	return result, nil
}

func (s *RequestService) notifyStatusChanged(ctx context.Context, req *models.Request) {
	if s.notifier == nil {
		return
	}
	notification := models.RequestStatusChangedNotification{
		RequestID:   req.ID,
		EventID:     req.EventID,
		RequesterID: req.RequesterID,
		Status:      req.Status,
		Timestamp:   time.Now(),
	}
	if err := s.notifier.Publish(models.NotifyRequestStatusChanged, notification); err != nil {
		logger.WithContext(ctx).Error("Failed to publish request notification",
			"error", err, "request_id", req.ID)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}

func toRequestResponse(req *models.Request) *models.ParticipationRequestResponse {
	return &models.ParticipationRequestResponse{
		ID:        req.ID,
		Event:     req.EventID,
		Requester: req.RequesterID,
		Status:    req.Status,
		Created:   models.DateTimeMilli(req.Created),
	}
}

func toRequestResponses(requests []models.Request) []models.ParticipationRequestResponse {
	responses := make([]models.ParticipationRequestResponse, len(requests))
	for i := range requests {
		responses[i] = *toRequestResponse(&requests[i])
	}
	return responses
}
