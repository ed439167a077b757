package service

import (
	"context"
	"fmt"

	"afisha/internal/errs"
	"afisha/internal/models"
	"afisha/internal/repository"
)

// RatingService owns event reactions and the user rating derived from them.
type RatingService struct {
	reactions repository.ReactionRepository
	requests  repository.RequestRepository
	events    repository.EventRepository
	users     repository.UserRepository
}

func NewRatingService(repos *repository.Repositories) *RatingService {
	return &RatingService{
		reactions: repos.Reactions,
		requests:  repos.Requests,
		events:    repos.Events,
		users:     repos.Users,
	}
}

// CreateReaction leaves a like or dislike. The user must hold a
// participation request on the event, so only people with a real
// relationship to it can rate.
func (s *RatingService) CreateReaction(ctx context.Context, userID, eventID int64, status models.ReactionStatus) (*models.ReactionResponse, error) {
	event, err := s.publishedEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.InitiatorID == userID {
		return nil, errs.Conflict("Initiator can't react to his own event")
	}

	request, err := s.requests.ByEventAndRequester(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if request == nil {
		return nil, errs.Conflict("User id=%d has no participation request to event id=%d", userID, eventID)
	}

	existing, err := s.reactions.GetByPair(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing reaction: %w", err)
	}
	if existing != nil {
		return nil, errs.Conflict("Reaction from user id=%d to event id=%d already exists", userID, eventID)
	}

	reaction := &models.Reaction{
		EventID:       eventID,
		ParticipantID: userID,
		Status:        status,
	}
	if err := s.reactions.Insert(ctx, reaction); err != nil {
		return nil, fmt.Errorf("failed to create reaction: %w", err)
	}

	return toReactionResponse(reaction), nil
}

// UpdateReaction flips an existing reaction. A flip to the current status is
// rejected rather than silently ignored.
func (s *RatingService) UpdateReaction(ctx context.Context, userID, eventID int64, status models.ReactionStatus) (*models.ReactionResponse, error) {
	if _, err := s.publishedEvent(ctx, eventID); err != nil {
		return nil, err
	}

	reaction, err := s.reactions.GetByPair(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	if reaction == nil {
		return nil, errs.NotFound("Reaction from user id=%d to event id=%d was not found", userID, eventID)
	}
	if reaction.Status == status {
		return nil, errs.Conflict("Reaction already has status %s", status)
	}

	reaction.Status = status
	if err := s.reactions.UpdateStatus(ctx, reaction.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update reaction: %w", err)
	}

	return toReactionResponse(reaction), nil
}

func (s *RatingService) DeleteReaction(ctx context.Context, userID, eventID int64) error {
	reaction, err := s.reactions.GetByPair(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to get reaction: %w", err)
	}
	if reaction == nil {
		return errs.NotFound("Reaction from user id=%d to event id=%d was not found", userID, eventID)
	}

	if err := s.reactions.Delete(ctx, reaction.ID); err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}

	return nil
}

// EventReactions lists the reactions on an event, most recent first.
func (s *RatingService) EventReactions(ctx context.Context, eventID int64, from, size int) ([]models.ReactionResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}

	reactions, err := s.reactions.ByEvent(ctx, eventID, from, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}

	responses := make([]models.ReactionResponse, len(reactions))
	for i := range reactions {
		responses[i] = *toReactionResponse(&reactions[i])
	}
	return responses, nil
}

// UserRating is the net LIKE minus DISLIKE over the user's authored events.
func (s *RatingService) UserRating(ctx context.Context, userID int64) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, errs.NotFound("User with id=%d was not found", userID)
	}

	ratings, err := s.reactions.UserRatings(ctx, []int64{userID})
	if err != nil {
		return 0, fmt.Errorf("failed to load rating: %w", err)
	}

	return ratings[userID], nil
}

func (s *RatingService) publishedEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errs.NotFound("Event with id=%d was not found", eventID)
	}
	if event.State != models.EventPublished {
		return nil, errs.Conflict("Cannot react to an unpublished event")
	}
	return event, nil
}

func toReactionResponse(reaction *models.Reaction) *models.ReactionResponse {
	return &models.ReactionResponse{
		ID:          reaction.ID,
		Event:       reaction.EventID,
		Participant: reaction.ParticipantID,
		Status:      reaction.Status,
		Created:     models.DateTimeMilli(reaction.Created),
	}
}
