package service

import (
	"context"
	"testing"

	"afisha/internal/errs"
	"afisha/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ratedEvent поднимает опубликованное событие с участником, у которого есть
// заявка на него
func ratedEvent(env *testEnv) (ownerID, participantID, eventID int64) {
	ownerID = env.store.addUser("Алиса")
	participantID = env.store.addUser("Борис")
	categoryID := env.store.addCategory("Концерты")
	eventID = env.store.addEvent(publishedEvent(ownerID, categoryID, 0, true))
	env.store.addRequest(eventID, participantID, models.RequestConfirmed)
	return
}

func TestCreateReaction(t *testing.T) {
	env := newTestEnv()
	_, participant, eventID := ratedEvent(env)

	resp, err := env.services.Ratings.CreateReaction(context.Background(), participant, eventID, models.ReactionLike)
	require.NoError(t, err)

	assert.Equal(t, models.ReactionLike, resp.Status)
	assert.Equal(t, eventID, resp.Event)
	assert.Equal(t, participant, resp.Participant)
}

func TestCreateReactionWithoutRequest(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	stranger := env.store.addUser("Борис")
	categoryID := env.store.addCategory("Концерты")
	eventID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))

	_, err := env.services.Ratings.CreateReaction(context.Background(), stranger, eventID, models.ReactionLike)
	assert.True(t, errs.IsConflict(err))

	// После подачи заявки реакция становится доступна
	_, err = env.services.Requests.Submit(context.Background(), stranger, eventID)
	require.NoError(t, err)

	_, err = env.services.Ratings.CreateReaction(context.Background(), stranger, eventID, models.ReactionLike)
	assert.NoError(t, err)
}

func TestCreateReactionByInitiator(t *testing.T) {
	env := newTestEnv()
	owner, _, eventID := ratedEvent(env)

	_, err := env.services.Ratings.CreateReaction(context.Background(), owner, eventID, models.ReactionLike)
	assert.True(t, errs.IsConflict(err))
}

func TestCreateReactionOnUnpublishedEvent(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	participant := env.store.addUser("Борис")
	categoryID := env.store.addCategory("Концерты")

	event := publishedEvent(owner, categoryID, 0, true)
	event.State = models.EventPending
	eventID := env.store.addEvent(event)
	env.store.addRequest(eventID, participant, models.RequestPending)

	_, err := env.services.Ratings.CreateReaction(context.Background(), participant, eventID, models.ReactionLike)
	assert.True(t, errs.IsConflict(err))
}

func TestCreateDuplicateReaction(t *testing.T) {
	env := newTestEnv()
	_, participant, eventID := ratedEvent(env)

	_, err := env.services.Ratings.CreateReaction(context.Background(), participant, eventID, models.ReactionLike)
	require.NoError(t, err)

	_, err = env.services.Ratings.CreateReaction(context.Background(), participant, eventID, models.ReactionDislike)
	assert.True(t, errs.IsConflict(err))
}

func TestUpdateReactionFlip(t *testing.T) {
	env := newTestEnv()
	owner, participant, eventID := ratedEvent(env)

	_, err := env.services.Ratings.CreateReaction(context.Background(), participant, eventID, models.ReactionLike)
	require.NoError(t, err)

	rating, err := env.services.Ratings.UserRating(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rating)

	// Смена лайка на дизлайк сдвигает рейтинг на 2
	resp, err := env.services.Ratings.UpdateReaction(context.Background(), participant, eventID, models.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionDislike, resp.Status)

	rating, err = env.services.Ratings.UserRating(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rating)
}

func TestUpdateReactionSameStatus(t *testing.T) {
	env := newTestEnv()
	_, participant, eventID := ratedEvent(env)

	_, err := env.services.Ratings.CreateReaction(context.Background(), participant, eventID, models.ReactionLike)
	require.NoError(t, err)

	_, err = env.services.Ratings.UpdateReaction(context.Background(), participant, eventID, models.ReactionLike)
	assert.True(t, errs.IsConflict(err))
}

func TestUpdateMissingReaction(t *testing.T) {
	env := newTestEnv()
	_, participant, eventID := ratedEvent(env)

	_, err := env.services.Ratings.UpdateReaction(context.Background(), participant, eventID, models.ReactionLike)
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteReaction(t *testing.T) {
	env := newTestEnv()
	owner, participant, eventID := ratedEvent(env)

	_, err := env.services.Ratings.CreateReaction(context.Background(), participant, eventID, models.ReactionLike)
	require.NoError(t, err)

	err = env.services.Ratings.DeleteReaction(context.Background(), participant, eventID)
	require.NoError(t, err)

	rating, err := env.services.Ratings.UserRating(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rating)

	err = env.services.Ratings.DeleteReaction(context.Background(), participant, eventID)
	assert.True(t, errs.IsNotFound(err))
}

func TestEventReactionsRecentFirst(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	first := env.store.addUser("Борис")
	second := env.store.addUser("Вера")
	categoryID := env.store.addCategory("Концерты")
	eventID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))

	env.store.addRequest(eventID, first, models.RequestConfirmed)
	env.store.addRequest(eventID, second, models.RequestConfirmed)

	_, err := env.services.Ratings.CreateReaction(context.Background(), first, eventID, models.ReactionLike)
	require.NoError(t, err)
	_, err = env.services.Ratings.CreateReaction(context.Background(), second, eventID, models.ReactionDislike)
	require.NoError(t, err)

	reactions, err := env.services.Ratings.EventReactions(context.Background(), eventID, 0, 10)
	require.NoError(t, err)
	require.Len(t, reactions, 2)
	assert.Equal(t, second, reactions[0].Participant)
	assert.Equal(t, first, reactions[1].Participant)
}

func TestEventReactionsMissingEvent(t *testing.T) {
	env := newTestEnv()

	_, err := env.services.Ratings.EventReactions(context.Background(), 999, 0, 10)
	assert.True(t, errs.IsNotFound(err))
}

func TestUserRatingAcrossEvents(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	fan := env.store.addUser("Борис")
	categoryID := env.store.addCategory("Концерты")

	firstID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))
	secondID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))
	env.store.addRequest(firstID, fan, models.RequestConfirmed)
	env.store.addRequest(secondID, fan, models.RequestConfirmed)

	_, err := env.services.Ratings.CreateReaction(context.Background(), fan, firstID, models.ReactionLike)
	require.NoError(t, err)
	_, err = env.services.Ratings.CreateReaction(context.Background(), fan, secondID, models.ReactionLike)
	require.NoError(t, err)

	rating, err := env.services.Ratings.UserRating(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rating)
}
