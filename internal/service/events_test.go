package service

import (
	"context"
	"testing"
	"time"

	"afisha/internal/errs"
	"afisha/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventRequest(categoryID int64) *models.NewEventRequest {
	return &models.NewEventRequest{
		Title:       "Концерт в парке",
		Annotation:  "Летний концерт под открытым небом",
		Description: "Большой летний концерт с участием городских коллективов",
		Category:    categoryID,
		EventDate:   models.DateTime(time.Now().Add(48 * time.Hour)),
		Location:    models.Location{Lat: 55.75, Lon: 37.61},
	}
}

func publishedEvent(initiatorID, categoryID int64, limit int, moderation bool) models.Event {
	return models.Event{
		Title:             "Концерт в парке",
		Annotation:        "Летний концерт",
		Description:       "Описание",
		CategoryID:        categoryID,
		InitiatorID:       initiatorID,
		EventDate:         time.Now().Add(48 * time.Hour),
		ParticipantLimit:  limit,
		RequestModeration: moderation,
		State:             models.EventPublished,
	}
}

func TestCreateEventDefaults(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	resp, err := env.services.Events.Create(context.Background(), userID, newEventRequest(categoryID))
	require.NoError(t, err)

	assert.Equal(t, models.EventPending, resp.State)
	assert.False(t, resp.Paid)
	assert.Equal(t, 0, resp.ParticipantLimit)
	assert.True(t, resp.RequestModeration)
	assert.Nil(t, resp.PublishedOn)
	assert.Equal(t, "Концерты", resp.Category.Name)
	assert.Equal(t, "Алиса", resp.Initiator.Name)
}

func TestCreateEventDateTooClose(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	req := newEventRequest(categoryID)
	req.EventDate = models.DateTime(time.Now().Add(30 * time.Minute))

	_, err := env.services.Events.Create(context.Background(), userID, req)
	assert.True(t, errs.IsValidation(err))
}

func TestCreateEventUnknownCategory(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")

	_, err := env.services.Events.Create(context.Background(), userID, newEventRequest(999))
	assert.True(t, errs.IsNotFound(err))
}

func TestPublishPendingEvent(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	event := publishedEvent(userID, categoryID, 0, true)
	event.State = models.EventPending
	eventID := env.store.addEvent(event)

	action := string(models.ActionPublish)
	resp, err := env.services.Events.Update(context.Background(), 0, eventID,
		&models.UpdateEventRequest{StateAction: &action}, true)
	require.NoError(t, err)

	assert.Equal(t, models.EventPublished, resp.State)
	assert.NotNil(t, resp.PublishedOn)
	assert.Contains(t, env.notifier.subjects, models.NotifyEventPublished)
}

func TestPublishPublishedEventConflict(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")
	eventID := env.store.addEvent(publishedEvent(userID, categoryID, 0, true))

	action := string(models.ActionPublish)
	_, err := env.services.Events.Update(context.Background(), 0, eventID,
		&models.UpdateEventRequest{StateAction: &action}, true)
	assert.True(t, errs.IsConflict(err))
}

func TestRejectPublishedEventConflict(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")
	eventID := env.store.addEvent(publishedEvent(userID, categoryID, 0, true))

	action := string(models.ActionReject)
	_, err := env.services.Events.Update(context.Background(), 0, eventID,
		&models.UpdateEventRequest{StateAction: &action}, true)
	assert.True(t, errs.IsConflict(err))
}

func TestUserCannotChangePublishedEvent(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")
	eventID := env.store.addEvent(publishedEvent(userID, categoryID, 0, true))

	title := "Новое название"
	_, err := env.services.Events.Update(context.Background(), userID, eventID,
		&models.UpdateEventRequest{Title: &title}, false)
	assert.True(t, errs.IsConflict(err))
}

func TestUserCanEditPendingEvent(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	event := publishedEvent(userID, categoryID, 10, true)
	event.State = models.EventPending
	eventID := env.store.addEvent(event)

	title := "Новое название"
	limit := 5
	resp, err := env.services.Events.Update(context.Background(), userID, eventID,
		&models.UpdateEventRequest{Title: &title, ParticipantLimit: &limit}, false)
	require.NoError(t, err)

	assert.Equal(t, "Новое название", resp.Title)
	assert.Equal(t, 5, resp.ParticipantLimit)
	assert.Equal(t, models.EventPending, resp.State)
}

func TestUserCannotPublish(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	event := publishedEvent(userID, categoryID, 0, true)
	event.State = models.EventPending
	eventID := env.store.addEvent(event)

	action := string(models.ActionPublish)
	_, err := env.services.Events.Update(context.Background(), userID, eventID,
		&models.UpdateEventRequest{StateAction: &action}, false)
	assert.True(t, errs.IsValidation(err))
}

func TestUserRejectsOwnPendingEvent(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	event := publishedEvent(userID, categoryID, 0, true)
	event.State = models.EventPending
	eventID := env.store.addEvent(event)

	action := string(models.ActionReject)
	resp, err := env.services.Events.Update(context.Background(), userID, eventID,
		&models.UpdateEventRequest{StateAction: &action}, false)
	require.NoError(t, err)
	assert.Equal(t, models.EventCanceled, resp.State)
}

func TestForeignEventInvisibleToUser(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	other := env.store.addUser("Борис")
	categoryID := env.store.addCategory("Концерты")
	eventID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))

	title := "Чужое событие"
	_, err := env.services.Events.Update(context.Background(), other, eventID,
		&models.UpdateEventRequest{Title: &title}, false)
	assert.True(t, errs.IsNotFound(err))

	_, err = env.services.Events.GetUserEventByID(context.Background(), other, eventID)
	assert.True(t, errs.IsNotFound(err))
}

func TestGetPublishedEventHidesUnpublished(t *testing.T) {
	env := newTestEnv()
	userID := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	event := publishedEvent(userID, categoryID, 0, true)
	event.State = models.EventPending
	eventID := env.store.addEvent(event)

	_, err := env.services.Events.GetPublishedEvent(context.Background(), eventID)
	assert.True(t, errs.IsNotFound(err))
}

func TestPublicSearchOnlyAvailable(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	guest := env.store.addUser("Борис")
	categoryID := env.store.addCategory("Концерты")

	fullID := env.store.addEvent(publishedEvent(owner, categoryID, 1, true))
	openID := env.store.addEvent(publishedEvent(owner, categoryID, 2, true))
	unlimitedID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))

	env.store.addRequest(fullID, guest, models.RequestConfirmed)
	env.store.addRequest(openID, guest, models.RequestConfirmed)

	resp, err := env.services.Events.PublicSearch(context.Background(),
		models.PublicEventFilter{OnlyAvailable: true, Size: 10})
	require.NoError(t, err)

	ids := make([]int64, len(resp))
	for i, e := range resp {
		ids[i] = e.ID
	}
	assert.NotContains(t, ids, fullID)
	assert.Contains(t, ids, openID)
	assert.Contains(t, ids, unlimitedID)
}

func TestPublicSearchSortByViews(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	categoryID := env.store.addCategory("Концерты")

	coldID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))
	hotID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))

	env.views.views[coldID] = 3
	env.views.views[hotID] = 42

	resp, err := env.services.Events.PublicSearch(context.Background(),
		models.PublicEventFilter{Sort: "views", Size: 10})
	require.NoError(t, err)
	require.Len(t, resp, 2)

	assert.Equal(t, hotID, resp[0].ID)
	assert.Equal(t, int64(42), resp[0].Views)
	assert.Equal(t, coldID, resp[1].ID)
}

func TestEventResponseCarriesInitiatorRating(t *testing.T) {
	env := newTestEnv()
	owner := env.store.addUser("Алиса")
	fan := env.store.addUser("Борис")
	critic := env.store.addUser("Вера")
	categoryID := env.store.addCategory("Концерты")
	eventID := env.store.addEvent(publishedEvent(owner, categoryID, 0, true))

	env.store.addRequest(eventID, fan, models.RequestConfirmed)
	env.store.addRequest(eventID, critic, models.RequestConfirmed)

	_, err := env.services.Ratings.CreateReaction(context.Background(), fan, eventID, models.ReactionLike)
	require.NoError(t, err)
	_, err = env.services.Ratings.CreateReaction(context.Background(), critic, eventID, models.ReactionLike)
	require.NoError(t, err)

	resp, err := env.services.Events.GetPublishedEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Rating)
	assert.Equal(t, 2, resp.ConfirmedRequests)
}
