package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"afisha/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent - POST /users/:userId/events
// Создать событие; оно попадает в состояние PENDING до модерации
func (h *Handlers) CreateEvent(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req models.NewEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	response, err := h.services.Events.Create(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// UpdateEventByUser - PATCH /users/:userId/events/:eventId
// Изменить свое событие; опубликованные события инициатору менять нельзя
func (h *Handlers) UpdateEventByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	response, err := h.services.Events.Update(c.Request.Context(), userID, eventID, &req, false)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateEventByAdmin - PATCH /admin/events/:eventId
// Модерация: публикация или отклонение, плюс правка полей
func (h *Handlers) UpdateEventByAdmin(c *gin.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	response, err := h.services.Events.Update(c.Request.Context(), 0, eventID, &req, true)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListUserEvents - GET /users/:userId/events
func (h *Handlers) ListUserEvents(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	from, size, ok := pagination(c)
	if !ok {
		return
	}

	response, err := h.services.Events.GetUserEvents(c.Request.Context(), userID, from, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUserEvent - GET /users/:userId/events/:eventId
func (h *Handlers) GetUserEvent(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	response, err := h.services.Events.GetUserEventByID(c.Request.Context(), userID, eventID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// AdminSearchEvents - GET /admin/events
// Поиск событий по пользователям, состояниям, категориям и диапазону дат
func (h *Handlers) AdminSearchEvents(c *gin.Context) {
	from, size, ok := pagination(c)
	if !ok {
		return
	}

	filter := models.AdminEventFilter{From: from, Size: size}

	var err error
	if filter.Users, err = idList(c.Query("users")); err != nil {
		writeBadRequest(c, "users must be a comma-separated list of ids")
		return
	}
	if filter.Categories, err = idList(c.Query("categories")); err != nil {
		writeBadRequest(c, "categories must be a comma-separated list of ids")
		return
	}

	for _, s := range splitList(c.Query("states")) {
		state, known := models.EventStateFrom(s)
		if !known {
			writeBadRequest(c, "Unknown event state: "+s)
			return
		}
		filter.States = append(filter.States, state)
	}

	filter.RangeStart, filter.RangeEnd, ok = dateRange(c)
	if !ok {
		return
	}

	response, err := h.services.Events.AdminSearch(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SearchPublishedEvents - GET /events
// Публичный поиск; каждый вызов регистрируется в сервисе статистики
func (h *Handlers) SearchPublishedEvents(c *gin.Context) {
	from, size, ok := pagination(c)
	if !ok {
		return
	}

	filter := models.PublicEventFilter{
		Text: c.Query("text"),
		From: from,
		Size: size,
	}

	var err error
	if filter.Categories, err = idList(c.Query("categories")); err != nil {
		writeBadRequest(c, "categories must be a comma-separated list of ids")
		return
	}

	if paidParam := c.Query("paid"); paidParam != "" {
		paid, err := strconv.ParseBool(paidParam)
		if err != nil {
			writeBadRequest(c, "paid must be a boolean")
			return
		}
		filter.Paid = &paid
	}

	filter.RangeStart, filter.RangeEnd, ok = dateRange(c)
	if !ok {
		return
	}
	// Без явного диапазона показываем только предстоящие события
	if filter.RangeStart == nil && filter.RangeEnd == nil {
		now := time.Now()
		filter.RangeStart = &now
	}

	filter.OnlyAvailable, _ = strconv.ParseBool(c.DefaultQuery("onlyAvailable", "false"))

	switch sortParam := c.Query("sort"); sortParam {
	case "", "EVENT_DATE":
		filter.Sort = "event_date"
	case "VIEWS":
		filter.Sort = "views"
	default:
		writeBadRequest(c, "Unknown sort: "+sortParam)
		return
	}

	response, err := h.services.Events.PublicSearch(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	h.services.Events.RecordHit(c.Request.Context(), c.Request.URL.Path, c.ClientIP())

	c.JSON(http.StatusOK, response)
}

// GetPublishedEvent - GET /events/:eventId
// Только опубликованные события видны публично
func (h *Handlers) GetPublishedEvent(c *gin.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	response, err := h.services.Events.GetPublishedEvent(c.Request.Context(), eventID)
	if err != nil {
		writeError(c, err)
		return
	}

	h.services.Events.RecordHit(c.Request.Context(), c.Request.URL.Path, c.ClientIP())

	c.JSON(http.StatusOK, response)
}

func splitList(param string) []string {
	if param == "" {
		return nil
	}
	return strings.Split(param, ",")
}

func idList(param string) ([]int64, error) {
	var ids []int64
	for _, s := range splitList(param) {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// dateRange разбирает rangeStart/rangeEnd в формате "yyyy-MM-dd HH:mm:ss"
func dateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var start, end *time.Time

	if param := c.Query("rangeStart"); param != "" {
		t, err := time.Parse(models.DateTimeLayout, param)
		if err != nil {
			writeBadRequest(c, "rangeStart must be in format "+models.DateTimeLayout)
			return nil, nil, false
		}
		start = &t
	}
	if param := c.Query("rangeEnd"); param != "" {
		t, err := time.Parse(models.DateTimeLayout, param)
		if err != nil {
			writeBadRequest(c, "rangeEnd must be in format "+models.DateTimeLayout)
			return nil, nil, false
		}
		end = &t
	}

	if start != nil && end != nil && end.Before(*start) {
		writeBadRequest(c, "rangeEnd must not be before rangeStart")
		return nil, nil, false
	}

	return start, end, true
}
