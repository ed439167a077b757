package handlers

import (
	"net/http"
	"strconv"

	"afisha/internal/models"

	"github.com/gin-gonic/gin"
)

// SubmitRequest - POST /users/:userId/requests?eventId=
// Подать заявку на участие в опубликованном событии
func (h *Handlers) SubmitRequest(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	eventID, err := strconv.ParseInt(c.Query("eventId"), 10, 64)
	if err != nil || eventID <= 0 {
		writeBadRequest(c, "eventId is required")
		return
	}

	response, err := h.services.Requests.Submit(c.Request.Context(), userID, eventID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// CancelRequest - PATCH /users/:userId/requests/:requestId/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}

	response, err := h.services.Requests.Cancel(c.Request.Context(), userID, requestID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListUserRequests - GET /users/:userId/requests
// Заявки пользователя на чужие события
func (h *Handlers) ListUserRequests(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	response, err := h.services.Requests.ByRequester(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListEventRequests - GET /users/:userId/events/:eventId/requests
// Заявки на событие, доступно только инициатору
func (h *Handlers) ListEventRequests(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	response, err := h.services.Requests.EventRequests(c.Request.Context(), userID, eventID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateRequestStatuses - PATCH /users/:userId/events/:eventId/requests
// Батч-модерация заявок инициатором
func (h *Handlers) UpdateRequestStatuses(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	var req models.RequestStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	response, err := h.services.Requests.UpdateStatuses(c.Request.Context(), userID, eventID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
