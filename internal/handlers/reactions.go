package handlers

import (
	"net/http"

	"afisha/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateReaction - POST /users/:userId/events/:eventId/reaction?status=
// Оставить лайк или дизлайк; доступно участникам события
func (h *Handlers) CreateReaction(c *gin.Context) {
	userID, eventID, status, ok := reactionParams(c)
	if !ok {
		return
	}

	response, err := h.services.Ratings.CreateReaction(c.Request.Context(), userID, eventID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// UpdateReaction - PATCH /users/:userId/events/:eventId/reaction?status=
func (h *Handlers) UpdateReaction(c *gin.Context) {
	userID, eventID, status, ok := reactionParams(c)
	if !ok {
		return
	}

	response, err := h.services.Ratings.UpdateReaction(c.Request.Context(), userID, eventID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteReaction - DELETE /users/:userId/events/:eventId/reaction
func (h *Handlers) DeleteReaction(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	if err := h.services.Ratings.DeleteReaction(c.Request.Context(), userID, eventID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEventReactions - GET /events/:eventId/reactions
// Реакции на событие, свежие первыми
func (h *Handlers) ListEventReactions(c *gin.Context) {
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}
	from, size, ok := pagination(c)
	if !ok {
		return
	}

	response, err := h.services.Ratings.EventReactions(c.Request.Context(), eventID, from, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUserRating - GET /users/:userId/rating
// Суммарный рейтинг инициатора по реакциям на его события
func (h *Handlers) GetUserRating(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	rating, err := h.services.Ratings.UserRating(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "rating": rating})
}

func reactionParams(c *gin.Context) (int64, int64, models.ReactionStatus, bool) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return 0, 0, "", false
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return 0, 0, "", false
	}

	status, known := models.ReactionStatusFrom(c.Query("status"))
	if !known {
		writeBadRequest(c, "status must be LIKE or DISLIKE")
		return 0, 0, "", false
	}

	return userID, eventID, status, true
}
