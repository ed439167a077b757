package handlers

import (
	"net/http"
	"strconv"
	"time"

	"afisha/internal/errs"
	"afisha/internal/logger"
	"afisha/internal/models"
	"afisha/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// writeError переводит ошибку сервисного слоя в единый конверт APIError
func writeError(c *gin.Context, err error) {
	apiErr := models.APIError{
		Timestamp: models.DateTime(time.Now()),
		Message:   err.Error(),
	}

	var code int
	switch {
	case errs.IsValidation(err):
		code = http.StatusBadRequest
		apiErr.Status = "BAD_REQUEST"
		apiErr.Reason = "Incorrectly made request."
	case errs.IsNotFound(err):
		code = http.StatusNotFound
		apiErr.Status = "NOT_FOUND"
		apiErr.Reason = "The required object was not found."
	case errs.IsConflict(err):
		code = http.StatusConflict
		apiErr.Status = "CONFLICT"
		apiErr.Reason = "For the requested operation the conditions are not met."
	default:
		logger.WithContext(c.Request.Context()).Error("Unhandled error",
			"error", err, "path", c.Request.URL.Path)
		code = http.StatusInternalServerError
		apiErr.Status = "INTERNAL_SERVER_ERROR"
		apiErr.Reason = "Internal server error."
		apiErr.Message = "Internal server error."
	}

	c.JSON(code, apiErr)
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.APIError{
		Status:    "BAD_REQUEST",
		Reason:    "Incorrectly made request.",
		Message:   message,
		Timestamp: models.DateTime(time.Now()),
	})
}

// pathID разбирает числовой path-параметр; 0 и отрицательные id не бывают
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(c, "Invalid "+name+" value: "+c.Param(name))
		return 0, false
	}
	return id, true
}

// pagination читает параметры from/size с дефолтами 0/10
func pagination(c *gin.Context) (int, int, bool) {
	from, err := strconv.Atoi(c.DefaultQuery("from", "0"))
	if err != nil || from < 0 {
		writeBadRequest(c, "from must be a non-negative integer")
		return 0, 0, false
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 {
		writeBadRequest(c, "size must be a positive integer")
		return 0, 0, false
	}

	return from, size, true
}
