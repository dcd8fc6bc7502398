package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/middleware"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

// respondError maps a service error onto its HTTP status. Internal errors
// keep their message out of the response.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	resp := models.ErrorResponse{Error: apperr.Kind(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
		_ = c.Error(err)
	}
	c.JSON(status, resp)
}

func caller(c *gin.Context) (services.Caller, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: "user id not found"})
		return services.Caller{}, false
	}
	return services.Caller{UserID: id, Email: c.GetString(middleware.UserEmailKey)}, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation", Message: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %v: %w", err, apperr.ErrValidation))
		return false
	}
	return true
}
