package handler

import (
	"errors"
	"net/http"

	"leaflens/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// abortWithError maps a service error onto the HTTP taxonomy: validation
// 400, conflict 409, forbidden 403, not-found 404, everything else 500.
func abortWithError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err), errors.Is(err, service.ErrEmptyProfile), errors.Is(err, service.ErrEmptySearch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsConflict(err), errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCredentials), errors.Is(err, service.ErrAmbiguousLogin):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
