package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripsync/internal/repository"
	"tripsync/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidShareCode),
		errors.Is(err, service.ErrDestinationNameRequired),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrStopNameRequired),
		errors.Is(err, service.ErrStopTooClose),
		errors.Is(err, service.ErrNotPermutation),
		errors.Is(err, service.ErrEmptyUpdate):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrShareCodeExhausted):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
