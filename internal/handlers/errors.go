package handlers

import (
	"errors"
	"net/http"

	"air-quality-api/internal/repositories"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// translateError maps a service/repository error onto an HTTP status and
// response body. Upstream failures become an opaque 500: the cause is
// for the logs, never for the caller.
func translateError(err error) (int, ErrorResponse) {
	switch {
	case repositories.IsValidation(err), errors.Is(err, repositories.ErrInvalidID):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		}
	case repositories.IsNotFound(err):
		return http.StatusNotFound, ErrorResponse{
			Error:   "Not found",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
		}
	}
}
