// Package handler contains the HTTP layer: request parsing, response
// shaping, and the mapping from domain errors to status codes. No business
// rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tahmid/skillswap/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
	// Status carries the existing connection status on pair conflicts.
	Status string `json:"status,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent at this point — logging is all we can do.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends
// it. The service layer returns apperror sentinels; errors.Is walks the
// wrap chain to classify them here, keeping status codes out of services.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidState):
			status = http.StatusBadRequest
			errorType = "invalid_state"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Plain errors that still unwrap to a sentinel (e.g. a typed error
	// defined in the service layer).
	switch {
	case errors.Is(err, apperror.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
		return
	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
		return
	}

	// Unknown error — never expose internals to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
