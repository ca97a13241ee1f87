package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tahmid/skillswap/internal/apperror"
)

// =========================================================================
// ERROR MAPPING TESTS
// =========================================================================

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", apperror.ValidationFailed("name", "name is required"), http.StatusBadRequest, "validation_error"},
		{"invalid state", apperror.InvalidState("connection is rejected, not pending"), http.StatusBadRequest, "invalid_state"},
		{"not found", apperror.NotFound("user", "abc"), http.StatusNotFound, "not_found"},
		{"forbidden", apperror.Forbidden("only the recipient can respond"), http.StatusForbidden, "forbidden"},
		{"conflict", apperror.Conflict("email", "email is already registered"), http.StatusConflict, "conflict"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body.Error != tc.wantError {
				t.Errorf("error type = %q, want %q", body.Error, tc.wantError)
			}
		})
	}
}

func TestWriteError_UnknownErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: secret table does not exist"))

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Message == "pq: secret table does not exist" {
		t.Error("writeError() leaked the internal error message to the client")
	}
}

// typedConflict mimics a service-level error type that unwraps to a sentinel
// without being an AppError.
type typedConflict struct{}

func (typedConflict) Error() string { return "record already exists" }
func (typedConflict) Unwrap() error { return apperror.ErrConflict }

func TestWriteError_TypedErrorUnwrapsToSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, typedConflict{})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}
