package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tahmid/skillswap/internal/auth"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/service"
)

// ConnectionHandler serves the connection-request lifecycle. Every route
// requires authentication; the acting user always comes from the token,
// never from the request body.
type ConnectionHandler struct {
	connections *service.ConnectionService
	logger      *slog.Logger
}

func NewConnectionHandler(connections *service.ConnectionService, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, logger: logger}
}

// HandleSend creates a pending connection request.
//
// HTTP: POST /api/connections/send
// Body: {"recipientId", "message"?}
//
// A pair that already has a record (any status, either direction) gets a
// 400 whose body carries the `conflict` error kind and the existing status.
func (h *ConnectionHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req struct {
		RecipientID string `json:"recipientId"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	conn, err := h.connections.Send(r.Context(), userID, req.RecipientID, req.Message)
	if err != nil {
		var pairErr *service.PairExistsError
		if errors.As(err, &pairErr) {
			// Send is the one place a conflict maps to 400 rather than
			// 409: the existing record makes the request itself invalid.
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "conflict",
				Message: pairErr.Error(),
				Status:  pairErr.ExistingStatus,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// HandlePending returns requests awaiting the authenticated user's response.
//
// HTTP: GET /api/connections/pending
func (h *ConnectionHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	conns, err := h.connections.Pending(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(conns),
		"requests": conns,
	})
}

// HandleAccepted returns the user's established connections.
//
// HTTP: GET /api/connections/accepted
func (h *ConnectionHandler) HandleAccepted(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	conns, err := h.connections.Accepted(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(conns),
		"connections": conns,
	})
}

// HandleAll returns every connection involving the user, partitioned by
// role, optionally filtered by status.
//
// HTTP: GET /api/connections/all?status=<pending|accepted|rejected>
func (h *ConnectionHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	result, err := h.connections.All(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(result.All),
		"sent":     result.Sent,
		"received": result.Received,
		"all":      result.All,
	})
}

// HandleStatus reports the connection status between the authenticated user
// and another user.
//
// HTTP: GET /api/connections/status/{userId}
func (h *ConnectionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	status, err := h.connections.StatusBetween(r.Context(), userID, r.PathValue("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	if status.Connection == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       status.Status,
			"relationship": status.Relationship,
			"message":      "no connection exists between these users",
		})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleAccept transitions a pending request to accepted.
//
// HTTP: PUT /api/connections/{id}/accept
func (h *ConnectionHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.connections.Accept)
}

// HandleReject transitions a pending request to rejected.
//
// HTTP: PUT /api/connections/{id}/reject
func (h *ConnectionHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.connections.Reject)
}

// HandleCancel deletes a pending request the user sent.
//
// HTTP: DELETE /api/connections/{id}/cancel
func (h *ConnectionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.connections.Cancel)
}

// HandleRemove deletes an accepted connection the user is part of.
//
// HTTP: DELETE /api/connections/{id}/remove
func (h *ConnectionHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.connections.Remove)
}

func (h *ConnectionHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, connectionID, actorID string) (*model.Connection, error)) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	conn, err := op(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *ConnectionHandler) delete(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, connectionID, actorID string) error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	if err := op(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
