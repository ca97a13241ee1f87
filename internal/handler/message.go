package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tahmid/skillswap/internal/auth"
	"github.com/tahmid/skillswap/internal/chat"
	"github.com/tahmid/skillswap/internal/service"
)

// MessageHandler serves direct messaging and the real-time delivery stream.
type MessageHandler struct {
	messages *service.MessageService
	registry *chat.Registry
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, registry *chat.Registry, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		registry: registry,
		logger:   logger,
	}
}

// HandleSend stores a message to a connected user.
//
// HTTP: POST /api/messages
// Body: {"recipientId", "content"}
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req struct {
		RecipientID string `json:"recipientId"`
		Content     string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	msg, err := h.messages.Send(r.Context(), userID, req.RecipientID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// HandleConversation returns the message history with another user,
// newest first.
//
// HTTP: GET /api/messages/{userId}?limit=20&offset=0
func (h *MessageHandler) HandleConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	msgs, err := h.messages.Conversation(r.Context(), userID, r.PathValue("userId"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(msgs),
		"messages": msgs,
	})
}

// HandleUnreadCount returns the number of unread messages addressed to the
// authenticated user.
//
// HTTP: GET /api/messages/unread/count
func (h *MessageHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	count, err := h.messages.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// HandleStream delivers incoming messages over Server-Sent Events. The
// subscription lives exactly as long as the HTTP request: registered here,
// removed when the client disconnects. Messages sent while the user is not
// streaming are not replayed — the conversation endpoint is the durable
// record.
//
// HTTP: GET /api/messages/stream
func (h *MessageHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	subID, events := h.registry.Subscribe(userID)
	defer h.registry.Unsubscribe(userID, subID)

	h.logger.Info("message stream opened",
		slog.String("user", userID),
		slog.String("subscriber", subID),
	)

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("message stream closed",
				slog.String("user", userID),
				slog.String("subscriber", subID),
			)
			return
		case msg, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("failed to encode stream event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
