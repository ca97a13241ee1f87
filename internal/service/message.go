package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tahmid/skillswap/internal/apperror"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

const MaxMessageLength = 2000

// MessageNotifier delivers a freshly stored message to an online recipient.
// Delivery is advisory: the message is durable in the store before Notify
// is called, and a miss (recipient offline) is not an error.
type MessageNotifier interface {
	Notify(userID string, msg *model.Message)
}

// MessageService handles direct messaging between connected users.
type MessageService struct {
	repo        repository.MessageRepository
	users       repository.UserRepository
	connections repository.ConnectionRepository
	notifier    MessageNotifier
	logger      *slog.Logger
}

func NewMessageService(
	repo repository.MessageRepository,
	users repository.UserRepository,
	connections repository.ConnectionRepository,
	notifier MessageNotifier,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		repo:        repo,
		users:       users,
		connections: connections,
		notifier:    notifier,
		logger:      logger,
	}
}

// Send stores a message and then notifies the recipient if they are online.
// Messaging requires an accepted connection between the two users.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID, content string) (*model.Message, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, apperror.ValidationFailed("recipientId", "recipient ID is required")
	}
	if senderID == recipientID {
		return nil, apperror.ValidationFailed("recipientId", "cannot send a message to yourself")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "message content is required")
	}
	if len(content) > MaxMessageLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}

	conn, err := s.connections.GetByPair(ctx, senderID, recipientID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("you can only message your connections")
		}
		return nil, err
	}
	if conn.Status != model.ConnectionStatusAccepted {
		return nil, apperror.Forbidden("you can only message your connections")
	}

	msg := &model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	// Best-effort real-time delivery; durability came from the store write.
	if s.notifier != nil {
		s.notifier.Notify(recipientID, msg)
	}

	s.logger.Info("message sent",
		slog.String("id", msg.ID),
		slog.String("sender", senderID),
		slog.String("recipient", recipientID),
	)
	return msg, nil
}

// Conversation returns the messages between the user and another user,
// newest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID string, limit, offset int) ([]model.Message, error) {
	otherID = strings.TrimSpace(otherID)
	if otherID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.ListConversation(ctx, userID, otherID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
}

// UnreadCount returns the number of unread messages addressed to the user.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
