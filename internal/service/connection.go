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

// ConnectionService governs the lifecycle of connection requests.
//
// The state machine: no record → pending → accepted or rejected. Cancel
// (requester, while pending) and remove (either party, while accepted)
// delete the record. A rejected record is terminal and retained, so it
// blocks any new request for the pair; there is deliberately no path to
// clear it and re-request.
type ConnectionService struct {
	repo   repository.ConnectionRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewConnectionService(repo repository.ConnectionRepository, users repository.UserRepository, logger *slog.Logger) *ConnectionService {
	return &ConnectionService{
		repo:   repo,
		users:  users,
		logger: logger,
	}
}

// PairExistsError reports a send attempt for a pair that already has a
// connection record, whatever its status. It unwraps to ErrConflict so the
// usual error mapping applies; handlers surface ExistingStatus to the client.
type PairExistsError struct {
	ExistingStatus string
}

func (e *PairExistsError) Error() string {
	return fmt.Sprintf("a connection already exists between these users (status: %s)", e.ExistingStatus)
}

func (e *PairExistsError) Unwrap() error {
	return apperror.ErrConflict
}

// Send creates a pending connection request from requester to recipient.
//
// Fails Validation on a self-request or an over-long message, NotFound if
// the recipient does not exist, and Conflict (PairExistsError) if any record
// already exists for the pair in either direction. The pair lookup is
// advisory: the store's unique pair index is what actually closes the
// concurrent-send race, and its violation is reported the same way.
func (s *ConnectionService) Send(ctx context.Context, requesterID, recipientID, message string) (*model.Connection, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, apperror.ValidationFailed("recipientId", "recipient ID is required")
	}
	if requesterID == recipientID {
		return nil, apperror.ValidationFailed("recipientId", "cannot send a connection request to yourself")
	}
	message = strings.TrimSpace(message)
	if len(message) > model.MaxConnectionMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", model.MaxConnectionMessageLength))
	}

	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByPair(ctx, requesterID, recipientID)
	if err == nil {
		return nil, &PairExistsError{ExistingStatus: existing.Status}
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	conn := &model.Connection{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.ConnectionStatusPending,
		Message:     message,
	}
	if err := s.repo.Create(ctx, conn); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Lost a concurrent-send race; report the record that won.
			if existing, lookupErr := s.repo.GetByPair(ctx, requesterID, recipientID); lookupErr == nil {
				return nil, &PairExistsError{ExistingStatus: existing.Status}
			}
		}
		return nil, err
	}

	s.logger.Info("connection request sent",
		slog.String("id", conn.ID),
		slog.String("requester", requesterID),
		slog.String("recipient", recipientID),
	)
	return conn, nil
}

// Accept transitions a pending request to accepted. Only the recipient may
// accept, and only while the request is pending.
func (s *ConnectionService) Accept(ctx context.Context, connectionID, actorID string) (*model.Connection, error) {
	return s.respond(ctx, connectionID, actorID, model.ConnectionStatusAccepted)
}

// Reject transitions a pending request to rejected. Same guards as Accept.
func (s *ConnectionService) Reject(ctx context.Context, connectionID, actorID string) (*model.Connection, error) {
	return s.respond(ctx, connectionID, actorID, model.ConnectionStatusRejected)
}

func (s *ConnectionService) respond(ctx context.Context, connectionID, actorID, newStatus string) (*model.Connection, error) {
	conn, err := s.getByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.RecipientID != actorID {
		return nil, apperror.Forbidden("only the recipient of a connection request can respond to it")
	}
	if conn.Status != model.ConnectionStatusPending {
		return nil, apperror.InvalidState(
			fmt.Sprintf("connection request is %s, not pending", conn.Status))
	}

	if err := s.repo.UpdateStatus(ctx, conn.ID, newStatus); err != nil {
		return nil, err
	}
	conn.Status = newStatus

	s.logger.Info("connection request resolved",
		slog.String("id", conn.ID),
		slog.String("status", newStatus),
	)
	return conn, nil
}

// Cancel deletes a pending request. Only the requester may cancel.
func (s *ConnectionService) Cancel(ctx context.Context, connectionID, actorID string) error {
	conn, err := s.getByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.RequesterID != actorID {
		return apperror.Forbidden("only the requester can cancel a connection request")
	}
	if conn.Status != model.ConnectionStatusPending {
		return apperror.InvalidState(
			fmt.Sprintf("connection request is %s, not pending", conn.Status))
	}

	if err := s.repo.Delete(ctx, conn.ID); err != nil {
		return err
	}

	s.logger.Info("connection request cancelled", slog.String("id", conn.ID))
	return nil
}

// Remove deletes an accepted connection. Either party may remove it.
func (s *ConnectionService) Remove(ctx context.Context, connectionID, actorID string) error {
	conn, err := s.getByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if !conn.Involves(actorID) {
		return apperror.Forbidden("only a member of the connection can remove it")
	}
	if conn.Status != model.ConnectionStatusAccepted {
		return apperror.InvalidState(
			fmt.Sprintf("connection is %s, not accepted", conn.Status))
	}

	if err := s.repo.Delete(ctx, conn.ID); err != nil {
		return err
	}

	s.logger.Info("connection removed",
		slog.String("id", conn.ID),
		slog.String("actor", actorID),
	)
	return nil
}

// Pending returns requests awaiting the user's response, newest first.
func (s *ConnectionService) Pending(ctx context.Context, userID string) ([]model.Connection, error) {
	return s.repo.ListForUser(ctx, userID, repository.RoleRecipient, model.ConnectionStatusPending)
}

// Accepted returns the user's established connections in either role,
// newest first.
func (s *ConnectionService) Accepted(ctx context.Context, userID string) ([]model.Connection, error) {
	return s.repo.ListForUser(ctx, userID, repository.RoleAny, model.ConnectionStatusAccepted)
}

// ConnectionsForUser partitions a user's connection records by the role the
// user plays on each.
type ConnectionsForUser struct {
	Sent     []model.Connection `json:"sent"`
	Received []model.Connection `json:"received"`
	All      []model.Connection `json:"all"`
}

// All returns every connection record involving the user, optionally
// filtered by status, partitioned into sent and received.
func (s *ConnectionService) All(ctx context.Context, userID, status string) (*ConnectionsForUser, error) {
	switch status {
	case "", model.ConnectionStatusPending, model.ConnectionStatusAccepted,
		model.ConnectionStatusRejected, model.ConnectionStatusBlocked:
	default:
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("unknown connection status %q", status))
	}

	conns, err := s.repo.ListForUser(ctx, userID, repository.RoleAny, status)
	if err != nil {
		return nil, err
	}

	result := &ConnectionsForUser{
		Sent:     []model.Connection{},
		Received: []model.Connection{},
		All:      conns,
	}
	for _, c := range conns {
		if c.RequesterID == userID {
			result.Sent = append(result.Sent, c)
		} else {
			result.Received = append(result.Received, c)
		}
	}
	return result, nil
}

// PairStatus describes the relationship between two users as seen from the
// querying user's side. Both users see the same Status for the same record;
// the Relationship label flips for a pending request depending on who asks.
type PairStatus struct {
	Status       string            `json:"status"`
	Relationship string            `json:"relationship"`
	Connection   *model.Connection `json:"connection,omitempty"`
}

// StatusBetween reports the connection status between userID and otherID.
// Returns status "none" if no record exists for the pair.
func (s *ConnectionService) StatusBetween(ctx context.Context, userID, otherID string) (*PairStatus, error) {
	otherID = strings.TrimSpace(otherID)
	if otherID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	if userID == otherID {
		return nil, apperror.ValidationFailed("userId", "cannot query connection status with yourself")
	}

	conn, err := s.repo.GetByPair(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &PairStatus{
				Status:       model.RelationshipNone,
				Relationship: model.RelationshipNone,
			}, nil
		}
		return nil, err
	}

	ps := &PairStatus{
		Status:     conn.Status,
		Connection: conn,
	}
	switch conn.Status {
	case model.ConnectionStatusAccepted:
		ps.Relationship = model.RelationshipConnected
	case model.ConnectionStatusPending:
		if conn.RequesterID == userID {
			ps.Relationship = model.RelationshipRequestSent
		} else {
			ps.Relationship = model.RelationshipRequestReceived
		}
	case model.ConnectionStatusRejected:
		ps.Relationship = model.RelationshipRejected
	default:
		ps.Relationship = conn.Status
	}
	return ps, nil
}

func (s *ConnectionService) getByID(ctx context.Context, id string) (*model.Connection, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "connection ID is required")
	}
	return s.repo.GetByID(ctx, id)
}
