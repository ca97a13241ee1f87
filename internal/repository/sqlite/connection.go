package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tahmid/skillswap/internal/apperror"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

// compile-time check that *ConnectionStore implements repository.ConnectionRepository
var _ repository.ConnectionRepository = (*ConnectionStore)(nil)

// ConnectionStore persists connection requests. The unique pair index
// (min/max of the two party IDs) guarantees at most one record per
// unordered pair; a lost insert race surfaces as ErrConflict.
type ConnectionStore struct {
	conn *sql.DB
}

const connectionColumns = `id, requester_id, recipient_id, status, message, created_at, updated_at`

func (s *ConnectionStore) Create(ctx context.Context, conn *model.Connection) error {
	now := time.Now().UTC()
	conn.ID = uuid.NewString()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO connections (`+connectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conn.ID,
		conn.RequesterID,
		conn.RecipientID,
		conn.Status,
		conn.Message,
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("connection", "a connection already exists between these users")
		}
		return fmt.Errorf("sqlite: inserting connection %s->%s: %w", conn.RequesterID, conn.RecipientID, err)
	}
	return nil
}

func (s *ConnectionStore) GetByID(ctx context.Context, id string) (*model.Connection, error) {
	var c model.Connection
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id,
	).Scan(&c.ID, &c.RequesterID, &c.RecipientID, &c.Status, &c.Message, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("connection", id)
		}
		return nil, fmt.Errorf("sqlite: getting connection %s: %w", id, err)
	}
	return &c, nil
}

// GetByPair matches both directional orderings — a one-direction query here
// would miss half the records and break pair uniqueness checks.
func (s *ConnectionStore) GetByPair(ctx context.Context, userA, userB string) (*model.Connection, error) {
	var c model.Connection
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections
		 WHERE (requester_id = ? AND recipient_id = ?)
		    OR (requester_id = ? AND recipient_id = ?)`,
		userA, userB, userB, userA,
	).Scan(&c.ID, &c.RequesterID, &c.RecipientID, &c.Status, &c.Message, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("connection", userA+"/"+userB)
		}
		return nil, fmt.Errorf("sqlite: getting connection for pair %s/%s: %w", userA, userB, err)
	}
	return &c, nil
}

func (s *ConnectionStore) ListForUser(ctx context.Context, userID string, role repository.ConnectionRole, status string) ([]model.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE `
	args := []any{}

	switch role {
	case repository.RoleRequester:
		query += `requester_id = ?`
		args = append(args, userID)
	case repository.RoleRecipient:
		query += `recipient_id = ?`
		args = append(args, userID)
	default:
		query += `(requester_id = ? OR recipient_id = ?)`
		args = append(args, userID, userID)
	}

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing connections for user %s: %w", userID, err)
	}
	defer rows.Close()

	conns := []model.Connection{}
	for rows.Next() {
		var c model.Connection
		if err := rows.Scan(&c.ID, &c.RequesterID, &c.RecipientID, &c.Status, &c.Message, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning connection row: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating connection rows: %w", err)
	}
	return conns, nil
}

func (s *ConnectionStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE connections SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating connection %s status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking status update of connection %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("connection", id)
	}
	return nil
}

func (s *ConnectionStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting connection %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking deletion of connection %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("connection", id)
	}
	return nil
}
