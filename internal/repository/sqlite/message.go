package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

// compile-time check that *MessageStore implements repository.MessageRepository
var _ repository.MessageRepository = (*MessageStore)(nil)

// MessageStore persists direct messages. Rows are append-only: there is no
// update or delete path.
type MessageStore struct {
	conn *sql.DB
}

func (s *MessageStore) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, content, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.SenderID,
		msg.RecipientID,
		msg.Content,
		msg.Read,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message %s->%s: %w", msg.SenderID, msg.RecipientID, err)
	}
	return nil
}

func (s *MessageStore) ListConversation(ctx context.Context, userA, userB string, opts repository.ListOptions) ([]model.Message, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, sender_id, recipient_id, content, read, created_at
		 FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?)
		    OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userA, userB, userB, userA, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing conversation %s/%s: %w", userA, userB, err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating message rows: %w", err)
	}
	return msgs, nil
}

func (s *MessageStore) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND read = 0`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting unread messages for %s: %w", recipientID, err)
	}
	return count, nil
}
