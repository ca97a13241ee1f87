// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite — no CGo, so the
// binary cross-compiles anywhere Go runs. The database is a single file
// (or ":memory:" in tests). WAL mode lets reads proceed concurrently with
// a write, which matters for a web server.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out per-entity stores.
// The stores share the pool; Close flushes the WAL and releases the file.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user store backed by this database.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Skills returns the skill store backed by this database.
func (db *DB) Skills() *SkillStore { return &SkillStore{conn: db.conn} }

// Connections returns the connection store backed by this database.
func (db *DB) Connections() *ConnectionStore { return &ConnectionStore{conn: db.conn} }

// Messages returns the message store backed by this database.
func (db *DB) Messages() *MessageStore { return &MessageStore{conn: db.conn} }

func (db *DB) migrate() error {
	// COLLATE NOCASE on users.email and skills.name pushes case-insensitive
	// uniqueness into the storage engine — the skill resolver relies on the
	// resulting constraint violation to detect a lost create race.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                  TEXT PRIMARY KEY,
			name                TEXT NOT NULL,
			email               TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash       TEXT NOT NULL DEFAULT '',
			oauth_provider      TEXT NOT NULL DEFAULT '',
			points              INTEGER NOT NULL DEFAULT 0,
			free_points_granted INTEGER NOT NULL DEFAULT 0,
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS skills (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating skills table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_skills (
			user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
			kind     TEXT NOT NULL CHECK (kind IN ('teach', 'learn')),
			PRIMARY KEY (user_id, skill_id, kind)
		);
		CREATE INDEX IF NOT EXISTS idx_user_skills_skill ON user_skills(skill_id);
	`)
	if err != nil {
		return fmt.Errorf("creating user_skills table: %w", err)
	}

	// The unique index on (min, max) of the two party IDs enforces "at most
	// one connection per unordered pair" regardless of request direction.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS connections (
			id           TEXT PRIMARY KEY,
			requester_id TEXT NOT NULL REFERENCES users(id),
			recipient_id TEXT NOT NULL REFERENCES users(id),
			status       TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected', 'blocked')),
			message      TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_pair
			ON connections(min(requester_id, recipient_id), max(requester_id, recipient_id));
		CREATE INDEX IF NOT EXISTS idx_connections_recipient ON connections(recipient_id, status);
		CREATE INDEX IF NOT EXISTS idx_connections_requester ON connections(requester_id, status);
	`)
	if err != nil {
		return fmt.Errorf("creating connections table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id           TEXT PRIMARY KEY,
			sender_id    TEXT NOT NULL REFERENCES users(id),
			recipient_id TEXT NOT NULL REFERENCES users(id),
			content      TEXT NOT NULL,
			read         INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, recipient_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(recipient_id, read);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE (or primary key)
// constraint failure. The store layer maps these to apperror.ErrConflict so
// callers never see driver-specific errors.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		// 2067 = SQLITE_CONSTRAINT_UNIQUE, 1555 = SQLITE_CONSTRAINT_PRIMARYKEY
		return se.Code() == 2067 || se.Code() == 1555
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
