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

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore persists users and their skill sets.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, name, email, password_hash, oauth_provider, points, free_points_granted, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.OAuthProvider,
		user.Points,
		user.FreePointsGranted,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email", "email is already registered")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail looks a user up case-insensitively (email carries COLLATE NOCASE).
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (s *UserStore) getOne(ctx context.Context, query, arg string) (*model.User, error) {
	var u model.User
	err := s.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.OAuthProvider,
		&u.Points,
		&u.FreePointsGranted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", arg, err)
	}

	if err := s.loadSkills(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	return s.list(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
}

func (s *UserStore) ListBySkill(ctx context.Context, skillID string, opts repository.ListOptions) ([]model.User, error) {
	return s.list(ctx,
		`SELECT DISTINCT u.id, u.name, u.email, u.password_hash, u.oauth_provider,
		        u.points, u.free_points_granted, u.created_at, u.updated_at
		 FROM users u
		 JOIN user_skills us ON us.user_id = u.id
		 WHERE us.skill_id = ?
		 ORDER BY u.created_at DESC LIMIT ? OFFSET ?`,
		skillID, opts.Limit, opts.Offset)
}

func (s *UserStore) list(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.OAuthProvider,
			&u.Points,
			&u.FreePointsGranted,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	for i := range users {
		if err := s.loadSkills(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, password_hash = ?, points = ?, free_points_granted = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.PasswordHash,
		user.Points,
		user.FreePointsGranted,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// AddSkill is idempotent: adding a skill the user already has is a no-op.
func (s *UserStore) AddSkill(ctx context.Context, userID, skillID string, kind repository.SkillKind) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_skills (user_id, skill_id, kind) VALUES (?, ?, ?)`,
		userID, skillID, string(kind),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding %s skill %s to user %s: %w", kind, skillID, userID, err)
	}
	return nil
}

func (s *UserStore) RemoveSkill(ctx context.Context, userID, skillID string, kind repository.SkillKind) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM user_skills WHERE user_id = ? AND skill_id = ? AND kind = ?`,
		userID, skillID, string(kind),
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing %s skill %s from user %s: %w", kind, skillID, userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking skill removal: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("skill", skillID)
	}
	return nil
}

// ReplaceSkills swaps the user's whole teach or learn set in one transaction.
func (s *UserStore) ReplaceSkills(ctx context.Context, userID string, skillIDs []string, kind repository.SkillKind) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning skill replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_skills WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	); err != nil {
		return fmt.Errorf("sqlite: clearing %s skills for user %s: %w", kind, userID, err)
	}

	for _, skillID := range skillIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_skills (user_id, skill_id, kind) VALUES (?, ?, ?)`,
			userID, skillID, string(kind),
		); err != nil {
			return fmt.Errorf("sqlite: inserting %s skill %s for user %s: %w", kind, skillID, userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing skill replace: %w", err)
	}
	return nil
}

func (s *UserStore) loadSkills(ctx context.Context, u *model.User) error {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT skill_id, kind FROM user_skills WHERE user_id = ? ORDER BY skill_id`,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading skills for user %s: %w", u.ID, err)
	}
	defer rows.Close()

	u.TeachSkills = []string{}
	u.LearnSkills = []string{}
	for rows.Next() {
		var skillID, kind string
		if err := rows.Scan(&skillID, &kind); err != nil {
			return fmt.Errorf("sqlite: scanning user skill row: %w", err)
		}
		switch repository.SkillKind(kind) {
		case repository.SkillKindTeach:
			u.TeachSkills = append(u.TeachSkills, skillID)
		case repository.SkillKindLearn:
			u.LearnSkills = append(u.LearnSkills, skillID)
		}
	}
	return rows.Err()
}
