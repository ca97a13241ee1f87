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

// compile-time check that *SkillStore implements repository.SkillRepository
var _ repository.SkillRepository = (*SkillStore)(nil)

// SkillStore persists the skill taxonomy. Name uniqueness is enforced
// case-insensitively by the NOCASE unique index; storage preserves case.
type SkillStore struct {
	conn *sql.DB
}

func (s *SkillStore) Create(ctx context.Context, skill *model.Skill) error {
	skill.ID = uuid.NewString()
	skill.CreatedAt = time.Now().UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO skills (id, name, created_at) VALUES (?, ?, ?)`,
		skill.ID, skill.Name, skill.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("name", fmt.Sprintf("skill %q already exists", skill.Name))
		}
		return fmt.Errorf("sqlite: inserting skill %q: %w", skill.Name, err)
	}
	return nil
}

func (s *SkillStore) GetByID(ctx context.Context, id string) (*model.Skill, error) {
	var sk model.Skill
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM skills WHERE id = ?`, id,
	).Scan(&sk.ID, &sk.Name, &sk.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("skill", id)
		}
		return nil, fmt.Errorf("sqlite: getting skill %s: %w", id, err)
	}
	return &sk, nil
}

// GetByName is case-insensitive: the name column carries COLLATE NOCASE, so
// plain equality matches "python" against a stored "Python".
func (s *SkillStore) GetByName(ctx context.Context, name string) (*model.Skill, error) {
	var sk model.Skill
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM skills WHERE name = ?`, name,
	).Scan(&sk.ID, &sk.Name, &sk.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("skill", name)
		}
		return nil, fmt.Errorf("sqlite: getting skill by name %q: %w", name, err)
	}
	return &sk, nil
}

func (s *SkillStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Skill, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, created_at FROM skills ORDER BY name LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing skills: %w", err)
	}
	defer rows.Close()

	skills := []model.Skill{}
	for rows.Next() {
		var sk model.Skill
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning skill row: %w", err)
		}
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating skill rows: %w", err)
	}
	return skills, nil
}

func (s *SkillStore) Update(ctx context.Context, skill *model.Skill) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE skills SET name = ? WHERE id = ?`,
		skill.Name, skill.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("name", fmt.Sprintf("skill %q already exists", skill.Name))
		}
		return fmt.Errorf("sqlite: updating skill %s: %w", skill.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of skill %s: %w", skill.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("skill", skill.ID)
	}
	return nil
}

// Delete removes the skill; user_skills rows referencing it go with it via
// ON DELETE CASCADE.
func (s *SkillStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting skill %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking deletion of skill %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("skill", id)
	}
	return nil
}
