// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and delegate here; services validate, enforce the
// domain rules, and call the repository interfaces. Services return
// apperror values, never HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tahmid/skillswap/internal/apperror"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

const (
	MaxSkillNameLength = 100
	DefaultListLimit   = 20
	MaxListLimit       = 100
)

// SkillService handles the skill taxonomy and skill-token resolution.
type SkillService struct {
	repo   repository.SkillRepository
	logger *slog.Logger
}

func NewSkillService(repo repository.SkillRepository, logger *slog.Logger) *SkillService {
	return &SkillService{
		repo:   repo,
		logger: logger,
	}
}

// Create adds a new skill to the taxonomy. The name is trimmed; duplicates
// under case-insensitive comparison are rejected with a Conflict.
func (s *SkillService) Create(ctx context.Context, name string) (*model.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "skill name is required")
	}
	if len(name) > MaxSkillNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("skill name must be %d characters or less", MaxSkillNameLength))
	}

	skill := &model.Skill{Name: name}
	if err := s.repo.Create(ctx, skill); err != nil {
		return nil, err
	}

	s.logger.Info("skill created",
		slog.String("id", skill.ID),
		slog.String("name", skill.Name),
	)
	return skill, nil
}

// Resolve maps a user-supplied skill token to a canonical skill ID.
//
// A token that is already a syntactically valid skill ID is returned as-is;
// existence is not verified here, so a stale ID surfaces as NotFound at the
// point of use. Anything else is treated as a name: trimmed, looked up
// case-insensitively, and created on demand.
//
// Two concurrent resolutions of the same new name race to create it. The
// store's case-insensitive uniqueness constraint rejects the loser, and that
// rejection is absorbed: on Conflict the resolver re-fetches and returns the
// winner's ID. This is the only place a failure is retried transparently.
func (s *SkillService) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperror.ValidationFailed("skillId", "skill name or id is required")
	}

	if _, err := uuid.Parse(token); err == nil {
		return token, nil
	}

	if len(token) > MaxSkillNameLength {
		return "", apperror.ValidationFailed("skillId",
			fmt.Sprintf("skill name must be %d characters or less", MaxSkillNameLength))
	}

	existing, err := s.repo.GetByName(ctx, token)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return "", err
	}

	skill := &model.Skill{Name: token}
	createErr := s.repo.Create(ctx, skill)
	if createErr == nil {
		s.logger.Info("skill created on demand",
			slog.String("id", skill.ID),
			slog.String("name", skill.Name),
		)
		return skill.ID, nil
	}

	if errors.Is(createErr, apperror.ErrConflict) {
		// Lost the create race — another request inserted the same name
		// between our lookup and insert. The winner's record is canonical.
		winner, err := s.repo.GetByName(ctx, token)
		if err != nil {
			return "", fmt.Errorf("resolving skill %q after create conflict: %w", token, err)
		}
		return winner.ID, nil
	}

	return "", createErr
}

// ResolveAll resolves each token independently and concurrently, with no
// ordering guarantee between creations. All must succeed or the whole call
// fails. Result order matches input order.
func (s *SkillService) ResolveAll(ctx context.Context, tokens []string) ([]string, error) {
	ids := make([]string, len(tokens))

	g, ctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		g.Go(func() error {
			id, err := s.Resolve(ctx, token)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ids, nil
}

// Find resolves a token (ID or name) to an existing skill without creating
// one. Used for read paths like user discovery filters, where a miss should
// be a miss rather than a new taxonomy entry.
func (s *SkillService) Find(ctx context.Context, token string) (*model.Skill, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.ValidationFailed("skill", "skill name or id is required")
	}
	if _, err := uuid.Parse(token); err == nil {
		return s.repo.GetByID(ctx, token)
	}
	return s.repo.GetByName(ctx, token)
}

func (s *SkillService) GetByID(ctx context.Context, id string) (*model.Skill, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "skill ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves skills with pagination, ordered by name.
func (s *SkillService) List(ctx context.Context, limit, offset int) ([]model.Skill, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	skills, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list skills", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing skills: %w", err)
	}
	return skills, nil
}

// Rename changes a skill's name, subject to the same uniqueness rule as Create.
func (s *SkillService) Rename(ctx context.Context, id, name string) (*model.Skill, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "skill ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "skill name is required")
	}
	if len(name) > MaxSkillNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("skill name must be %d characters or less", MaxSkillNameLength))
	}

	skill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	skill.Name = name
	if err := s.repo.Update(ctx, skill); err != nil {
		return nil, err
	}

	s.logger.Info("skill renamed",
		slog.String("id", skill.ID),
		slog.String("name", skill.Name),
	)
	return skill, nil
}

func (s *SkillService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "skill ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("skill deleted", slog.String("id", id))
	return nil
}
