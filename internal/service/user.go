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

const (
	MaxUserNameLength = 100
	// StarterPoints is granted exactly once, at account creation.
	StarterPoints = 10
)

// UserService handles profiles and skill-set membership. Account creation
// and credentials live in AuthService; this service covers everything that
// happens to a user after they exist.
type UserService struct {
	users  repository.UserRepository
	skills *SkillService
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, skills *SkillService, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		skills: skills,
		logger: logger,
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// List returns users for discovery, optionally filtered to those holding a
// given skill (by ID or name) in either set. An unknown skill filter yields
// an empty page rather than creating a taxonomy entry.
func (s *UserService) List(ctx context.Context, limit, offset int, skillToken string) ([]model.User, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	opts := repository.ListOptions{Limit: limit, Offset: offset}

	if skillToken = strings.TrimSpace(skillToken); skillToken != "" {
		skill, err := s.skills.Find(ctx, skillToken)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return []model.User{}, nil
			}
			return nil, err
		}
		return s.users.ListBySkill(ctx, skill.ID, opts)
	}

	return s.users.List(ctx, opts)
}

// ProfileUpdate carries optional profile changes. Nil slices leave the
// corresponding skill set untouched; empty slices clear it.
type ProfileUpdate struct {
	Name  *string
	Teach []string
	Learn []string
}

// UpdateProfile applies the given changes. Skill tokens are resolved
// (created on demand) before any set is replaced, so a resolution failure
// leaves both sets unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name is required")
		}
		if len(name) > MaxUserNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
		}
		user.Name = name
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	teachIDs, learnIDs, err := s.resolveSets(ctx, upd.Teach, upd.Learn)
	if err != nil {
		return nil, err
	}
	if upd.Teach != nil {
		if err := s.users.ReplaceSkills(ctx, userID, teachIDs, repository.SkillKindTeach); err != nil {
			return nil, err
		}
	}
	if upd.Learn != nil {
		if err := s.users.ReplaceSkills(ctx, userID, learnIDs, repository.SkillKindLearn); err != nil {
			return nil, err
		}
	}

	s.logger.Info("profile updated", slog.String("id", userID))
	return s.users.GetByID(ctx, userID)
}

// AddSkill resolves the token (name or ID) and adds the resulting skill to
// one of the user's sets. A token that is a stale skill ID fails NotFound
// here, on the existence check the resolver itself skips.
func (s *UserService) AddSkill(ctx context.Context, userID, token string, kind repository.SkillKind) (*model.User, error) {
	skillID, err := s.skills.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := s.skills.GetByID(ctx, skillID); err != nil {
		return nil, err
	}

	if err := s.users.AddSkill(ctx, userID, skillID, kind); err != nil {
		return nil, err
	}

	s.logger.Info("skill added to user",
		slog.String("user", userID),
		slog.String("skill", skillID),
		slog.String("kind", string(kind)),
	)
	return s.users.GetByID(ctx, userID)
}

// RemoveSkill removes a skill from one of the user's sets by skill ID.
func (s *UserService) RemoveSkill(ctx context.Context, userID, skillID string, kind repository.SkillKind) (*model.User, error) {
	skillID = strings.TrimSpace(skillID)
	if skillID == "" {
		return nil, apperror.ValidationFailed("skillId", "skill ID is required")
	}

	if err := s.users.RemoveSkill(ctx, userID, skillID, kind); err != nil {
		return nil, err
	}

	s.logger.Info("skill removed from user",
		slog.String("user", userID),
		slog.String("skill", skillID),
		slog.String("kind", string(kind)),
	)
	return s.users.GetByID(ctx, userID)
}

// resolveSets resolves both skill lists before either is applied.
func (s *UserService) resolveSets(ctx context.Context, teach, learn []string) ([]string, []string, error) {
	teachIDs, err := s.skills.ResolveAll(ctx, teach)
	if err != nil {
		return nil, nil, err
	}
	learnIDs, err := s.skills.ResolveAll(ctx, learn)
	if err != nil {
		return nil, nil, err
	}
	return teachIDs, learnIDs, nil
}
