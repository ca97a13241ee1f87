// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/tahmid/skillswap/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SkillKind distinguishes the two skill sets on a user.
type SkillKind string

const (
	SkillKindTeach SkillKind = "teach"
	SkillKindLearn SkillKind = "learn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	// ListBySkill returns users that have skillID in either skill set.
	ListBySkill(ctx context.Context, skillID string, opts ListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	// AddSkill and RemoveSkill mutate one element of a user's skill set.
	// AddSkill is idempotent; RemoveSkill returns NotFound if the skill is
	// not in the set.
	AddSkill(ctx context.Context, userID, skillID string, kind SkillKind) error
	RemoveSkill(ctx context.Context, userID, skillID string, kind SkillKind) error
	// ReplaceSkills swaps a user's entire skill set of the given kind.
	ReplaceSkills(ctx context.Context, userID string, skillIDs []string, kind SkillKind) error
}

type SkillRepository interface {
	// Create fails with apperror.ErrConflict if a skill with the same name
	// (case-insensitively) already exists.
	Create(ctx context.Context, skill *model.Skill) error
	GetByID(ctx context.Context, id string) (*model.Skill, error)
	// GetByName performs a case-insensitive lookup on the trimmed name.
	GetByName(ctx context.Context, name string) (*model.Skill, error)
	List(ctx context.Context, opts ListOptions) ([]model.Skill, error)
	Update(ctx context.Context, skill *model.Skill) error
	Delete(ctx context.Context, id string) error
}

// ConnectionRole restricts a per-user connection query to one side of the
// record, or neither.
type ConnectionRole string

const (
	RoleAny       ConnectionRole = "any"
	RoleRequester ConnectionRole = "requester"
	RoleRecipient ConnectionRole = "recipient"
)

type ConnectionRepository interface {
	Create(ctx context.Context, conn *model.Connection) error
	GetByID(ctx context.Context, id string) (*model.Connection, error)
	// GetByPair returns the connection between two users, checking both
	// directional orderings. Returns NotFound if no record exists.
	GetByPair(ctx context.Context, userA, userB string) (*model.Connection, error)
	// ListForUser returns connections where the user plays the given role,
	// optionally filtered by status (""= all), newest first.
	ListForUser(ctx context.Context, userID string, role ConnectionRole, status string) ([]model.Connection, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// ListConversation returns messages between two users in either
	// direction, newest first.
	ListConversation(ctx context.Context, userA, userB string, opts ListOptions) ([]model.Message, error)
	// CountUnread counts unread messages addressed to the user.
	CountUnread(ctx context.Context, recipientID string) (int, error)
}
