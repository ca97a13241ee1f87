package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/tahmid/skillswap/internal/apperror"
	"github.com/tahmid/skillswap/internal/auth"
	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

const MinPasswordLength = 8

// AuthService handles account creation and credential checks.
//
// Two kinds of account exist: password accounts (registration form) and
// OAuth accounts (first Google login). The invariant is that a user has a
// password hash iff they have no OAuth provider — OAuth accounts can never
// log in with a password and vice versa.
type AuthService struct {
	users     repository.UserRepository
	skills    *SkillService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	skills *SkillService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		skills:    skills,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput is the payload for password registration. Teach and Learn
// hold skill tokens (names or IDs) resolved during registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Teach    []string
	Learn    []string
}

// Register creates a password account. The email must be unused (Conflict
// otherwise); skill tokens are resolved up front so a bad token fails the
// whole registration before the account exists. New accounts receive the
// one-time starter point grant.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxUserNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if len(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	teachIDs, err := s.skills.ResolveAll(ctx, in.Teach)
	if err != nil {
		return nil, err
	}
	learnIDs, err := s.skills.ResolveAll(ctx, in.Learn)
	if err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Points:            StarterPoints,
		FreePointsGranted: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.users.ReplaceSkills(ctx, user.ID, teachIDs, repository.SkillKindTeach); err != nil {
		return nil, err
	}
	if err := s.users.ReplaceSkills(ctx, user.ID, learnIDs, repository.SkillKindLearn); err != nil {
		return nil, err
	}

	user, err = s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("email", user.Email),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// Login checks email/password credentials and issues a token. A wrong
// password and an unknown email both report the same Validation error, so
// the response does not reveal which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("credentials", "invalid email or password")
		}
		return nil, err
	}

	if user.OAuthProvider != "" {
		return nil, apperror.ValidationFailed("credentials",
			fmt.Sprintf("this account uses %s login", user.OAuthProvider))
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.ValidationFailed("credentials", "invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGoogle handles the Google OAuth callback: first login
// creates an OAuth account (provider tag, no password hash, starter point
// grant); later logins just issue a token for the existing account.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	user, err := s.users.GetByEmail(ctx, gUser.Email)
	switch {
	case err == nil:
		if user.OAuthProvider == "" {
			// A password account already owns this email. Linking the two
			// would bypass the password, so keep them separate.
			return nil, apperror.Conflict("email", "email is already registered with a password")
		}
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Name:              gUser.Name,
			Email:             gUser.Email,
			OAuthProvider:     "google",
			Points:            StarterPoints,
			FreePointsGranted: true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user registered via google",
			slog.String("id", user.ID),
			slog.String("email", user.Email),
		)
	default:
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperror.ValidationFailed("email", "invalid email address")
	}
	return email, nil
}
