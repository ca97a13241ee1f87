package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahmid/skillswap/internal/apperror"
	"github.com/tahmid/skillswap/internal/auth"
)

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *mockSkillRepo) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-test-secret-test-secret")
	require.NoError(t, err)

	users := newMockUserRepo()
	skillRepo := newMockSkillRepo()
	skills := NewSkillService(skillRepo, testLogger())
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	return NewAuthService(users, skills, tokens, passwords, testLogger()), users, skillRepo
}

// =========================================================================
// REGISTRATION TESTS
// =========================================================================

func TestRegister(t *testing.T) {
	svc, _, skillRepo := newTestAuthService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
		Teach:    []string{"Go", "SQL"},
		Learn:    []string{"Piano"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Alice", result.User.Name)
	assert.Equal(t, "alice@example.com", result.User.Email, "email is lowercased")
	assert.Empty(t, result.User.OAuthProvider)
	assert.NotEmpty(t, result.User.PasswordHash)
	assert.Len(t, result.User.TeachSkills, 2)
	assert.Len(t, result.User.LearnSkills, 1)

	// Skill names were created on demand during registration.
	_, err = skillRepo.GetByName(context.Background(), "go")
	assert.NoError(t, err)
}

func TestRegister_StarterPointsGrantedOnce(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, StarterPoints, result.User.Points)
	assert.True(t, result.User.FreePointsGranted)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "password1"}},
		{"missing email", RegisterInput{Name: "Alice", Password: "password1"}},
		{"malformed email", RegisterInput{Name: "Alice", Email: "not-an-email", Password: "password1"}},
		{"short password", RegisterInput{Name: "Alice", Email: "a@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	input := RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password1"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	input.Name = "Impostor"
	_, err = svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegister_BadSkillTokenFailsBeforeAccountExists(t *testing.T) {
	svc, users, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password1",
		Teach:    []string{"Go", "   "},
	})
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = users.GetByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "no half-registered account left behind")
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "ALICE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), "alice@example.com", "wrong")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "whatever")

	require.ErrorIs(t, wrongPassword, apperror.ErrValidation)
	require.ErrorIs(t, unknownEmail, apperror.ErrValidation)
	// Same message either way, so responses don't reveal registered emails.
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_OAuthAccountHasNoPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.LoginOrRegisterGoogle(context.Background(), &auth.GoogleUser{
		ID:    "g-123",
		Email: "alice@example.com",
		Name:  "Alice",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice@example.com", "anything at all")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// GOOGLE LOGIN TESTS
// =========================================================================

func TestLoginOrRegisterGoogle_FirstLoginCreatesAccount(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	gUser := &auth.GoogleUser{ID: "g-123", Email: "alice@example.com", Name: "Alice"}

	first, err := svc.LoginOrRegisterGoogle(context.Background(), gUser)
	require.NoError(t, err)
	assert.Equal(t, "google", first.User.OAuthProvider)
	assert.Empty(t, first.User.PasswordHash)
	assert.Equal(t, StarterPoints, first.User.Points)
	assert.True(t, first.User.FreePointsGranted)

	second, err := svc.LoginOrRegisterGoogle(context.Background(), gUser)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, StarterPoints, second.User.Points, "starter grant happens once")
}

func TestLoginOrRegisterGoogle_PasswordAccountOwnsEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.LoginOrRegisterGoogle(context.Background(), &auth.GoogleUser{
		ID:    "g-123",
		Email: "alice@example.com",
		Name:  "Alice",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
