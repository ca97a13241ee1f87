package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server — negligible for login, expensive for brute force.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification. The cost is a
// struct field so tests can inject the minimum cost instead of paying 250ms
// per hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a reduced cost.
// Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password with bcrypt. The output embeds the salt
// and cost, so it can be stored directly and later verified on its own.
//
// bcrypt silently truncates inputs beyond 72 bytes; we reject them instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash.
// Returns nil on a match. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
