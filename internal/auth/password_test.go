package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService uses the minimum bcrypt cost so tests run in
// milliseconds instead of ~250ms per hash.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

// =========================================================================
// HASH TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	// The salt is random per hash, so two hashes for the same password
	// must differ.
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestHash_72ByteBoundary(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt silently truncates beyond 72 bytes; anything longer is rejected.
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("Hash() should accept a 72-byte password, got: %v", err)
	}
	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
}

// =========================================================================
// VERIFY TESTS
// =========================================================================

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "correct-horse-battery-staple"); err != nil {
		t.Errorf("Verify() should return nil for a correct password, got: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("the-real-password")

	if err := ps.Verify(hash, "the-wrong-password"); err == nil {
		t.Fatal("Verify() should return an error for a wrong password")
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	if err := ps.Verify("not-a-valid-bcrypt-hash", "password"); err == nil {
		t.Fatal("Verify() should return an error for a garbage hash")
	}
}

// =========================================================================
// ROUND-TRIP TEST
// =========================================================================

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}
			if err := ps.Verify(hash, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}
