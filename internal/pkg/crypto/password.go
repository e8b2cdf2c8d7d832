package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 work factor for new password hashes.
	DefaultIterations = 100000

	// DerivedKeySize is the length in bytes of a derived password key.
	DerivedKeySize = 32
)

// ErrInvalidHash indicates a stored password hash cannot be decoded.
var ErrInvalidHash = errors.New("invalid password hash")

// PasswordHasher derives and verifies PBKDF2-HMAC-SHA256 password hashes.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher creates a hasher with the given iteration count.
// A non-positive count selects DefaultIterations.
func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &PasswordHasher{iterations: iterations}
}

// Iterations returns the configured work factor.
func (h *PasswordHasher) Iterations() int {
	return h.iterations
}

// Derive returns the raw derived key for password and salt.
func (h *PasswordHasher) Derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, h.iterations, DerivedKeySize, sha256.New)
}

// Hash generates a fresh salt and returns the hex-encoded hash with it.
func (h *PasswordHasher) Hash(password string) (hashHex string, salt []byte, err error) {
	salt, err = GenerateSalt()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(h.Derive(password, salt)), salt, nil
}

// Verify recomputes the hash for password with salt and compares it to the
// stored hex hash in constant time.
func (h *PasswordHasher) Verify(password string, salt []byte, storedHex string) (bool, error) {
	stored, err := hex.DecodeString(storedHex)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return ConstantTimeEqual(h.Derive(password, salt), stored), nil
}

// ConstantTimeEqual reports whether a and b are equal without leaking the
// position of the first differing byte. Slices of different length compare
// unequal immediately.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
