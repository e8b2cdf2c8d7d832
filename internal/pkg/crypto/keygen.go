// Package crypto provides cryptographic utilities for the product manager.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// SaltSize is the length in bytes of a password salt.
	SaltSize = 16

	// TokenSize is the length in bytes of a session token before hex encoding.
	TokenSize = 32

	// UserIDPrefix and ProductIDPrefix tag generated record ids.
	UserIDPrefix    = "user_"
	ProductIDPrefix = "product_"
)

// Key generation errors
var (
	// ErrInvalidToken indicates a session token is malformed or wrong length.
	ErrInvalidToken = errors.New("invalid token: must be 64 hex characters (32 bytes)")
)

// GenerateSalt returns SaltSize random bytes.
func GenerateSalt() ([]byte, error) {
	return randomBytes(SaltSize)
}

// GenerateSessionToken returns 32 random bytes as a 64-character hex string.
func GenerateSessionToken() (string, error) {
	b, err := randomBytes(TokenSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ParseToken decodes a hex session token, checking its length. Surrounding
// whitespace makes the token invalid.
func ParseToken(token string) ([]byte, error) {
	if len(token) != TokenSize*2 {
		return nil, ErrInvalidToken
	}

	b, err := hex.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return b, nil
}

// NewUserID returns a fresh user id.
func NewUserID() string {
	return UserIDPrefix + uuid.NewString()
}

// NewProductID returns a fresh product id.
func NewProductID() string {
	return ProductIDPrefix + uuid.NewString()
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
