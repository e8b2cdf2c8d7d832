// Package service provides the authentication and product business logic.
package service

import (
	"errors"

	"github.com/prn-tf/product-manager/internal/domain"
)

// Common service errors.
var (
	// Session errors
	ErrNotAuthenticated = errors.New("user not authenticated")

	// Credential errors
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrPasswordsRequired        = domain.NewValidationError("password", "current password and new password are required")
	ErrInvalidEmailAddress      = domain.NewValidationError("email", "invalid email address")
	ErrSimplePasswordTooShort   = domain.NewValidationError("password", "password must be at least 6 characters")

	// Demo authenticator errors
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserExists      = errors.New("user already exists")

	// Product errors
	ErrSearchQueryRequired = domain.NewValidationError("query", "search query cannot be null or undefined")

	// General errors
	ErrInternalError = errors.New("internal error")
)
