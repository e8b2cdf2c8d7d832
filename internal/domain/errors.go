// Package domain contains the core business entities for the product manager.
package domain

import "errors"

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

// ErrValidation is the kind shared by every input validation failure.
// Use errors.Is(err, ErrValidation) to tell user mistakes from storage failures.
var ErrValidation = errors.New("validation failed")

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email exists.
	ErrUserAlreadyExists = errors.New("user with this email already exists")

	// ErrUserInactive indicates the user account is disabled.
	ErrUserInactive = errors.New("user account is disabled")

	// ErrInvalidCredentials indicates authentication failed.
	// It deliberately does not say whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ===========================================
	// Credential Validation Errors
	// ===========================================

	// ErrCredentialsRequired indicates the email or password was empty.
	ErrCredentialsRequired = NewValidationError("credentials", "email and password are required")

	// ErrInvalidEmailFormat indicates the email failed the shape check.
	ErrInvalidEmailFormat = NewValidationError("email", "invalid email format")

	// ErrPasswordTooShort indicates the password is under 8 characters.
	ErrPasswordTooShort = NewValidationError("password", "password must be at least 8 characters long")

	// ErrPasswordTooWeak indicates a missing character class.
	ErrPasswordTooWeak = NewValidationError("password", "password must contain uppercase, lowercase, numbers, and symbols")

	// ===========================================
	// Product Validation Errors
	// ===========================================

	ErrProductNameRequired       = NewValidationError("name", "product name is required")
	ErrProductNameEmpty          = NewValidationError("name", "product name cannot be empty")
	ErrProductNameTooLong        = NewValidationError("name", "product name must be 100 characters or less")
	ErrProductDescriptionTooLong = NewValidationError("description", "product description must be 500 characters or less")
	ErrProductPriceRequired      = NewValidationError("price", "product price is required")
	ErrProductPriceInvalid       = NewValidationError("price", "product price must be a valid number")
	ErrProductPriceNotPositive   = NewValidationError("price", "product price must be greater than 0")
	ErrProductPriceTooHigh       = NewValidationError("price", "product price must be less than $999,999.99")
	ErrProductPricePrecision     = NewValidationError("price", "product price cannot have more than 2 decimal places")
	ErrProductStockNegative      = NewValidationError("stock", "product stock must be a non-negative integer")

	// ===========================================
	// Product Errors
	// ===========================================

	// ErrProductNotFound indicates the product does not exist or belongs to another user.
	ErrProductNotFound = errors.New("product not found")

	// ErrProductIDRequired indicates an operation was called without a product id.
	ErrProductIDRequired = NewValidationError("id", "product id is required")
)

// ValidationError is a user-facing input error attached to a field.
// Every ValidationError matches ErrValidation through errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is the ErrValidation kind.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
