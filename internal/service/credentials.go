package service

import (
	"regexp"
	"strings"

	"github.com/prn-tf/product-manager/internal/domain"
)

const (
	// MinPasswordLength is the minimum password length of the secure authenticator.
	MinPasswordLength = 8

	// MinSimplePasswordLength is the minimum password length of the demo authenticators.
	MinSimplePasswordLength = 6

	// passwordSymbols are the characters that satisfy the symbol rule.
	passwordSymbols = `!@#$%^&*(),.?":{}|<>`
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PasswordCheck is the outcome of ValidatePassword.
type PasswordCheck struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

// ValidateEmail reports whether the address looks like local@domain.tld.
func ValidateEmail(email string) bool {
	return email != "" && emailPattern.MatchString(email)
}

// ValidatePassword lists every strength rule the password breaks.
func ValidatePassword(password string) PasswordCheck {
	if password == "" {
		return PasswordCheck{Errors: []string{"Password is required"}}
	}

	var errs []string
	classes := passwordClasses(password)

	if len(password) < MinPasswordLength {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if !classes.upper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !classes.lower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !classes.digit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !classes.symbol {
		errs = append(errs, "Password must contain at least one special character")
	}

	return PasswordCheck{Valid: len(errs) == 0, Errors: errs}
}

type charClasses struct {
	lower, upper, digit, symbol bool
}

// passwordClasses records which character classes occur. Only ASCII letters
// and digits count, matching the character ranges of the strength rules.
func passwordClasses(password string) charClasses {
	var c charClasses
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= '0' && r <= '9':
			c.digit = true
		case strings.ContainsRune(passwordSymbols, r):
			c.symbol = true
		}
	}
	return c
}

// checkSignupEmail applies the structural email rules of the secure signup.
func checkSignupEmail(email string) error {
	if email == "" ||
		strings.HasPrefix(email, "@") ||
		strings.HasSuffix(email, "@") ||
		strings.Contains(email, "..") ||
		strings.Count(email, "@") != 1 {
		return domain.ErrInvalidEmailFormat
	}

	local, host, _ := strings.Cut(email, "@")
	if local == "" || host == "" || !strings.Contains(host, ".") {
		return domain.ErrInvalidEmailFormat
	}
	return nil
}

// checkSignupPassword applies the length and character class rules.
func checkSignupPassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	c := passwordClasses(password)
	if !c.lower || !c.upper || !c.digit || !c.symbol {
		return domain.ErrPasswordTooWeak
	}
	return nil
}

// checkPasswordStrength turns a failed ValidatePassword into a validation error.
func checkPasswordStrength(password string) error {
	check := ValidatePassword(password)
	if check.Valid {
		return nil
	}
	return domain.NewValidationError("password", strings.Join(check.Errors, "; "))
}
