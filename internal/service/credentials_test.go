package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/product-manager/internal/domain"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@x.com", true},
		{"first.last@sub.example.org", true},
		{"", false},
		{"plain", false},
		{"a@x", false},
		{"a b@x.com", false},
		{"@x.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			require.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		wantValid  bool
		wantErrors []string
	}{
		{
			name:      "strong",
			password:  "Abc12345!",
			wantValid: true,
		},
		{
			name:       "empty",
			password:   "",
			wantErrors: []string{"Password is required"},
		},
		{
			name:     "lowercase only",
			password: "abc",
			wantErrors: []string{
				"Password must be at least 8 characters long",
				"Password must contain at least one uppercase letter",
				"Password must contain at least one number",
				"Password must contain at least one special character",
			},
		},
		{
			name:       "missing symbol",
			password:   "Abcdefg1",
			wantErrors: []string{"Password must contain at least one special character"},
		},
		{
			name:       "non ascii letters do not count",
			password:   "ÄBCDEFG1!",
			wantErrors: []string{"Password must contain at least one lowercase letter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := ValidatePassword(tt.password)
			require.Equal(t, tt.wantValid, check.Valid)
			require.Equal(t, tt.wantErrors, check.Errors)
		})
	}
}

func TestCheckSignupEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"a@x.com", false},
		{"", true},
		{"@x.com", true},
		{"a@", true},
		{"a@@x.com", true},
		{"a@b@x.com", true},
		{"a..b@x.com", true},
		{"a@localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := checkSignupEmail(tt.email)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidEmailFormat)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCheckSignupPassword(t *testing.T) {
	require.NoError(t, checkSignupPassword("Abc12345!"))
	require.ErrorIs(t, checkSignupPassword("Ab1!"), domain.ErrPasswordTooShort)
	require.ErrorIs(t, checkSignupPassword("abcdefgh1!"), domain.ErrPasswordTooWeak)
	require.ErrorIs(t, checkSignupPassword("Abcdefgh!"), domain.ErrPasswordTooWeak)
}
