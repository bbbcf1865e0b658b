package auth

import (
	"unicode"
	"unicode/utf8"

	apperrors "calcapi/internal/errors"
)

// MinPasswordLength is the shortest password the policy accepts, in characters.
const MinPasswordLength = 6

// Policy rejection reasons.
const (
	ReasonPasswordRequired = "password required"
	ReasonMinimumLength    = "minimum length"
	ReasonMissingUppercase = "missing uppercase"
	ReasonMissingLowercase = "missing lowercase"
	ReasonMissingDigit     = "missing digit"
)

// ValidatePassword checks a plaintext password against the strength policy.
// Rules are evaluated in order and the first failing rule is reported.
func ValidatePassword(password string) error {
	if password == "" {
		return apperrors.NewValidationError(ReasonPasswordRequired, "Password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.NewValidationError(ReasonMinimumLength, "Password must contain at least 6 characters")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if !upper {
		return apperrors.NewValidationError(ReasonMissingUppercase, "Password must contain at least one uppercase letter")
	}
	if !lower {
		return apperrors.NewValidationError(ReasonMissingLowercase, "Password must contain at least one lowercase letter")
	}
	if !digit {
		return apperrors.NewValidationError(ReasonMissingDigit, "Password must contain at least one digit")
	}
	return nil
}
