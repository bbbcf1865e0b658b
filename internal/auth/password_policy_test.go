package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "calcapi/internal/errors"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		reason   string
	}{
		{name: "empty", password: "", reason: ReasonPasswordRequired},
		{name: "too short", password: "Ab1", reason: ReasonMinimumLength},
		{name: "five characters", password: "Abcd1", reason: ReasonMinimumLength},
		{name: "no uppercase", password: "abcdef1", reason: ReasonMissingUppercase},
		{name: "no lowercase", password: "ABCDEF1", reason: ReasonMissingLowercase},
		{name: "no digit", password: "Abcdefg", reason: ReasonMissingDigit},
		{name: "short wins over classes", password: "abc", reason: ReasonMinimumLength},
		{name: "uppercase reported before digit", password: "abcdefg", reason: ReasonMissingUppercase},
		{name: "valid", password: "SecurePass123"},
		{name: "exactly six", password: "Abcde1"},
		{name: "unicode letters", password: "Ñandú12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}

			var verr *apperrors.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestValidatePassword_CountsCharactersNotBytes(t *testing.T) {
	// five runes, more than six bytes
	err := ValidatePassword("Ää1éé")

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ReasonMinimumLength, verr.Reason)
}

func TestValidatePassword_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, ValidatePassword("nouppercase1"), ValidatePassword("nouppercase1"))
	}
}
