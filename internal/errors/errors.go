package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrDuplicateKey is returned when a username or email is already registered.
	ErrDuplicateKey = errors.New("username or email already taken")
	// ErrAuthenticationFailed is returned for any bad credential pair.
	// The message never says which half of the pair was wrong.
	ErrAuthenticationFailed = errors.New("invalid username or password")
	// ErrInvalidToken is returned when a token fails signature, expiry or class checks.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUserNotFound is returned when a user lookup has no match.
	ErrUserNotFound = errors.New("user not found")
	// ErrCalculationNotFound is returned when a calculation does not exist for the caller.
	ErrCalculationNotFound = errors.New("calculation not found")
)

// ValidationError is a caller-side input error carrying a short machine
// reason and a human readable message.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Reason
}

// NewValidationError creates a validation error.
func NewValidationError(reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Reason     string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Reason: e.Reason,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors are
// matched with errors.Is / errors.As.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpErr := NewHTTPError(http.StatusBadRequest, validationErr.Error(), "VALIDATION_ERROR")
		httpErr.Reason = validationErr.Reason
		return httpErr
	case errors.Is(err, ErrDuplicateKey):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateKey.Error(), "DUPLICATE_KEY")
	case errors.Is(err, ErrAuthenticationFailed):
		return NewHTTPError(http.StatusUnauthorized, "Invalid username or password", "AUTHENTICATION_FAILED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrCalculationNotFound):
		return NewHTTPError(http.StatusNotFound, ErrCalculationNotFound.Error(), "CALCULATION_NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
