package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrConfig is returned when required configuration (the signing secret) is missing.
	ErrConfig = errors.New("configuration error")
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a user with the same ID or email already exists.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("no token provided")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrStorage is returned when the user store cannot be read or written.
	ErrStorage = errors.New("storage error")
)

// Reasons wrapped together with ErrInvalidToken. They are kept for logging only;
// callers outside the auth layer should test for ErrInvalidToken.
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
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
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Validation and conflict
// messages are passed through since they only describe the caller's input;
// token failures collapse to a single message whatever the reason.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS")
	case errors.Is(err, ErrMissingToken):
		return NewHTTPError(http.StatusUnauthorized, "No token provided", "MISSING_TOKEN")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, "User not found", "USER_NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
