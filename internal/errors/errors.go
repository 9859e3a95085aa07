package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrRouteNotFound is returned when a route does not exist or is not owned by the caller.
	ErrRouteNotFound = errors.New("route not found")
	// ErrInvalidRoute is returned when a route payload is not persistable.
	ErrInvalidRoute = errors.New("a route requires at least two waypoints")
	// ErrInvalidDay is returned when a day of week is outside 0-6.
	ErrInvalidDay = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")
	// ErrUserNotFound is returned when a user does not exist or is deleted.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive is returned when the user's active flag is false.
	ErrUserInactive = errors.New("user account is deactivated")
	// ErrInvalidToken is returned when a bearer token is malformed or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionExpired is returned when no server-side session backs the token.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserAlreadyExists is returned when registering an email already in use.
	ErrUserAlreadyExists = errors.New("email is already registered")
	// ErrIncorrectPassword is returned when the current password check fails.
	ErrIncorrectPassword = errors.New("current password is incorrect")
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

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors collapse
// to a generic 500 so store internals are never exposed to callers.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrRouteNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "ROUTE_NOT_FOUND")
	case errors.Is(err, ErrInvalidRoute):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ROUTE")
	case errors.Is(err, ErrInvalidDay):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_DAY")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrUserInactive):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "USER_INACTIVE")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrSessionExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "SESSION_EXPIRED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrIncorrectPassword):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INCORRECT_PASSWORD")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
