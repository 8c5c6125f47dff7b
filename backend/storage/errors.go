package storage

import "errors"

var (
	// ErrNotFound covers both missing and unowned records so that a
	// mutation against someone else's entry does not leak existence.
	ErrNotFound = errors.New("log not found")

	// ErrUnavailable means the chosen backend cannot be used; callers
	// should re-probe and fall back.
	ErrUnavailable = errors.New("storage backend unavailable")

	// ErrUnauthorized means no valid session is held.
	ErrUnauthorized = errors.New("not authenticated")

	// ErrInvalidFormat rejects an import bundle that is not JSON or
	// carries none of the recognized keys.
	ErrInvalidFormat = errors.New("invalid backup format")
)

// AuthError carries a form-level message for sign-in/sign-up failures.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
