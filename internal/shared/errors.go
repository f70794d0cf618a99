package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a record is not part of the loaded collection.
	ErrNotFound = errors.New("not found")
	// ErrSessionExpired matches any AuthError raised for an unauthorized response.
	ErrSessionExpired = errors.New("session expired")
	// ErrBusy is returned while the same action is still in flight.
	ErrBusy = errors.New("action already in progress")
	// ErrFormClosed occurs when a closed form is submitted.
	ErrFormClosed = errors.New("form is not open")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError reports a local field check failure. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// AuthError reports rejected credentials or an expired session.
type AuthError struct {
	Status  int
	Message string
	Expired bool
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Expired {
		return "session expired, please sign in again"
	}
	return "invalid credentials"
}

// Is lets errors.Is(err, ErrSessionExpired) match expired sessions.
func (e *AuthError) Is(target error) bool {
	return target == ErrSessionExpired && e.Expired
}

// NetworkError wraps a transport failure on a backend call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx backend response.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

// UserMessage converts any error into the short text shown to the user.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var (
		verr *ValidationError
		aerr *AuthError
		serr *ServerError
		nerr *NetworkError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &aerr):
		return aerr.Error()
	case errors.As(err, &serr):
		if serr.Message != "" {
			return serr.Message
		}
		return fallback
	case errors.As(err, &nerr):
		return fallback
	case errors.Is(err, ErrBusy), errors.Is(err, ErrFormClosed), errors.Is(err, ErrNotFound):
		return err.Error()
	default:
		return fallback
	}
}
