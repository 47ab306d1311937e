package session

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict means another session currently holds the sink.
	ErrConflict = errors.New("session conflict")
	// ErrMissingID is returned for requests without a session id.
	ErrMissingID = errors.New("session id required")
	// ErrUnrecognized means the sink holds no session for the request.
	ErrUnrecognized = errors.New("no active session")
)

// ConflictError carries the id of the session that holds the sink.
type ConflictError struct {
	CurrentID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("session conflict: %s is active", e.CurrentID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// APIError represents an unexpected response from the sink.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sink error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("sink error (%d)", e.Status)
}
