package chat

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session is required but absent.
var ErrSessionNotFound = errors.New("session not found")

// StorageError reports a failure of the persistence layer.
type StorageError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *StorageError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s session=%s: %v", e.Op, e.SessionID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err unless it is nil.
func NewStorageError(op, sessionID string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, SessionID: sessionID, Err: err}
}

// IsStorageError reports whether err carries a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
