package chat

import (
	"context"
	"errors"
	"fmt"
)

// ProcessingError wraps any failure that aborts a message exchange.
type ProcessingError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *ProcessingError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("process message: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("process message: %s (session=%s): %v", e.Op, e.SessionID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// IsTimeout reports whether err came from the completion deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
