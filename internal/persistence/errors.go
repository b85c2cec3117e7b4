package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a write collides with a uniqueness rule,
	// such as a second response for the same event and identity.
	ErrDuplicate = errors.New("persistence: duplicate record")
)

// DecodeError reports a stored document whose shape cannot be trusted.
type DecodeError struct {
	Document string
	Field    string
	Reason   string
	Err      error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("persistence: decode %s", e.Document)
	if e.Field != "" {
		msg += "." + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
