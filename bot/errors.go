package bot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedUpdate indicates an inbound payload that is neither a
	// text message nor a callback query.
	ErrUnsupportedUpdate = errors.New("bot: unsupported update shape")

	// ErrInvalidTimeFormat indicates free-text input that does not parse
	// under the HH:MM / HMM / H heuristics.
	ErrInvalidTimeFormat = errors.New("bot: invalid time format")
)

// DomainError carries a user-facing message for validation failures raised
// by collaborators mid-flow (e.g. a timesheet completed while the user was
// still answering prompts). Steps render Message instead of crashing the
// conversation.
type DomainError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause.
func (e *DomainError) Unwrap() error { return e.Err }
