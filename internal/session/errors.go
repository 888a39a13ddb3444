package session

import (
	"errors"
	"fmt"

	"github.com/thesisgrey/greylit/internal/workflow"
)

// Sentinel errors surfaced to controllers for user-facing translation.
var (
	// ErrNotFound reports a session ID with no row.
	ErrNotFound = errors.New("session: not found")

	// ErrNotOwner reports an actor that does not own the session. Only
	// owners may read or mutate their sessions.
	ErrNotOwner = errors.New("session: actor is not the owner")

	// ErrConcurrentModification reports a lost optimistic-concurrency
	// race. The caller should reload the session and retry against
	// fresh state rather than reapplying blindly.
	ErrConcurrentModification = errors.New("session: concurrent modification, reload and retry")
)

// ValidationError reports a field value violating its bounds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("session: invalid %s: %s", e.Field, e.Reason)
}

// ImmutableFieldError reports an edit blocked by the current status.
// Title and description are frozen once searches have started.
type ImmutableFieldError struct {
	Field  string
	Status workflow.Status
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("session: %s cannot be edited in status %q; editing is only allowed in draft or strategy_ready", e.Field, e.Status)
}
