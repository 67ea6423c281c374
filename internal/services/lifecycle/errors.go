package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the request id is unknown.
	ErrNotFound = errors.New("lifecycle: request not found")

	// ErrForbidden means the acting user is not on the request, or is the
	// wrong side for this particular transition.
	ErrForbidden = errors.New("lifecycle: actor not allowed")

	// ErrInvalidTransition means the current status does not permit the
	// requested target. A racing writer that loses the conditional update
	// gets this too.
	ErrInvalidTransition = errors.New("lifecycle: invalid status transition")
)

// ValidationError reports a missing or malformed creation field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lifecycle: invalid %s: %s", e.Field, e.Reason)
}
