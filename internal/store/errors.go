package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned for operations that need a signed-in user
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStaleResult is returned when a response arrived after the state it
	// belonged to was reset or superseded; the result was not applied.
	ErrStaleResult = errors.New("result discarded: state changed while the request was in flight")
	// ErrNotConfirmed is returned when the user declined a destructive action
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrNoChanges is returned when applying a draft identical to the selection
	ErrNoChanges = errors.New("no changes to apply")
)

// ValidationError is a client-side gate failure. It never reaches the network.
type ValidationError struct {
	Reason    string
	Fields    []string
	Remaining int
}

func (e *ValidationError) Error() string {
	switch {
	case e.Remaining > 0:
		return fmt.Sprintf("%s (%d remaining)", e.Reason, e.Remaining)
	case len(e.Fields) > 0:
		return fmt.Sprintf("%s: %v", e.Reason, e.Fields)
	default:
		return e.Reason
	}
}

// IsValidation reports whether err is a client-side gate failure
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
