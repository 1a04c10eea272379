package model

import (
	"errors"
	"fmt"
)

// ContextWindowOverflowError reports that a request exceeded the model's
// context window. Adapters translate provider-specific limit errors into
// this type so callers can recognize the condition without per-provider
// branching and respond by trimming history or failing cleanly.
type ContextWindowOverflowError struct {
	Provider string
	Err      error
}

func (e *ContextWindowOverflowError) Error() string {
	return fmt.Sprintf("context window overflow (%s): %v", e.Provider, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *ContextWindowOverflowError) Unwrap() error { return e.Err }

// IsContextWindowOverflow reports whether err is or wraps a context window
// overflow.
func IsContextWindowOverflow(err error) bool {
	var overflow *ContextWindowOverflowError
	return errors.As(err, &overflow)
}
