package core

import "github.com/google/uuid"

// NewID generates a unique identifier used for invocation correlation and
// for tool-use ids synthesized by adapters whose providers do not assign
// their own.
func NewID() string { return uuid.NewString() }
