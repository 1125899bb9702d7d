package routing

import (
	"errors"
	"fmt"
)

// Common route table errors that can be checked with errors.Is().
var (
	// ErrDuplicatePattern is returned when two routes declare the same
	// pattern (after normalization).
	ErrDuplicatePattern = errors.New("duplicate route pattern")

	// ErrInvalidPattern is returned when a pattern is empty or does not
	// start with '/'.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrMissingService is returned when a route does not name a backend
	// service.
	ErrMissingService = errors.New("route is missing a service")

	// ErrEmptyTable is returned when a table is built with no routes.
	ErrEmptyTable = errors.New("route table has no routes")
)

// DuplicatePatternError is returned when two routes would be ambiguous for
// the same set of paths.
type DuplicatePatternError struct {
	// Pattern is the pattern as declared on the second route.
	Pattern string

	// First is the pattern as declared on the route it collides with.
	First string
}

// Error implements the error interface.
func (e *DuplicatePatternError) Error() string {
	if e.Pattern == e.First {
		return fmt.Sprintf("duplicate route pattern %q", e.Pattern)
	}
	return fmt.Sprintf("duplicate route pattern %q (collides with %q)", e.Pattern, e.First)
}

// Is implements error matching for errors.Is().
func (e *DuplicatePatternError) Is(target error) bool {
	return target == ErrDuplicatePattern
}

// InvalidPatternError is returned when a route pattern cannot be parsed.
type InvalidPatternError struct {
	// Pattern is the offending pattern.
	Pattern string

	// Reason describes why the pattern was rejected.
	Reason string
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Pattern, e.Reason)
}

// Is implements error matching for errors.Is().
func (e *InvalidPatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}
