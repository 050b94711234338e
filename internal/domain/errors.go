package domain

import "fmt"

// The core surfaces every precondition failure as one of four typed errors so
// the transport layer can map them to status codes and the caller can read
// machine-checkable context (which bound was violated, by how much) without
// parsing message text.

// ValidationError reports an out-of-bound or malformed input value.
type ValidationError struct {
	Field  string  // logical field, e.g. "price", "days", "material_id"
	Reason string  // short machine-oriented reason, e.g. "below_baseline"
	Value  float64 // offending value, when numeric
	Min    float64 // violated lower bound, when applicable
	Max    float64 // violated upper bound, when applicable
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s (value=%v, bounds=[%v, %v])",
		e.Field, e.Reason, e.Value, e.Min, e.Max)
}

// StateConflictError reports an operation attempted against a project or bid
// in a state that does not permit it, including concurrent-transition losers.
type StateConflictError struct {
	Entity    string // "project" or "bid"
	ID        string
	Current   string // current state name
	Operation string // attempted operation
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: cannot %s %s %s in state %s",
		e.Operation, e.Entity, e.ID, e.Current)
}

// NotFoundError reports an unknown project, bid, or catalog reference.
type NotFoundError struct {
	Entity string // "project", "bid", "product", "subtype", ...
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// DependencyUnavailableError reports that an external collaborator (catalog
// store, commission config source) stayed unreachable after bounded retries
// and no fallback was available.
type DependencyUnavailableError struct {
	Dependency string
	Err        error
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("dependency %s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyUnavailableError) Unwrap() error {
	return e.Err
}
