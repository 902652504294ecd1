package typing

import "fmt"

// TypeSystemError is raised by ParseAnnotation and by struct construction
// when a host-language type spec cannot be turned into an internal Type:
// an unknown primitive name, a struct with a non-Value field, or an
// illegally nested reference (spec.md §7).
type TypeSystemError struct {
	Reason string
}

func (e *TypeSystemError) Error() string {
	return fmt.Sprintf("bad type annotation: %s", e.Reason)
}

func badAnnotation(format string, args ...any) error {
	return &TypeSystemError{Reason: fmt.Sprintf(format, args...)}
}
