package grid

import "fmt"

// ShapeError reports a fill/read call whose cell count or element width
// does not match the grid it targets (spec.md §7).
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string { return fmt.Sprintf("grid: %s", e.Reason) }

func shapeErrorf(format string, args ...any) error {
	return &ShapeError{Reason: fmt.Sprintf(format, args...)}
}
