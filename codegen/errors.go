package codegen

import "fmt"

// CodegenError is raised for an invariant violation discovered while
// emitting C for a Definition (spec.md §7): the one case this port actually
// triggers is an implicit in-place stencil assignment compiled under a
// serial (non-parallel) configuration, which has no aliasing hazard to
// guard against and would only add a wasted temp-buffer copy.
type CodegenError struct {
	Kernel string
	Reason string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("codegen: %s: %s", e.Kernel, e.Reason)
}
