// Package grid implements the runtime grid data model (component C5): a
// time-rotated, boundary-masked D-dimensional array that marshals to the
// fixed foreign-function record the generated C expects (spec.md §4.5/§6).
//
// Grounded on xgrid/xgrid/__init__.py (original_source)'s Grid class: same
// lifecycle (shape+dtype at construction, history grown on demand, a
// parallel boundary-mask array). The original indexes a single backing
// list of numpy arrays through a rotating time_idx counter; this port
// instead physically rotates a slice of flat byte buffers, because the
// foreign record (spec.md §6: `{ time_depth, shape, data, boundary_mask }`)
// carries no time_idx field — "now" must always be found at history[0] by
// whatever C code reads it.
package grid

import (
	"fmt"

	"github.com/xgrid-go/xgrid/typing"
)

// Grid is a host-side D-dimensional array with time history and a per-cell
// boundary mask.
type Grid struct {
	element  typing.Value
	shape    []int32
	elemSize int
	cells    int64

	history      [][]byte // history[0] = now, history[k] = k steps ago
	boundaryMask []int32
}

// New constructs a grid of the given shape and element type: history length
// 1 (zero-initialized), boundary mask zero-initialized (spec.md §4.5
// "Grid::new").
func New(shape []int32, element typing.Value) (*Grid, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("grid: shape must have at least one dimension")
	}
	cells := int64(1)
	for _, n := range shape {
		if n <= 0 {
			return nil, fmt.Errorf("grid: shape dimensions must be positive, got %d", n)
		}
		cells *= int64(n)
	}
	g := &Grid{
		element:      element,
		shape:        append([]int32(nil), shape...),
		elemSize:     element.Size(),
		cells:        cells,
		boundaryMask: make([]int32, cells),
	}
	g.history = [][]byte{make([]byte, cells*int64(g.elemSize))}
	return g, nil
}

func (g *Grid) Dimension() int { return len(g.shape) }

func (g *Grid) Shape() []int32 { return append([]int32(nil), g.shape...) }

func (g *Grid) Cells() int64 { return g.cells }

func (g *Grid) Element() typing.Value { return g.element }

func (g *Grid) HistoryDepth() int { return len(g.history) }

// Typing is the reference type this grid instantiates — the type a kernel's
// Signature names the corresponding Grid-typed parameter with.
func (g *Grid) Typing() *typing.Grid {
	return &typing.Grid{Element: g.element, Dimension: g.Dimension()}
}

// BoundaryAt returns the boundary mask label at a flat row-major index
// (spec.md §4.5 "grid.boundary_at"). idx uses the same axis-0-slowest
// linear convention the codegen's accessor and boundary-mask lookup use
// (codegen/accessor.go, codegen/stencilloop.go's linearIndexExpr).
func (g *Grid) BoundaryAt(idx int64) int32 { return g.boundaryMask[idx] }

// SetBoundaryAt sets the boundary mask label at a flat index — the one
// host-side mutation point for boundary conditions (spec.md §4.5).
func (g *Grid) SetBoundaryAt(idx int64, mask int32) { g.boundaryMask[idx] = mask }

// PrepareFor extends the history to at least depth buffers, newly appended
// ones zero-initialized, or truncates to exactly depth (spec.md §4.5:
// "extend history to at least depth buffers... truncate to exactly depth").
// The buffer at position 0 ("now") is never touched by either direction.
func (g *Grid) PrepareFor(depth int) {
	if depth < 1 {
		depth = 1
	}
	for len(g.history) < depth {
		g.history = append(g.history, make([]byte, g.cells*int64(g.elemSize)))
	}
	if len(g.history) > depth {
		g.history = g.history[:depth]
	}
}

// Rotate circularly shifts the history so the buffer that just received
// this call's freshly computed "now" state becomes "one step ago" for the
// next invocation, and the oldest (about to be stale) buffer is recycled
// into position 0, ready for the next kernel call to overwrite — no buffer
// is allocated or dropped (spec.md §4.5's rotate invariant).
//
// Grounded on the original's tick(), `self._time_idx = (self._time_idx + 1)
// % self._time_ttl` — a logical rotation of an index. This port performs
// the equivalent physical rotation of buffer pointers instead, since the
// fixed-layout foreign record has no time_idx slot to carry across the FFI
// boundary (spec.md §6).
func (g *Grid) Rotate() {
	if len(g.history) <= 1 {
		return
	}
	last := g.history[len(g.history)-1]
	copy(g.history[1:], g.history[:len(g.history)-1])
	g.history[0] = last
}
