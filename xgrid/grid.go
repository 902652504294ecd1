package xgrid

import (
	"github.com/xgrid-go/xgrid/grid"
	"github.com/xgrid-go/xgrid/typing"
)

// Grid1 through Grid4 are annotation-only marker types: the real Go
// syntax spec.md's `Grid(T, D)` is spelled with (SPEC_FULL.md §0's
// "Host-language surface"). `typing.ParseAnnotation` reads the dimension
// off the type name's numeric suffix and the element off the generic
// argument; these types are never instantiated to hold data — the actual
// runtime value behind a Grid-typed kernel parameter is always the
// *grid.Grid NewGrid builds.
type Grid1[T any] struct{}
type Grid2[T any] struct{}
type Grid3[T any] struct{}
type Grid4[T any] struct{}

// Grid is the runtime grid value (package grid's implementation of
// component C5), re-exported so callers driving kernels through this
// package never need to import "github.com/xgrid-go/xgrid/grid" directly.
type Grid = grid.Grid

// NewGrid constructs a Grid of shape holding a Number element — the
// runtime counterpart of a kernel parameter annotated GridD[T], T
// inferred from the generic instantiation the caller writes
// (NewGrid[float64](nx, ny) for a Grid2[float64] parameter).
func NewGrid[T typing.Number](shape ...int32) (*Grid, error) {
	return grid.New(shape, elementType[T]())
}

func elementType[T typing.Number]() typing.Value {
	var zero T
	switch any(zero).(type) {
	case int8:
		return typing.Int{WidthBytes: 1}
	case int16:
		return typing.Int{WidthBytes: 2}
	case int32:
		return typing.Int{WidthBytes: 4}
	case int64:
		return typing.Int{WidthBytes: 8}
	case float32:
		return typing.Float{WidthBytes: 4}
	case float64:
		return typing.Float{WidthBytes: 8}
	default:
		panic("xgrid: unsupported grid element type")
	}
}

// Shape and Dimension are the host spelling of spec.md §4.3's grid
// introspection builtins (parser/call.go's resolveShape/resolveDimension
// resolve calls to these names structurally; these definitions exist so a
// kernel source file referencing xgrid.Shape/xgrid.Dimension is itself
// valid, vet-clean Go, even though the compiler never actually calls
// them — a kernel's own xgrid.Shape(u, 0) is lowered straight to IR).
func Shape(g *Grid, dim int32) int32 { return g.Shape()[dim] }

func Dimension(g *Grid) int32 { return int32(g.Dimension()) }
