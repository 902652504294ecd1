package codegen

import (
	"fmt"

	"github.com/xgrid-go/xgrid/typing"
)

// emitAccessor writes the inline accessor for one Grid type (spec.md §4.4
// item 2): `<GridType>_at(grid, space_offset_0, ..., space_offset_{D-1},
// time_offset) -> element*`.
//
// Axis order: the accessor's space-offset parameters are declared in the
// grid's natural dimension order (dim 0 first, dim D-1 last), matching the
// `shape[D]` array's own order from the foreign ABI record (spec.md §6:
// "row-major order where axis 0 varies slowest"). The linear index is
// built by walking dimensions 0..D-1 accumulating `idx = idx*shape[i] +
// off[i]`, which makes axis D-1 the contiguous one — so the stencil loop
// nest this accessor is called from (stencilloop.go's emitStencilLoop) always
// emits dim 0 as the outermost loop and dim D-1 as the innermost, keeping
// the innermost loop's memory access contiguous. This axis order is applied
// consistently everywhere a Grid's dimensions are iterated.
func (g *Generator) emitAccessor(grid *typing.Grid) {
	name := gridTypeName(grid)
	elem := cType(grid.Element)

	params := make([]string, 0, grid.Dimension+2)
	params = append(params, name+" g")
	for i := 0; i < grid.Dimension; i++ {
		params = append(params, fmt.Sprintf("int32_t off%d", i))
	}
	params = append(params, "int32_t t")

	g.w.Printf("static inline %s* %s_at(%s) {", elem, name, joinParams(params))
	unindent := g.w.Indent()

	for i := 0; i < grid.Dimension; i++ {
		g.w.Printf("int32_t i%d = off%d;", i, i)
		g.emitOverstepClamp(i)
	}

	g.w.Printf("int64_t linear = i0;")
	for i := 1; i < grid.Dimension; i++ {
		g.w.Printf("linear = linear * g.shape[%d] + i%d;", i, i)
	}

	g.w.Printf("int32_t history = -t;")
	g.w.Printf("return &g.data[history][linear];")

	unindent()
	g.w.Printf("}")
	g.w.Blank()
}

// emitOverstepClamp writes the in-place range-correction for axis i per the
// configured Options.Overstep policy (spec.md §4.4 item 3 / §8's boundary
// behaviors): none leaves an out-of-range index as a precondition
// violation, limit clamps to the nearest in-range index, wrap reduces modulo
// the shape.
func (g *Generator) emitOverstepClamp(i int) {
	switch g.opts.Overstep {
	case OverstepNone:
		// no check: out-of-range access is a precondition violation
	case OverstepLimit:
		g.w.Printf("if (i%d < 0) i%d = 0;", i, i)
		g.w.Printf("if (i%d >= g.shape[%d]) i%d = g.shape[%d] - 1;", i, i, i, i)
	case OverstepWrap:
		g.w.Printf("i%d = ((i%d %% g.shape[%d]) + g.shape[%d]) %% g.shape[%d];", i, i, i, i, i)
	}
}

func joinParams(params []string) string {
	out := params[0]
	for _, p := range params[1:] {
		out += ", " + p
	}
	return out
}
