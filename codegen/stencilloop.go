package codegen

import (
	"fmt"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// emitStencilLoop implements spec.md §4.4's "Kernel body emission" for a
// stencil-tagged Assignment: a perfect D-deep loop nest over the target
// grid's shape, a boundary-mask-guarded store inside, an optional
// collapse(D) parallel-for pragma, and the implicit-in-place special case.
func (g *Generator) emitStencilLoop(n *ir.Assignment, stencil *ir.Stencil, flag *StencilFlag) error {
	grid := stencil.GridVar.Type.(*typing.Grid)
	gridName := stencil.GridVar.Name
	dim := grid.Dimension

	if flag.Implicit && flag.BoundaryMask == 0 {
		if !g.opts.Parallel {
			return &CodegenError{Kernel: g.kernel, Reason: fmt.Sprintf(
				"grid %q is updated in place from its own current value; this needs a temp-buffer-plus-barrier split that only makes sense under parallel execution (enable Options.Parallel or restructure the kernel to write a separate output grid)", gridName)}
		}
		g.emitImplicitInPlace(n, stencil, flag, grid, gridName, dim)
		return nil
	}

	if g.opts.Parallel {
		g.w.Printf("#pragma omp parallel for collapse(%d)", dim)
	}
	unindents := g.openLoopNest(gridName, dim)
	g.emitBoundaryGuardedStore(n.Value, stencil, flag.BoundaryMask, gridName, dim)
	closeLoopNest(g.w, unindents)
	return nil
}

// openLoopNest emits dim nested `for` headers over gridName's shape, axis 0
// outermost through axis D-1 innermost (see accessor.go's axis-order
// comment for why this ordering keeps the innermost loop's memory access
// contiguous), and returns the dedent functions in open order.
func (g *Generator) openLoopNest(gridName string, dim int) []func() {
	unindents := make([]func(), dim)
	for i := 0; i < dim; i++ {
		g.w.Printf("for (int32_t i%d = 0; i%d < %s.shape[%d]; i%d++) {", i, i, gridName, i, i)
		unindents[i] = g.w.Indent()
	}
	return unindents
}

func closeLoopNest(w *Writer, unindents []func()) {
	for i := len(unindents) - 1; i >= 0; i-- {
		unindents[i]()
		w.Printf("}")
	}
}

func (g *Generator) emitBoundaryGuardedStore(value ir.Expression, stencil *ir.Stencil, mask int, gridName string, dim int) {
	linear := linearIndexExpr(gridName, dim)
	g.w.Printf("if (%s.boundary_mask[%s] == %d) {", gridName, linear, mask)
	unindent := g.w.Indent()
	g.w.Printf("%s = %s;", g.emitExpr(stencil), g.emitExpr(value))
	unindent()
	g.w.Printf("}")
}

// linearIndexExpr builds the same row-major, axis-0-slowest linear index
// the grid accessor computes (accessor.go's emitAccessor) so the
// boundary_mask lookup here and the element lookup inside the accessor
// agree on which cell "index idx" means.
func linearIndexExpr(gridName string, dim int) string {
	expr := "i0"
	for i := 1; i < dim; i++ {
		expr = fmt.Sprintf("((%s) * %s.shape[%d] + i%d)", expr, gridName, i, i)
	}
	return expr
}

// emitImplicitInPlace implements spec.md §4.4's "Implicit in-place case": a
// thread-shared temporary of the grid's shape, a compute-into-temp loop and
// a copy-back loop separated by a barrier, both inside one parallel region.
// The temporary is one static buffer per emitted call site, grown with
// realloc whenever a grid with more cells arrives and otherwise reused
// across invocations rather than malloc'd and freed every call.
func (g *Generator) emitImplicitInPlace(n *ir.Assignment, stencil *ir.Stencil, flag *StencilFlag, grid *typing.Grid, gridName string, dim int) {
	elem := cType(grid.Element)
	tmp := fmt.Sprintf("__%s_tmp", gridName)

	g.w.Printf("{")
	unindentBlock := g.w.Indent()

	g.w.Printf("static %s* %s = NULL;", elem, tmp)
	g.w.Printf("static size_t %s_cap = 0;", tmp)
	g.w.Printf("size_t %s_count = 1;", tmp)
	for i := 0; i < dim; i++ {
		g.w.Printf("%s_count *= (size_t)%s.shape[%d];", tmp, gridName, i)
	}
	g.w.Printf("if (%s_count > %s_cap) {", tmp, tmp)
	unindentRealloc := g.w.Indent()
	g.w.Printf("%s = (%s*)realloc(%s, %s_count * sizeof(%s));", tmp, elem, tmp, tmp, elem)
	g.w.Printf("%s_cap = %s_count;", tmp, tmp)
	unindentRealloc()
	g.w.Printf("}")

	g.w.Printf("#pragma omp parallel")
	g.w.Printf("{")
	unindentParallel := g.w.Indent()

	g.w.Printf("#pragma omp for collapse(%d)", dim)
	unindentsCompute := g.openLoopNest(gridName, dim)
	linear := linearIndexExpr(gridName, dim)
	g.w.Printf("if (%s.boundary_mask[%s] == %d) {", gridName, linear, flag.BoundaryMask)
	unindentComputeIf := g.w.Indent()
	g.w.Printf("%s[%s] = %s;", tmp, linear, g.emitExpr(n.Value))
	unindentComputeIf()
	g.w.Printf("}")
	closeLoopNest(g.w, unindentsCompute)

	g.w.Printf("#pragma omp barrier")

	g.w.Printf("#pragma omp for collapse(%d)", dim)
	unindentsCopy := g.openLoopNest(gridName, dim)
	g.w.Printf("if (%s.boundary_mask[%s] == %d) {", gridName, linear, flag.BoundaryMask)
	unindentCopyIf := g.w.Indent()
	g.w.Printf("%s = %s[%s];", g.emitExpr(stencil), tmp, linear)
	unindentCopyIf()
	g.w.Printf("}")
	closeLoopNest(g.w, unindentsCopy)

	unindentParallel()
	g.w.Printf("}")

	unindentBlock()
	g.w.Printf("}")
}
