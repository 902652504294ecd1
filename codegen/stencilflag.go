package codegen

import "github.com/xgrid-go/xgrid/ir"

// StencilFlag is the annotation codegen attaches to an Assignment whose
// target is a Stencil store (whatever its right-hand side reads): which grid
// the store targets, the boundary mask active at that point, and whether this is the
// "implicit in-place" case (the same grid is also read at time offset 0 —
// an update that needs a temp buffer under parallel execution). Kept in the
// Generator's own side table, never on the Assignment node itself — ir.go
// deliberately keeps Assignment immutable (see ir/statement.go).
type StencilFlag struct {
	TargetGrid   string
	BoundaryMask int
	Implicit     bool
}

// analyzeStencils is codegen's pre-visit pass: it walks body (recursing
// into If/While/For) tagging every stencil-store Assignment with a
// StencilFlag, and separately tracks, per grid variable name, the largest
// absolute time offset any Stencil node touching that grid uses — `+ 1` of
// that is the grid's required history depth (spec.md §4.4 "Time-history
// tracking"). Tracked per grid rather than once for the whole Definition
// since two grid parameters of one kernel may need different depths.
func analyzeStencils(body []ir.Statement) (map[*ir.Assignment]*StencilFlag, map[string]int) {
	flags := make(map[*ir.Assignment]*StencilFlag)
	maxAbsOffset := make(map[string]int)

	trackOffsets := func(e ir.Expression) {
		ir.WalkExpression(e, func(x ir.Expression) bool {
			if s, ok := x.(*ir.Stencil); ok {
				if n := absInt(s.TimeOffset); n > maxAbsOffset[s.GridVar.Name] {
					maxAbsOffset[s.GridVar.Name] = n
				}
			}
			return true
		})
	}

	var walkStmts func([]ir.Statement)
	walkStmts = func(stmts []ir.Statement) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *ir.Assignment:
				trackOffsets(n.Value)
				trackOffsets(n.Terminal)
				if stencil, ok := n.Terminal.(*ir.Stencil); ok {
					flags[n] = &StencilFlag{
						TargetGrid:   stencil.GridVar.Name,
						BoundaryMask: stencil.BoundaryMask,
						Implicit:     ir.ReadsGridAtNow(n.Value, stencil.GridVar.Name),
					}
				}
			case *ir.Evaluation:
				trackOffsets(n.Value)
			case *ir.Return:
				if n.Value != nil {
					trackOffsets(n.Value)
				}
			case *ir.If:
				trackOffsets(n.Cond)
				walkStmts(n.Body)
				walkStmts(n.Else)
			case *ir.While:
				trackOffsets(n.Cond)
				walkStmts(n.Body)
			case *ir.For:
				trackOffsets(n.Start)
				trackOffsets(n.End)
				trackOffsets(n.Step)
				walkStmts(n.Body)
			}
		}
	}
	walkStmts(body)
	return flags, maxAbsOffset
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
