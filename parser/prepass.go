package parser

import (
	"go/ast"

	"golang.org/x/tools/go/ast/astutil"
)

// validatePragmaPlacement is the one general-purpose tree walk the parser
// needs before its recursive-descent lowering: it rejects a pragma call
// (xgrid.C/xgrid.Boundary/xgrid.Range) used anywhere other than the
// syntactic position its lowering expects — e.g. `x := xgrid.C(...)`,
// which tries to use C's non-existent return value, or a Range call that
// isn't the X of a range-for. astutil.Apply is used rather than a
// hand-rolled walker because the check needs the parent node, which
// ast.Inspect does not hand you directly (grounded on SPEC_FULL.md §2's
// parser entry).
func (p *Parser) validatePragmaPlacement(fn *ast.FuncDecl) error {
	var firstErr error
	astutil.Apply(fn.Body, func(c *astutil.Cursor) bool {
		if firstErr != nil {
			return false
		}
		call, ok := c.Node().(*ast.CallExpr)
		if !ok {
			return true
		}
		switch pragmaName(call) {
		case pragmaC, pragmaBoundary:
			if _, ok := c.Parent().(*ast.ExprStmt); !ok {
				firstErr = p.errorf(call, "%s(...) may only be used as a statement, not as a value", pragmaName(call))
				return false
			}
		case pragmaRange:
			rangeStmt, ok := c.Parent().(*ast.RangeStmt)
			if !ok || rangeStmt.X != call {
				firstErr = p.errorf(call, "Range(...) may only appear as the source of a range-for")
				return false
			}
		}
		return true
	}, nil)
	return firstErr
}
