package parser

import (
	"go/ast"
	"go/token"
	"strconv"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// resolveStencilStore lifts an assignment's left-hand side subscript to a
// Stencil(store) terminal. Explicit time offsets are rejected on a store —
// a write always targets "now" (spec.md's examples never store to a past
// step, and there is no sensible interpretation of one).
func (p *Parser) resolveStencilStore(base ast.Expr, indices []ast.Expr, timeArg ast.Expr) (ir.Expression, error) {
	if timeArg != nil {
		return nil, p.errorf(timeArg, "a stencil store cannot target a past time step")
	}
	return p.resolveStencil(base, indices, nil, ir.Store)
}

// lowerStencilLoad lifts a read-context subscript against a Grid identifier
// to a Stencil(load) expression, handling both `grid[i1,...,iD]` and the
// explicit-time-offset form `grid[i1,...,iD][t]` (spec.md §4.3 rules 1-2).
func (p *Parser) lowerStencilLoad(e ast.Expr) (ir.Expression, error) {
	switch idx := e.(type) {
	case *ast.IndexListExpr:
		return p.resolveStencil(idx.X, idx.Indices, nil, ir.Load)

	case *ast.IndexExpr:
		if name, ok := identName(idx.X); ok {
			if _, isGrid := p.isGridVar(name); isGrid {
				return p.resolveStencil(idx.X, []ast.Expr{idx.Index}, nil, ir.Load)
			}
		}
		switch inner := idx.X.(type) {
		case *ast.IndexExpr:
			return p.resolveStencil(inner.X, []ast.Expr{inner.Index}, idx.Index, ir.Load)
		case *ast.IndexListExpr:
			return p.resolveStencil(inner.X, inner.Indices, idx.Index, ir.Load)
		default:
			return nil, p.unsupported(e)
		}

	default:
		return nil, p.unsupported(e)
	}
}

func (p *Parser) resolveStencil(baseExpr ast.Expr, spaceArgs []ast.Expr, timeArg ast.Expr, ctx ir.StencilContext) (ir.Expression, error) {
	name, ok := identName(baseExpr)
	if !ok {
		return nil, p.errorf(baseExpr, "a stencil subscript base must be a plain grid identifier")
	}
	v, ok := p.lookupLocal(name)
	if !ok {
		return nil, p.errorf(baseExpr, "undefined name %q", name)
	}
	grid, ok := v.Type.(*typing.Grid)
	if !ok {
		return nil, p.errorf(baseExpr, "%q is not a Grid", name)
	}
	if len(spaceArgs) != grid.Dimension {
		return nil, p.errorf(baseExpr, "grid %q has dimension %d, got %d space subscripts", name, grid.Dimension, len(spaceArgs))
	}

	offsets := make([]int, len(spaceArgs))
	for i, a := range spaceArgs {
		n, err := p.constIntLiteral(a)
		if err != nil {
			return nil, err
		}
		offsets[i] = n
	}

	timeOffset := -1
	if ctx == ir.Store {
		timeOffset = 0
	}
	if timeArg != nil {
		t, err := p.constIntLiteral(timeArg)
		if err != nil {
			return nil, err
		}
		if t > 0 {
			return nil, p.errorf(timeArg, "stencil time offset must be <= 0, got %d", t)
		}
		timeOffset = t
	}

	return ir.NewStencil(p.loc(baseExpr), grid.Element, v, timeOffset, offsets, p.currentBoundaryMask(), ctx), nil
}

func (p *Parser) isGridVar(name string) (*typing.Grid, bool) {
	v, ok := p.lookupLocal(name)
	if !ok {
		return nil, false
	}
	g, ok := v.Type.(*typing.Grid)
	return g, ok
}

// constIntLiteral evaluates a constant integer expression, allowing a
// leading unary minus (spec.md §4.3 rule 1: "unary-minus literals
// allowed").
func (p *Parser) constIntLiteral(e ast.Expr) (int, error) {
	switch x := e.(type) {
	case *ast.BasicLit:
		if x.Kind != token.INT {
			return 0, p.errorf(e, "expected an integer constant, got %s", x.Kind)
		}
		n, err := strconv.Atoi(x.Value)
		if err != nil {
			return 0, p.errorf(e, "invalid integer constant %q", x.Value)
		}
		return n, nil
	case *ast.UnaryExpr:
		if x.Op != token.SUB {
			return 0, p.errorf(e, "expected an integer constant")
		}
		n, err := p.constIntLiteral(x.X)
		if err != nil {
			return 0, err
		}
		return -n, nil
	case *ast.ParenExpr:
		return p.constIntLiteral(x.X)
	default:
		return 0, p.errorf(e, "expected a constant integer literal")
	}
}
