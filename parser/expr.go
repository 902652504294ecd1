package parser

import (
	"go/ast"
	"go/token"
	"strconv"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

var binaryTokens = map[token.Token]ir.BinaryOp{
	token.ADD: ir.Add, token.SUB: ir.Sub, token.MUL: ir.Mul, token.QUO: ir.Div,
	token.REM: ir.Mod, token.XOR: ir.Pow, // '^' is repurposed as pow, per spec.md §4.2
	token.EQL: ir.Eq, token.NEQ: ir.Ne, token.LSS: ir.Lt, token.LEQ: ir.Le,
	token.GTR: ir.Gt, token.GEQ: ir.Ge, token.LAND: ir.And, token.LOR: ir.Or,
}

func (p *Parser) lowerExpr(expr ast.Expr) (ir.Expression, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return p.lowerExpr(e.X)

	case *ast.Ident:
		return p.lowerIdent(e)

	case *ast.BasicLit:
		return p.lowerBasicLit(e)

	case *ast.UnaryExpr:
		return p.lowerUnary(e)

	case *ast.BinaryExpr:
		return p.lowerBinary(e)

	case *ast.SelectorExpr:
		return p.resolveAccess(e)

	case *ast.CallExpr:
		return p.resolveCall(e)

	case *ast.IndexExpr, *ast.IndexListExpr:
		return p.lowerStencilLoad(e)

	default:
		return nil, p.unsupported(expr)
	}
}

func (p *Parser) lowerIdent(e *ast.Ident) (ir.Expression, error) {
	switch e.Name {
	case "true":
		return ir.NewConstant(p.loc(e), typing.Bool{}, true), nil
	case "false":
		return ir.NewConstant(p.loc(e), typing.Bool{}, false), nil
	}
	if v, ok := p.lookupLocal(e.Name); ok {
		return ir.NewIdentifier(p.loc(e), v), nil
	}
	if c, ok := p.env.lookupConstant(e.Name); ok {
		return ir.NewConstant(p.loc(e), c.Type, c.Value), nil
	}
	return nil, p.errorf(e, "undefined name %q", e.Name)
}

func (p *Parser) lowerBasicLit(e *ast.BasicLit) (ir.Expression, error) {
	switch e.Kind {
	case token.INT:
		n, err := strconv.ParseInt(e.Value, 0, 64)
		if err != nil {
			return nil, p.errorf(e, "invalid integer literal %q: %s", e.Value, err)
		}
		return ir.NewConstant(p.loc(e), typing.Int{WidthBytes: 4}, n), nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return nil, p.errorf(e, "invalid float literal %q: %s", e.Value, err)
		}
		return ir.NewConstant(p.loc(e), typing.Float{WidthBytes: p.floatWidth}, f), nil
	default:
		return nil, p.errorf(e, "unsupported literal kind %s", e.Kind)
	}
}

func (p *Parser) lowerUnary(e *ast.UnaryExpr) (ir.Expression, error) {
	operand, err := p.lowerExpr(e.X)
	if err != nil {
		return nil, err
	}
	ov, ok := operand.Type().(typing.Value)
	if !ok {
		return nil, p.errorf(e, "unary operator requires a value operand, got %s", operand.Type())
	}
	var op ir.UnaryOp
	switch e.Op {
	case token.ADD:
		op = ir.Pos
	case token.SUB:
		op = ir.Neg
	case token.NOT:
		op = ir.Not
	default:
		return nil, p.unsupported(e)
	}
	resultType, err := ir.CheckUnary(op, ov)
	if err != nil {
		return nil, p.errorf(e, "%s", err)
	}
	return ir.NewUnary(p.loc(e), resultType, op, operand), nil
}

func (p *Parser) lowerBinary(e *ast.BinaryExpr) (ir.Expression, error) {
	op, ok := binaryTokens[e.Op]
	if !ok {
		return nil, p.unsupported(e)
	}
	l, err := p.lowerExpr(e.X)
	if err != nil {
		return nil, err
	}
	r, err := p.lowerExpr(e.Y)
	if err != nil {
		return nil, err
	}
	lv, lok := l.Type().(typing.Value)
	rv, rok := r.Type().(typing.Value)
	if !lok || !rok {
		return nil, p.errorf(e, "binary operator requires value operands, got %s and %s", l.Type(), r.Type())
	}
	resultType, err := ir.CheckBinary(op, lv, rv, p.floatWidth)
	if err != nil {
		return nil, p.errorf(e, "%s", err)
	}
	return ir.NewBinary(p.loc(e), resultType, op, l, r), nil
}
