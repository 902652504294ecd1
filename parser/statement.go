package parser

import (
	"go/ast"
	"go/token"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// lowerBlock lowers a sequence of host statements, flattening `with`-style
// pragma blocks (xgrid.C/xgrid.Boundary) directly into the parent statement
// list — neither produces its own IR node, matching spec.md §4.2's node
// enumeration, which has no "with" construct of its own.
func (p *Parser) lowerBlock(stmts []ast.Stmt, returnType typing.Type) ([]ir.Statement, error) {
	var out []ir.Statement
	for _, stmt := range stmts {
		lowered, err := p.lowerStmt(stmt, returnType)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

func (p *Parser) lowerStmt(stmt ast.Stmt, returnType typing.Type) ([]ir.Statement, error) {
	if p.top().kind == ctxC {
		return p.lowerInlineStmt(stmt)
	}

	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		return one(p.lowerReturn(s, returnType))

	case *ast.BranchStmt:
		return p.lowerBranch(s)

	case *ast.IfStmt:
		return one(p.lowerIf(s, returnType))

	case *ast.ForStmt:
		return one(p.lowerWhile(s, returnType))

	case *ast.RangeStmt:
		return one(p.lowerFor(s, returnType))

	case *ast.AssignStmt:
		return one(p.lowerAssign(s))

	case *ast.ExprStmt:
		return p.lowerExprStmt(s, returnType)

	case *ast.BlockStmt:
		return p.lowerBlock(s.List, returnType)

	default:
		return nil, p.unsupported(stmt)
	}
}

func one(stmt ir.Statement, err error) ([]ir.Statement, error) {
	if err != nil {
		return nil, err
	}
	return []ir.Statement{stmt}, nil
}

func (p *Parser) lowerReturn(s *ast.ReturnStmt, returnType typing.Type) (ir.Statement, error) {
	switch len(s.Results) {
	case 0:
		if _, void := returnType.(typing.Void); !void {
			return nil, p.errorf(s, "missing return value for declared return type %s", returnType)
		}
		return ir.NewReturn(p.loc(s), nil), nil
	case 1:
		val, err := p.lowerExpr(s.Results[0])
		if err != nil {
			return nil, err
		}
		if !typing.Equal(mustValue(returnType), mustValue(val.Type())) {
			return nil, p.errorf(s, "return value has type %s, declared return type is %s", val.Type(), returnType)
		}
		return ir.NewReturn(p.loc(s), val), nil
	default:
		return nil, p.errorf(s, "multi-value return is not supported")
	}
}

func mustValue(t typing.Type) typing.Value {
	if v, ok := t.(typing.Value); ok {
		return v
	}
	return nil
}

func (p *Parser) lowerBranch(s *ast.BranchStmt) ([]ir.Statement, error) {
	switch s.Tok {
	case token.BREAK:
		return one(ir.NewBreak(p.loc(s)), nil)
	case token.CONTINUE:
		return one(ir.NewContinue(p.loc(s)), nil)
	default:
		return nil, p.unsupported(s)
	}
}

func (p *Parser) lowerIf(s *ast.IfStmt, returnType typing.Type) (ir.Statement, error) {
	if s.Init != nil {
		return nil, p.errorf(s, "an `if` with an init statement is not supported")
	}
	cond, err := p.lowerExpr(s.Cond)
	if err != nil {
		return nil, err
	}
	if _, ok := cond.Type().(typing.Bool); !ok {
		return nil, p.errorf(s.Cond, "if condition must be Bool, got %s", cond.Type())
	}

	p.push(ctxIf)
	body, err := p.lowerBlock(s.Body.List, returnType)
	p.pop()
	if err != nil {
		return nil, err
	}

	var els []ir.Statement
	switch e := s.Else.(type) {
	case nil:
	case *ast.BlockStmt:
		p.push(ctxIf)
		els, err = p.lowerBlock(e.List, returnType)
		p.pop()
	case *ast.IfStmt:
		var nested ir.Statement
		nested, err = p.lowerIf(e, returnType)
		if err == nil {
			els = []ir.Statement{nested}
		}
	default:
		return nil, p.unsupported(s.Else)
	}
	if err != nil {
		return nil, err
	}

	return ir.NewIf(p.loc(s), cond, body, els), nil
}

// lowerWhile handles a zero-clause `for cond { }` — Go has no `while`
// keyword, so this condition-only form is the host spelling of spec.md's
// While statement. A three-clause or infinite `for` has no counterpart in
// the sublanguage and is rejected, which also subsumes the original's
// rejected `while ... else` (Go's `for` has no else clause to reject).
func (p *Parser) lowerWhile(s *ast.ForStmt, returnType typing.Type) (ir.Statement, error) {
	if s.Init != nil || s.Post != nil {
		return nil, p.errorf(s, "three-clause `for` is not supported; use `for cond { }` for a while-loop")
	}
	if s.Cond == nil {
		return nil, p.errorf(s, "an infinite `for {}` is not supported")
	}
	cond, err := p.lowerExpr(s.Cond)
	if err != nil {
		return nil, err
	}
	if _, ok := cond.Type().(typing.Bool); !ok {
		return nil, p.errorf(s.Cond, "while condition must be Bool, got %s", cond.Type())
	}
	p.push(ctxWhile)
	body, err := p.lowerBlock(s.Body.List, returnType)
	p.pop()
	if err != nil {
		return nil, err
	}
	return ir.NewWhile(p.loc(s), cond, body), nil
}

// lowerFor handles `for i := range xgrid.Range(start, end[, step]) { }`,
// the host spelling of spec.md's `for var in range(start, end[, step])`.
func (p *Parser) lowerFor(s *ast.RangeStmt, returnType typing.Type) (ir.Statement, error) {
	if s.Tok != token.DEFINE {
		return nil, p.errorf(s, "range-for must declare its induction variable with `:=`")
	}
	if s.Value != nil {
		return nil, p.errorf(s, "range-for does not support an index,value form")
	}
	key, ok := s.Key.(*ast.Ident)
	if !ok {
		return nil, p.errorf(s, "range-for induction variable must be a plain identifier")
	}
	call, ok := s.X.(*ast.CallExpr)
	if !ok || pragmaName(call) != pragmaRange {
		return nil, p.unsupported(s)
	}
	if len(call.Args) < 2 || len(call.Args) > 3 {
		return nil, p.errorf(call, "Range takes 2 or 3 arguments (start, end[, step])")
	}

	start, err := p.lowerExpr(call.Args[0])
	if err != nil {
		return nil, err
	}
	end, err := p.lowerExpr(call.Args[1])
	if err != nil {
		return nil, err
	}
	startVal, sok := start.Type().(typing.Value)
	endVal, eok := end.Type().(typing.Value)
	if !sok || !eok || !typing.IsNumber(startVal) || !typing.Equal(startVal, endVal) {
		return nil, p.errorf(call, "Range start/end must be the same Number type, got %s and %s", start.Type(), end.Type())
	}

	var step ir.Expression
	if len(call.Args) == 3 {
		step, err = p.lowerExpr(call.Args[2])
		if err != nil {
			return nil, err
		}
		if stepVal, ok := step.Type().(typing.Value); !ok || !typing.Equal(stepVal, startVal) {
			return nil, p.errorf(call.Args[2], "Range step must match start/end type %s, got %s", startVal, step.Type())
		}
	} else if i, ok := startVal.(typing.Int); ok {
		step = ir.NewConstant(p.loc(call), i, 1)
	} else {
		return nil, p.errorf(call, "Range requires an explicit step for non-integer bounds")
	}

	v := ir.Variable{Name: key.Name, Type: startVal}
	p.declareLocal(v)

	p.push(ctxFor)
	body, err := p.lowerBlock(s.Body.List, returnType)
	p.pop()
	if err != nil {
		return nil, err
	}

	return ir.NewFor(p.loc(s), v, start, end, step, body), nil
}

// lowerAssign handles `=`, `:=` and the augmented-assignment tokens,
// implementing spec.md §4.3's assignment and desugaring rules.
func (p *Parser) lowerAssign(s *ast.AssignStmt) (ir.Statement, error) {
	if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		return nil, p.errorf(s, "multi-value assignment is not supported")
	}
	if !isAssignToken(s.Tok) {
		return nil, p.unsupported(s)
	}

	rhs, err := p.lowerExpr(s.Rhs[0])
	if err != nil {
		return nil, err
	}

	if s.Tok == token.ASSIGN || s.Tok == token.DEFINE {
		terminal, err := p.resolveAssignTarget(s.Lhs[0], rhs.Type(), s.Tok == token.DEFINE)
		if err != nil {
			return nil, err
		}
		return ir.NewAssignment(p.loc(s), terminal, rhs), nil
	}

	// Augmented assignment: target = target OP value.
	op, ok := augmentedOp(s.Tok)
	if !ok {
		return nil, p.unsupported(s)
	}
	current, err := p.lowerExpr(s.Lhs[0])
	if err != nil {
		return nil, err
	}
	terminal, err := p.resolveAssignTarget(s.Lhs[0], current.Type(), false)
	if err != nil {
		return nil, err
	}
	resultType, err := ir.CheckBinary(op, mustValue(current.Type()), mustValue(rhs.Type()), p.floatWidth)
	if err != nil {
		return nil, p.errorf(s, "%s", err)
	}
	combined := ir.NewBinary(p.loc(s), resultType, op, current, rhs)
	return ir.NewAssignment(p.loc(s), terminal, combined), nil
}

func augmentedOp(tok token.Token) (ir.BinaryOp, bool) {
	switch tok {
	case token.ADD_ASSIGN:
		return ir.Add, true
	case token.SUB_ASSIGN:
		return ir.Sub, true
	case token.MUL_ASSIGN:
		return ir.Mul, true
	case token.QUO_ASSIGN:
		return ir.Div, true
	case token.REM_ASSIGN:
		return ir.Mod, true
	default:
		return 0, false
	}
}

// resolveAssignTarget resolves the left-hand side of an assignment to an
// Identifier, Access or Stencil(store) terminal, creating a new local when
// the target is a bare name not yet in scope (spec.md §4.3).
func (p *Parser) resolveAssignTarget(lhs ast.Expr, valueType typing.Type, declare bool) (ir.Expression, error) {
	switch e := lhs.(type) {
	case *ast.Ident:
		if e.Name == "_" {
			return nil, p.errorf(e, "blank identifier is not a valid assignment target")
		}
		existing, ok := p.lookupLocal(e.Name)
		if !ok {
			v := ir.Variable{Name: e.Name, Type: valueType}
			p.declareLocal(v)
			return ir.NewIdentifier(p.loc(e), v), nil
		}
		if _, isGrid := existing.Type.(*typing.Grid); isGrid {
			return nil, p.errorf(e, "grids are not value-assignable")
		}
		if !declare && !typing.Equal(mustValue(existing.Type), mustValue(valueType)) {
			return nil, p.errorf(e, "cannot assign %s to %q of type %s", valueType, e.Name, existing.Type)
		}
		return ir.NewIdentifier(p.loc(e), existing), nil

	case *ast.SelectorExpr:
		access, err := p.resolveAccess(e)
		if err != nil {
			return nil, err
		}
		if err := p.checkAssignType(e, access.Type(), valueType); err != nil {
			return nil, err
		}
		return access, nil

	case *ast.IndexExpr:
		stencil, err := p.resolveStencilStore(e.X, []ast.Expr{e.Index}, nil)
		if err != nil {
			return nil, err
		}
		if err := p.checkAssignType(e, stencil.Type(), valueType); err != nil {
			return nil, err
		}
		return stencil, nil

	case *ast.IndexListExpr:
		stencil, err := p.resolveStencilStore(e.X, e.Indices, nil)
		if err != nil {
			return nil, err
		}
		if err := p.checkAssignType(e, stencil.Type(), valueType); err != nil {
			return nil, err
		}
		return stencil, nil

	default:
		return nil, p.unsupported(lhs)
	}
}

func (p *Parser) checkAssignType(node ast.Node, targetType, valueType typing.Type) error {
	if !typing.Equal(mustValue(targetType), mustValue(valueType)) {
		return p.errorf(node, "cannot assign %s to a target of type %s", valueType, targetType)
	}
	return nil
}

func (p *Parser) resolveAccess(e *ast.SelectorExpr) (ir.Expression, error) {
	base, err := p.lowerExpr(e.X)
	if err != nil {
		return nil, err
	}
	st, ok := base.Type().(*typing.Struct)
	if !ok {
		return nil, p.errorf(e, "selector base is not a struct, got %s", base.Type())
	}
	_, fieldType, ok := st.FieldOffset(e.Sel.Name)
	if !ok {
		return nil, p.errorf(e, "struct %s has no field %q", st.Name, e.Sel.Name)
	}
	return ir.NewAccess(p.loc(e), fieldType, base, e.Sel.Name), nil
}

// lowerExprStmt handles bare call statements and the two pragma-call forms
// (xgrid.C / xgrid.Boundary), each of which expands to zero or more
// statements spliced directly into the parent block.
func (p *Parser) lowerExprStmt(s *ast.ExprStmt, returnType typing.Type) ([]ir.Statement, error) {
	call, ok := s.X.(*ast.CallExpr)
	if !ok {
		return nil, p.unsupported(s)
	}

	switch pragmaName(call) {
	case pragmaC:
		return p.lowerCBlock(call)
	case pragmaBoundary:
		return p.lowerBoundaryBlock(call, returnType)
	}

	expr, err := p.lowerExpr(call)
	if err != nil {
		return nil, err
	}
	return one(ir.NewEvaluation(p.loc(s), expr), nil)
}

func (p *Parser) lowerCBlock(call *ast.CallExpr) ([]ir.Statement, error) {
	lit, body, err := pragmaBody(p, call, 1)
	if err != nil {
		return nil, err
	}
	_ = lit
	p.push(ctxC)
	stmts, err := p.lowerBlock(body, typing.Void{})
	p.pop()
	return stmts, err
}

func (p *Parser) lowerInlineStmt(stmt ast.Stmt) ([]ir.Statement, error) {
	es, ok := stmt.(*ast.ExprStmt)
	if !ok {
		return nil, p.errorf(stmt, "only raw C string statements are allowed inside c()")
	}
	lit, ok := es.X.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return nil, p.errorf(stmt, "only raw C string statements are allowed inside c()")
	}
	src, err := unquote(lit)
	if err != nil {
		return nil, p.errorf(stmt, "malformed string literal: %s", err)
	}
	return one(ir.NewInline(p.loc(stmt), src), nil)
}

func (p *Parser) lowerBoundaryBlock(call *ast.CallExpr, returnType typing.Type) ([]ir.Statement, error) {
	if p.inContext(ctxBoundary) {
		return nil, p.errorf(call, "nested boundary contexts are not allowed")
	}
	if len(call.Args) != 2 {
		return nil, p.errorf(call, "Boundary takes exactly (mask, func(){...})")
	}
	mask, err := p.constIntArg(call.Args[0])
	if err != nil {
		return nil, err
	}
	if mask < 0 {
		return nil, p.errorf(call.Args[0], "boundary mask must be a non-negative integer constant")
	}
	lit, ok := call.Args[1].(*ast.FuncLit)
	if !ok {
		return nil, p.errorf(call.Args[1], "Boundary's second argument must be a function literal")
	}

	p.pushBoundary(mask)
	stmts, err := p.lowerBlock(lit.Body.List, returnType)
	p.pop()
	return stmts, err
}

// pragmaBody validates a pragma call of the shape name(func(){...}) and
// returns the call expression and the literal's statement list.
func pragmaBody(p *Parser, call *ast.CallExpr, wantArgs int) (*ast.CallExpr, []ast.Stmt, error) {
	if len(call.Args) != wantArgs {
		return nil, nil, p.errorf(call, "expected %d argument(s)", wantArgs)
	}
	lit, ok := call.Args[wantArgs-1].(*ast.FuncLit)
	if !ok {
		return nil, nil, p.errorf(call.Args[wantArgs-1], "expected a function literal argument")
	}
	return call, lit.Body.List, nil
}

func (p *Parser) constIntArg(e ast.Expr) (int, error) {
	expr, err := p.lowerExpr(e)
	if err != nil {
		return 0, err
	}
	c, ok := expr.(*ir.Constant)
	if !ok {
		return 0, p.errorf(e, "expected a constant integer")
	}
	n, ok := c.Value.(int64)
	if !ok {
		return 0, p.errorf(e, "expected a constant integer")
	}
	return int(n), nil
}
