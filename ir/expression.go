package ir

import "github.com/xgrid-go/xgrid/typing"

// Expression is any IR node that produces a value; every Expression exposes
// its resolved Type (spec.md §3 "Expressions carry a resolved type").
type Expression interface {
	Node
	Type() typing.Type
	isExpression()
}

type exprBase struct {
	Location Location
	Typ      typing.Type
}

func (b exprBase) Loc() Location      { return b.Location }
func (b exprBase) Type() typing.Type  { return b.Typ }
func (exprBase) isExpression()        {}

// Constant is a literal value of a Value type.
type Constant struct {
	exprBase
	Value any
}

func NewConstant(loc Location, t typing.Type, value any) *Constant {
	return &Constant{exprBase{loc, t}, value}
}

// Identifier reads a local Variable (a kernel argument or a declared
// local).
type Identifier struct {
	exprBase
	Variable Variable
}

func NewIdentifier(loc Location, v Variable) *Identifier {
	return &Identifier{exprBase{loc, v.Type}, v}
}

// Access reads a named field of a struct-typed expression.
type Access struct {
	exprBase
	Base  Expression
	Field string
}

func NewAccess(loc Location, t typing.Type, base Expression, field string) *Access {
	return &Access{exprBase{loc, t}, base, field}
}

// StencilContext distinguishes a stencil read from a stencil write.
type StencilContext int

const (
	Load StencilContext = iota
	Store
)

func (c StencilContext) String() string {
	if c == Store {
		return "store"
	}
	return "load"
}

// Stencil is the heart of the language: a reference to a grid cell at a
// constant space offset and (optionally) a constant time offset relative to
// the current iteration point, tagged with the boundary mask active at the
// point it was parsed (0 if no enclosing `boundary` block).
type Stencil struct {
	exprBase
	GridVar      Variable
	TimeOffset   int
	SpaceOffset  []int
	BoundaryMask int
	Ctx          StencilContext
}

func NewStencil(loc Location, elem typing.Value, gridVar Variable, timeOffset int, spaceOffset []int, mask int, ctx StencilContext) *Stencil {
	return &Stencil{exprBase{loc, elem}, gridVar, timeOffset, spaceOffset, mask, ctx}
}

// Binary is a binary arithmetic/compare/logic expression.
type Binary struct {
	exprBase
	Op          BinaryOp
	Left, Right Expression
}

func NewBinary(loc Location, t typing.Value, op BinaryOp, l, r Expression) *Binary {
	return &Binary{exprBase{loc, t}, op, l, r}
}

// Unary is a unary arithmetic/logic expression.
type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expression
}

func NewUnary(loc Location, t typing.Value, op UnaryOp, operand Expression) *Unary {
	return &Unary{exprBase{loc, t}, op, operand}
}

// Condition is a ternary `cond ? then : else` expression; Then and Else must
// share the same Value type, which is also the expression's own type.
type Condition struct {
	exprBase
	Cond, Then, Else Expression
}

func NewCondition(loc Location, t typing.Value, cond, then, els Expression) *Condition {
	return &Condition{exprBase{loc, t}, cond, then, els}
}

// Cast converts Value to the target Value type (a C value cast).
type Cast struct {
	exprBase
	Target typing.Value
	Value  Expression
}

func NewCast(loc Location, target typing.Value, value Expression) *Cast {
	return &Cast{exprBase{loc, target}, target, value}
}

// CalleeKind distinguishes how codegen must emit a Call.
type CalleeKind int

const (
	// CalleeFunction is an ordinary C function call: `name(args...)`.
	CalleeFunction CalleeKind = iota
	// CalleeConstructor is a struct literal: `(Name){ .f = args[0], ... }`.
	CalleeConstructor
)

// Callee describes what a Call node invokes — resolved once by the parser,
// so codegen never needs to re-resolve a name.
type Callee struct {
	Name      string
	Signature Signature
	Kind      CalleeKind
}

// Call invokes a resolved Callee with positional arguments. Method calls and
// record constructors are resolved to this same node by the parser (spec.md
// §4.3's call-resolution rules); receivers are prepended to Args.
type Call struct {
	exprBase
	Callee Callee
	Args   []Expression
}

func NewCall(loc Location, t typing.Type, callee Callee, args []Expression) *Call {
	return &Call{exprBase{loc, t}, callee, args}
}

// GridInfoKind selects between the two grid introspection builtins.
type GridInfoKind int

const (
	InfoShape GridInfoKind = iota
	InfoDimension
)

// GridInfo implements the `shape(grid, dim)` / `dimension(grid)` builtins
// (spec.md §4.3's external type-check hooks); both always produce Int32.
type GridInfo struct {
	exprBase
	Kind    GridInfoKind
	GridVar Variable
	Dim     Expression // nil when Kind == InfoDimension
}

func NewGridInfo(loc Location, kind GridInfoKind, gridVar Variable, dim Expression) *GridInfo {
	return &GridInfo{exprBase{loc, typing.Int{WidthBytes: 4}}, kind, gridVar, dim}
}
