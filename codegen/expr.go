package codegen

import (
	"fmt"
	"strings"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// emitExpr is a straightforward infix translation (spec.md §4.4 "Expression
// emission"), with the five documented exceptions: '^' widens to pow/powf,
// a Ptr-typed identifier dereferences itself, a Ptr-parameter call argument
// takes its address, a struct constructor becomes a compound literal, and a
// Stencil becomes a call to its grid's accessor.
func (g *Generator) emitExpr(e ir.Expression) string {
	switch n := e.(type) {
	case *ir.Constant:
		return emitConstant(n)
	case *ir.Identifier:
		if _, isPtr := n.Variable.Type.(*typing.Ptr); isPtr {
			return "(*" + n.Variable.Name + ")"
		}
		return n.Variable.Name
	case *ir.Access:
		return fmt.Sprintf("(%s).%s", g.emitExpr(n.Base), n.Field)
	case *ir.Stencil:
		return g.emitStencil(n)
	case *ir.Binary:
		return g.emitBinary(n)
	case *ir.Unary:
		return fmt.Sprintf("(%s(%s))", n.Op, g.emitExpr(n.Operand))
	case *ir.Condition:
		return fmt.Sprintf("((%s) ? (%s) : (%s))", g.emitExpr(n.Cond), g.emitExpr(n.Then), g.emitExpr(n.Else))
	case *ir.Cast:
		return fmt.Sprintf("((%s)(%s))", cType(n.Target), g.emitExpr(n.Value))
	case *ir.Call:
		return g.emitCall(n)
	case *ir.GridInfo:
		return g.emitGridInfo(n)
	default:
		panic(fmt.Sprintf("codegen: unreachable expression %T", e))
	}
}

func emitConstant(c *ir.Constant) string {
	switch v := c.Value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// emitStencil turns a Stencil node into a call to its grid's accessor,
// dereferenced. The per-dimension loop variables (i0..i{D-1}) are the ones
// openLoopNest (stencilloop.go) establishes for the Assignment this
// Stencil is nested under; every grid read inside one stencil assignment
// shares that same index set, which is why Stencil itself carries no loop
// variable names of its own.
func (g *Generator) emitStencil(s *ir.Stencil) string {
	grid := s.GridVar.Type.(*typing.Grid)
	name := gridTypeName(grid)

	args := make([]string, 0, len(s.SpaceOffset)+2)
	args = append(args, s.GridVar.Name)
	for i, off := range s.SpaceOffset {
		args = append(args, fmt.Sprintf("(i%d + (%d))", i, off))
	}
	args = append(args, fmt.Sprintf("%d", s.TimeOffset))

	return fmt.Sprintf("(*%s_at(%s))", name, strings.Join(args, ", "))
}

func (g *Generator) emitBinary(n *ir.Binary) string {
	if n.Op == ir.Pow {
		fn := "pow"
		if f, ok := n.Type().(typing.Float); ok && f.WidthBytes == 4 {
			fn = "powf"
		}
		return fmt.Sprintf("%s(%s, %s)", fn, g.emitExpr(n.Left), g.emitExpr(n.Right))
	}
	if n.Op == ir.Mod {
		if _, isFloat := n.Type().(typing.Float); isFloat {
			fn := "fmod"
			if f := n.Type().(typing.Float); f.WidthBytes == 4 {
				fn = "fmodf"
			}
			return fmt.Sprintf("%s(%s, %s)", fn, g.emitExpr(n.Left), g.emitExpr(n.Right))
		}
	}
	return fmt.Sprintf("(%s %s %s)", g.emitExpr(n.Left), n.Op, g.emitExpr(n.Right))
}

func (g *Generator) emitGridInfo(n *ir.GridInfo) string {
	switch n.Kind {
	case ir.InfoShape:
		return fmt.Sprintf("%s.shape[%s]", n.GridVar.Name, g.emitExpr(n.Dim))
	case ir.InfoDimension:
		grid := n.GridVar.Type.(*typing.Grid)
		return fmt.Sprintf("%d", grid.Dimension)
	default:
		panic("codegen: unreachable GridInfo kind")
	}
}

func (g *Generator) emitCall(n *ir.Call) string {
	if n.Callee.Kind == ir.CalleeConstructor {
		st := n.Callee.Signature.ReturnType.(*typing.Struct)
		fields := make([]string, len(n.Args))
		for i, a := range n.Args {
			fields[i] = fmt.Sprintf(".%s = %s", st.Fields[i].Name, g.emitExpr(a))
		}
		return fmt.Sprintf("(%s){ %s }", st.Name, strings.Join(fields, ", "))
	}

	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		arg := g.emitExpr(a)
		if i < len(n.Callee.Signature.Args) {
			param := n.Callee.Signature.Args[i].Type
			if _, wantsPtr := param.(*typing.Ptr); wantsPtr {
				if _, argIsPtr := a.Type().(*typing.Ptr); !argIsPtr {
					arg = "(&" + arg + ")"
				}
			}
		}
		args[i] = arg
	}
	return fmt.Sprintf("%s(%s)", n.Callee.Name, strings.Join(args, ", "))
}
