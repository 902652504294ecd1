package codegen

import (
	"fmt"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

func (g *Generator) emitStatements(body []ir.Statement) error {
	for _, s := range body {
		if err := g.emitStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitStatement(s ir.Statement) error {
	if g.opts.Comment {
		loc := s.Loc()
		g.w.Printf("// %s:%d", loc.File, loc.Line)
	}
	switch n := s.(type) {
	case *ir.Return:
		if n.Value == nil {
			g.w.Printf("return;")
		} else {
			g.w.Printf("return %s;", g.emitExpr(n.Value))
		}
		return nil

	case *ir.Break:
		g.w.Printf("break;")
		return nil

	case *ir.Continue:
		g.w.Printf("continue;")
		return nil

	case *ir.If:
		g.w.Printf("if (%s) {", g.emitExpr(n.Cond))
		unindent := g.w.Indent()
		if err := g.emitStatements(n.Body); err != nil {
			unindent()
			return err
		}
		unindent()
		if len(n.Else) > 0 {
			g.w.Printf("} else {")
			unindentElse := g.w.Indent()
			if err := g.emitStatements(n.Else); err != nil {
				unindentElse()
				return err
			}
			unindentElse()
		}
		g.w.Printf("}")
		return nil

	case *ir.While:
		g.w.Printf("while (%s) {", g.emitExpr(n.Cond))
		unindent := g.w.Indent()
		if err := g.emitStatements(n.Body); err != nil {
			unindent()
			return err
		}
		unindent()
		g.w.Printf("}")
		return nil

	case *ir.For:
		g.w.Printf("%s {", g.forHeader(n))
		unindent := g.w.Indent()
		if err := g.emitStatements(n.Body); err != nil {
			unindent()
			return err
		}
		unindent()
		g.w.Printf("}")
		return nil

	case *ir.Evaluation:
		g.w.Printf("%s;", g.emitExpr(n.Value))
		return nil

	case *ir.Assignment:
		return g.emitAssignment(n)

	case *ir.Inline:
		g.w.Raw(n.Source)
		return nil

	default:
		panic(fmt.Sprintf("codegen: unreachable statement %T", s))
	}
}

// forHeader emits a C for-header for a `range(start, end[, step])` loop
// (spec.md §4.3's accepted for-loop form). Start/End/Step all share the
// induction variable's Number type per the type rule; direction is chosen
// by inspecting a literal negative Step (the common descending-range case)
// since the induction variable's sign is otherwise only known at runtime.
func (g *Generator) forHeader(n *ir.For) string {
	v := n.Variable
	cmp := "<"
	if stepIsNegativeConstant(n.Step) {
		cmp = ">"
	}
	return fmt.Sprintf("for (%s %s = %s; %s %s %s; %s += %s)",
		cType(v.Type.(typing.Value)), v.Name, g.emitExpr(n.Start),
		v.Name, cmp, g.emitExpr(n.End),
		v.Name, g.emitExpr(n.Step))
}

func stepIsNegativeConstant(e ir.Expression) bool {
	c, ok := e.(*ir.Constant)
	if !ok {
		return false
	}
	switch v := c.Value.(type) {
	case int:
		return v < 0
	case int8:
		return v < 0
	case int16:
		return v < 0
	case int32:
		return v < 0
	case int64:
		return v < 0
	case float32:
		return v < 0
	case float64:
		return v < 0
	default:
		return false
	}
}

func (g *Generator) emitAssignment(n *ir.Assignment) error {
	if flag, ok := g.flags[n]; ok {
		stencil := n.Terminal.(*ir.Stencil)
		return g.emitStencilLoop(n, stencil, flag)
	}
	g.w.Printf("%s = %s;", g.emitExpr(n.Terminal), g.emitExpr(n.Value))
	return nil
}
