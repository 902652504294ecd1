package codegen

import (
	"fmt"

	"github.com/xgrid-go/xgrid/typing"
)

// cType returns the C spelling of a Value type at a use site (a parameter,
// a local declaration, an rvalue cast target). Grounded on the teacher's
// toCType (cmd/internal/c/generator.go) — same shape, different primitive
// table, since this port's primitives are the Grid language's fixed-width
// int/float set rather than Go's.
func cType(v typing.Value) string {
	switch t := v.(type) {
	case typing.Bool:
		return "bool"
	case typing.Int:
		return fmt.Sprintf("int%d_t", t.WidthBits())
	case typing.Float:
		if t.WidthBytes == 4 {
			return "float"
		}
		return "double"
	case *typing.Struct:
		return t.Name
	default:
		panic(fmt.Sprintf("codegen: unreachable value type %T", v))
	}
}

// cReferenceType returns the C spelling of a Reference type at a use site: a
// pointer-to-element for Ptr, the grid record type name for Grid.
func cReferenceType(r typing.Reference) string {
	switch t := r.(type) {
	case *typing.Ptr:
		return cType(t.Element) + "*"
	case *typing.Grid:
		return gridTypeName(t)
	default:
		panic(fmt.Sprintf("codegen: unreachable reference type %T", r))
	}
}

// cTypeOf dispatches between Value and Reference — used wherever a
// parameter or local's declared typing.Type (not yet known to be one or the
// other) needs a C spelling.
func cTypeOf(t typing.Type) string {
	switch v := t.(type) {
	case typing.Void:
		return "void"
	case typing.Value:
		return cType(v)
	case typing.Reference:
		return cReferenceType(v)
	default:
		panic(fmt.Sprintf("codegen: unreachable type %T", t))
	}
}

// gridTypeName is the emitted C struct tag for a Grid type: its typing
// Abbreviation, which is already collision-free and deterministic
// (typing.Abbreviation's own contract).
func gridTypeName(g *typing.Grid) string { return typing.Abbreviation(g) }

// emitStructDef writes one struct's typedef, fields in declaration order —
// grounded directly on the teacher's generateCStructDef.
func (g *Generator) emitStructDef(st *typing.Struct) {
	g.w.Printf("typedef struct {")
	unindent := g.w.Indent()
	for _, f := range st.Fields {
		g.w.Printf("%s %s;", cType(f.Type), f.Name)
	}
	unindent()
	g.w.Printf("} %s;", st.Name)
	g.w.Blank()
}

// emitGridDef writes the fixed foreign record (spec.md §4.4 item 1 / §6's
// ABI table): time_depth, a shape array of the grid's static dimension,
// a history pointer table, and a parallel boundary-mask array.
func (g *Generator) emitGridDef(grid *typing.Grid) {
	name := gridTypeName(grid)
	elem := cType(grid.Element)
	g.w.Printf("typedef struct {")
	unindent := g.w.Indent()
	g.w.Printf("int32_t time_depth;")
	g.w.Printf("int32_t shape[%d];", grid.Dimension)
	g.w.Printf("%s** data;", elem)
	g.w.Printf("int32_t* boundary_mask;")
	unindent()
	g.w.Printf("} %s;", name)
	g.w.Blank()
	g.emitAccessor(grid)
}
