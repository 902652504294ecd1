package typing

import (
	"go/ast"
	"strconv"
	"strings"
)

// StructResolver looks up a previously registered named struct type by
// name. The parser package implements this over the set of `type X
// struct{...}` declarations collected from the kernel source file, the
// same way benc's common.Context.TypeSpecs resolves struct names found
// while walking a Go AST.
type StructResolver interface {
	ResolveStruct(name string) (*Struct, bool)
}

var primitiveInts = map[string]int{
	"int8": 1, "int16": 2, "int32": 4, "int64": 8,
}

var primitiveFloats = map[string]int{
	"float32": 4, "float64": 8,
}

// ParseAnnotation turns a host-language (Go) type expression into the
// internal Type. It fails with a *TypeSystemError if the expression names
// an unknown primitive, nests a reference inside another reference, or
// describes a struct with a non-Value field (spec.md §4.1).
func ParseAnnotation(expr ast.Expr, resolver StructResolver) (Type, error) {
	switch e := expr.(type) {
	case nil:
		return Void{}, nil

	case *ast.Ident:
		if e.Name == "void" {
			return Void{}, nil
		}
		if e.Name == "bool" {
			return Bool{}, nil
		}
		if w, ok := primitiveInts[e.Name]; ok {
			return Int{WidthBytes: w}, nil
		}
		if w, ok := primitiveFloats[e.Name]; ok {
			return Float{WidthBytes: w}, nil
		}
		if st, ok := resolver.ResolveStruct(e.Name); ok {
			return st, nil
		}
		return nil, badAnnotation("unknown type name %q", e.Name)

	case *ast.StarExpr:
		elem, err := ParseAnnotation(e.X, resolver)
		if err != nil {
			return nil, err
		}
		ev, ok := elem.(Value)
		if !ok {
			return nil, badAnnotation("nested reference types are not allowed (pointer element must be a value type, got %s)", elem)
		}
		return &Ptr{Element: ev}, nil

	case *ast.IndexExpr:
		return parseGridAnnotation(e.X, []ast.Expr{e.Index}, resolver)

	case *ast.IndexListExpr:
		return parseGridAnnotation(e.X, e.Indices, resolver)

	case *ast.StructType:
		return parseStructAnnotation("", e, resolver)

	default:
		return nil, badAnnotation("unsupported annotation syntax %T", expr)
	}
}

// ParseValueAnnotation is ParseAnnotation restricted to callers that require
// a Value (kernel parameters, struct fields, grid elements, cast targets).
func ParseValueAnnotation(expr ast.Expr, resolver StructResolver) (Value, error) {
	t, err := ParseAnnotation(expr, resolver)
	if err != nil {
		return nil, err
	}
	v, ok := t.(Value)
	if !ok {
		return nil, badAnnotation("expected a value type, got %s", t)
	}
	return v, nil
}

func gridDimension(name string) (int, bool) {
	if !strings.HasPrefix(name, "Grid") {
		return 0, false
	}
	digits := name[len("Grid"):]
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func identName(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, true
	case *ast.SelectorExpr:
		return e.Sel.Name, true
	default:
		return "", false
	}
}

func parseGridAnnotation(base ast.Expr, args []ast.Expr, resolver StructResolver) (Type, error) {
	name, ok := identName(base)
	if !ok {
		return nil, badAnnotation("unsupported generic annotation base %T", base)
	}

	dim, ok := gridDimension(name)
	if !ok {
		return nil, badAnnotation("unknown parametric annotation %q", name)
	}
	if len(args) != 1 {
		return nil, badAnnotation("%s takes exactly one element type argument", name)
	}
	elem, err := ParseValueAnnotation(args[0], resolver)
	if err != nil {
		return nil, err
	}
	return &Grid{Element: elem, Dimension: dim}, nil
}

func parseStructAnnotation(name string, st *ast.StructType, resolver StructResolver) (*Struct, error) {
	if st.Fields == nil {
		return &Struct{Name: name}, nil
	}
	var fields []Field
	for _, f := range st.Fields.List {
		t, err := ParseValueAnnotation(f.Type, resolver)
		if err != nil {
			return nil, err
		}
		if len(f.Names) == 0 {
			return nil, badAnnotation("embedded/anonymous struct fields are not supported")
		}
		for _, n := range f.Names {
			fields = append(fields, Field{Name: n.Name, Type: t})
		}
	}
	return &Struct{Name: name, Fields: fields}, nil
}

// RegisterStruct parses a top-level `type Name struct{...}` declaration
// into a *Struct, the way ParseAnnotation parses a struct literal appearing
// inline, but assigns it the declared name so subsequent Equal calls can use
// identity comparison.
func RegisterStruct(name string, st *ast.StructType, resolver StructResolver) (*Struct, error) {
	return parseStructAnnotation(name, st, resolver)
}
