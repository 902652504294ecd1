// Package ir implements the typed intermediate representation (component
// C2): a pure tree of expressions, statements and operator definitions that
// the parser (C3) produces and the code generator (C4) consumes. There are
// no back-edges and no cycles, per spec.md §9's "Tagged trees over
// inheritance" design note — each node family is a closed Go interface and
// dispatch is a type switch rather than virtual method inheritance.
package ir

import (
	"fmt"

	"github.com/xgrid-go/xgrid/typing"
)

// Location is the (file, function, line) triple every IR node carries, used
// to report SemanticError with a precise source position.
type Location struct {
	File string
	Func string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d (in %s)", l.File, l.Line, l.Func)
}

// Node is the common root of Expression and Statement.
type Node interface {
	Loc() Location
}

// Variable is a (name, type) pair: a kernel parameter, a local, or a for-loop
// induction variable.
type Variable struct {
	Name string
	Type typing.Type
}

// Arg is one named, typed slot of a Signature.
type Arg struct {
	Name string
	Type typing.Type
}

// Signature is a callable's argument list and return type.
type Signature struct {
	Args       []Arg
	ReturnType typing.Type
}

// ArgNames returns the set of the signature's declared argument names —
// used by codegen to tell an argument local from a kernel-declared local
// when emitting a definition's local declarations.
func (s Signature) ArgNames() map[string]bool {
	names := make(map[string]bool, len(s.Args))
	for _, a := range s.Args {
		names[a.Name] = true
	}
	return names
}
