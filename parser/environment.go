package parser

import (
	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// Environment is the explicit replacement for "reach into host globals"
// (spec.md §9's "Dynamic globals" design note): every free name the parser
// cannot resolve in the local scope is looked up here. It is constructed
// once per compile unit and passed in — there is no package-level registry.
type Environment struct {
	// Structs holds every `type Name struct{...}` declaration collected
	// from the source file, keyed by name. Implements typing.StructResolver.
	Structs map[string]*typing.Struct

	// Operators holds every other kernel/function/external Definition's
	// callable signature in this compile unit, keyed by name, and methods
	// keyed by "Receiver.Method".
	Operators map[string]ir.Callee

	// Constants holds free names bound to a literal value outside the
	// local scope, as filled in by whoever builds the Environment;
	// package-level `const` declarations in an operator's source file are
	// not collected into it.
	Constants map[string]ConstantEntry
}

// ConstantEntry is one environment-bound constant.
type ConstantEntry struct {
	Value any
	Type  typing.Value
}

func NewEnvironment() *Environment {
	return &Environment{
		Structs:   make(map[string]*typing.Struct),
		Operators: make(map[string]ir.Callee),
		Constants: make(map[string]ConstantEntry),
	}
}

func (e *Environment) ResolveStruct(name string) (*typing.Struct, bool) {
	s, ok := e.Structs[name]
	return s, ok
}

func (e *Environment) lookupOperator(name string) (ir.Callee, bool) {
	c, ok := e.Operators[name]
	return c, ok
}

func (e *Environment) lookupMethod(receiver, name string) (ir.Callee, bool) {
	c, ok := e.Operators[receiver+"."+name]
	return c, ok
}

func (e *Environment) lookupConstant(name string) (ConstantEntry, bool) {
	c, ok := e.Constants[name]
	return c, ok
}

// RegisterDefinition adds a just-parsed Definition's callable signature to
// the environment so later definitions in the same compile unit can call it
// (spec.md §4.3 call-resolution case (c), global Operator).
func (e *Environment) RegisterDefinition(def *ir.Definition, receiver *typing.Struct) {
	callee := ir.Callee{Name: def.Name, Signature: def.Signature, Kind: ir.CalleeFunction}
	if receiver != nil {
		e.Operators[receiver.Name+"."+def.Name] = callee
		return
	}
	e.Operators[def.Name] = callee
}
