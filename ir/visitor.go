package ir

// WalkExpression visits e and every Expression it transitively contains,
// calling fn on each one in pre-order; fn returning false stops the
// descent into that node's children (but sibling nodes are still visited).
// This is the Go-idiom stand-in for the original's class-hierarchy
// `IRVisitor.visit` dispatch (spec.md §9: "the visitor becomes a match on
// the tag") — callers that need one case per node kind still write a type
// switch, but anything that merely needs to ask "does this subtree contain
// an X" (codegen's StencilFlag pre-pass, for one) can use this instead of
// writing its own recursive descent.
func WalkExpression(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Access:
		WalkExpression(n.Base, fn)
	case *Binary:
		WalkExpression(n.Left, fn)
		WalkExpression(n.Right, fn)
	case *Unary:
		WalkExpression(n.Operand, fn)
	case *Condition:
		WalkExpression(n.Cond, fn)
		WalkExpression(n.Then, fn)
		WalkExpression(n.Else, fn)
	case *Cast:
		WalkExpression(n.Value, fn)
	case *Call:
		for _, a := range n.Args {
			WalkExpression(a, fn)
		}
	case *GridInfo:
		if n.Dim != nil {
			WalkExpression(n.Dim, fn)
		}
	case *Constant, *Identifier, *Stencil:
		// leaves
	}
}

// ContainsStencil reports whether e or any sub-expression of e is a Stencil
// node, of any grid and any time offset (ReadsGridAtNow is the narrower
// check codegen uses to detect the "implicit in-place" pattern).
func ContainsStencil(e Expression) bool {
	found := false
	WalkExpression(e, func(x Expression) bool {
		if _, ok := x.(*Stencil); ok {
			found = true
		}
		return !found
	})
	return found
}

// ReadsGridAtNow reports whether e contains a Stencil load of gridVar at
// time offset 0.
func ReadsGridAtNow(e Expression, gridVar string) bool {
	found := false
	WalkExpression(e, func(x Expression) bool {
		if s, ok := x.(*Stencil); ok && s.Ctx == Load && s.GridVar.Name == gridVar && s.TimeOffset == 0 {
			found = true
		}
		return !found
	})
	return found
}
