package parser

import "github.com/xgrid-go/xgrid/ir"

// scope is the single flat local symbol table of spec.md §4.3: "a single
// flat local symbol table keyed by name -> Variable. A separate reference
// to the enclosing host global scope is consulted for name lookup when the
// local scope misses." There is deliberately no nested block scoping — a
// name declared inside an `if` body is visible for the rest of the
// definition, matching the original's single dict-backed scope.
func (p *Parser) declareLocal(v ir.Variable) {
	p.scope[v.Name] = v
	p.locals[v.Name] = v
}

func (p *Parser) lookupLocal(name string) (ir.Variable, bool) {
	v, ok := p.scope[name]
	return v, ok
}
