package parser

import (
	"fmt"
	"go/ast"
	"go/token"
)

// SemanticError is the single fatal error kind the parser raises (spec.md
// §4.3/§7): the parser does not try to recover — the first problem aborts
// lowering of the current definition.
type SemanticError struct {
	File     string
	Func     string
	Line     int
	Reason   string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("File %s, line %d, in %s: semantic error: %s", e.File, e.Line, e.Func, e.Reason)
}

func (p *Parser) errorf(node ast.Node, format string, args ...any) error {
	line := 0
	if node != nil {
		line = p.fset.Position(node.Pos()).Line
	}
	return &SemanticError{
		File:   p.file,
		Func:   p.funcName,
		Line:   line,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) unsupported(node ast.Node) error {
	return p.errorf(node, "Go syntax '%s' is currently unsupported in a kernel body", astKind(node))
}

func astKind(node ast.Node) string {
	return fmt.Sprintf("%T", node)
}

// isAssignToken reports whether tok is one of the assignment operators this
// language lowers: plain `=`, `:=`, or an augmented `+=`/`-=`/`*=`/`/=`/`%=`.
func isAssignToken(tok token.Token) bool {
	switch tok {
	case token.ASSIGN, token.DEFINE,
		token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.QUO_ASSIGN, token.REM_ASSIGN:
		return true
	default:
		return false
	}
}
