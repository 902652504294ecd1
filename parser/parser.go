// Package parser implements the semantic analyzer (component C3): it lifts
// a host Go *ast.FuncDecl, together with an explicit Environment (spec.md
// §9's "Dynamic globals" design note), into a fully type-checked
// ir.Definition. See SPEC_FULL.md §0 for how the sublanguage's constructs
// are spelled in real, parseable Go syntax.
package parser

import (
	"go/ast"
	"go/token"
	"strconv"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// Parser holds the mutable state of one Definition lowering. A fresh Parser
// is created per top-level function by ParseFunc; it is not reused.
type Parser struct {
	file     string
	funcName string
	fset     *token.FileSet
	env      *Environment

	contexts []contextFrame
	scope    map[string]ir.Variable
	locals   map[string]ir.Variable
	includes []string

	floatWidth int // default precision in bytes (4 or 8), from xgrid.Config
	receiver   *typing.Struct
}

// CollectIncludes extracts the include-request list SPEC_FULL.md §0 assigns
// to a genuine Go import declaration: each import path, unchanged; codegen
// appends ".h" to it to name the C header every operator declared in that
// file includes.
func CollectIncludes(file *ast.File) []string {
	var includes []string
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		includes = append(includes, path)
	}
	return includes
}

// ParseFunc lowers one function declaration into an ir.Definition. mode
// distinguishes kernel/function/external (spec.md's glossary); floatWidth is
// the configured default float precision in bytes, used by CheckBinary's
// Pow-widening rule; includes comes from CollectIncludes on the owning file.
func ParseFunc(fn *ast.FuncDecl, fset *token.FileSet, file string, mode ir.Mode, env *Environment, floatWidth int, includes []string) (*ir.Definition, error) {
	p := &Parser{
		file:       file,
		funcName:   fn.Name.Name,
		fset:       fset,
		env:        env,
		scope:      make(map[string]ir.Variable),
		locals:     make(map[string]ir.Variable),
		includes:   includes,
		floatWidth: floatWidth,
	}

	modeCtx := ctxKernel
	switch mode {
	case ir.ModeFunction:
		modeCtx = ctxFunction
	case ir.ModeExternal:
		modeCtx = ctxExternal
	}
	p.push(modeCtx)
	defer p.pop()

	sig, err := p.buildSignature(fn)
	if err != nil {
		return nil, err
	}

	if mode == ir.ModeExternal {
		return ir.NewDefinition(p.loc(fn), fn.Name.Name, mode, sig, p.locals, nil, p.includes), nil
	}

	if fn.Body == nil {
		return nil, p.errorf(fn, "%s has no body", mode)
	}
	if err := p.validatePragmaPlacement(fn); err != nil {
		return nil, err
	}

	body, err := p.lowerBlock(fn.Body.List, sig.ReturnType)
	if err != nil {
		return nil, err
	}

	return ir.NewDefinition(p.loc(fn), fn.Name.Name, mode, sig, p.locals, body, p.includes), nil
}

func (p *Parser) loc(node ast.Node) ir.Location {
	line := 0
	if node != nil {
		line = p.fset.Position(node.Pos()).Line
	}
	return ir.Location{File: p.file, Func: p.funcName, Line: line}
}

// buildSignature lowers the receiver (if any), parameters and return
// annotation, declaring receiver/parameters as locals in the new scope
// (spec.md §4.3 "Kernel signature lowering").
func (p *Parser) buildSignature(fn *ast.FuncDecl) (ir.Signature, error) {
	if fn.Recv != nil {
		if len(fn.Recv.List) != 1 {
			return ir.Signature{}, p.errorf(fn.Recv, "only a single receiver is supported")
		}
		recv := fn.Recv.List[0]
		name, ok := identName(recv.Type)
		if !ok {
			return ir.Signature{}, p.errorf(recv, "unsupported receiver type")
		}
		st, ok := p.env.ResolveStruct(name)
		if !ok {
			return ir.Signature{}, p.errorf(recv, "receiver type %q is not a registered struct", name)
		}
		p.receiver = st
		if len(recv.Names) == 1 {
			p.declareLocal(ir.Variable{Name: recv.Names[0].Name, Type: st})
		}
	}

	var args []ir.Arg
	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			t, err := typing.ParseAnnotation(field.Type, p.env)
			if err != nil {
				return ir.Signature{}, err
			}
			if len(field.Names) == 0 {
				return ir.Signature{}, p.errorf(field, "parameters must be named")
			}
			for _, name := range field.Names {
				args = append(args, ir.Arg{Name: name.Name, Type: t})
				p.declareLocal(ir.Variable{Name: name.Name, Type: t})
			}
		}
	}

	retType, err := p.parseReturnAnnotation(fn.Type.Results)
	if err != nil {
		return ir.Signature{}, err
	}

	return ir.Signature{Args: args, ReturnType: retType}, nil
}

func (p *Parser) parseReturnAnnotation(results *ast.FieldList) (typing.Type, error) {
	if results == nil || len(results.List) == 0 {
		return typing.Void{}, nil
	}
	if len(results.List) != 1 || len(results.List[0].Names) > 1 {
		return nil, p.errorf(results, "a kernel, function or external declares at most one return value")
	}
	rt, err := typing.ParseAnnotation(results.List[0].Type, p.env)
	if err != nil {
		return nil, err
	}
	if _, isRef := rt.(typing.Reference); isRef {
		return nil, p.errorf(results, "reference types are not allowed as a return type, got %s", rt)
	}
	return rt, nil
}

func identName(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, true
	case *ast.StarExpr:
		return identName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name, true
	default:
		return "", false
	}
}

func unquote(lit *ast.BasicLit) (string, error) {
	if lit.Kind != token.STRING {
		return "", nil
	}
	return strconv.Unquote(lit.Value)
}
