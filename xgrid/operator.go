package xgrid

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"iter"

	"github.com/xgrid-go/xgrid/ffi"
	"github.com/xgrid-go/xgrid/ir"
	xgparser "github.com/xgrid-go/xgrid/parser"
	"github.com/xgrid-go/xgrid/typing"
)

// env returns the compile unit shared by every Kernel/Function/External call
// made through this Context — parser.Environment's doc comment is explicit
// that it is "constructed once per compile unit and passed in", so a
// Context owns exactly one, letting an operator defined on one call
// reference a struct or operator registered by an earlier call on the same
// Context (spec.md §4.3 call-resolution case (c)).
func (c *Context) env() *xgparser.Environment {
	if c.Env == nil {
		c.Env = xgparser.NewEnvironment()
	}
	return c.Env
}

// Kernel registers src — the text of exactly one Go function declaration,
// written in the host surface SPEC_FULL.md §0 describes — as an invocable
// stencil kernel. entryPoint overrides the exported C symbol name; when
// omitted it defaults to the function's own name.
//
// Grounded on xgrid/lang/operator.py (original_source)'s `kernel()`
// decorator factory: where the original wraps a live Python function object
// (recovering its source via inspect.getsource), Go has no equivalent of
// recovering a function literal's source text at runtime, so the host
// surface here is the source text itself.
func (c *Context) Kernel(src string, entryPoint ...string) (*ffi.Kernel, error) {
	ep := ""
	if len(entryPoint) > 0 {
		ep = entryPoint[0]
	}
	return c.define(src, ir.ModeKernel, ep)
}

// Function registers src as a helper operator callable only from a kernel's
// body, never directly through Invoke (ffi.Kernel.checkInvocable enforces
// this). Grounded on operator.py's `function()` decorator factory.
func (c *Context) Function(src string) (*ffi.Kernel, error) {
	return c.define(src, ir.ModeFunction, "")
}

// External registers src as a signature-only declaration of a
// foreign-library C function a kernel may call, never itself translated to
// C by codegen. Grounded on operator.py's `external()` decorator factory.
func (c *Context) External(src string) (*ffi.Kernel, error) {
	return c.define(src, ir.ModeExternal, "")
}

func (c *Context) define(src string, mode ir.Mode, entryPoint string) (*ffi.Kernel, error) {
	env := c.env()

	fset := token.NewFileSet()
	wrapped := "package xgridsource\n\n" + src
	file, err := parser.ParseFile(fset, "<kernel>", wrapped, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("xgrid: parsing operator source: %w", err)
	}

	// Struct declarations must be registered before any FuncDecl is parsed:
	// a method's receiver type is resolved via env.ResolveStruct before its
	// body is lowered (parser.ParseFunc's buildSignature).
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			sv, err := typing.RegisterStruct(ts.Name.Name, st, env)
			if err != nil {
				return nil, fmt.Errorf("xgrid: registering struct %s: %w", ts.Name.Name, err)
			}
			env.Structs[ts.Name.Name] = sv
		}
	}

	fn, err := soleFuncDecl(file)
	if err != nil {
		return nil, err
	}

	includes := xgparser.CollectIncludes(file)
	def, err := xgparser.ParseFunc(fn, fset, "<kernel>", mode, env, c.Config.FloatSize(), includes)
	if err != nil {
		return nil, err
	}

	receiver := methodReceiver(fn, env)
	env.RegisterDefinition(def, receiver)

	k := &ffi.Kernel{Def: def, EntryPoint: entryPoint}
	if err := c.Catalog.Register(k); err != nil {
		return nil, err
	}
	return k, nil
}

func soleFuncDecl(file *ast.File) (*ast.FuncDecl, error) {
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("xgrid: operator source declares no function")
}

// methodReceiver mirrors parser.parser.go's buildSignature receiver
// resolution so RegisterDefinition files a method under "Receiver.Method"
// the same way buildSignature itself will have resolved it.
func methodReceiver(fn *ast.FuncDecl, env *xgparser.Environment) *typing.Struct {
	if fn.Recv == nil || len(fn.Recv.List) != 1 {
		return nil
	}
	name, ok := receiverTypeName(fn.Recv.List[0].Type)
	if !ok {
		return nil
	}
	st, _ := env.ResolveStruct(name)
	return st
}

func receiverTypeName(expr ast.Expr) (string, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, true
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	default:
		return "", false
	}
}

// C marks a block of raw C source spliced directly into a kernel's
// generated body (SPEC_FULL.md §0: `with c(): ...` spelled as
// `xgrid.C(func(){...})`). Its argument is only ever read as source text by
// Context.Kernel/Function — parser.lowerCBlock lowers the literal body of
// the enclosing FuncLit — so this definition exists only to make a kernel
// source file real, gofmt-able, go-vet-clean Go.
func C(body func()) {}

// Boundary marks body as the replacement stencil body used for cells whose
// boundary mask equals mask (`with boundary(mask): ...`).
func Boundary(mask int32, body func()) {}

// Range is the host spelling of spec.md's `range(start, end[, step])`,
// consumed with Go's range-over-func: `for i := range xgrid.Range(0, n)`.
// Unlike C/Boundary, this one has real, runnable semantics — the same
// bounded loop the generated C performs — so it behaves sanely if a caller
// ever evaluates operator source directly as Go rather than feeding it to
// Context.Kernel.
func Range[T typing.Number](bounds ...T) iter.Seq[T] {
	if len(bounds) < 2 || len(bounds) > 3 {
		panic("xgrid.Range takes 2 or 3 arguments (start, end[, step])")
	}
	start, end := bounds[0], bounds[1]
	step := T(1)
	if len(bounds) == 3 {
		step = bounds[2]
	}
	return func(yield func(T) bool) {
		if step < 0 {
			for i := start; i > end; i += step {
				if !yield(i) {
					return
				}
			}
			return
		}
		for i := start; i < end; i += step {
			if !yield(i) {
				return
			}
		}
	}
}

// Cast is the host spelling of spec.md's `cast(T, e)`.
func Cast[T any](v any) T {
	if t, ok := v.(T); ok {
		return t
	}
	var zero T
	return zero
}

// Select is the host spelling of the ternary `cond ? then : else` — Go has
// no conditional expression operator, so kernel source spells it as a call.
func Select[T any](cond bool, then, els T) T {
	if cond {
		return then
	}
	return els
}
