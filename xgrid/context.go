package xgrid

import (
	"sync"

	"github.com/xgrid-go/xgrid/codegen"
	"github.com/xgrid-go/xgrid/ffi"
	"github.com/xgrid-go/xgrid/parser"
)

// Context threads the operator catalog, the shared compile-unit
// environment, the compile cache and the active Config through every call
// that ultimately reaches parser/codegen/ffi — spec.md §9's "Process-wide
// cache" design note, made an explicit, caller-supplied argument rather
// than a package-level global (per §1 of SPEC_FULL.md: "nothing inside
// typing, ir, parser, codegen, grid, ffi reads a global"). Default() exists
// purely for ergonomics at the call site closest to user code, mirroring
// the original's module-level `_config`/`get_config()` singleton
// (xgrid/util/init.py).
type Context struct {
	Config  *Config
	Catalog *ffi.Catalog

	// Env is the shared parser.Environment every Kernel/Function/External
	// call on this Context registers into, so later operators can call or
	// embed structs from earlier ones (see env() in operator.go). Left nil
	// until first use.
	Env *parser.Environment

	compiler *ffi.Compiler
}

// NewContext builds a Context with a fresh, empty operator catalog. The
// Compiler is created lazily on first use (see compilerFor()), since
// resolving cc and creating cacheroot can fail and Config may still be
// edited by the caller beforehand.
func NewContext(cfg *Config) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Context{Config: cfg, Catalog: ffi.NewCatalog()}
}

func (c *Context) compilerFor() (*ffi.Compiler, error) {
	if c.compiler != nil {
		return c.compiler, nil
	}
	compiler, err := ffi.NewCompiler(c.Config.CacheRoot, c.Config.CC)
	if err != nil {
		return nil, err
	}
	c.compiler = compiler
	return compiler, nil
}

// Invoke compiles (on first use) and calls k with args, per spec.md
// §4.6. It is the host-facing entry point Kernel values returned by
// Context.Kernel are invoked through.
func (c *Context) Invoke(k *ffi.Kernel, args ...any) (any, error) {
	compiler, err := c.compilerFor()
	if err != nil {
		return nil, err
	}
	opts := ffi.CompileOptions{CFlags: c.Config.CFlags(), Codegen: c.Config.codegenOptions()}
	return ffi.Invoke(c.Catalog, compiler, opts, k, args...)
}

// Source translates k to C without compiling or loading it — the path
// cmd/xgridc's -dump=c mode drives, useful for inspecting generated code
// without a C toolchain on PATH.
func (c *Context) Source(k *ffi.Kernel) (string, error) {
	def := *k.Def
	if k.EntryPoint != "" {
		def.Name = k.EntryPoint
	}
	result, err := codegen.Generate(&def, c.Catalog.Functions(), c.Config.codegenOptions())
	if err != nil {
		return "", err
	}
	return result.Source, nil
}

var (
	defaultMu  sync.Mutex
	defaultCtx *Context
)

// Default returns the process-wide Context, creating one with
// DefaultConfig on first use — the Go-idiomatic counterpart to the
// original's module-level `get_config()` singleton, minus the "call init
// first or die" requirement, since Go has no equivalent of crashing at
// import time.
func Default() *Context {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtx == nil {
		defaultCtx = NewContext(DefaultConfig())
	}
	return defaultCtx
}

// SetDefault replaces the process-wide Context, the Go-port equivalent of
// calling the original's init() again with a new Configuration.
func SetDefault(ctx *Context) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCtx = ctx
}
