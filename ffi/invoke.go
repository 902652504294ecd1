// Package ffi implements the compile/load/call façade (component C6): it
// turns a checked kernel IR into a cached native shared library and a
// callable binding, and drives the per-call marshal/invoke/rotate sequence
// spec.md §4.6 specifies.
//
// Grounded on xgrid/util/ffi.py and xgrid/lang/operator.py
// (original_source): the same compile-cache-then-load-then-bind shape, the
// same lazy per-kernel native reference, reworked around
// github.com/ebitengine/purego's dlopen/dlsym/RegisterFunc in place of
// ctypes.
package ffi

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/xgrid-go/xgrid/codegen"
	"github.com/xgrid-go/xgrid/grid"
	"github.com/xgrid-go/xgrid/typing"
)

// CompileOptions is the subset of the configuration surface (spec.md §6)
// invoke needs to turn a kernel's IR into a bound native call: the C
// compiler flags and the code generator's behavior switches. The root
// xgrid package derives both from one user-facing Config; ffi stays
// ignorant of Config itself to avoid an import cycle (xgrid imports ffi,
// not the reverse).
type CompileOptions struct {
	CFlags  []string
	Codegen codegen.Options
}

// Invoke runs k with args, compiling and binding it on first use and
// reusing the cached native call on every subsequent invocation (spec.md
// §8 property 4, "Cache idempotence"). This is spec.md §4.6's four-step
// algorithm: lazily bind, PrepareFor each Grid argument, marshal/call/
// demarshal, then Rotate each Grid argument.
func Invoke(catalog *Catalog, compiler *Compiler, opts CompileOptions, k *Kernel, args ...any) (any, error) {
	if err := k.checkInvocable(); err != nil {
		return nil, err
	}
	if err := k.ensureBound(catalog, compiler, opts); err != nil {
		return nil, err
	}

	sig := k.Def.Signature
	if len(args) != len(sig.Args) {
		return nil, &ArgumentError{
			Kernel: k.entryName(),
			Reason: fmt.Sprintf("expected %d arguments, got %d", len(sig.Args), len(args)),
		}
	}

	marshaled := make([]reflect.Value, len(args))
	var grids []*grid.Grid
	var keepAlive []any

	for i, a := range sig.Args {
		switch t := a.Type.(type) {
		case *typing.Grid:
			g, ok := args[i].(*grid.Grid)
			if !ok {
				return nil, &ArgumentError{Kernel: k.entryName(), Reason: fmt.Sprintf("argument %q: expected *grid.Grid, got %T", a.Name, args[i])}
			}
			g.PrepareFor(k.depths[a.Name])
			m := g.Marshal()
			marshaled[i] = m.Record
			grids = append(grids, g)
			keepAlive = append(keepAlive, m.Data)

		case *typing.Ptr:
			rv := reflect.ValueOf(args[i])
			if rv.Kind() != reflect.Ptr {
				return nil, &ArgumentError{Kernel: k.entryName(), Reason: fmt.Sprintf("argument %q: expected a pointer, got %T", a.Name, args[i])}
			}
			marshaled[i] = typing.MarshalPointer(t, rv.UnsafePointer())
			keepAlive = append(keepAlive, args[i])

		default:
			v, ok := a.Type.(typing.Value)
			if !ok {
				return nil, &ArgumentError{Kernel: k.entryName(), Reason: fmt.Sprintf("argument %q: unsupported signature type %s", a.Name, a.Type)}
			}
			rv, err := typing.Marshal(v, args[i])
			if err != nil {
				return nil, &ArgumentError{Kernel: k.entryName(), Reason: err.Error()}
			}
			marshaled[i] = rv
		}
	}

	out := k.call(marshaled)
	runtime.KeepAlive(keepAlive)

	for _, g := range grids {
		g.Rotate()
	}

	rt, ok := sig.ReturnType.(typing.Value)
	if len(out) == 0 || !ok {
		return nil, nil
	}
	return typing.Demarshal(rt, out[0]), nil
}

// ensureBound compiles and binds k's native entry point on first call,
// caching the result on k itself (spec.md §4.6 step 1) — the Go-port
// equivalent of xgrid/lang/operator.py's Operator.__call__ lazily filling
// in self.native.
func (k *Kernel) ensureBound(catalog *Catalog, compiler *Compiler, opts CompileOptions) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.bound {
		return nil
	}

	def := *k.Def
	def.Name = k.entryName()
	result, err := codegen.Generate(&def, catalog.Functions(), opts.Codegen)
	if err != nil {
		return err
	}
	libPath, err := compiler.Compile(result.Source, opts.CFlags)
	if err != nil {
		return err
	}
	lib, err := openLibrary(libPath)
	if err != nil {
		return err
	}
	call, err := lib.Bind(k.entryName(), k.Def.Signature)
	if err != nil {
		return err
	}

	k.call = call
	k.depths = result.HistoryDepth
	k.bound = true
	return nil
}
