package ffi

import (
	"reflect"
	"sync"

	"github.com/xgrid-go/xgrid/ir"
)

// Kernel is one registered operator: its checked IR plus a lazily-bound
// native callable cached on the kernel itself, so a second invoke of the
// same kernel skips codegen, compilation and symbol resolution entirely.
//
// Grounded directly on xgrid/lang/operator.py (original_source)'s
// Operator class: `self.native = None`, filled in by the first __call__
// via `Generator(self).native`, and never rebuilt afterward.
type Kernel struct {
	Def        *ir.Definition
	EntryPoint string // falls back to Def.Name when empty

	mu     sync.Mutex
	bound  bool
	call   func([]reflect.Value) []reflect.Value
	depths map[string]int // required history depth, by grid parameter name
}

func (k *Kernel) entryName() string {
	if k.EntryPoint != "" {
		return k.EntryPoint
	}
	return k.Def.Name
}

// Invalid call to non-kernel operator — only a ModeKernel Definition may be
// invoked through the FFI boundary (ModeFunction and ModeExternal
// definitions only ever appear as callees reachable from a kernel's body).
func (k *Kernel) checkInvocable() error {
	if k.Def.Mode != ir.ModeKernel {
		return &ArgumentError{Kernel: k.entryName(), Reason: "invalid call to non-kernel operator"}
	}
	return nil
}
