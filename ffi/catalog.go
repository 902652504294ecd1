package ffi

import (
	"fmt"
	"sync"

	"github.com/xgrid-go/xgrid/ir"
)

// Catalog is the process-wide operator table: every kernel, function and
// external registered so far, by name. invoke's lazy-compile step reads
// Functions() to resolve which ModeFunction definitions a kernel
// transitively calls — the `functions` argument codegen.Generate expects.
//
// This is the registry half of spec.md §3's "Operator catalog"; the
// compiled-artifact half (fingerprint → shared_library_path) is
// fingerprintCache, owned by Compiler.
type Catalog struct {
	mu        sync.Mutex
	operators map[string]*Kernel
}

func NewCatalog() *Catalog {
	return &Catalog{operators: make(map[string]*Kernel)}
}

// Register adds k under its entry name. Registering the same name twice is
// an error — operator names are a flat, process-wide namespace.
func (c *Catalog) Register(k *Kernel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := k.entryName()
	if _, exists := c.operators[name]; exists {
		return fmt.Errorf("ffi: operator %q is already registered", name)
	}
	c.operators[name] = k
	return nil
}

func (c *Catalog) Lookup(name string) (*Kernel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k, ok := c.operators[name]
	return k, ok
}

// Functions returns the ModeFunction subset of the catalog, by name — the
// set codegen.Generate may need to emit as helper functions reachable from
// a kernel entry point.
func (c *Catalog) Functions() map[string]*ir.Definition {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*ir.Definition, len(c.operators))
	for name, k := range c.operators {
		if k.Def.Mode == ir.ModeFunction {
			out[name] = k.Def
		}
	}
	return out
}
