// Package codegen implements the code generator (component C4): it walks a
// type-checked ir.Definition and emits a single self-contained C
// translation unit, tracking the per-grid history depth the grid runtime
// (package grid) must provision before the first call (spec.md §4.4).
//
// Grounded on the teacher's cmd/internal/c/generator.go — same overall
// shape (a buffer + g.printf accumulation, walking a typed tree once,
// per-kind emit* methods) generalized from benc's struct marshal/unmarshal
// C emission to this port's stencil-kernel C emission.
package codegen

import (
	"fmt"
	"sort"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// Result is everything Generate hands back to the compile/load façade (C6):
// the generated C source and the history depth each Grid-typed parameter of
// the entry definition requires.
type Result struct {
	Source       string
	HistoryDepth map[string]int // by grid parameter name
}

// Generator holds the state of one Generate call. A fresh Generator is
// created per call; it is not reused (mirrors the teacher's per-Generate
// `generator` value in cmd/internal/c/generator.go).
type Generator struct {
	w    *Writer
	opts Options

	entry     *ir.Definition
	functions map[string]*ir.Definition // ModeFunction defs reachable from entry, by name

	flags  map[*ir.Assignment]*StencilFlag
	depths map[string]int

	structs map[string]*typing.Struct
	grids   map[string]*typing.Grid

	kernel string // entry.Name, used to tag CodegenError
}

// Generate emits the C translation unit for entry. functions is the full
// set of ModeFunction definitions entry may call (by name) — codegen
// resolves which of them are actually reachable and emits only those, in
// name order (see reachableFunctions), before the entry point itself.
func Generate(entry *ir.Definition, functions map[string]*ir.Definition, opts Options) (*Result, error) {
	g := &Generator{
		w:         NewWriter(),
		opts:      opts,
		entry:     entry,
		functions: functions,
		structs:   make(map[string]*typing.Struct),
		grids:     make(map[string]*typing.Grid),
		kernel:    entry.Name,
	}

	reachable := g.reachableFunctions(entry)

	g.flags, g.depths = analyzeStencils(entry.Body)
	for _, fn := range reachable {
		flags, depths := analyzeStencils(fn.Body)
		for k, v := range flags {
			g.flags[k] = v
		}
		for k, v := range depths {
			if v > g.depths[k] {
				g.depths[k] = v
			}
		}
	}

	g.collectTypes(entry)
	for _, fn := range reachable {
		g.collectTypes(fn)
	}

	if err := g.emitPreamble(); err != nil {
		return nil, err
	}
	g.emitTypes()

	for _, fn := range reachable {
		if err := g.emitDefinition(fn, false); err != nil {
			return nil, err
		}
	}
	if err := g.emitDefinition(entry, true); err != nil {
		return nil, err
	}

	result := &Result{Source: g.w.String(), HistoryDepth: make(map[string]int, len(g.depths))}
	for name, maxOffset := range g.depths {
		result.HistoryDepth[name] = maxOffset + 1
	}
	return result, nil
}

// reachableFunctions walks every Call inside def (and transitively inside
// whatever ModeFunction bodies those calls reach) and returns the set of
// ModeFunction definitions used, in a deterministic (name-sorted) order so
// emission order — and therefore the generated source — never depends on
// map iteration (spec.md §8 property 3, "codegen stability").
func (g *Generator) reachableFunctions(def *ir.Definition) []*ir.Definition {
	visited := map[string]bool{def.Name: true}
	var order []string
	var visit func(body []ir.Statement)
	visit = func(body []ir.Statement) {
		for _, name := range calledFunctionNames(body) {
			if visited[name] {
				continue
			}
			fn, ok := g.functions[name]
			if !ok {
				continue
			}
			visited[name] = true
			order = append(order, name)
			visit(fn.Body)
		}
	}
	visit(def.Body)
	sort.Strings(order)

	defs := make([]*ir.Definition, len(order))
	for i, name := range order {
		defs[i] = g.functions[name]
	}
	return defs
}

func calledFunctionNames(body []ir.Statement) []string {
	var names []string
	record := func(e ir.Expression) {
		ir.WalkExpression(e, func(x ir.Expression) bool {
			if c, ok := x.(*ir.Call); ok && c.Callee.Kind == ir.CalleeFunction {
				names = append(names, c.Callee.Name)
			}
			return true
		})
	}
	var walk func([]ir.Statement)
	walk = func(stmts []ir.Statement) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *ir.Assignment:
				record(n.Value)
				record(n.Terminal)
			case *ir.Evaluation:
				record(n.Value)
			case *ir.Return:
				if n.Value != nil {
					record(n.Value)
				}
			case *ir.If:
				record(n.Cond)
				walk(n.Body)
				walk(n.Else)
			case *ir.While:
				record(n.Cond)
				walk(n.Body)
			case *ir.For:
				record(n.Start)
				record(n.End)
				record(n.Step)
				walk(n.Body)
			}
		}
	}
	walk(body)
	return names
}

// collectTypes records every Struct and Grid type reachable from def's
// signature and locals, so emitTypes can declare them all before any
// function body references them.
func (g *Generator) collectTypes(def *ir.Definition) {
	for _, v := range def.Locals {
		g.collectType(v.Type)
	}
	g.collectType(def.Signature.ReturnType)
}

func (g *Generator) collectType(t typing.Type) {
	switch v := t.(type) {
	case *typing.Struct:
		if _, ok := g.structs[v.Name]; ok {
			return
		}
		g.structs[v.Name] = v
		for _, f := range v.Fields {
			g.collectType(f.Type)
		}
	case *typing.Ptr:
		g.collectType(v.Element)
	case *typing.Grid:
		name := gridTypeName(v)
		if _, ok := g.grids[name]; ok {
			return
		}
		g.grids[name] = v
		g.collectType(v.Element)
	}
}

func (g *Generator) emitPreamble() error {
	g.w.Printf("#include <stdint.h>")
	g.w.Printf("#include <stdbool.h>")
	g.w.Printf("#include <stdlib.h>")
	g.w.Printf("#include <math.h>")
	g.w.Printf("#include <string.h>")
	if g.opts.Parallel {
		g.w.Printf("#include <omp.h>")
	}
	includes := append([]string{}, g.entry.Includes...)
	for _, fn := range g.functions {
		includes = append(includes, fn.Includes...)
	}
	sort.Strings(includes)
	seen := make(map[string]bool)
	for _, inc := range includes {
		if seen[inc] {
			continue
		}
		seen[inc] = true
		g.w.Printf("#include %q", inc+".h")
	}
	g.w.Blank()
	return nil
}

// emitTypes declares every collected Struct before any collected Grid,
// since a Grid's element type may itself be a Struct (struct defs must
// precede their use).
func (g *Generator) emitTypes() {
	names := make([]string, 0, len(g.structs))
	for name := range g.structs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g.emitStructDef(g.structs[name])
	}

	gridNames := make([]string, 0, len(g.grids))
	for name := range g.grids {
		gridNames = append(gridNames, name)
	}
	sort.Strings(gridNames)
	for _, name := range gridNames {
		g.emitGridDef(g.grids[name])
	}
}

// emitDefinition writes one operator's C function: `static` for an internal
// helper (ModeFunction), plain external linkage for the exported entry
// point (spec.md §4.4's "compiled entrypoint").
func (g *Generator) emitDefinition(def *ir.Definition, exported bool) error {
	ret := cTypeOf(def.Signature.ReturnType)
	params := make([]string, len(def.Signature.Args))
	for i, a := range def.Signature.Args {
		params[i] = fmt.Sprintf("%s %s", cTypeOf(a.Type), a.Name)
	}
	paramList := "void"
	if len(params) > 0 {
		paramList = joinParams(params)
	}

	qualifier := "static "
	if exported {
		qualifier = ""
	}
	g.w.Printf("%s%s %s(%s) {", qualifier, ret, def.Name, paramList)
	unindent := g.w.Indent()

	argNames := def.Signature.ArgNames()
	localNames := make([]string, 0, len(def.Locals))
	for name := range def.Locals {
		if argNames[name] {
			continue
		}
		localNames = append(localNames, name)
	}
	sort.Strings(localNames)
	for _, name := range localNames {
		v := def.Locals[name]
		g.w.Printf("%s %s;", cTypeOf(v.Type), v.Name)
	}

	if err := g.emitStatements(def.Body); err != nil {
		unindent()
		return err
	}
	unindent()
	g.w.Printf("}")
	g.w.Blank()
	return nil
}
