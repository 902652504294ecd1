package codegen

import (
	"go/ast"
	"go/parser"
	gotoken "go/token"
	"strings"
	"testing"

	"github.com/xgrid-go/xgrid/ir"
	xgparser "github.com/xgrid-go/xgrid/parser"
)

func parseKernel(t *testing.T, src string, mode ir.Mode) *ir.Definition {
	t.Helper()
	fset := gotoken.NewFileSet()
	file, err := parser.ParseFile(fset, "k.go", "package k\n\n"+src, 0)
	if err != nil {
		t.Fatalf("fixture does not parse: %s", err)
	}
	var fn *ast.FuncDecl
	for _, decl := range file.Decls {
		if f, ok := decl.(*ast.FuncDecl); ok {
			fn = f
			break
		}
	}
	if fn == nil {
		t.Fatalf("fixture has no function declaration")
	}
	env := xgparser.NewEnvironment()
	def, err := xgparser.ParseFunc(fn, fset, "k.go", mode, env, 4, xgparser.CollectIncludes(file))
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	return def
}

func TestGenerateScalarAdd(t *testing.T) {
	def := parseKernel(t, `func add(a int32, b int32) int32 { return a + b + 10 }`, ir.ModeKernel)
	result, err := Generate(def, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Source, "int32_t add(int32_t a, int32_t b)") {
		t.Errorf("expected entry point signature in source:\n%s", result.Source)
	}
	if !strings.Contains(result.Source, "return ((a + b) + 10);") {
		t.Errorf("expected return statement in source:\n%s", result.Source)
	}
}

func TestGenerateGridFillStencilEmitsBoundaryGuardedLoop(t *testing.T) {
	src := `func fill(a xgrid.Grid2[int32]) {
		a[0, 0] = 4
	}`
	def := parseKernel(t, src, ir.ModeKernel)
	result, err := Generate(def, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"for (int32_t i0 = 0; i0 < a.shape[0]; i0++) {",
		"for (int32_t i1 = 0; i1 < a.shape[1]; i1++) {",
		"if (a.boundary_mask[",
		"__Grid2d_i32_at(a,",
	} {
		if !strings.Contains(result.Source, want) {
			t.Errorf("expected %q in source:\n%s", want, result.Source)
		}
	}
}

func TestGenerateParallelEmitsCollapsePragma(t *testing.T) {
	src := `func step(u xgrid.Grid1[float64]) {
		u[0] = u[0] - u[-1]
	}`
	def := parseKernel(t, src, ir.ModeKernel)
	result, err := Generate(def, nil, Options{Parallel: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Source, "#pragma omp parallel for collapse(1)") {
		t.Errorf("expected a collapse(1) pragma:\n%s", result.Source)
	}
	if !strings.Contains(result.Source, "#include <omp.h>") {
		t.Errorf("expected omp.h include when parallel is enabled:\n%s", result.Source)
	}
}

func TestGenerateHistoryDepthTracksMaxTimeOffset(t *testing.T) {
	src := `func step(u xgrid.Grid1[float64]) {
		u[0] = u[0] - u[0][-2]
	}`
	def := parseKernel(t, src, ir.ModeKernel)
	result, err := Generate(def, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if depth := result.HistoryDepth["u"]; depth != 3 {
		t.Errorf("expected history depth 3 (max offset 2 + 1), got %d", depth)
	}
}

func TestGenerateImplicitInPlaceRejectedWithoutParallel(t *testing.T) {
	src := `func step(u xgrid.Grid1[float64]) {
		u[0] = u[0][0] + u[0][-1]
	}`
	def := parseKernel(t, src, ir.ModeKernel)
	_, err := Generate(def, nil, Options{Parallel: false})
	if err == nil {
		t.Fatal("expected a CodegenError for an implicit in-place update under a serial configuration")
	}
	var cerr *CodegenError
	if ce, ok := err.(*CodegenError); ok {
		cerr = ce
	}
	if cerr == nil {
		t.Fatalf("expected *CodegenError, got %T: %v", err, err)
	}
}

func TestGenerateImplicitInPlaceAllowedWithParallel(t *testing.T) {
	src := `func step(u xgrid.Grid1[float64]) {
		u[0] = u[0][0] + u[0][-1]
	}`
	def := parseKernel(t, src, ir.ModeKernel)
	result, err := Generate(def, nil, Options{Parallel: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Source, "#pragma omp barrier") {
		t.Errorf("expected a barrier between compute and copy-back:\n%s", result.Source)
	}
}

func TestGenerateOverstepWrapClampsAccessor(t *testing.T) {
	src := `func step(u xgrid.Grid1[float64]) {
		u[0] = u[-1]
	}`
	def := parseKernel(t, src, ir.ModeKernel)
	result, err := Generate(def, nil, Options{Overstep: OverstepWrap})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Source, "% g.shape[0]") {
		t.Errorf("expected a modulo wrap in the accessor:\n%s", result.Source)
	}
}

func TestGenerateCastAndSelect(t *testing.T) {
	src := `func pick(a int32, b int32) float64 {
		return xgrid.Cast[float64](xgrid.Select(a > b, a, b))
	}`
	def := parseKernel(t, src, ir.ModeKernel)
	result, err := Generate(def, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Source, "? ") || !strings.Contains(result.Source, "(double)") {
		t.Errorf("expected a ternary cast to double:\n%s", result.Source)
	}
}

func TestGenerateReachableFunctionEmittedBeforeEntry(t *testing.T) {
	src := `func useHelper(a int32) int32 {
		return helper(a)
	}`
	def := parseKernel(t, src, ir.ModeKernel)

	helperFn := &ir.Definition{}
	_ = helperFn // constructed below via ir.NewDefinition for clarity

	functions := map[string]*ir.Definition{}
	helperDef := ir.NewDefinition(
		ir.Location{File: "k.go", Func: "helper", Line: 1},
		"helper",
		ir.ModeFunction,
		ir.Signature{
			Args:       []ir.Arg{{Name: "x", Type: def.Signature.Args[0].Type}},
			ReturnType: def.Signature.Args[0].Type,
		},
		map[string]ir.Variable{"x": {Name: "x", Type: def.Signature.Args[0].Type}},
		nil,
		nil,
	)
	functions["helper"] = helperDef

	// Patch entry's call resolution is already baked in by the parser, which
	// requires "helper" to exist in the Environment at parse time; re-parse
	// with an environment that knows about it instead.
	env := xgparser.NewEnvironment()
	env.Operators["helper"] = ir.Callee{
		Name:      "helper",
		Signature: helperDef.Signature,
		Kind:      ir.CalleeFunction,
	}
	fset := gotoken.NewFileSet()
	file, err := parser.ParseFile(fset, "k.go", "package k\n\n"+src, 0)
	if err != nil {
		t.Fatal(err)
	}
	var fn *ast.FuncDecl
	for _, decl := range file.Decls {
		if f, ok := decl.(*ast.FuncDecl); ok {
			fn = f
		}
	}
	entry, err := xgparser.ParseFunc(fn, fset, "k.go", ir.ModeKernel, env, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Generate(entry, functions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	helperIdx := strings.Index(result.Source, "static int32_t helper(")
	entryIdx := strings.Index(result.Source, "int32_t useHelper(")
	if helperIdx == -1 || entryIdx == -1 || helperIdx > entryIdx {
		t.Errorf("expected helper defined (static) before the exported entry point:\n%s", result.Source)
	}
}
