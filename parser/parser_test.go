package parser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

func parseFunc(t *testing.T, src string, mode ir.Mode, env *Environment) (*ir.Definition, error) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "k.go", "package k\n\n"+src, 0)
	if err != nil {
		t.Fatalf("source fixture does not parse: %s", err)
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
	if env == nil {
		env = NewEnvironment()
	}
	return ParseFunc(fn, fset, "k.go", mode, env, 4, CollectIncludes(file))
}

func TestParseFuncScalarAdd(t *testing.T) {
	def, err := parseFunc(t, `func add(a int32, b int32) int32 { return a + b + 10 }`, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Body) != 1 {
		t.Fatalf("expected one statement, got %d", len(def.Body))
	}
	ret, ok := def.Body[0].(*ir.Return)
	if !ok {
		t.Fatalf("expected Return, got %T", def.Body[0])
	}
	if !typing.Equal(ret.Value.Type().(typing.Value), typing.Int{WidthBytes: 4}) {
		t.Errorf("expected int32 result, got %s", ret.Value.Type())
	}
}

func TestParseFuncMissingReturnValue(t *testing.T) {
	_, err := parseFunc(t, `func bad(a int32) int32 { return }`, ir.ModeKernel, nil)
	if err == nil {
		t.Fatal("expected a SemanticError for missing return value")
	}
}

func TestParseFuncReferenceReturnRejected(t *testing.T) {
	_, err := parseFunc(t, `func bad(a int32) *int32 { return &a }`, ir.ModeKernel, nil)
	if err == nil {
		t.Fatal("expected a SemanticError: references are not allowed as a return type")
	}
}

func TestParseFuncUndefinedName(t *testing.T) {
	_, err := parseFunc(t, `func bad() int32 { return missing }`, ir.ModeKernel, nil)
	if err == nil {
		t.Fatal("expected a SemanticError for an undefined name")
	}
	var semErr *SemanticError
	if !assertAs(err, &semErr) {
		t.Fatalf("expected *SemanticError, got %T: %v", err, err)
	}
}

func TestParseFuncGridFillStencil(t *testing.T) {
	src := `func fill(a xgrid.Grid2[int32]) {
		a[0, 0] = 4
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	assign, ok := def.Body[0].(*ir.Assignment)
	if !ok {
		t.Fatalf("expected Assignment, got %T", def.Body[0])
	}
	stencil, ok := assign.Terminal.(*ir.Stencil)
	if !ok {
		t.Fatalf("expected a Stencil store terminal, got %T", assign.Terminal)
	}
	if stencil.Ctx != ir.Store || stencil.TimeOffset != 0 {
		t.Errorf("expected a time-0 store, got ctx=%s time=%d", stencil.Ctx, stencil.TimeOffset)
	}
	if len(stencil.SpaceOffset) != 2 || stencil.SpaceOffset[0] != 0 || stencil.SpaceOffset[1] != 0 {
		t.Errorf("unexpected space offsets %v", stencil.SpaceOffset)
	}
}

func TestParseFuncStencilLoadDefaultsToPreviousStep(t *testing.T) {
	src := `func step(u xgrid.Grid1[float64]) {
		u[0] = u[0] - u[-1]
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	assign := def.Body[0].(*ir.Assignment)
	bin := assign.Value.(*ir.Binary)
	left := bin.Left.(*ir.Stencil)
	right := bin.Right.(*ir.Stencil)
	if left.TimeOffset != -1 || right.TimeOffset != -1 {
		t.Errorf("expected both loads to default to time offset -1, got %d and %d", left.TimeOffset, right.TimeOffset)
	}
}

func TestParseFuncRejectsPositiveTimeOffset(t *testing.T) {
	src := `func bad(u xgrid.Grid1[float64]) {
		u[0] = u[0][1]
	}`
	_, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err == nil {
		t.Fatal("expected a SemanticError: stencil time offset must be <= 0")
	}
}

func TestParseFuncBoundaryMaskTaggedOnStencilStore(t *testing.T) {
	src := `func step(u xgrid.Grid1[int32]) {
		xgrid.Boundary(1, func() {
			u[0] = 1
		})
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Body) != 1 {
		t.Fatalf("expected the boundary block's statements spliced into the body, got %d statements", len(def.Body))
	}
	assign := def.Body[0].(*ir.Assignment)
	stencil := assign.Terminal.(*ir.Stencil)
	if stencil.BoundaryMask != 1 {
		t.Errorf("expected boundary mask 1, got %d", stencil.BoundaryMask)
	}
}

func TestParseFuncNestedBoundaryRejected(t *testing.T) {
	src := `func bad(u xgrid.Grid1[float64]) {
		xgrid.Boundary(1, func() {
			xgrid.Boundary(2, func() {
				u[0] = 1
			})
		})
	}`
	_, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err == nil {
		t.Fatal("expected a SemanticError: nested boundary contexts are not allowed")
	}
}

func TestParseFuncCBlockLiftsRawString(t *testing.T) {
	src := `func bad() {
		xgrid.C(func() {
			"raw_c_statement();"
		})
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	inline, ok := def.Body[0].(*ir.Inline)
	if !ok {
		t.Fatalf("expected Inline, got %T", def.Body[0])
	}
	if inline.Source != "raw_c_statement();" {
		t.Errorf("unexpected inline source %q", inline.Source)
	}
}

func TestParseFuncCBlockRejectsNonStringStatement(t *testing.T) {
	src := `func bad() {
		xgrid.C(func() {
			x := 1
			_ = x
		})
	}`
	_, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err == nil {
		t.Fatal("expected a SemanticError: only raw C string statements are allowed inside c()")
	}
}

func TestParseFuncRangeForLowersToFor(t *testing.T) {
	src := `func sum(n int32) int32 {
		total := 0
		for i := range xgrid.Range(0, n) {
			total += i
		}
		return total
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	forStmt, ok := def.Body[1].(*ir.For)
	if !ok {
		t.Fatalf("expected For, got %T", def.Body[1])
	}
	if forStmt.Variable.Name != "i" {
		t.Errorf("unexpected induction variable %q", forStmt.Variable.Name)
	}
}

func TestParseFuncWhileLoop(t *testing.T) {
	src := `func count(n int32) int32 {
		i := 0
		for i < n {
			i += 1
		}
		return i
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := def.Body[1].(*ir.While); !ok {
		t.Fatalf("expected While, got %T", def.Body[1])
	}
}

func TestParseFuncSelectLowersToCondition(t *testing.T) {
	src := `func pick(a int32, b int32) int32 {
		return xgrid.Select(a > b, a, b)
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	ret := def.Body[0].(*ir.Return)
	if _, ok := ret.Value.(*ir.Condition); !ok {
		t.Fatalf("expected Condition, got %T", ret.Value)
	}
}

func TestParseFuncCastBuiltin(t *testing.T) {
	src := `func widen(a int32) float64 {
		return xgrid.Cast[float64](a)
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	ret := def.Body[0].(*ir.Return)
	cast, ok := ret.Value.(*ir.Cast)
	if !ok {
		t.Fatalf("expected Cast, got %T", ret.Value)
	}
	if !typing.Equal(cast.Target, typing.Float{WidthBytes: 8}) {
		t.Errorf("expected cast target float64, got %s", cast.Target)
	}
}

func TestParseFuncShapeAndDimensionBuiltins(t *testing.T) {
	src := `func info(a xgrid.Grid2[int32]) int32 {
		return xgrid.Shape(a, 0) + xgrid.Dimension(a)
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, nil)
	if err != nil {
		t.Fatal(err)
	}
	ret := def.Body[0].(*ir.Return)
	bin := ret.Value.(*ir.Binary)
	if _, ok := bin.Left.(*ir.GridInfo); !ok {
		t.Fatalf("expected GridInfo for Shape, got %T", bin.Left)
	}
	if _, ok := bin.Right.(*ir.GridInfo); !ok {
		t.Fatalf("expected GridInfo for Dimension, got %T", bin.Right)
	}
}

func TestParseFuncStructConstructorAndMethod(t *testing.T) {
	env := NewEnvironment()
	env.Structs["Point"] = &typing.Struct{
		Name: "Point",
		Fields: []typing.Field{
			{Name: "X", Type: typing.Int{WidthBytes: 4}},
			{Name: "Y", Type: typing.Int{WidthBytes: 4}},
		},
	}
	env.Operators["Point.Sum"] = ir.Callee{
		Name: "Sum",
		Signature: ir.Signature{
			Args:       []ir.Arg{{Name: "p", Type: env.Structs["Point"]}},
			ReturnType: typing.Int{WidthBytes: 4},
		},
		Kind: ir.CalleeFunction,
	}

	src := `func use() int32 {
		p := Point(1, 2)
		return p.Sum()
	}`
	def, err := parseFunc(t, src, ir.ModeKernel, env)
	if err != nil {
		t.Fatal(err)
	}
	assign := def.Body[0].(*ir.Assignment)
	ctor := assign.Value.(*ir.Call)
	if ctor.Callee.Kind != ir.CalleeConstructor {
		t.Fatalf("expected a constructor call, got kind %v", ctor.Callee.Kind)
	}
	ret := def.Body[1].(*ir.Return)
	call := ret.Value.(*ir.Call)
	if call.Callee.Name != "Sum" || len(call.Args) != 1 {
		t.Fatalf("expected Sum(receiver) with 1 prepended arg, got %+v", call.Callee)
	}
}

func TestParseFuncExternalHasNoBody(t *testing.T) {
	def, err := parseFunc(t, `func sinf(x float32) float32`, ir.ModeExternal, nil)
	if err != nil {
		t.Fatal(err)
	}
	if def.Body != nil {
		t.Errorf("expected an external definition to have no body, got %d statements", len(def.Body))
	}
	if def.Mode != ir.ModeExternal {
		t.Errorf("expected ModeExternal, got %s", def.Mode)
	}
}

func assertAs(err error, target **SemanticError) bool {
	se, ok := err.(*SemanticError)
	if !ok {
		return false
	}
	*target = se
	return true
}
