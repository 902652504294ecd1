package xgrid

import (
	"strings"
	"testing"
)

func TestKernelRegistersAndTranslatesToC(t *testing.T) {
	ctx := NewContext(DefaultConfig())

	k, err := ctx.Kernel(`func add(a int32, b int32) int32 { return a + b }`)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := ctx.Catalog.Lookup("add"); !ok {
		t.Fatal("expected Kernel to register the operator in the Context's Catalog")
	}

	src, err := ctx.Source(k)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "int32_t add(int32_t a, int32_t b)") {
		t.Errorf("expected a C signature for add in generated source:\n%s", src)
	}
}

func TestKernelEntryPointOverride(t *testing.T) {
	ctx := NewContext(DefaultConfig())

	k, err := ctx.Kernel(`func step(u Grid1[float64]) { u[0] = u[0] }`, "xgrid_step")
	if err != nil {
		t.Fatal(err)
	}
	if k.EntryPoint != "xgrid_step" {
		t.Errorf("expected EntryPoint override to stick, got %q", k.EntryPoint)
	}
}

func TestFunctionIsNotDirectlyInvocable(t *testing.T) {
	ctx := NewContext(DefaultConfig())

	k, err := ctx.Function(`func double(a int32) int32 { return a * 2 }`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Invoke(k, int32(3)); err == nil {
		t.Fatal("expected invoking a Function-mode operator directly to fail")
	}
}

func TestLaterKernelCallsEarlierFunction(t *testing.T) {
	ctx := NewContext(DefaultConfig())

	if _, err := ctx.Function(`func double(a int32) int32 { return a * 2 }`); err != nil {
		t.Fatal(err)
	}
	k, err := ctx.Kernel(`func quad(a int32) int32 { return double(double(a)) }`)
	if err != nil {
		t.Fatal(err)
	}

	src, err := ctx.Source(k)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "double(double(a))") {
		t.Errorf("expected quad to call double in generated source:\n%s", src)
	}
}

func TestKernelRegisteringStructBeforeMethod(t *testing.T) {
	ctx := NewContext(DefaultConfig())

	src := `type Point struct {
		x float64
		y float64
	}

	func (p Point) dist() float64 {
		return p.x*p.x + p.y*p.y
	}`
	if _, err := ctx.Kernel(src); err != nil {
		t.Fatal(err)
	}
	if _, ok := ctx.Catalog.Lookup("dist"); !ok {
		t.Fatal("expected the method operator to register under its own name")
	}
}

func TestDuplicateOperatorNameRejected(t *testing.T) {
	ctx := NewContext(DefaultConfig())

	if _, err := ctx.Kernel(`func add(a int32, b int32) int32 { return a + b }`); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Kernel(`func add(a int32, b int32) int32 { return a - b }`); err == nil {
		t.Fatal("expected registering the same operator name twice to fail")
	}
}

func TestConfigCFlags(t *testing.T) {
	cfg := DefaultConfig()
	flags := cfg.CFlags()
	want := []string{"-fopenmp", "-O2", "-lm"}
	if len(flags) != len(want) {
		t.Fatalf("got %v, want %v", flags, want)
	}
	for i := range want {
		if flags[i] != want[i] {
			t.Errorf("flags[%d]: got %q, want %q", i, flags[i], want[i])
		}
	}

	cfg.Parallel = false
	flags = cfg.CFlags()
	if flags[0] != "-O2" {
		t.Errorf("expected -fopenmp dropped when Parallel is false, got %v", flags)
	}
}

func TestPrecisionFloatSize(t *testing.T) {
	if PrecisionFloat32.FloatSize() != 4 {
		t.Error("expected PrecisionFloat32.FloatSize() == 4")
	}
	if PrecisionFloat64.FloatSize() != 8 {
		t.Error("expected PrecisionFloat64.FloatSize() == 8")
	}
}

func TestDefaultContextSingleton(t *testing.T) {
	first := Default()
	second := Default()
	if first != second {
		t.Fatal("expected Default() to return the same Context across calls")
	}

	replacement := NewContext(DefaultConfig())
	SetDefault(replacement)
	if Default() != replacement {
		t.Fatal("expected SetDefault to replace the process-wide Context")
	}
}

func TestRangeIteratesInclusiveOfStepBound(t *testing.T) {
	var got []int32
	for i := range Range(int32(0), int32(5), int32(2)) {
		got = append(got, i)
	}
	want := []int32{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d]: %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSelectPicksByCondition(t *testing.T) {
	if Select(true, 1, 2) != 1 {
		t.Error("expected Select(true, 1, 2) == 1")
	}
	if Select(false, 1, 2) != 2 {
		t.Error("expected Select(false, 1, 2) == 2")
	}
}

func TestNewGridMatchesAnnotatedElement(t *testing.T) {
	g, err := NewGrid[float64](4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if g.Dimension() != 2 {
		t.Errorf("expected a 2-d grid, got dimension %d", g.Dimension())
	}
}
