package ffi

import (
	"fmt"
	"os"
	"reflect"
	"testing"

	"github.com/xgrid-go/xgrid/grid"
	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

func fakeCompiler(t *testing.T, calls *int) *Compiler {
	t.Helper()
	return &Compiler{
		cacheRoot: t.TempDir(),
		cc:        "cc",
		cache:     newFingerprintCache(),
		build: func(cc string, args []string) (string, error) {
			*calls++
			return "", nil
		},
	}
}

func TestCompilerCacheHitSkipsBuilder(t *testing.T) {
	calls := 0
	c := fakeCompiler(t, &calls)

	path1, err := c.Compile("int f(void) { return 0; }", []string{"-O2"})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 builder call after first compile, got %d", calls)
	}

	path2, err := c.Compile("int f(void) { return 0; }", []string{"-O2"})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected in-process cache to skip the builder on an identical recompile, got %d calls", calls)
	}
	if path1 != path2 {
		t.Fatalf("expected the same library path, got %q and %q", path1, path2)
	}
}

func TestCompilerDifferentFlagsMiss(t *testing.T) {
	calls := 0
	c := fakeCompiler(t, &calls)

	if _, err := c.Compile("int f(void) { return 0; }", []string{"-O2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Compile("int f(void) { return 0; }", []string{"-O3"}); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected different cflags to produce a distinct fingerprint, got %d builder calls", calls)
	}
}

// TestCompilerOnDiskCacheByByteEquality checks spec.md §6's persisted
// cache-hit rule directly: a second Compiler instance (so its in-process
// fingerprintCache starts empty) pointed at the same cacheroot must still
// avoid rebuilding when the .c file's bytes match exactly.
func TestCompilerOnDiskCacheByByteEquality(t *testing.T) {
	root := t.TempDir()
	calls := 0
	build := func(cc string, args []string) (string, error) {
		calls++
		// Stand in for the builder actually producing the shared library
		// at its requested output path, the last argument.
		return "", os.WriteFile(args[len(args)-1], nil, 0o644)
	}

	c1 := &Compiler{cacheRoot: root, cc: "cc", cache: newFingerprintCache(), build: build}
	path1, err := c1.Compile("int f(void) { return 1; }", nil)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 builder call, got %d", calls)
	}

	// Second Compiler, same cacheroot, fresh in-process cache: the
	// on-disk byte-equality check alone must recognize the hit.
	c2 := &Compiler{cacheRoot: root, cc: "cc", cache: newFingerprintCache(), build: build}
	path2, err := c2.Compile("int f(void) { return 1; }", nil)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected the on-disk byte-equality check to skip a rebuild, got %d builder calls", calls)
	}
	if path1 != path2 {
		t.Fatalf("expected the same library path, got %q and %q", path1, path2)
	}
}

func TestCatalogRegisterAndLookup(t *testing.T) {
	c := NewCatalog()
	k := &Kernel{Def: &ir.Definition{}}
	k.Def.Name = "diffuse"

	if err := c.Register(k); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Lookup("diffuse")
	if !ok || got != k {
		t.Fatal("expected to find the registered kernel by name")
	}
	if err := c.Register(k); err == nil {
		t.Fatal("expected registering the same name twice to fail")
	}
}

func TestCatalogFunctionsFiltersByMode(t *testing.T) {
	c := NewCatalog()
	kernelDef := ir.NewDefinition(ir.Location{}, "step", ir.ModeKernel, ir.Signature{}, nil, nil, nil)
	fnDef := ir.NewDefinition(ir.Location{}, "helper", ir.ModeFunction, ir.Signature{}, nil, nil, nil)

	mustRegister(t, c, &Kernel{Def: kernelDef})
	mustRegister(t, c, &Kernel{Def: fnDef})

	fns := c.Functions()
	if _, ok := fns["step"]; ok {
		t.Error("Functions must not include a ModeKernel definition")
	}
	if _, ok := fns["helper"]; !ok {
		t.Error("Functions must include the registered ModeFunction definition")
	}
}

func mustRegister(t *testing.T, c *Catalog, k *Kernel) {
	t.Helper()
	if err := c.Register(k); err != nil {
		t.Fatal(err)
	}
}

func TestKernelCheckInvocableRejectsNonKernelMode(t *testing.T) {
	k := &Kernel{Def: ir.NewDefinition(ir.Location{}, "helper", ir.ModeFunction, ir.Signature{}, nil, nil, nil)}
	if err := k.checkInvocable(); err == nil {
		t.Fatal("expected an error invoking a ModeFunction definition directly")
	}
	k2 := &Kernel{Def: ir.NewDefinition(ir.Location{}, "step", ir.ModeKernel, ir.Signature{}, nil, nil, nil)}
	if err := k2.checkInvocable(); err != nil {
		t.Fatalf("expected a ModeKernel definition to be invocable, got %v", err)
	}
}

// boundKernel builds a Kernel that is already bound to a fake native call,
// so Invoke can be exercised without a real compiler or shared library.
func boundKernel(sig ir.Signature, depths map[string]int, call func([]reflect.Value) []reflect.Value) *Kernel {
	def := ir.NewDefinition(ir.Location{}, "step", ir.ModeKernel, sig, nil, nil, nil)
	return &Kernel{Def: def, bound: true, call: call, depths: depths}
}

func TestInvokeMarshalsScalarsAndDemarshalsReturn(t *testing.T) {
	sig := ir.Signature{
		Args:       []ir.Arg{{Name: "a", Type: typing.Int{WidthBytes: 4}}},
		ReturnType: typing.Int{WidthBytes: 4},
	}
	var received []reflect.Value
	k := boundKernel(sig, nil, func(args []reflect.Value) []reflect.Value {
		received = args
		return []reflect.Value{reflect.ValueOf(int32(42))}
	})

	got, err := Invoke(nil, nil, CompileOptions{}, k, int32(7))
	if err != nil {
		t.Fatal(err)
	}
	if len(received) != 1 || received[0].Interface().(int32) != 7 {
		t.Fatalf("expected the foreign call to receive int32(7), got %v", received)
	}
	if got.(int32) != 42 {
		t.Fatalf("expected demarshaled return 42, got %v", got)
	}
}

func TestInvokeRejectsArityMismatch(t *testing.T) {
	sig := ir.Signature{Args: []ir.Arg{{Name: "a", Type: typing.Int{WidthBytes: 4}}}}
	k := boundKernel(sig, nil, func(args []reflect.Value) []reflect.Value { return nil })

	if _, err := Invoke(nil, nil, CompileOptions{}, k, int32(1), int32(2)); err == nil {
		t.Fatal("expected an arity mismatch error")
	} else if _, ok := err.(*ArgumentError); !ok {
		t.Fatalf("expected *ArgumentError, got %T", err)
	}
}

func TestInvokeRejectsWrongGridArgument(t *testing.T) {
	sig := ir.Signature{Args: []ir.Arg{{Name: "g", Type: &typing.Grid{Element: typing.Float{WidthBytes: 8}, Dimension: 1}}}}
	k := boundKernel(sig, nil, func(args []reflect.Value) []reflect.Value { return nil })

	if _, err := Invoke(nil, nil, CompileOptions{}, k, "not a grid"); err == nil {
		t.Fatal("expected an argument type error")
	} else if _, ok := err.(*ArgumentError); !ok {
		t.Fatalf("expected *ArgumentError, got %T", err)
	}
}

func TestInvokePreparesAndRotatesGridArguments(t *testing.T) {
	g, err := grid.New([]int32{3}, typing.Float{WidthBytes: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := grid.Fill(g, []float64{1, 2, 3}, 0); err != nil {
		t.Fatal(err)
	}

	sig := ir.Signature{Args: []ir.Arg{{Name: "u", Type: &typing.Grid{Element: typing.Float{WidthBytes: 8}, Dimension: 1}}}}
	var seenDepth int64
	k := boundKernel(sig, map[string]int{"u": 2}, func(args []reflect.Value) []reflect.Value {
		seenDepth = args[0].FieldByName("TimeDepth").Int()
		return nil
	})

	if _, err := Invoke(nil, nil, CompileOptions{}, k, g); err != nil {
		t.Fatal(err)
	}
	if seenDepth != 2 {
		t.Errorf("expected the foreign call to see time_depth 2 after PrepareFor, got %d", seenDepth)
	}
	if g.HistoryDepth() != 2 {
		t.Errorf("expected PrepareFor(2) to have extended the grid's history, got depth %d", g.HistoryDepth())
	}

	// Rotate must have run: what was "now" (1,2,3) is one step ago now.
	oneAgo := make([]float64, 3)
	if err := grid.Read(g, oneAgo, -1); err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3}
	for i := range want {
		if oneAgo[i] != want[i] {
			t.Errorf("history[-1][%d]: want %v, got %v", i, want[i], oneAgo[i])
		}
	}
}

func TestInvokeRejectsNonKernelMode(t *testing.T) {
	def := ir.NewDefinition(ir.Location{}, "helper", ir.ModeFunction, ir.Signature{}, nil, nil, nil)
	k := &Kernel{Def: def, bound: true, call: func(args []reflect.Value) []reflect.Value { return nil }}

	if _, err := Invoke(nil, nil, CompileOptions{}, k); err == nil {
		t.Fatal("expected invoking a non-kernel operator to fail")
	}
}

func TestArgumentErrorMessageNamesKernel(t *testing.T) {
	err := &ArgumentError{Kernel: "diffuse", Reason: "boom"}
	want := fmt.Sprintf("ffi: %s: %s", "diffuse", "boom")
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
