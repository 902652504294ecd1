package ir

import (
	"testing"

	"github.com/xgrid-go/xgrid/typing"
)

func loc() Location { return Location{File: "k.go", Func: "f", Line: 1} }

func TestCheckBinaryArithmeticRequiresEqualTypes(t *testing.T) {
	i32 := typing.Int{WidthBytes: 4}
	f64 := typing.Float{WidthBytes: 8}
	if _, err := CheckBinary(Add, i32, f64, 4); err == nil {
		t.Fatal("expected error for mismatched arithmetic operands")
	}
	got, err := CheckBinary(Add, i32, i32, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !typing.Equal(got, i32) {
		t.Errorf("expected result type int32, got %s", got)
	}
}

func TestCheckBinaryPowWidensToFloat64(t *testing.T) {
	i32 := typing.Int{WidthBytes: 4}
	f64 := typing.Float{WidthBytes: 8}
	got, err := CheckBinary(Pow, i32, f64, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !typing.Equal(got, f64) {
		t.Errorf("expected Float64 widening, got %s", got)
	}

	got2, err := CheckBinary(Pow, i32, i32, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !typing.Equal(got2, typing.Float{WidthBytes: 4}) {
		t.Errorf("expected default-precision float, got %s", got2)
	}
}

func TestCheckBinaryCompareReturnsBool(t *testing.T) {
	i32 := typing.Int{WidthBytes: 4}
	got, err := CheckBinary(Lt, i32, i32, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(typing.Bool); !ok {
		t.Errorf("expected Bool, got %s", got)
	}
}

func TestCheckBinaryLogicRequiresBool(t *testing.T) {
	i32 := typing.Int{WidthBytes: 4}
	if _, err := CheckBinary(And, i32, i32, 4); err == nil {
		t.Fatal("expected error for logic operator over non-bool operands")
	}
}

func TestCheckUnary(t *testing.T) {
	if _, err := CheckUnary(Not, typing.Int{WidthBytes: 4}); err == nil {
		t.Fatal("expected error: ! requires Bool")
	}
	if _, err := CheckUnary(Neg, typing.Bool{}); err == nil {
		t.Fatal("expected error: - requires Number")
	}
	got, err := CheckUnary(Neg, typing.Int{WidthBytes: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !typing.Equal(got, typing.Int{WidthBytes: 4}) {
		t.Errorf("unexpected unary result type %s", got)
	}
}

func TestWalkExpressionFindsNestedStencil(t *testing.T) {
	grid := Variable{Name: "u", Type: &typing.Grid{Element: typing.Float{WidthBytes: 4}, Dimension: 1}}
	stencil := NewStencil(loc(), typing.Float{WidthBytes: 4}, grid, -1, []int{0}, 0, Load)
	bin := NewBinary(loc(), typing.Float{WidthBytes: 4}, Add, stencil, NewConstant(loc(), typing.Float{WidthBytes: 4}, 1.0))

	if !ContainsStencil(bin) {
		t.Fatal("expected ContainsStencil to find the nested Stencil node")
	}
	if !ReadsGridAtNow(NewBinary(loc(), typing.Float{WidthBytes: 4}, Add,
		NewStencil(loc(), typing.Float{WidthBytes: 4}, grid, 0, []int{0}, 0, Load),
		NewConstant(loc(), typing.Float{WidthBytes: 4}, 1.0)), "u") {
		t.Fatal("expected ReadsGridAtNow to find the time-0 read")
	}
}
