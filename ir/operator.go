package ir

import (
	"fmt"

	"github.com/xgrid-go/xgrid/typing"
)

// BinaryOp is one member of the two closed enumerations from spec.md §4.2:
// arithmetic, compare and logic operators all share one Go type so a single
// Binary expression node can hold any of them.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Pow // '^', lowered to pow()/powf() by codegen
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

var binarySymbols = map[BinaryOp]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/", Pow: "^", Mod: "%",
	Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=",
	And: "&&", Or: "||",
}

func (op BinaryOp) String() string {
	s, ok := binarySymbols[op]
	if !ok {
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
	return s
}

type operatorCategory int

const (
	categoryArithmetic operatorCategory = iota
	categoryCompare
	categoryLogic
)

func (op BinaryOp) category() operatorCategory {
	switch op {
	case Add, Sub, Mul, Div, Pow, Mod:
		return categoryArithmetic
	case Eq, Ne, Lt, Le, Gt, Ge:
		return categoryCompare
	case And, Or:
		return categoryLogic
	default:
		panic(fmt.Sprintf("ir: unreachable binary operator %d", op))
	}
}

// UnaryOp is the closed enumeration of unary operators.
type UnaryOp int

const (
	Pos UnaryOp = iota
	Neg
	Not
)

func (op UnaryOp) String() string {
	switch op {
	case Pos:
		return "+"
	case Neg:
		return "-"
	case Not:
		return "!"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
}

// CheckBinary implements the type rules from spec.md §4.2: arithmetic
// (except Pow) requires equal Number operands and returns that type; Pow
// widens to Float64 if either side is Float64, else to the configured
// default-precision Float; compare requires equal Number operands and
// returns Bool; logic requires Bool operands and returns Bool.
func CheckBinary(op BinaryOp, l, r typing.Value, defaultFloatWidth int) (typing.Value, error) {
	switch op.category() {
	case categoryArithmetic:
		if op == Pow {
			if !typing.IsNumber(l) || !typing.IsNumber(r) {
				return nil, fmt.Errorf("ir: '^' requires Number operands, got %s and %s", l, r)
			}
			if isFloat64(l) || isFloat64(r) {
				return typing.Float{WidthBytes: 8}, nil
			}
			return typing.Float{WidthBytes: defaultFloatWidth}, nil
		}
		if !typing.IsNumber(l) || !typing.Equal(l, r) {
			return nil, fmt.Errorf("ir: arithmetic operator %q requires two operands of the same Number type, got %s and %s", op, l, r)
		}
		return l, nil

	case categoryCompare:
		if !typing.IsNumber(l) || !typing.Equal(l, r) {
			return nil, fmt.Errorf("ir: compare operator %q requires two operands of the same Number type, got %s and %s", op, l, r)
		}
		return typing.Bool{}, nil

	case categoryLogic:
		if _, lok := l.(typing.Bool); !lok {
			return nil, fmt.Errorf("ir: logic operator %q requires Bool operands, got %s", op, l)
		}
		if _, rok := r.(typing.Bool); !rok {
			return nil, fmt.Errorf("ir: logic operator %q requires Bool operands, got %s", op, r)
		}
		return typing.Bool{}, nil
	}
	panic("ir: unreachable")
}

// CheckUnary implements the unary type rules: '!' requires Bool, '+'/'-'
// require Number; the result always has the operand's type.
func CheckUnary(op UnaryOp, operand typing.Value) (typing.Value, error) {
	switch op {
	case Not:
		if _, ok := operand.(typing.Bool); !ok {
			return nil, fmt.Errorf("ir: '!' requires a Bool operand, got %s", operand)
		}
		return operand, nil
	case Pos, Neg:
		if !typing.IsNumber(operand) {
			return nil, fmt.Errorf("ir: unary %q requires a Number operand, got %s", op, operand)
		}
		return operand, nil
	}
	panic("ir: unreachable")
}

func isFloat64(v typing.Value) bool {
	f, ok := v.(typing.Float)
	return ok && f.WidthBytes == 8
}
