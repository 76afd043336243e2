package object

import (
	"math"

	"github.com/droplet-lang/droplet/op"
)

// BinaryOp performs an arithmetic operation on two values. The operation is
// total: non-numeric operands coerce to zero and the result is always a
// well-typed number, so the interpreter can continue past bad operands.
//
// If either operand is a float, both are widened and the result is a float.
// Division always yields a float. Integer modulo truncates with the sign of
// the dividend; float modulo is the IEEE 754 remainder.
func BinaryOp(opType op.BinaryOpType, a, b Value) Value {
	if a.IsFloat() || b.IsFloat() || opType == op.BinaryDiv {
		return floatBinaryOp(opType, a.AsFloat(), b.AsFloat())
	}
	return intBinaryOp(opType, a.AsInt(), b.AsInt())
}

func intBinaryOp(opType op.BinaryOpType, a, b int64) Value {
	switch opType {
	case op.BinaryAdd:
		return NewInt(a + b)
	case op.BinarySub:
		return NewInt(a - b)
	case op.BinaryMul:
		return NewInt(a * b)
	case op.BinaryMod:
		if b == 0 {
			return NewInt(0)
		}
		return NewInt(a % b)
	default:
		return NewInt(0)
	}
}

func floatBinaryOp(opType op.BinaryOpType, a, b float64) Value {
	switch opType {
	case op.BinaryAdd:
		return NewFloat(a + b)
	case op.BinarySub:
		return NewFloat(a - b)
	case op.BinaryMul:
		return NewFloat(a * b)
	case op.BinaryDiv:
		return NewFloat(a / b)
	case op.BinaryMod:
		return NewFloat(math.Remainder(a, b))
	default:
		return NewFloat(0)
	}
}

// Compare performs a comparison on two values and returns a bool value. The
// operation is total.
//
// Numeric operands compare as floats when either side is a float. When both
// operands are strings, comparison is lexicographic over bytes. Other object
// pairs support identity equality only; ordering comparisons on them yield
// false. Any remaining combination falls back to display-string equality for
// EQ and NEQ.
func Compare(opType op.CompareOpType, a, b Value) Value {
	if a.IsNumeric() && b.IsNumeric() {
		if a.IsFloat() || b.IsFloat() {
			return compareFloats(opType, a.AsFloat(), b.AsFloat())
		}
		return compareInts(opType, a.Int(), b.Int())
	}
	if a.IsObject() && b.IsObject() {
		sa, aOK := a.Object().(*String)
		sb, bOK := b.Object().(*String)
		if aOK && bOK {
			return compareStrings(opType, sa.Value(), sb.Value())
		}
		switch opType {
		case op.CompareEq:
			return NewBool(a.Object() == b.Object())
		case op.CompareNeq:
			return NewBool(a.Object() != b.Object())
		default:
			return False
		}
	}
	switch opType {
	case op.CompareEq:
		return NewBool(a.Display() == b.Display())
	case op.CompareNeq:
		return NewBool(a.Display() != b.Display())
	default:
		return False
	}
}

func compareInts(opType op.CompareOpType, a, b int64) Value {
	switch opType {
	case op.CompareEq:
		return NewBool(a == b)
	case op.CompareNeq:
		return NewBool(a != b)
	case op.CompareLt:
		return NewBool(a < b)
	case op.CompareGt:
		return NewBool(a > b)
	case op.CompareLte:
		return NewBool(a <= b)
	case op.CompareGte:
		return NewBool(a >= b)
	default:
		return False
	}
}

func compareFloats(opType op.CompareOpType, a, b float64) Value {
	switch opType {
	case op.CompareEq:
		return NewBool(a == b)
	case op.CompareNeq:
		return NewBool(a != b)
	case op.CompareLt:
		return NewBool(a < b)
	case op.CompareGt:
		return NewBool(a > b)
	case op.CompareLte:
		return NewBool(a <= b)
	case op.CompareGte:
		return NewBool(a >= b)
	default:
		return False
	}
}

func compareStrings(opType op.CompareOpType, a, b string) Value {
	switch opType {
	case op.CompareEq:
		return NewBool(a == b)
	case op.CompareNeq:
		return NewBool(a != b)
	case op.CompareLt:
		return NewBool(a < b)
	case op.CompareGt:
		return NewBool(a > b)
	case op.CompareLte:
		return NewBool(a <= b)
	case op.CompareGte:
		return NewBool(a >= b)
	default:
		return False
	}
}
