package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droplet-lang/droplet/op"
)

func TestBinaryOpIntegers(t *testing.T) {
	tests := []struct {
		opType   op.BinaryOpType
		a, b     int64
		expected int64
	}{
		{op.BinaryAdd, 2, 3, 5},
		{op.BinarySub, 2, 3, -1},
		{op.BinaryMul, 4, 3, 12},
		{op.BinaryMod, 7, 3, 1},
		{op.BinaryMod, -7, 3, -1}, // sign follows dividend
		{op.BinaryMod, 7, 0, 0},
	}
	for _, tt := range tests {
		result := BinaryOp(tt.opType, NewInt(tt.a), NewInt(tt.b))
		require.True(t, result.IsInt(), "%d %s %d", tt.a, tt.opType, tt.b)
		require.Equal(t, tt.expected, result.Int(), "%d %s %d", tt.a, tt.opType, tt.b)
	}
}

func TestBinaryOpDivAlwaysFloat(t *testing.T) {
	result := BinaryOp(op.BinaryDiv, NewInt(7), NewInt(2))
	require.True(t, result.IsFloat())
	require.Equal(t, 3.5, result.Float())
}

func TestBinaryOpFloatContagion(t *testing.T) {
	result := BinaryOp(op.BinaryAdd, NewInt(1), NewFloat(0.5))
	require.True(t, result.IsFloat())
	require.Equal(t, 1.5, result.Float())

	result = BinaryOp(op.BinaryMul, NewFloat(2), NewInt(3))
	require.True(t, result.IsFloat())
	require.Equal(t, float64(6), result.Float())
}

func TestBinaryOpFloatModIEEERemainder(t *testing.T) {
	result := BinaryOp(op.BinaryMod, NewFloat(5.5), NewFloat(2))
	require.True(t, result.IsFloat())
	require.Equal(t, math.Remainder(5.5, 2), result.Float())
}

func TestBinaryOpNonNumericCoercesToZero(t *testing.T) {
	result := BinaryOp(op.BinaryAdd, Nil, NewInt(3))
	require.Equal(t, int64(3), result.Int())

	result = BinaryOp(op.BinaryMul, NewObjectValue(NewString("5")), NewInt(3))
	require.Equal(t, int64(0), result.Int())
}

func TestCompareNumeric(t *testing.T) {
	require.Equal(t, True, Compare(op.CompareEq, NewInt(2), NewInt(2)))
	require.Equal(t, False, Compare(op.CompareEq, NewInt(2), NewInt(3)))
	require.Equal(t, True, Compare(op.CompareNeq, NewInt(2), NewInt(3)))
	require.Equal(t, True, Compare(op.CompareLt, NewInt(2), NewInt(3)))
	require.Equal(t, True, Compare(op.CompareGte, NewInt(3), NewInt(3)))

	// Mixed int/float compares as float
	require.Equal(t, True, Compare(op.CompareEq, NewInt(2), NewFloat(2)))
	require.Equal(t, True, Compare(op.CompareLt, NewFloat(1.5), NewInt(2)))
}

func TestCompareStrings(t *testing.T) {
	a := NewObjectValue(NewString("apple"))
	b := NewObjectValue(NewString("banana"))
	require.Equal(t, True, Compare(op.CompareLt, a, b))
	require.Equal(t, False, Compare(op.CompareEq, a, b))
	require.Equal(t, True, Compare(op.CompareEq, a, NewObjectValue(NewString("apple"))))
	require.Equal(t, True, Compare(op.CompareGte, b, a))
}

func TestCompareObjectIdentity(t *testing.T) {
	arr := NewArray()
	v1 := NewObjectValue(arr)
	v2 := NewObjectValue(arr)
	v3 := NewObjectValue(NewArray())

	require.Equal(t, True, Compare(op.CompareEq, v1, v2))
	require.Equal(t, False, Compare(op.CompareEq, v1, v3))
	require.Equal(t, True, Compare(op.CompareNeq, v1, v3))

	// Ordering is not defined for non-string objects
	require.Equal(t, False, Compare(op.CompareLt, v1, v3))
	require.Equal(t, False, Compare(op.CompareGt, v1, v3))
}

func TestCompareCrossKindDisplayFallback(t *testing.T) {
	require.Equal(t, True, Compare(op.CompareEq, NewInt(1), NewObjectValue(NewString("1"))))
	require.Equal(t, False, Compare(op.CompareEq, NewInt(1), NewObjectValue(NewString("2"))))
	require.Equal(t, True, Compare(op.CompareNeq, Nil, True))
	require.Equal(t, True, Compare(op.CompareEq, True, True))
	require.Equal(t, True, Compare(op.CompareEq, Nil, Nil))
	require.Equal(t, False, Compare(op.CompareLt, Nil, True))
}
