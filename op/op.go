// Package op defines the opcodes executed by the Droplet virtual machine.
//
// Opcode identity is part of the DLBC wire format: the byte values below are
// stable and changing any of them requires a module format version bump.
package op

// Code is a one-byte opcode that indicates an operation to execute.
type Code byte

const (
	Invalid Code = 0

	// Stack
	PushConst   Code = 1
	Pop         Code = 2
	Dup         Code = 3
	Swap        Code = 4
	Rot         Code = 5
	LoadLocal   Code = 6
	StoreLocal  Code = 7
	LoadGlobal  Code = 8
	StoreGlobal Code = 9

	// Arithmetic
	Add Code = 20
	Sub Code = 21
	Mul Code = 22
	Div Code = 23
	Mod Code = 24

	// Logical
	And Code = 30
	Or  Code = 31
	Not Code = 32

	// Comparison
	Eq  Code = 40
	Neq Code = 41
	Lt  Code = 42
	Gt  Code = 43
	Lte Code = 44
	Gte Code = 45

	// Control flow
	Jump        Code = 50
	JumpIfFalse Code = 51
	JumpIfTrue  Code = 52

	// Calls
	Call       Code = 60
	Return     Code = 61
	CallNative Code = 62
	CallFFI    Code = 63

	// Objects
	NewObject  Code = 70
	GetField   Code = 71
	SetField   Code = 72
	IsInstance Code = 73

	// Arrays
	NewArray Code = 80
	ArrayGet Code = 81
	ArraySet Code = 82

	// Maps
	NewMap Code = 90
	MapGet Code = 91
	MapSet Code = 92

	// Strings
	StringConcat  Code = 100
	StringLength  Code = 101
	StringSubstr  Code = 102
	StringEq      Code = 103
	StringGetChar Code = 104
)

// Width is the byte width of one inline operand. All multi-byte operands are
// encoded little-endian.
type Width int

const (
	WidthU8  Width = 1
	WidthU32 Width = 4
)

// Info contains information about an opcode.
type Info struct {
	Code     Code
	Name     string
	Operands []Width
}

// Size returns the encoded size of the instruction in bytes, including the
// opcode byte itself.
func (i Info) Size() int {
	size := 1
	for _, w := range i.Operands {
		size += int(w)
	}
	return size
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op       Code
		name     string
		operands []Width
	}
	ops := []opInfo{
		{PushConst, "PUSH_CONST", []Width{WidthU32}},
		{Pop, "POP", nil},
		{Dup, "DUP", nil},
		{Swap, "SWAP", nil},
		{Rot, "ROT", nil},
		{LoadLocal, "LOAD_LOCAL", []Width{WidthU8}},
		{StoreLocal, "STORE_LOCAL", []Width{WidthU8}},
		{LoadGlobal, "LOAD_GLOBAL", []Width{WidthU32}},
		{StoreGlobal, "STORE_GLOBAL", []Width{WidthU32}},
		{Add, "ADD", nil},
		{Sub, "SUB", nil},
		{Mul, "MUL", nil},
		{Div, "DIV", nil},
		{Mod, "MOD", nil},
		{And, "AND", nil},
		{Or, "OR", nil},
		{Not, "NOT", nil},
		{Eq, "EQ", nil},
		{Neq, "NEQ", nil},
		{Lt, "LT", nil},
		{Gt, "GT", nil},
		{Lte, "LTE", nil},
		{Gte, "GTE", nil},
		{Jump, "JUMP", []Width{WidthU32}},
		{JumpIfFalse, "JUMP_IF_FALSE", []Width{WidthU32}},
		{JumpIfTrue, "JUMP_IF_TRUE", []Width{WidthU32}},
		{Call, "CALL", []Width{WidthU32, WidthU8}},
		{Return, "RETURN", []Width{WidthU8}},
		{CallNative, "CALL_NATIVE", []Width{WidthU32, WidthU8}},
		{CallFFI, "CALL_FFI", []Width{WidthU32, WidthU32, WidthU8, WidthU8}},
		{NewObject, "NEW_OBJECT", []Width{WidthU32}},
		{GetField, "GET_FIELD", []Width{WidthU32}},
		{SetField, "SET_FIELD", []Width{WidthU32}},
		{IsInstance, "IS_INSTANCE", []Width{WidthU32}},
		{NewArray, "NEW_ARRAY", nil},
		{ArrayGet, "ARRAY_GET", nil},
		{ArraySet, "ARRAY_SET", nil},
		{NewMap, "NEW_MAP", nil},
		{MapGet, "MAP_GET", nil},
		{MapSet, "MAP_SET", nil},
		{StringConcat, "STRING_CONCAT", nil},
		{StringLength, "STRING_LENGTH", nil},
		{StringSubstr, "STRING_SUBSTR", []Width{WidthU32, WidthU32}},
		{StringEq, "STRING_EQ", nil},
		{StringGetChar, "STRING_GET_CHAR", nil},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:     o.op,
			Name:     o.name,
			Operands: o.operands,
		}
	}
}

// GetInfo returns information about the given opcode. The zero Info is
// returned for bytes that do not name an opcode.
func GetInfo(code Code) Info {
	return infos[code]
}

// IsValid returns true if the given byte names a known opcode.
func IsValid(code Code) bool {
	return infos[code].Name != ""
}

// BinaryOpType describes a type of arithmetic binary operation.
type BinaryOpType uint8

const (
	BinaryAdd BinaryOpType = 1
	BinarySub BinaryOpType = 2
	BinaryMul BinaryOpType = 3
	BinaryDiv BinaryOpType = 4
	BinaryMod BinaryOpType = 5
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case BinaryAdd:
		return "+"
	case BinarySub:
		return "-"
	case BinaryMul:
		return "*"
	case BinaryDiv:
		return "/"
	case BinaryMod:
		return "%"
	default:
		return ""
	}
}

// BinaryOpFor maps an arithmetic opcode to its BinaryOpType. The second
// return value is false for non-arithmetic opcodes.
func BinaryOpFor(code Code) (BinaryOpType, bool) {
	switch code {
	case Add:
		return BinaryAdd, true
	case Sub:
		return BinarySub, true
	case Mul:
		return BinaryMul, true
	case Div:
		return BinaryDiv, true
	case Mod:
		return BinaryMod, true
	default:
		return 0, false
	}
}

// CompareOpType describes a type of comparison operation.
type CompareOpType uint8

const (
	CompareEq  CompareOpType = 1
	CompareNeq CompareOpType = 2
	CompareLt  CompareOpType = 3
	CompareGt  CompareOpType = 4
	CompareLte CompareOpType = 5
	CompareGte CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case CompareEq:
		return "=="
	case CompareNeq:
		return "!="
	case CompareLt:
		return "<"
	case CompareGt:
		return ">"
	case CompareLte:
		return "<="
	case CompareGte:
		return ">="
	default:
		return ""
	}
}

// CompareOpFor maps a comparison opcode to its CompareOpType. The second
// return value is false for non-comparison opcodes.
func CompareOpFor(code Code) (CompareOpType, bool) {
	switch code {
	case Eq:
		return CompareEq, true
	case Neq:
		return CompareNeq, true
	case Lt:
		return CompareLt, true
	case Gt:
		return CompareGt, true
	case Lte:
		return CompareLte, true
	case Gte:
		return CompareGte, true
	default:
		return 0, false
	}
}
