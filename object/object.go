// Package object provides the Droplet value model: tagged primitive values
// and the heap-managed object kinds the collector traces.
//
// Values are passed and copied by value. A Value of object kind holds a
// non-owning handle to a heap cell; the garbage collector owns the cell and
// frees it only when it is unreachable from the VM roots.
package object

import (
	"sort"
	"strconv"
)

// Type of a value or heap object as a string.
type Type string

// Type constants
const (
	NIL          Type = "nil"
	BOOL         Type = "bool"
	INT          Type = "int"
	FLOAT        Type = "float"
	STRING       Type = "string"
	ARRAY        Type = "array"
	MAP          Type = "map"
	INSTANCE     Type = "instance"
	FUNCTION     Type = "function"
	BOUND_METHOD Type = "bound_method"
)

// Object is the interface implemented by every heap object kind. The three
// capabilities every kind must provide are marking (for the collector),
// child enumeration (so the collector can trace contained values), and a
// display form (used by generic printing and by map keying).
type Object interface {
	// Type of the object.
	Type() Type

	// Display returns the canonical textual form of the object. This is the
	// form used by print-style natives and as the key form inside maps.
	Display() string

	// Inspect returns a string representation for diagnostics and
	// disassembly. For strings this is the quoted form; for other kinds it
	// matches Display.
	Inspect() string

	// MarkChildren invokes the given marker for every Value contained in
	// this object. Leaf kinds are no-ops.
	MarkChildren(mark func(Value))

	// Marked reports whether the object was reached during the current
	// collection cycle.
	Marked() bool

	// SetMarked sets or clears the reachability flag. Only the collector
	// should call this.
	SetMarked(marked bool)
}

// markable provides the reachability flag shared by all heap object kinds.
type markable struct {
	marked bool
}

func (m *markable) Marked() bool {
	return m.marked
}

func (m *markable) SetMarked(marked bool) {
	m.marked = marked
}

type valueKind uint8

const (
	nilKind valueKind = iota
	boolKind
	intKind
	floatKind
	objectKind
)

// Value is a tagged primitive value: nil, bool, int, float, or a handle to a
// heap object. The zero Value is nil.
type Value struct {
	kind valueKind
	i    int64
	f    float64
	obj  Object
}

// Nil is the nil value.
var Nil = Value{}

// True is the boolean true value.
var True = Value{kind: boolKind, i: 1}

// False is the boolean false value.
var False = Value{kind: boolKind}

// NewInt returns an int value.
func NewInt(i int64) Value {
	return Value{kind: intKind, i: i}
}

// NewFloat returns a float value.
func NewFloat(f float64) Value {
	return Value{kind: floatKind, f: f}
}

// NewBool returns a bool value.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewObjectValue returns a value holding a handle to the given heap object.
// A nil handle yields the nil value.
func NewObjectValue(obj Object) Value {
	if obj == nil {
		return Nil
	}
	return Value{kind: objectKind, obj: obj}
}

// Type returns the type of the value. Object values report the type of the
// referenced heap object.
func (v Value) Type() Type {
	switch v.kind {
	case nilKind:
		return NIL
	case boolKind:
		return BOOL
	case intKind:
		return INT
	case floatKind:
		return FLOAT
	default:
		return v.obj.Type()
	}
}

// IsNil returns true for the nil value.
func (v Value) IsNil() bool {
	return v.kind == nilKind
}

// IsInt returns true for int values.
func (v Value) IsInt() bool {
	return v.kind == intKind
}

// IsFloat returns true for float values.
func (v Value) IsFloat() bool {
	return v.kind == floatKind
}

// IsNumeric returns true for int and float values.
func (v Value) IsNumeric() bool {
	return v.kind == intKind || v.kind == floatKind
}

// IsObject returns true for values holding a heap object handle.
func (v Value) IsObject() bool {
	return v.kind == objectKind
}

// Bool returns the boolean payload. Zero for non-bool values.
func (v Value) Bool() bool {
	return v.kind == boolKind && v.i != 0
}

// Int returns the integer payload. Zero for non-int values.
func (v Value) Int() int64 {
	if v.kind != intKind {
		return 0
	}
	return v.i
}

// Float returns the float payload. Zero for non-float values.
func (v Value) Float() float64 {
	if v.kind != floatKind {
		return 0
	}
	return v.f
}

// Object returns the heap object handle, or nil for non-object values.
func (v Value) Object() Object {
	if v.kind != objectKind {
		return nil
	}
	return v.obj
}

// AsFloat coerces the value to float64. Ints convert exactly (within float64
// precision); everything non-numeric coerces to zero.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case intKind:
		return float64(v.i)
	case floatKind:
		return v.f
	default:
		return 0
	}
}

// AsInt coerces the value to int64, truncating floats. Everything
// non-numeric coerces to zero.
func (v Value) AsInt() int64 {
	switch v.kind {
	case intKind:
		return v.i
	case floatKind:
		return int64(v.f)
	default:
		return 0
	}
}

// IsTruthy returns whether the value is considered true: nil is false, bool
// is its own value, numbers are true when non-zero, and an object value is
// true whenever it holds a non-nil handle.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case nilKind:
		return false
	case boolKind:
		return v.i != 0
	case intKind:
		return v.i != 0
	case floatKind:
		return v.f != 0
	default:
		return v.obj != nil
	}
}

// Display returns the canonical textual form of the value. This is the form
// used for printing and for map keying.
func (v Value) Display() string {
	switch v.kind {
	case nilKind:
		return "nil"
	case boolKind:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case intKind:
		return strconv.FormatInt(v.i, 10)
	case floatKind:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.obj.Display()
	}
}

// Inspect returns a diagnostic representation of the value. It differs from
// Display only for strings, which are quoted.
func (v Value) Inspect() string {
	if v.kind == objectKind {
		return v.obj.Inspect()
	}
	return v.Display()
}

// Interface converts the value to a native Go value.
func (v Value) Interface() any {
	switch v.kind {
	case nilKind:
		return nil
	case boolKind:
		return v.i != 0
	case intKind:
		return v.i
	case floatKind:
		return v.f
	default:
		if s, ok := v.obj.(*String); ok {
			return s.Value()
		}
		return v.obj
	}
}

// Keys returns the keys of a value map as a sorted slice of strings.
func Keys(m map[string]Value) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
