// Package errz defines the structured error kinds surfaced at the Droplet
// core boundary.
//
// Module loading, entry resolution, and an unknown opcode byte (which stops
// the interpreter loop) return errors to the host. Runtime faults (type
// coercion, bad indices, FFI failures) are non-fatal by design:
// the offending opcode produces a sentinel value and emits a diagnostic, and
// execution continues. The kinds below exist so that diagnostics and returned
// errors are categorized consistently either way.
package errz

import "fmt"

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrLoad indicates a malformed module: bad magic, unknown version,
	// truncated extent, bad index, or an out-of-bounds function code slice.
	ErrLoad ErrorKind = iota
	// ErrResolve indicates a missing entry function, native name, or FFI
	// symbol.
	ErrResolve
	// ErrType indicates an operand incompatible with an opcode's expectation.
	ErrType
	// ErrIndex indicates an out-of-range array index on read.
	ErrIndex
	// ErrFFI indicates a library load failure or unsupported call signature.
	ErrFFI
	// ErrOOM indicates allocator failure after collection. This is the only
	// fatal runtime condition.
	ErrOOM
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrLoad:
		return "load error"
	case ErrResolve:
		return "resolve error"
	case ErrType:
		return "type error"
	case ErrIndex:
		return "index error"
	case ErrFFI:
		return "ffi error"
	case ErrOOM:
		return "out of memory"
	default:
		return "error"
	}
}

// StructuredError is the error type returned across the core boundary.
type StructuredError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// WithCause wraps the error with a cause.
func (e *StructuredError) WithCause(cause error) *StructuredError {
	e.Cause = cause
	return e
}

// New creates a StructuredError of the given kind.
func New(kind ErrorKind, message string) *StructuredError {
	return &StructuredError{Kind: kind, Message: message}
}

// Newf creates a StructuredError of the given kind with a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *StructuredError {
	return &StructuredError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// LoadErrorf creates a load error with a formatted message.
func LoadErrorf(format string, args ...any) *StructuredError {
	return Newf(ErrLoad, format, args...)
}

// ResolveErrorf creates a resolve error with a formatted message.
func ResolveErrorf(format string, args ...any) *StructuredError {
	return Newf(ErrResolve, format, args...)
}

// TypeErrorf creates a type error with a formatted message.
func TypeErrorf(format string, args ...any) *StructuredError {
	return Newf(ErrType, format, args...)
}

// IndexErrorf creates an index error with a formatted message.
func IndexErrorf(format string, args ...any) *StructuredError {
	return Newf(ErrIndex, format, args...)
}

// FFIErrorf creates an FFI error with a formatted message.
func FFIErrorf(format string, args ...any) *StructuredError {
	return Newf(ErrFFI, format, args...)
}
