// Package ffi bridges the Droplet VM to externally compiled shared
// libraries. Libraries are loaded by path and cached for the lifetime of the
// bridge; exported symbols are resolved by name and invoked through typed
// trampolines selected by a one-byte signature tag.
//
// The bridge uses the platform dynamic linker through cgo on unix systems.
// On other platforms (or without cgo) every call reports an FFI error and
// the VM substitutes nil, keeping scripts runnable.
package ffi

import (
	"github.com/droplet-lang/droplet/object"
)

// Signature identifies a fixed arity/type call shape. The tag values are
// part of the CALL_FFI wire encoding.
type Signature byte

const (
	// SigInt32Binary is int32(int32, int32).
	SigInt32Binary Signature = 0
	// SigInt32Unary is int32(int32).
	SigInt32Unary Signature = 1
	// SigDoubleBinary is double(double, double).
	SigDoubleBinary Signature = 2
	// SigDoubleUnary is double(double).
	SigDoubleUnary Signature = 3
	// SigInt64Binary is int64(int64, int64).
	SigInt64Binary Signature = 4
)

// Arity returns the number of arguments the signature consumes, or -1 for
// an unknown tag.
func (s Signature) Arity() int {
	switch s {
	case SigInt32Unary, SigDoubleUnary:
		return 1
	case SigInt32Binary, SigDoubleBinary, SigInt64Binary:
		return 2
	default:
		return -1
	}
}

// String returns the C-style shape of the signature.
func (s Signature) String() string {
	switch s {
	case SigInt32Binary:
		return "int32(int32, int32)"
	case SigInt32Unary:
		return "int32(int32)"
	case SigDoubleBinary:
		return "double(double, double)"
	case SigDoubleUnary:
		return "double(double)"
	case SigInt64Binary:
		return "int64(int64, int64)"
	default:
		return "unknown"
	}
}

// Bridge loads shared libraries, resolves symbols, and dispatches typed
// calls. A bridge belongs to one VM and is not safe for concurrent use.
// Library handles persist until Close.
type Bridge struct {
	libs map[string]libHandle
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{libs: map[string]libHandle{}}
}

// Call loads the library (cached per path), resolves the symbol, coerces the
// arguments to the signature's native types, and invokes the function.
// Arguments arrive first-to-last, already popped from the VM stack.
func (b *Bridge) Call(lib, symbol string, sig Signature, args []object.Value) (object.Value, error) {
	return b.call(lib, symbol, sig, args)
}

// Close releases every cached library handle. The bridge is unusable
// afterwards.
func (b *Bridge) Close() {
	for path, handle := range b.libs {
		closeLib(handle)
		delete(b.libs, path)
	}
}
