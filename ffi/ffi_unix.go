//go:build (linux || darwin) && cgo

package ffi

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

static void* droplet_dlopen(const char* path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}
static const char* droplet_dlerror(void) {
	return dlerror();
}
static void* droplet_dlsym(void* handle, const char* name) {
	dlerror(); // clear any stale error before resolving
	return dlsym(handle, name);
}
static int droplet_dlclose(void* handle) {
	return dlclose(handle);
}

// Typed trampolines, one per supported signature tag. Fixed shapes keep the
// bridge free of libffi while covering the signature set of the module
// format.
static int32_t droplet_call_i32_2(void* fn, int32_t a, int32_t b) {
	return ((int32_t (*)(int32_t, int32_t))fn)(a, b);
}
static int32_t droplet_call_i32_1(void* fn, int32_t a) {
	return ((int32_t (*)(int32_t))fn)(a);
}
static double droplet_call_f64_2(void* fn, double a, double b) {
	return ((double (*)(double, double))fn)(a, b);
}
static double droplet_call_f64_1(void* fn, double a) {
	return ((double (*)(double))fn)(a);
}
static int64_t droplet_call_i64_2(void* fn, int64_t a, int64_t b) {
	return ((int64_t (*)(int64_t, int64_t))fn)(a, b);
}
*/
import "C"

import (
	"unsafe"

	"github.com/droplet-lang/droplet/errz"
	"github.com/droplet-lang/droplet/object"
)

type libHandle = unsafe.Pointer

func closeLib(handle libHandle) {
	C.droplet_dlclose(handle)
}

func (b *Bridge) loadLib(path string) (libHandle, error) {
	if handle, ok := b.libs[path]; ok {
		return handle, nil
	}
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	handle := C.droplet_dlopen(cPath)
	if handle == nil {
		return nil, errz.FFIErrorf("dlopen %q failed: %s", path, C.GoString(C.droplet_dlerror()))
	}
	b.libs[path] = handle
	return handle, nil
}

func (b *Bridge) call(lib, symbol string, sig Signature, args []object.Value) (object.Value, error) {
	arity := sig.Arity()
	if arity < 0 {
		return object.Nil, errz.FFIErrorf("unsupported signature %d", sig)
	}
	if len(args) != arity {
		return object.Nil, errz.FFIErrorf("signature %s takes %d argument(s) (%d given)",
			sig, arity, len(args))
	}

	handle, err := b.loadLib(lib)
	if err != nil {
		return object.Nil, err
	}

	cSymbol := C.CString(symbol)
	defer C.free(unsafe.Pointer(cSymbol))
	fn := C.droplet_dlsym(handle, cSymbol)
	if fn == nil {
		return object.Nil, errz.ResolveErrorf("symbol %q not found in %q", symbol, lib)
	}

	switch sig {
	case SigInt32Binary:
		result := C.droplet_call_i32_2(fn, C.int32_t(args[0].AsInt()), C.int32_t(args[1].AsInt()))
		return object.NewInt(int64(result)), nil
	case SigInt32Unary:
		result := C.droplet_call_i32_1(fn, C.int32_t(args[0].AsInt()))
		return object.NewInt(int64(result)), nil
	case SigDoubleBinary:
		result := C.droplet_call_f64_2(fn, C.double(args[0].AsFloat()), C.double(args[1].AsFloat()))
		return object.NewFloat(float64(result)), nil
	case SigDoubleUnary:
		result := C.droplet_call_f64_1(fn, C.double(args[0].AsFloat()))
		return object.NewFloat(float64(result)), nil
	case SigInt64Binary:
		result := C.droplet_call_i64_2(fn, C.int64_t(args[0].AsInt()), C.int64_t(args[1].AsInt()))
		return object.NewInt(int64(result)), nil
	default:
		return object.Nil, errz.FFIErrorf("unsupported signature %d", sig)
	}
}
