//go:build !((linux || darwin) && cgo)

package ffi

import (
	"github.com/droplet-lang/droplet/errz"
	"github.com/droplet-lang/droplet/object"
)

type libHandle = struct{}

func closeLib(libHandle) {}

func (b *Bridge) call(lib, symbol string, sig Signature, args []object.Value) (object.Value, error) {
	return object.Nil, errz.FFIErrorf("ffi is not supported on this platform")
}
