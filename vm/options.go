package vm

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/droplet-lang/droplet/ffi"
)

// Option is a configuration function for a VM.
type Option func(*VM)

// WithLogger sets the structured logger that receives runtime fault
// diagnostics. The default logs to stderr.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VM) {
		vm.logger = logger
	}
}

// WithOut sets the writer used by print-style natives. The default is
// standard output.
func WithOut(w io.Writer) Option {
	return func(vm *VM) {
		vm.out = w
	}
}

// WithIn sets the reader used by input-style natives. The default is
// standard input.
func WithIn(r io.Reader) Option {
	return func(vm *VM) {
		vm.in = r
	}
}

// WithGCThreshold overrides the heap registry size that triggers a
// collection. Useful for tests and for hosts running many small VMs.
func WithGCThreshold(threshold int) Option {
	return func(vm *VM) {
		vm.collector.SetThreshold(threshold)
	}
}

// WithNatives registers the given host callbacks. Later registrations under
// the same name win.
func WithNatives(natives map[string]NativeFunc) Option {
	return func(vm *VM) {
		for name, fn := range natives {
			vm.natives[name] = fn
		}
	}
}

// WithFFI replaces the VM's FFI bridge. Useful for sharing a library cache
// or for injecting a disabled bridge.
func WithFFI(bridge *ffi.Bridge) Option {
	return func(vm *VM) {
		vm.bridge = bridge
	}
}

// WithEntry overrides the entry function name resolved by RunModule. The
// default is "main".
func WithEntry(name string) Option {
	return func(vm *VM) {
		vm.entry = name
	}
}
