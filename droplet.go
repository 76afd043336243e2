// Package droplet is the entry point for embedding the Droplet virtual
// machine. It wires the module loader to a VM, preregisters the builtin
// natives, resolves the program entry function, and drives the interpreter
// loop to completion.
package droplet

import (
	"context"

	"github.com/droplet-lang/droplet/bytecode"
	"github.com/droplet-lang/droplet/native"
	"github.com/droplet-lang/droplet/object"
	"github.com/droplet-lang/droplet/vm"
)

// Run executes the module at the given path and returns the final value left
// on the operand stack by the entry function.
//
// The builtin natives are registered before any user-supplied options, so
// hosts can override individual names with vm.WithNatives.
func Run(ctx context.Context, path string, options ...vm.Option) (object.Value, error) {
	module, err := bytecode.ReadFile(path)
	if err != nil {
		return object.Nil, err
	}
	return RunModule(ctx, module, options...)
}

// RunModule executes an in-memory module with the builtin natives
// preregistered.
func RunModule(ctx context.Context, module *bytecode.Module, options ...vm.Option) (object.Value, error) {
	opts := append([]vm.Option{vm.WithNatives(native.Builtins())}, options...)
	return vm.RunModule(ctx, module, opts...)
}
