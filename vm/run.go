package vm

import (
	"context"

	"github.com/droplet-lang/droplet/bytecode"
	"github.com/droplet-lang/droplet/object"
)

// RunModule runs the given module in a new VM and returns the final value
// left on the operand stack by the entry function. The entry function is
// "main" unless overridden with WithEntry.
func RunModule(ctx context.Context, m *bytecode.Module, options ...Option) (object.Value, error) {
	machine := New(options...)
	defer machine.Close()
	if err := machine.LoadModule(m); err != nil {
		return object.Nil, err
	}
	if err := machine.CallEntry(machine.entry); err != nil {
		return object.Nil, err
	}
	if err := machine.Run(ctx); err != nil {
		return object.Nil, err
	}
	return machine.Result(), nil
}
