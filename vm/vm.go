// Package vm provides the Droplet virtual machine: the operand stack, call
// frames, native registry, and the opcode dispatch loop that executes loaded
// modules.
package vm

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/droplet-lang/droplet/bytecode"
	"github.com/droplet-lang/droplet/errz"
	"github.com/droplet-lang/droplet/ffi"
	"github.com/droplet-lang/droplet/gc"
	"github.com/droplet-lang/droplet/object"
	"github.com/droplet-lang/droplet/op"
)

const (
	// MaxFrameDepth bounds the call-frame stack.
	MaxFrameDepth = 1024

	// DefaultEntry is the conventional program entry function name.
	DefaultEntry = "main"
)

// NativeFunc is a host-implemented callable invoked via CALL_NATIVE. The
// handler must pop exactly argc values from the operand stack and push
// exactly one return value (nil when there is no meaningful return).
type NativeFunc func(vm *VM, argc int)

// frame is one activation record: the running function, the instruction
// pointer as a byte offset into its code, and the absolute stack index where
// the frame's local slot 0 begins.
type frame struct {
	fn        *bytecode.Function
	ip        int
	localBase int
}

// VM executes Droplet bytecode. A VM instance owns its operand stack, call
// frames, globals, constant pool, native registry, FFI bridge, and heap; it
// is single-threaded and not safe for concurrent use.
type VM struct {
	stack       []object.Value
	sp          int
	frames      []frame
	activeFrame *frame

	constants   []object.Value
	functions   []*bytecode.Function
	functionIdx map[string]uint32
	globals     map[string]object.Value

	natives map[string]NativeFunc
	bridge  *ffi.Bridge

	collector *gc.Collector
	heap      *gc.Heap

	entry  string
	logger zerolog.Logger
	out    io.Writer
	in     io.Reader
	ctx    context.Context
}

// New creates a VM and applies the given options.
func New(options ...Option) *VM {
	collector := gc.NewCollector()
	vm := &VM{
		functionIdx: map[string]uint32{},
		globals:     map[string]object.Value{},
		natives:     map[string]NativeFunc{},
		bridge:      ffi.NewBridge(),
		collector:   collector,
		heap:        gc.NewHeap(collector),
		entry:       DefaultEntry,
		logger:      zerolog.New(os.Stderr).With().Timestamp().Logger(),
		out:         os.Stdout,
		in:          os.Stdin,
		ctx:         context.Background(),
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

// Close releases resources scoped to the VM's lifetime, currently the cached
// FFI library handles.
func (vm *VM) Close() {
	vm.bridge.Close()
}

// Heap returns the VM's allocator. Natives use it so that objects they
// create are registered with the collector before being pushed.
func (vm *VM) Heap() *gc.Heap {
	return vm.heap
}

// Collector returns the VM's garbage collector.
func (vm *VM) Collector() *gc.Collector {
	return vm.collector
}

// Context returns the context supplied to Run. Natives performing blocking
// host calls should honor it.
func (vm *VM) Context() context.Context {
	return vm.ctx
}

// Out returns the writer print-style natives write to.
func (vm *VM) Out() io.Writer {
	return vm.out
}

// In returns the reader input-style natives read from.
func (vm *VM) In() io.Reader {
	return vm.in
}

// Logger returns the VM's diagnostic logger.
func (vm *VM) Logger() zerolog.Logger {
	return vm.logger
}

// RegisterNative installs a host callback under the given name. Registration
// is idempotent per name; the last writer wins.
func (vm *VM) RegisterNative(name string, fn NativeFunc) {
	vm.natives[name] = fn
}

// LoadModule materializes the module's constants and installs its functions
// into the function table. String constants are allocated as heap strings
// during load, so opcode references resolve to object values directly.
func (vm *VM) LoadModule(m *bytecode.Module) error {
	for _, c := range m.Constants {
		switch c.Tag {
		case bytecode.TagInt:
			vm.constants = append(vm.constants, object.NewInt(int64(c.Int)))
		case bytecode.TagFloat:
			vm.constants = append(vm.constants, object.NewFloat(c.Float))
		case bytecode.TagString:
			vm.constants = append(vm.constants, object.NewObjectValue(vm.heap.NewString(c.Str)))
		case bytecode.TagNil:
			vm.constants = append(vm.constants, object.Nil)
		case bytecode.TagBool:
			vm.constants = append(vm.constants, object.NewBool(c.Bool))
		default:
			return errz.LoadErrorf("unknown constant tag %d", c.Tag)
		}
	}
	for _, fn := range m.Functions {
		if fn.LocalCount < fn.ArgCount {
			return errz.LoadErrorf("function %q: local count %d below arg count %d",
				fn.Name, fn.LocalCount, fn.ArgCount)
		}
		idx := uint32(len(vm.functions))
		vm.functions = append(vm.functions, fn)
		vm.functionIdx[fn.Name] = idx
	}
	vm.logger.Debug().
		Int("functions", len(m.Functions)).
		Int("constants", len(m.Constants)).
		Msg("module loaded")
	return nil
}

// FunctionIndex returns the function-table index registered under the given
// name.
func (vm *VM) FunctionIndex(name string) (uint32, bool) {
	idx, ok := vm.functionIdx[name]
	return idx, ok
}

// Global returns the named global variable.
func (vm *VM) Global(name string) (object.Value, bool) {
	v, ok := vm.globals[name]
	if !ok {
		return object.Nil, false
	}
	return v, true
}

// SetGlobal stores a global variable, creating it on first store.
func (vm *VM) SetGlobal(name string, value object.Value) {
	vm.globals[name] = value
}

// Push places a value on the operand stack. Physical capacity is reused
// across pushes; only the logical length tracked by the stack pointer grows.
func (vm *VM) Push(v object.Value) {
	if vm.sp >= len(vm.stack) {
		vm.stack = append(vm.stack, v)
	} else {
		vm.stack[vm.sp] = v
	}
	vm.sp++
}

// Pop removes and returns the top of the operand stack. Popping an empty
// stack yields nil; the opcode contracts guarantee balance, so an empty pop
// indicates a miscompiled module rather than a VM bug.
func (vm *VM) Pop() object.Value {
	if vm.sp == 0 {
		return object.Nil
	}
	vm.sp--
	return vm.stack[vm.sp]
}

// Peek returns the value at the given distance from the top of the stack
// without removing it. Peek(0) is the top. Out-of-range positions yield nil.
func (vm *VM) Peek(position int) object.Value {
	idx := vm.sp - 1 - position
	if idx < 0 {
		return object.Nil
	}
	return vm.stack[idx]
}

// Depth returns the logical operand stack depth.
func (vm *VM) Depth() int {
	return vm.sp
}

// FrameDepth returns the call-frame stack depth.
func (vm *VM) FrameDepth() int {
	return len(vm.frames)
}

// Result returns the top of the operand stack after the interpreter loop has
// drained, or nil for an empty stack.
func (vm *VM) Result() object.Value {
	if vm.sp == 0 {
		return object.Nil
	}
	return vm.stack[vm.sp-1]
}

// CallEntry resolves the named entry function and injects the root call
// frame with zero arguments. The interpreter loop must be driven afterwards
// with Run.
func (vm *VM) CallEntry(name string) error {
	idx, ok := vm.functionIdx[name]
	if !ok {
		return errz.ResolveErrorf("entry function %q not found", name)
	}
	vm.callFunction(idx, 0)
	return nil
}

// callFunction pushes a frame for the function at the given table index. The
// argc values on top of the stack become the first argc local slots; any
// additional local slots are initialized to nil before user code runs.
func (vm *VM) callFunction(fnIdx uint32, argc int) {
	if fnIdx >= uint32(len(vm.functions)) {
		vm.popArgs(argc)
		vm.Push(object.Nil)
		vm.fault(errz.ErrResolve, op.Call, "no function at index %d", fnIdx)
		return
	}
	if len(vm.frames) >= MaxFrameDepth {
		vm.popArgs(argc)
		vm.Push(object.Nil)
		vm.fault(errz.ErrType, op.Call, "max frame depth of %d exceeded", MaxFrameDepth)
		return
	}
	fn := vm.functions[fnIdx]
	localBase := vm.sp - argc
	if localBase < 0 {
		localBase = 0
	}
	for i := argc; i < int(fn.LocalCount); i++ {
		vm.Push(object.Nil)
	}
	vm.frames = append(vm.frames, frame{fn: fn, ip: 0, localBase: localBase})
	vm.activeFrame = &vm.frames[len(vm.frames)-1]
}

// doReturn pops retCount return values, discards the top frame restoring the
// stack to the frame's local base, then re-pushes the return values in their
// original push order. With a single return value this leaves the caller's
// stack with the arguments replaced by the result.
func (vm *VM) doReturn(retCount int) {
	if len(vm.frames) == 0 {
		return
	}
	rets := make([]object.Value, retCount)
	for i := 0; i < retCount; i++ {
		rets[i] = vm.Pop()
	}
	top := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) > 0 {
		vm.activeFrame = &vm.frames[len(vm.frames)-1]
	} else {
		vm.activeFrame = nil
	}
	vm.sp = top.localBase
	for i := len(rets) - 1; i >= 0; i-- {
		vm.Push(rets[i])
	}
}

func (vm *VM) popArgs(argc int) {
	for i := 0; i < argc; i++ {
		vm.Pop()
	}
}

// walkRoots enumerates the collector roots: every value on the operand stack
// up to the logical top, every global, and every constant pool slot (string
// constants must survive collection).
func (vm *VM) walkRoots(mark func(object.Value)) {
	for i := 0; i < vm.sp; i++ {
		mark(vm.stack[i])
	}
	for _, v := range vm.globals {
		mark(v)
	}
	for _, v := range vm.constants {
		mark(v)
	}
}

// constantString resolves a constant pool index that is expected to hold a
// string constant, as used for global names, native names, field names, and
// class names.
func (vm *VM) constantString(idx uint32) (string, bool) {
	if idx >= uint32(len(vm.constants)) {
		return "", false
	}
	s, ok := vm.constants[idx].Object().(*object.String)
	if !ok {
		return "", false
	}
	return s.Value(), true
}

// fault reports a non-fatal runtime fault on the diagnostic channel. The
// caller is responsible for leaving the sentinel value mandated by the
// opcode contract on the stack.
func (vm *VM) fault(kind errz.ErrorKind, opcode op.Code, format string, args ...any) {
	vm.logger.Warn().
		Str("kind", kind.String()).
		Str("opcode", op.GetInfo(opcode).Name).
		Msgf(format, args...)
}
