package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/droplet-lang/droplet/op"
)

// Builder assembles a module in memory: constants, functions, and code.
// It exists for the compiler collaborator, for host-embedded programs, and
// for tests; the reader never depends on it.
//
// Builder misuse (wrong operand counts, unknown opcodes) is a programming
// error and panics rather than returning errors, mirroring the encode-side
// contract of the instruction table in the op package.
type Builder struct {
	constants []Constant
	stringIdx map[string]uint32
	functions []*FunctionBuilder
}

// NewBuilder creates an empty module builder.
func NewBuilder() *Builder {
	return &Builder{stringIdx: map[string]uint32{}}
}

// Int adds an int constant and returns its pool index.
func (b *Builder) Int(v int32) uint32 {
	b.constants = append(b.constants, IntConstant(v))
	return uint32(len(b.constants) - 1)
}

// Float adds a float constant and returns its pool index.
func (b *Builder) Float(v float64) uint32 {
	b.constants = append(b.constants, FloatConstant(v))
	return uint32(len(b.constants) - 1)
}

// String adds a string constant and returns its pool index. Equal strings
// share one pool entry.
func (b *Builder) String(v string) uint32 {
	if idx, ok := b.stringIdx[v]; ok {
		return idx
	}
	b.constants = append(b.constants, StringConstant(v))
	idx := uint32(len(b.constants) - 1)
	b.stringIdx[v] = idx
	return idx
}

// Nil adds a nil constant and returns its pool index.
func (b *Builder) Nil() uint32 {
	b.constants = append(b.constants, NilConstant())
	return uint32(len(b.constants) - 1)
}

// Bool adds a bool constant and returns its pool index.
func (b *Builder) Bool(v bool) uint32 {
	b.constants = append(b.constants, BoolConstant(v))
	return uint32(len(b.constants) - 1)
}

// Function starts a new function. The name is interned into the constant
// pool. Functions receive table indices in declaration order.
func (b *Builder) Function(name string, argCount, localCount int) *FunctionBuilder {
	if localCount < argCount {
		panic(fmt.Sprintf("bytecode: function %q: local count %d below arg count %d",
			name, localCount, argCount))
	}
	b.String(name)
	fb := &FunctionBuilder{
		index:      uint32(len(b.functions)),
		name:       name,
		argCount:   uint8(argCount),
		localCount: uint8(localCount),
	}
	b.functions = append(b.functions, fb)
	return fb
}

// Module assembles the final module.
func (b *Builder) Module() *Module {
	m := &Module{
		Constants: make([]Constant, len(b.constants)),
		Functions: make([]*Function, len(b.functions)),
	}
	copy(m.Constants, b.constants)
	for i, fb := range b.functions {
		code := make([]byte, len(fb.code))
		copy(code, fb.code)
		m.Functions[i] = &Function{
			Name:       fb.name,
			ArgCount:   fb.argCount,
			LocalCount: fb.localCount,
			Code:       code,
		}
	}
	return m
}

// FunctionBuilder accumulates the code of one function.
type FunctionBuilder struct {
	index      uint32
	name       string
	argCount   uint8
	localCount uint8
	code       []byte
}

// Index returns the function-table index, usable as the CALL operand.
func (f *FunctionBuilder) Index() uint32 {
	return f.index
}

// Position returns the current code offset, usable as a jump target.
func (f *FunctionBuilder) Position() int {
	return len(f.code)
}

// Emit appends one instruction. The operand count and widths must match the
// opcode's entry in the op package instruction table.
func (f *FunctionBuilder) Emit(code op.Code, operands ...int) {
	info := op.GetInfo(code)
	if info.Name == "" {
		panic(fmt.Sprintf("bytecode: emit of unknown opcode %d", code))
	}
	if len(operands) != len(info.Operands) {
		panic(fmt.Sprintf("bytecode: %s takes %d operands (got %d)",
			info.Name, len(info.Operands), len(operands)))
	}
	f.code = append(f.code, byte(code))
	for i, operand := range operands {
		switch info.Operands[i] {
		case op.WidthU8:
			f.code = append(f.code, byte(operand))
		case op.WidthU32:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(operand))
			f.code = append(f.code, b[:]...)
		}
	}
}

// EmitJump appends a jump-family instruction with a placeholder target and
// returns the patch position for PatchJump.
func (f *FunctionBuilder) EmitJump(code op.Code) int {
	f.Emit(code, 0)
	return len(f.code) - 4
}

// PatchJump writes the current code position into the jump operand at the
// given patch position.
func (f *FunctionBuilder) PatchJump(patchPos int) {
	binary.LittleEndian.PutUint32(f.code[patchPos:patchPos+4], uint32(len(f.code)))
}
