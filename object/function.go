package object

import "fmt"

// FunctionHandle wraps a function-table index as a first-class callable
// value.
type FunctionHandle struct {
	markable
	index uint32
}

// NewFunctionHandle creates a FunctionHandle for the given function-table
// index.
func NewFunctionHandle(index uint32) *FunctionHandle {
	return &FunctionHandle{index: index}
}

func (f *FunctionHandle) Type() Type {
	return FUNCTION
}

// Index returns the function-table index.
func (f *FunctionHandle) Index() uint32 {
	return f.index
}

func (f *FunctionHandle) Display() string {
	return fmt.Sprintf("<function@%d>", f.index)
}

func (f *FunctionHandle) Inspect() string {
	return f.Display()
}

func (f *FunctionHandle) MarkChildren(mark func(Value)) {}

// BoundMethod pairs a receiver value with a function-table index. The
// receiver becomes reachable transitively through MarkChildren.
type BoundMethod struct {
	markable
	receiver Value
	method   uint32
}

// NewBoundMethod creates a BoundMethod binding the given receiver to the
// method at the given function-table index.
func NewBoundMethod(receiver Value, method uint32) *BoundMethod {
	return &BoundMethod{receiver: receiver, method: method}
}

func (b *BoundMethod) Type() Type {
	return BOUND_METHOD
}

// Receiver returns the bound receiver value.
func (b *BoundMethod) Receiver() Value {
	return b.receiver
}

// Method returns the function-table index of the bound method.
func (b *BoundMethod) Method() uint32 {
	return b.method
}

func (b *BoundMethod) Display() string {
	return fmt.Sprintf("<bound-method@%d>", b.method)
}

func (b *BoundMethod) Inspect() string {
	return b.Display()
}

func (b *BoundMethod) MarkChildren(mark func(Value)) {
	mark(b.receiver)
}
