package gc

import (
	"github.com/droplet-lang/droplet/object"
)

// Heap couples the typed object creators to a collector. Every creator
// constructs the object, registers it, and only then returns the handle, so
// a freshly allocated object can never be swept before the mutator sees it.
//
// Allocation failure is not recoverable at this layer: the Go runtime aborts
// the process when the underlying allocator fails, which matches the
// out-of-memory contract of the VM.
type Heap struct {
	collector *Collector
}

// NewHeap creates a heap backed by the given collector.
func NewHeap(collector *Collector) *Heap {
	return &Heap{collector: collector}
}

// Collector returns the collector backing this heap.
func (h *Heap) Collector() *Collector {
	return h.collector
}

// NewString allocates and registers a String.
func (h *Heap) NewString(value string) *object.String {
	obj := object.NewString(value)
	h.collector.Register(obj)
	return obj
}

// NewArray allocates and registers an empty Array.
func (h *Heap) NewArray() *object.Array {
	obj := object.NewArray()
	h.collector.Register(obj)
	return obj
}

// NewMap allocates and registers an empty Map.
func (h *Heap) NewMap() *object.Map {
	obj := object.NewMap()
	h.collector.Register(obj)
	return obj
}

// NewInstance allocates and registers an Instance of the given class.
func (h *Heap) NewInstance(className string) *object.Instance {
	obj := object.NewInstance(className)
	h.collector.Register(obj)
	return obj
}

// NewFunctionHandle allocates and registers a FunctionHandle.
func (h *Heap) NewFunctionHandle(index uint32) *object.FunctionHandle {
	obj := object.NewFunctionHandle(index)
	h.collector.Register(obj)
	return obj
}

// NewBoundMethod allocates and registers a BoundMethod.
func (h *Heap) NewBoundMethod(receiver object.Value, method uint32) *object.BoundMethod {
	obj := object.NewBoundMethod(receiver, method)
	h.collector.Register(obj)
	return obj
}
