// Package gc provides the Droplet heap: a non-moving mark-and-sweep
// collector and the typed allocator that registers objects with it.
//
// Collection is triggered by registry size and runs only between opcodes, on
// the single mutator thread. The collector never sees a partially executed
// instruction, and it tolerates arbitrary object cycles by marking through
// an iterative worklist rather than recursion.
package gc

import (
	"github.com/droplet-lang/droplet/object"
)

// DefaultThreshold is the registry entry count that triggers a collection,
// roughly one MiB worth of small objects.
const DefaultThreshold = 1024 * 1024

// RootWalker is supplied by the mutator to enumerate roots. The walker must
// invoke the given marker for every root value; the collector follows
// children from there.
type RootWalker func(mark func(object.Value))

// Stats describes the outcome of collections on a collector.
type Stats struct {
	// Collections is the number of completed collection cycles.
	Collections int
	// LastFreed is the number of objects freed by the most recent cycle.
	LastFreed int
	// TotalFreed is the number of objects freed across all cycles.
	TotalFreed int
}

// Collector is a non-moving mark-and-sweep garbage collector. It is not
// safe for concurrent use; one collector belongs to exactly one VM.
type Collector struct {
	objects   []object.Object
	threshold int
	worklist  []object.Object
	stats     Stats
}

// NewCollector creates a collector with the default trigger threshold.
func NewCollector() *Collector {
	return &Collector{threshold: DefaultThreshold}
}

// SetThreshold overrides the registry size that triggers collection. Values
// below one are clamped to one.
func (c *Collector) SetThreshold(threshold int) {
	if threshold < 1 {
		threshold = 1
	}
	c.threshold = threshold
}

// Threshold returns the current trigger threshold.
func (c *Collector) Threshold() int {
	return c.threshold
}

// Size returns the number of registered objects.
func (c *Collector) Size() int {
	return len(c.objects)
}

// Stats returns collection statistics.
func (c *Collector) Stats() Stats {
	return c.stats
}

// Register adds a newly allocated object to the heap registry. Registration
// must happen before the object's handle is exposed to mutator code.
func (c *Collector) Register(obj object.Object) {
	c.objects = append(c.objects, obj)
}

// CollectIfNeeded runs a collection when the registry has grown past the
// trigger threshold. The interpreter calls this between opcodes.
func (c *Collector) CollectIfNeeded(roots RootWalker) {
	if len(c.objects) > c.threshold {
		c.Collect(roots)
	}
}

// Collect runs one full mark-and-sweep cycle. Every object reachable from
// the roots survives; everything else is removed from the registry and
// becomes garbage.
func (c *Collector) Collect(roots RootWalker) {
	// Mark phase: clear flags, mark roots, then trace children through a
	// worklist so cyclic graphs terminate.
	for _, obj := range c.objects {
		obj.SetMarked(false)
	}
	c.worklist = c.worklist[:0]
	roots(c.markValue)
	for len(c.worklist) > 0 {
		obj := c.worklist[len(c.worklist)-1]
		c.worklist = c.worklist[:len(c.worklist)-1]
		obj.MarkChildren(c.markValue)
	}

	// Sweep phase: compact the registry in place, dropping unmarked objects.
	live := c.objects[:0]
	for _, obj := range c.objects {
		if obj.Marked() {
			live = append(live, obj)
		}
	}
	freed := len(c.objects) - len(live)
	for i := len(live); i < len(c.objects); i++ {
		c.objects[i] = nil
	}
	c.objects = live

	c.stats.Collections++
	c.stats.LastFreed = freed
	c.stats.TotalFreed += freed
}

func (c *Collector) markValue(v object.Value) {
	obj := v.Object()
	if obj == nil || obj.Marked() {
		return
	}
	obj.SetMarked(true)
	c.worklist = append(c.worklist, obj)
}
