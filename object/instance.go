package object

import "fmt"

// Instance is a class-tagged record of field name to value.
type Instance struct {
	markable
	className string
	fields    map[string]Value
}

// NewInstance creates an Instance tagged with the given class name.
// Allocation inside a running VM goes through the gc package's Heap so the
// object is registered with the collector.
func NewInstance(className string) *Instance {
	if className == "" {
		className = "Object"
	}
	return &Instance{className: className, fields: map[string]Value{}}
}

func (i *Instance) Type() Type {
	return INSTANCE
}

// ClassName returns the class name the instance was created with.
func (i *Instance) ClassName() string {
	return i.className
}

func (i *Instance) Display() string {
	return fmt.Sprintf("<object:%s>", i.className)
}

func (i *Instance) Inspect() string {
	return i.Display()
}

// GetField returns the named field. The second return value is false when
// the field has never been stored.
func (i *Instance) GetField(name string) (Value, bool) {
	v, ok := i.fields[name]
	if !ok {
		return Nil, false
	}
	return v, true
}

// SetField stores the named field, creating it on first store.
func (i *Instance) SetField(name string, value Value) {
	i.fields[name] = value
}

// FieldNames returns the instance's field names in sorted order.
func (i *Instance) FieldNames() []string {
	return Keys(i.fields)
}

func (i *Instance) MarkChildren(mark func(Value)) {
	for _, v := range i.fields {
		mark(v)
	}
}
