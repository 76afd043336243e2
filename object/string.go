package object

import "fmt"

// String is an immutable byte sequence interpreted as text.
type String struct {
	markable
	value string
}

// NewString creates a String holding the given text. The caller is
// responsible for registering the object with the collector; use the gc
// package's Heap for allocation inside a running VM.
func NewString(value string) *String {
	return &String{value: value}
}

func (s *String) Type() Type {
	return STRING
}

// Value returns the underlying text.
func (s *String) Value() string {
	return s.value
}

// Display returns the raw text. A string displays without quotes so that map
// keying collapses String("1") with Int(1).
func (s *String) Display() string {
	return s.value
}

func (s *String) Inspect() string {
	return fmt.Sprintf("%q", s.value)
}

// Len returns the length of the string in bytes.
func (s *String) Len() int {
	return len(s.value)
}

func (s *String) MarkChildren(mark func(Value)) {}
