// Package native provides the builtin host functions registered with a
// Droplet VM by default: printing, conversion, and collection helpers.
//
// Every native follows the stack contract of CALL_NATIVE: pop exactly argc
// values, push exactly one return value (nil when there is nothing
// meaningful to return). Natives with a fixed arity tolerate a wrong argc by
// draining the arguments and pushing their sentinel, so a miscompiled call
// never unbalances the stack.
package native

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/droplet-lang/droplet/object"
	"github.com/droplet-lang/droplet/vm"
)

// Builtins returns the default native function table.
func Builtins() map[string]vm.NativeFunc {
	return map[string]vm.NativeFunc{
		"print":   Print,
		"println": Println,
		"str":     Str,
		"len":     Len,
		"int":     Int,
		"float":   Float,
		"type":    TypeOf,
		"append":  Append,
		"input":   Input,
		"exit":    Exit,
	}
}

func drain(machine *vm.VM, argc int) {
	for i := 0; i < argc; i++ {
		machine.Pop()
	}
}

func writeArgs(machine *vm.VM, argc int) {
	parts := make([]string, argc)
	for i := argc - 1; i >= 0; i-- {
		parts[argc-1-i] = machine.Peek(i).Display()
	}
	drain(machine, argc)
	fmt.Fprint(machine.Out(), strings.Join(parts, " "))
}

// Print writes the display form of its arguments separated by spaces.
func Print(machine *vm.VM, argc int) {
	writeArgs(machine, argc)
	machine.Push(object.Nil)
}

// Println writes the display form of its arguments separated by spaces,
// followed by a newline.
func Println(machine *vm.VM, argc int) {
	writeArgs(machine, argc)
	fmt.Fprintln(machine.Out())
	machine.Push(object.Nil)
}

// Str converts its argument to a heap string holding its display form.
func Str(machine *vm.VM, argc int) {
	if argc != 1 {
		drain(machine, argc)
		machine.Push(object.Nil)
		return
	}
	v := machine.Pop()
	machine.Push(object.NewObjectValue(machine.Heap().NewString(v.Display())))
}

// Len returns the length of a string, array, or map; zero for anything else.
func Len(machine *vm.VM, argc int) {
	if argc != 1 {
		drain(machine, argc)
		machine.Push(object.NewInt(0))
		return
	}
	switch obj := machine.Pop().Object().(type) {
	case *object.String:
		machine.Push(object.NewInt(int64(obj.Len())))
	case *object.Array:
		machine.Push(object.NewInt(int64(obj.Len())))
	case *object.Map:
		machine.Push(object.NewInt(int64(obj.Len())))
	default:
		machine.Push(object.NewInt(0))
	}
}

// Int parses the display form of its argument as an integer; zero on
// failure.
func Int(machine *vm.VM, argc int) {
	if argc != 1 {
		drain(machine, argc)
		machine.Push(object.NewInt(0))
		return
	}
	v := machine.Pop()
	if v.IsInt() {
		machine.Push(v)
		return
	}
	if v.IsFloat() {
		machine.Push(object.NewInt(v.AsInt()))
		return
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(v.Display()), 10, 64)
	if err != nil {
		machine.Push(object.NewInt(0))
		return
	}
	machine.Push(object.NewInt(parsed))
}

// Float parses the display form of its argument as a float; zero on failure.
func Float(machine *vm.VM, argc int) {
	if argc != 1 {
		drain(machine, argc)
		machine.Push(object.NewFloat(0))
		return
	}
	v := machine.Pop()
	if v.IsNumeric() {
		machine.Push(object.NewFloat(v.AsFloat()))
		return
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Display()), 64)
	if err != nil {
		machine.Push(object.NewFloat(0))
		return
	}
	machine.Push(object.NewFloat(parsed))
}

// TypeOf returns the type name of its argument as a heap string.
func TypeOf(machine *vm.VM, argc int) {
	if argc != 1 {
		drain(machine, argc)
		machine.Push(object.Nil)
		return
	}
	v := machine.Pop()
	machine.Push(object.NewObjectValue(machine.Heap().NewString(string(v.Type()))))
}

// Append pushes an item onto the end of an array and returns nil.
func Append(machine *vm.VM, argc int) {
	if argc != 2 {
		drain(machine, argc)
		machine.Push(object.Nil)
		return
	}
	item := machine.Pop()
	arrVal := machine.Pop()
	if arr, ok := arrVal.Object().(*object.Array); ok {
		arr.Append(item)
	}
	machine.Push(object.Nil)
}

// Input reads one line from the VM's input, optionally printing a prompt
// first, and returns it as a heap string without the trailing newline.
func Input(machine *vm.VM, argc int) {
	if argc > 1 {
		drain(machine, argc)
		machine.Push(object.Nil)
		return
	}
	if argc == 1 {
		prompt := machine.Pop()
		fmt.Fprint(machine.Out(), prompt.Display())
	}
	reader := bufio.NewReader(machine.In())
	line, _ := reader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	machine.Push(object.NewObjectValue(machine.Heap().NewString(line)))
}

// Exit terminates the process with the given status code.
func Exit(machine *vm.VM, argc int) {
	if argc != 1 {
		drain(machine, argc)
		os.Exit(1)
	}
	v := machine.Pop()
	os.Exit(int(v.AsInt()))
}
