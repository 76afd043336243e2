package vm

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/droplet-lang/droplet/errz"
	"github.com/droplet-lang/droplet/ffi"
	"github.com/droplet-lang/droplet/object"
	"github.com/droplet-lang/droplet/op"
)

// Run drives the fetch-decode-execute loop until the call-frame stack
// drains. The collector is polled between opcodes only, so it never sees a
// partially executed instruction.
//
// Runtime faults are non-fatal: the offending opcode leaves a sentinel value
// per its contract, a diagnostic goes to the VM's logger, and execution
// continues. Run returns an error only for conditions that make further
// dispatch meaningless (an unknown opcode byte).
//
// The context is retained for the duration of the run so that natives can
// honor it during blocking host calls; the core loop itself has no
// suspension points.
func (vm *VM) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	vm.ctx = ctx

	for len(vm.frames) > 0 {
		vm.collector.CollectIfNeeded(vm.walkRoots)

		frame := vm.activeFrame
		code := frame.fn.Code
		if frame.ip >= len(code) {
			// Running off the end of a function is an implicit bare return.
			vm.doReturn(0)
			continue
		}

		opcode := op.Code(code[frame.ip])
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return errz.Newf(errz.ErrType, "unknown opcode %d in function %q at offset %d",
				opcode, frame.fn.Name, frame.ip)
		}
		if frame.ip+info.Size() > len(code) {
			vm.fault(errz.ErrType, opcode, "truncated operands in function %q at offset %d",
				frame.fn.Name, frame.ip)
			vm.doReturn(0)
			continue
		}
		frame.ip++

		switch opcode {
		case op.PushConst:
			idx := vm.fetchU32()
			if idx >= uint32(len(vm.constants)) {
				vm.fault(errz.ErrType, opcode, "constant index %d out of range", idx)
				vm.Push(object.Nil)
				break
			}
			vm.Push(vm.constants[idx])

		case op.Pop:
			vm.Pop()

		case op.Dup:
			vm.Push(vm.Peek(0))

		case op.Swap:
			a := vm.Pop()
			b := vm.Pop()
			vm.Push(a)
			vm.Push(b)

		case op.Rot:
			// a b c -> b c a
			c := vm.Pop()
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(b)
			vm.Push(c)
			vm.Push(a)

		case op.LoadLocal:
			slot := int(vm.fetchU8())
			abs := frame.localBase + slot
			if abs < vm.sp {
				vm.Push(vm.stack[abs])
			} else {
				vm.Push(object.Nil)
			}

		case op.StoreLocal:
			slot := int(vm.fetchU8())
			abs := frame.localBase + slot
			val := vm.Pop()
			for vm.sp <= abs {
				vm.Push(object.Nil)
			}
			vm.stack[abs] = val

		case op.LoadGlobal:
			name, ok := vm.constantString(vm.fetchU32())
			if !ok {
				vm.fault(errz.ErrType, opcode, "global name constant is not a string")
				vm.Push(object.Nil)
				break
			}
			if val, found := vm.globals[name]; found {
				vm.Push(val)
			} else {
				vm.Push(object.Nil)
			}

		case op.StoreGlobal:
			name, ok := vm.constantString(vm.fetchU32())
			val := vm.Pop()
			if !ok {
				vm.fault(errz.ErrType, opcode, "global name constant is not a string")
				break
			}
			vm.globals[name] = val

		case op.Add, op.Sub, op.Mul, op.Div, op.Mod:
			b := vm.Pop()
			a := vm.Pop()
			binOp, _ := op.BinaryOpFor(opcode)
			if !a.IsNumeric() || !b.IsNumeric() {
				vm.fault(errz.ErrType, opcode, "non-numeric operand (%s %s %s)",
					a.Type(), binOp, b.Type())
			}
			vm.Push(object.BinaryOp(binOp, a, b))

		case op.And:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(object.NewBool(a.IsTruthy() && b.IsTruthy()))

		case op.Or:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(object.NewBool(a.IsTruthy() || b.IsTruthy()))

		case op.Not:
			a := vm.Pop()
			vm.Push(object.NewBool(!a.IsTruthy()))

		case op.Eq, op.Neq, op.Lt, op.Gt, op.Lte, op.Gte:
			b := vm.Pop()
			a := vm.Pop()
			cmpOp, _ := op.CompareOpFor(opcode)
			vm.Push(object.Compare(cmpOp, a, b))

		case op.Jump:
			frame.ip = int(vm.fetchU32())

		case op.JumpIfFalse:
			target := int(vm.fetchU32())
			if !vm.Pop().IsTruthy() {
				frame.ip = target
			}

		case op.JumpIfTrue:
			target := int(vm.fetchU32())
			if vm.Pop().IsTruthy() {
				frame.ip = target
			}

		case op.Call:
			fnIdx := vm.fetchU32()
			argc := int(vm.fetchU8())
			vm.callFunction(fnIdx, argc)

		case op.Return:
			retCount := int(vm.fetchU8())
			vm.doReturn(retCount)

		case op.CallNative:
			nameIdx := vm.fetchU32()
			argc := int(vm.fetchU8())
			name, ok := vm.constantString(nameIdx)
			if !ok {
				vm.fault(errz.ErrType, opcode, "native name constant is not a string")
				vm.popArgs(argc)
				vm.Push(object.Nil)
				break
			}
			fn, found := vm.natives[name]
			if !found {
				vm.fault(errz.ErrResolve, opcode, "native %q is not registered", name)
				vm.popArgs(argc)
				vm.Push(object.Nil)
				break
			}
			fn(vm, argc)

		case op.CallFFI:
			vm.evalCallFFI()

		case op.NewObject:
			className, ok := vm.constantString(vm.fetchU32())
			if !ok {
				className = "Object"
			}
			vm.Push(object.NewObjectValue(vm.heap.NewInstance(className)))

		case op.GetField:
			name, nameOK := vm.constantString(vm.fetchU32())
			objVal := vm.Pop()
			inst, instOK := objVal.Object().(*object.Instance)
			if !nameOK || !instOK {
				if !instOK {
					vm.fault(errz.ErrType, opcode, "field access on %s value", objVal.Type())
				}
				vm.Push(object.Nil)
				break
			}
			val, _ := inst.GetField(name)
			vm.Push(val)

		case op.SetField:
			name, nameOK := vm.constantString(vm.fetchU32())
			val := vm.Pop()
			objVal := vm.Pop()
			inst, instOK := objVal.Object().(*object.Instance)
			if !nameOK || !instOK {
				if !instOK {
					vm.fault(errz.ErrType, opcode, "field store on %s value", objVal.Type())
				}
				break
			}
			inst.SetField(name, val)

		case op.IsInstance:
			typeName, nameOK := vm.constantString(vm.fetchU32())
			objVal := vm.Pop()
			if !nameOK {
				vm.Push(object.False)
				break
			}
			inst, instOK := objVal.Object().(*object.Instance)
			vm.Push(object.NewBool(instOK && inst.ClassName() == typeName))

		case op.NewArray:
			vm.Push(object.NewObjectValue(vm.heap.NewArray()))

		case op.ArrayGet:
			idxVal := vm.Pop()
			arrVal := vm.Pop()
			arr, ok := arrVal.Object().(*object.Array)
			if !ok {
				vm.fault(errz.ErrType, opcode, "indexed read on %s value", arrVal.Type())
				vm.Push(object.Nil)
				break
			}
			idx := int(idxVal.AsInt())
			val, inRange := arr.Get(idx)
			if !inRange {
				vm.fault(errz.ErrIndex, opcode, "index %d out of range [0, %d)", idx, arr.Len())
			}
			vm.Push(val)

		case op.ArraySet:
			val := vm.Pop()
			idxVal := vm.Pop()
			arrVal := vm.Pop()
			arr, ok := arrVal.Object().(*object.Array)
			if !ok {
				vm.fault(errz.ErrType, opcode, "indexed store on %s value", arrVal.Type())
				break
			}
			arr.Set(int(idxVal.AsInt()), val)

		case op.NewMap:
			vm.Push(object.NewObjectValue(vm.heap.NewMap()))

		case op.MapGet:
			key := vm.Pop()
			mapVal := vm.Pop()
			m, ok := mapVal.Object().(*object.Map)
			if !ok {
				vm.fault(errz.ErrType, opcode, "keyed read on %s value", mapVal.Type())
				vm.Push(object.Nil)
				break
			}
			val, _ := m.Get(key)
			vm.Push(val)

		case op.MapSet:
			val := vm.Pop()
			key := vm.Pop()
			mapVal := vm.Pop()
			m, ok := mapVal.Object().(*object.Map)
			if !ok {
				vm.fault(errz.ErrType, opcode, "keyed store on %s value", mapVal.Type())
				break
			}
			m.Set(key, val)

		case op.StringConcat:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(object.NewObjectValue(vm.heap.NewString(a.Display() + b.Display())))

		case op.StringLength:
			val := vm.Pop()
			if s, ok := val.Object().(*object.String); ok {
				vm.Push(object.NewInt(int64(s.Len())))
			} else {
				vm.fault(errz.ErrType, opcode, "length of %s value", val.Type())
				vm.Push(object.NewInt(0))
			}

		case op.StringSubstr:
			start := int(vm.fetchU32())
			length := int(vm.fetchU32())
			val := vm.Pop()
			s, ok := val.Object().(*object.String)
			if !ok {
				vm.fault(errz.ErrType, opcode, "substring of %s value", val.Type())
				vm.Push(object.NewObjectValue(vm.heap.NewString("")))
				break
			}
			text := s.Value()
			if start > len(text) {
				start = len(text)
			}
			if length > len(text)-start {
				length = len(text) - start
			}
			vm.Push(object.NewObjectValue(vm.heap.NewString(text[start : start+length])))

		case op.StringEq:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(object.NewBool(a.Display() == b.Display()))

		case op.StringGetChar:
			idxVal := vm.Pop()
			val := vm.Pop()
			idx := int(idxVal.AsInt())
			if s, ok := val.Object().(*object.String); ok && idx >= 0 && idx < s.Len() {
				vm.Push(object.NewObjectValue(vm.heap.NewString(s.Value()[idx : idx+1])))
			} else {
				vm.Push(object.NewObjectValue(vm.heap.NewString("")))
			}
		}
	}
	return nil
}

// evalCallFFI dispatches a CALL_FFI opcode: resolve the library and symbol
// name constants, pop the arguments right-to-left, invoke the bridge, and
// push the result. Every failure substitutes nil and diagnoses.
func (vm *VM) evalCallFFI() {
	libIdx := vm.fetchU32()
	symIdx := vm.fetchU32()
	argc := int(vm.fetchU8())
	sig := ffi.Signature(vm.fetchU8())

	lib, libOK := vm.constantString(libIdx)
	sym, symOK := vm.constantString(symIdx)
	if !libOK || !symOK {
		vm.fault(errz.ErrType, op.CallFFI, "library or symbol constant is not a string")
		vm.popArgs(argc)
		vm.Push(object.Nil)
		return
	}

	args := make([]object.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.Pop()
	}

	result, err := vm.bridge.Call(lib, sym, sig, args)
	if err != nil {
		kind := errz.ErrFFI
		var structured *errz.StructuredError
		if errors.As(err, &structured) {
			kind = structured.Kind
		}
		vm.fault(kind, op.CallFFI, "%s!%s: %v", lib, sym, err)
		vm.Push(object.Nil)
		return
	}
	vm.Push(result)
}

func (vm *VM) fetchU8() byte {
	f := vm.activeFrame
	b := f.fn.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) fetchU32() uint32 {
	f := vm.activeFrame
	v := binary.LittleEndian.Uint32(f.fn.Code[f.ip : f.ip+4])
	f.ip += 4
	return v
}
