package vm

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/droplet-lang/droplet/bytecode"
	"github.com/droplet-lang/droplet/errz"
	"github.com/droplet-lang/droplet/object"
	"github.com/droplet-lang/droplet/op"
)

func quietOpts(extra ...Option) []Option {
	return append([]Option{WithLogger(zerolog.Nop())}, extra...)
}

func runModule(t *testing.T, m *bytecode.Module, extra ...Option) object.Value {
	t.Helper()
	result, err := RunModule(context.Background(), m, quietOpts(extra...)...)
	require.Nil(t, err)
	return result
}

func TestArithmetic(t *testing.T) {
	b := bytecode.NewBuilder()
	two := b.Int(2)
	three := b.Int(3)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(two))
	main.Emit(op.PushConst, int(three))
	main.Emit(op.Add)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.Equal(t, object.NewInt(5), result)
}

func TestLocalsAndControlFlow(t *testing.T) {
	b := bytecode.NewBuilder()
	ten := b.Int(10)
	twenty := b.Int(20)
	main := b.Function("main", 0, 2)
	main.Emit(op.PushConst, int(ten))
	main.Emit(op.StoreLocal, 0)
	main.Emit(op.PushConst, int(twenty))
	main.Emit(op.StoreLocal, 1)
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.LoadLocal, 1)
	main.Emit(op.Add)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.Equal(t, object.NewInt(30), result)
}

func TestFunctionCall(t *testing.T) {
	b := bytecode.NewBuilder()
	five := b.Int(5)
	three := b.Int(3)

	add := b.Function("add", 2, 2)
	add.Emit(op.LoadLocal, 0)
	add.Emit(op.LoadLocal, 1)
	add.Emit(op.Add)
	add.Emit(op.Return, 1)

	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(five))
	main.Emit(op.PushConst, int(three))
	main.Emit(op.Call, int(add.Index()), 2)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.Equal(t, object.NewInt(8), result)
}

func TestObjectFields(t *testing.T) {
	b := bytecode.NewBuilder()
	className := b.String("TestObj")
	fieldName := b.String("value")
	fortyTwo := b.Int(42)

	main := b.Function("main", 0, 1)
	main.Emit(op.NewObject, int(className))
	main.Emit(op.StoreLocal, 0)
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.PushConst, int(fortyTwo))
	main.Emit(op.SetField, int(fieldName))
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.GetField, int(fieldName))
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.Equal(t, object.NewInt(42), result)
}

func TestStringConcat(t *testing.T) {
	b := bytecode.NewBuilder()
	hello := b.String("Hello")
	world := b.String("World")
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(hello))
	main.Emit(op.PushConst, int(world))
	main.Emit(op.StringConcat)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	s, ok := result.Object().(*object.String)
	require.True(t, ok)
	require.Equal(t, "HelloWorld", s.Value())
}

func TestNativeCall(t *testing.T) {
	b := bytecode.NewBuilder()
	five := b.Int(5)
	squareName := b.String("square")
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(five))
	main.Emit(op.CallNative, int(squareName), 1)
	main.Emit(op.Return, 1)

	square := func(vm *VM, argc int) {
		v := vm.Pop()
		vm.Push(object.NewInt(v.Int() * v.Int()))
	}
	result := runModule(t, b.Module(), WithNatives(map[string]NativeFunc{"square": square}))
	require.Equal(t, object.NewInt(25), result)
}

func TestGCLiveness(t *testing.T) {
	// Allocate a string per iteration for 10k iterations, overwriting the
	// same local. With a small threshold the registry must stay bounded.
	b := bytecode.NewBuilder()
	zero := b.Int(0)
	one := b.Int(1)
	limit := b.Int(10000)
	x := b.String("x")
	y := b.String("y")

	main := b.Function("main", 0, 2)
	main.Emit(op.PushConst, int(zero))
	main.Emit(op.StoreLocal, 0)
	loopStart := main.Position()
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.PushConst, int(limit))
	main.Emit(op.Lt)
	endPatch := main.EmitJump(op.JumpIfFalse)
	main.Emit(op.PushConst, int(x))
	main.Emit(op.PushConst, int(y))
	main.Emit(op.StringConcat)
	main.Emit(op.StoreLocal, 1)
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.Add)
	main.Emit(op.StoreLocal, 0)
	main.Emit(op.Jump, loopStart)
	main.PatchJump(endPatch)
	main.Emit(op.PushConst, int(zero))
	main.Emit(op.Return, 1)

	machine := New(quietOpts(WithGCThreshold(100))...)
	defer machine.Close()
	require.Nil(t, machine.LoadModule(b.Module()))
	require.Nil(t, machine.CallEntry("main"))
	require.Nil(t, machine.Run(context.Background()))

	require.Equal(t, object.NewInt(0), machine.Result())
	require.Greater(t, machine.Collector().Stats().Collections, 0)
	// Peak registry size is bounded by the threshold plus the allocations of
	// a single iteration, far below the 10k strings allocated in total.
	require.Less(t, machine.Collector().Size(), 200)
	require.Greater(t, machine.Collector().Stats().TotalFreed, 9000)
}

func TestCallReturnStackDepth(t *testing.T) {
	// After CALL matched by RETURN n, depth == depth_before_call - argc + n.
	b := bytecode.NewBuilder()
	one := b.Int(1)
	two := b.Int(2)
	probeName := b.String("probe")

	pair := b.Function("pair", 2, 2)
	pair.Emit(op.LoadLocal, 0)
	pair.Emit(op.LoadLocal, 1)
	pair.Emit(op.Return, 2)

	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.PushConst, int(two))
	main.Emit(op.Call, int(pair.Index()), 2)
	main.Emit(op.CallNative, int(probeName), 0)
	main.Emit(op.Pop)
	main.Emit(op.Return, 2)

	var depthAfterCall int
	probe := func(vm *VM, argc int) {
		depthAfterCall = vm.Depth()
		vm.Push(object.Nil)
	}

	machine := New(quietOpts(WithNatives(map[string]NativeFunc{"probe": probe}))...)
	defer machine.Close()
	require.Nil(t, machine.LoadModule(b.Module()))
	require.Nil(t, machine.CallEntry("main"))
	require.Nil(t, machine.Run(context.Background()))

	// depth before call was 2, argc 2, retCount 2
	require.Equal(t, 2, depthAfterCall)

	// Multi-value return order: the first value pushed in the callee is left
	// deepest on the caller's stack, so the final TOS is the second value.
	require.Equal(t, 2, machine.Depth())
	require.Equal(t, object.NewInt(2), machine.Result())
	require.Equal(t, object.NewInt(1), machine.Peek(1))
}

func TestExtraLocalSlotsInitializedToNil(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)

	callee := b.Function("callee", 1, 3)
	callee.Emit(op.LoadLocal, 2) // never stored: must read as nil
	callee.Emit(op.Return, 1)

	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.Call, int(callee.Index()), 1)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.True(t, result.IsNil())
}

func TestImplicitReturnAtEndOfCode(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)

	// The callee has no code at all: it runs off the end immediately and an
	// implicit bare return truncates its frame, leaving nothing for the
	// caller.
	silent := b.Function("silent", 0, 0)

	main := b.Function("main", 0, 0)
	main.Emit(op.Call, int(silent.Index()), 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.Equal(t, object.NewInt(1), result)
}

func TestStackOps(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)
	two := b.Int(2)
	three := b.Int(3)

	// ROT: a b c -> b c a, then return the new top (a == 1)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.PushConst, int(two))
	main.Emit(op.PushConst, int(three))
	main.Emit(op.Rot)
	main.Emit(op.Return, 1)
	require.Equal(t, object.NewInt(1), runModule(t, b.Module()))

	// SWAP then DUP
	b2 := bytecode.NewBuilder()
	one = b2.Int(1)
	two = b2.Int(2)
	main2 := b2.Function("main", 0, 0)
	main2.Emit(op.PushConst, int(one))
	main2.Emit(op.PushConst, int(two))
	main2.Emit(op.Swap) // 2 1
	main2.Emit(op.Dup)  // 2 1 1
	main2.Emit(op.Add)  // 2 2
	main2.Emit(op.Return, 1)
	require.Equal(t, object.NewInt(2), runModule(t, b2.Module()))
}

func TestConditionalJumps(t *testing.T) {
	build := func(jumpOp op.Code, condIdx func(*bytecode.Builder) uint32) *bytecode.Module {
		b := bytecode.NewBuilder()
		cond := condIdx(b)
		taken := b.Int(100)
		fallthru := b.Int(200)
		main := b.Function("main", 0, 0)
		main.Emit(op.PushConst, int(cond))
		patch := main.EmitJump(jumpOp)
		main.Emit(op.PushConst, int(fallthru))
		main.Emit(op.Return, 1)
		main.PatchJump(patch)
		main.Emit(op.PushConst, int(taken))
		main.Emit(op.Return, 1)
		return b.Module()
	}

	// JUMP_IF_FALSE takes the jump on a false condition
	m := build(op.JumpIfFalse, func(b *bytecode.Builder) uint32 { return b.Bool(false) })
	require.Equal(t, object.NewInt(100), runModule(t, m))

	m = build(op.JumpIfFalse, func(b *bytecode.Builder) uint32 { return b.Bool(true) })
	require.Equal(t, object.NewInt(200), runModule(t, m))

	// JUMP_IF_TRUE takes the jump on a true condition
	m = build(op.JumpIfTrue, func(b *bytecode.Builder) uint32 { return b.Bool(true) })
	require.Equal(t, object.NewInt(100), runModule(t, m))

	m = build(op.JumpIfTrue, func(b *bytecode.Builder) uint32 { return b.Bool(false) })
	require.Equal(t, object.NewInt(200), runModule(t, m))
}

func TestGlobals(t *testing.T) {
	b := bytecode.NewBuilder()
	name := b.String("counter")
	ten := b.Int(10)

	setter := b.Function("setter", 0, 0)
	setter.Emit(op.PushConst, int(ten))
	setter.Emit(op.StoreGlobal, int(name))
	setter.Emit(op.Return, 0)

	main := b.Function("main", 0, 0)
	// A global read before any store yields nil; store in a callee, then
	// observe the value from the caller.
	main.Emit(op.LoadGlobal, int(name))
	main.Emit(op.Pop)
	main.Emit(op.Call, int(setter.Index()), 0)
	main.Emit(op.LoadGlobal, int(name))
	main.Emit(op.Return, 1)

	machine := New(quietOpts()...)
	defer machine.Close()
	require.Nil(t, machine.LoadModule(b.Module()))
	require.Nil(t, machine.CallEntry("main"))
	require.Nil(t, machine.Run(context.Background()))
	require.Equal(t, object.NewInt(10), machine.Result())

	stored, ok := machine.Global("counter")
	require.True(t, ok)
	require.Equal(t, object.NewInt(10), stored)
}

func TestLogicalOps(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)
	zero := b.Int(0)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.PushConst, int(zero))
	main.Emit(op.Or) // true
	main.Emit(op.PushConst, int(one))
	main.Emit(op.And) // true
	main.Emit(op.Not) // false
	main.Emit(op.Return, 1)

	require.Equal(t, object.False, runModule(t, b.Module()))
}

func TestDivYieldsFloat(t *testing.T) {
	b := bytecode.NewBuilder()
	seven := b.Int(7)
	two := b.Int(2)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(seven))
	main.Emit(op.PushConst, int(two))
	main.Emit(op.Div)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.True(t, result.IsFloat())
	require.Equal(t, 3.5, result.Float())
}

func TestArrayBoundaries(t *testing.T) {
	b := bytecode.NewBuilder()
	five := b.Int(5)
	nine := b.Int(9)
	main := b.Function("main", 0, 1)
	main.Emit(op.NewArray)
	main.Emit(op.StoreLocal, 0)
	// Out-of-range read yields nil, never aborts
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.PushConst, int(five))
	main.Emit(op.ArrayGet)
	main.Emit(op.Pop)
	// Store at index 5 resizes to 6 with nil fill
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.PushConst, int(five))
	main.Emit(op.PushConst, int(nine))
	main.Emit(op.ArraySet)
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	arr, ok := result.Object().(*object.Array)
	require.True(t, ok)
	require.Equal(t, 6, arr.Len())
	v, ok := arr.Get(5)
	require.True(t, ok)
	require.Equal(t, int64(9), v.Int())
	v, _ = arr.Get(2)
	require.True(t, v.IsNil())
}

func TestMapOps(t *testing.T) {
	b := bytecode.NewBuilder()
	keyInt := b.Int(1)
	keyStr := b.String("1")
	val := b.String("stored")
	main := b.Function("main", 0, 1)
	main.Emit(op.NewMap)
	main.Emit(op.StoreLocal, 0)
	// Store under Int(1), read back under String("1"): display keying
	// collapses them.
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.PushConst, int(keyInt))
	main.Emit(op.PushConst, int(val))
	main.Emit(op.MapSet)
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.PushConst, int(keyStr))
	main.Emit(op.MapGet)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.Equal(t, "stored", result.Display())
}

func TestMapGetAbsentYieldsNil(t *testing.T) {
	b := bytecode.NewBuilder()
	key := b.String("missing")
	main := b.Function("main", 0, 0)
	main.Emit(op.NewMap)
	main.Emit(op.PushConst, int(key))
	main.Emit(op.MapGet)
	main.Emit(op.Return, 1)

	require.True(t, runModule(t, b.Module()).IsNil())
}

func TestStringOps(t *testing.T) {
	b := bytecode.NewBuilder()
	hello := b.String("hello")
	one := b.Int(1)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(hello))
	main.Emit(op.StringLength) // 5
	main.Emit(op.PushConst, int(hello))
	main.Emit(op.PushConst, int(one))
	main.Emit(op.StringGetChar) // "e"
	main.Emit(op.StringConcat)  // "5e"
	main.Emit(op.Return, 1)

	require.Equal(t, "5e", runModule(t, b.Module()).Display())
}

func TestStringSubstrClamping(t *testing.T) {
	run := func(start, length int) string {
		b := bytecode.NewBuilder()
		hello := b.String("hello")
		main := b.Function("main", 0, 0)
		main.Emit(op.PushConst, int(hello))
		main.Emit(op.StringSubstr, start, length)
		main.Emit(op.Return, 1)
		return runModule(t, b.Module()).Display()
	}
	require.Equal(t, "ell", run(1, 3))
	require.Equal(t, "llo", run(2, 100)) // length clamps to the tail
	require.Equal(t, "", run(9, 3))      // start past the end yields empty
	require.Equal(t, "hello", run(0, 5))
}

func TestStringEq(t *testing.T) {
	b := bytecode.NewBuilder()
	a := b.String("same")
	c := b.String("same")
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(a))
	main.Emit(op.PushConst, int(c))
	main.Emit(op.StringEq)
	main.Emit(op.Return, 1)

	require.Equal(t, object.True, runModule(t, b.Module()))
}

func TestComparisons(t *testing.T) {
	b := bytecode.NewBuilder()
	two := b.Int(2)
	three := b.Int(3)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(two))
	main.Emit(op.PushConst, int(three))
	main.Emit(op.Lt)
	main.Emit(op.Return, 1)

	require.Equal(t, object.True, runModule(t, b.Module()))
}

func TestIsInstance(t *testing.T) {
	b := bytecode.NewBuilder()
	point := b.String("Point")
	other := b.String("Other")
	main := b.Function("main", 0, 1)
	main.Emit(op.NewObject, int(point))
	main.Emit(op.StoreLocal, 0)
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.IsInstance, int(other))
	main.Emit(op.LoadLocal, 0)
	main.Emit(op.IsInstance, int(point))
	main.Emit(op.And)
	main.Emit(op.Return, 1)

	// exact match on one, mismatch on the other
	require.Equal(t, object.False, runModule(t, b.Module()))
}

func TestIsInstanceNonInstance(t *testing.T) {
	b := bytecode.NewBuilder()
	point := b.String("Point")
	one := b.Int(1)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.IsInstance, int(point))
	main.Emit(op.Return, 1)

	require.Equal(t, object.False, runModule(t, b.Module()))
}

func TestUnknownNativeYieldsNil(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)
	name := b.String("no_such_native")
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.CallNative, int(name), 1)
	main.Emit(op.Return, 1)

	// The argument is popped and nil pushed; execution continues.
	require.True(t, runModule(t, b.Module()).IsNil())
}

func TestCallBadFunctionIndexYieldsNil(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.Call, 99, 1)
	main.Emit(op.Return, 1)

	require.True(t, runModule(t, b.Module()).IsNil())
}

func TestCallFFIMissingLibraryYieldsNil(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)
	two := b.Int(2)
	lib := b.String("/nonexistent/libdroplet_test.so")
	sym := b.String("add")
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(one))
	main.Emit(op.PushConst, int(two))
	main.Emit(op.CallFFI, int(lib), int(sym), 2, 0)
	main.Emit(op.Return, 1)

	require.True(t, runModule(t, b.Module()).IsNil())
}

func TestMissingEntryFunction(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Function("helper", 0, 0)

	_, err := RunModule(context.Background(), b.Module(), quietOpts()...)
	require.NotNil(t, err)
	var structured *errz.StructuredError
	require.ErrorAs(t, err, &structured)
	require.Equal(t, errz.ErrResolve, structured.Kind)
}

func TestEntryOverride(t *testing.T) {
	b := bytecode.NewBuilder()
	one := b.Int(1)
	start := b.Function("start", 0, 0)
	start.Emit(op.PushConst, int(one))
	start.Emit(op.Return, 1)

	result := runModule(t, b.Module(), WithEntry("start"))
	require.Equal(t, object.NewInt(1), result)
}

func TestUnknownOpcodeStopsExecution(t *testing.T) {
	m := &bytecode.Module{
		Constants: []bytecode.Constant{bytecode.StringConstant("main")},
		Functions: []*bytecode.Function{
			{Name: "main", Code: []byte{255}},
		},
	}
	_, err := RunModule(context.Background(), m, quietOpts()...)
	require.NotNil(t, err)
}

func TestTruncatedOperandsFaultsAndReturns(t *testing.T) {
	// PUSH_CONST with only two operand bytes: the frame is abandoned via an
	// implicit return and execution terminates cleanly.
	m := &bytecode.Module{
		Constants: []bytecode.Constant{bytecode.StringConstant("main")},
		Functions: []*bytecode.Function{
			{Name: "main", Code: []byte{byte(op.PushConst), 0, 0}},
		},
	}
	result, err := RunModule(context.Background(), m, quietOpts()...)
	require.Nil(t, err)
	require.True(t, result.IsNil())
}

func TestRecursion(t *testing.T) {
	// sum(n) = n <= 0 ? 0 : n + sum(n-1)
	b := bytecode.NewBuilder()
	zero := b.Int(0)
	one := b.Int(1)
	ten := b.Int(10)

	sum := b.Function("sum", 1, 1)
	sum.Emit(op.LoadLocal, 0)
	sum.Emit(op.PushConst, int(zero))
	sum.Emit(op.Gt)
	recurse := sum.EmitJump(op.JumpIfTrue)
	sum.Emit(op.PushConst, int(zero))
	sum.Emit(op.Return, 1)
	sum.PatchJump(recurse)
	sum.Emit(op.LoadLocal, 0)
	sum.Emit(op.LoadLocal, 0)
	sum.Emit(op.PushConst, int(one))
	sum.Emit(op.Sub)
	sum.Emit(op.Call, int(sum.Index()), 1)
	sum.Emit(op.Add)
	sum.Emit(op.Return, 1)

	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(ten))
	main.Emit(op.Call, int(sum.Index()), 1)
	main.Emit(op.Return, 1)

	require.Equal(t, object.NewInt(55), runModule(t, b.Module()))
}

func TestFrameDepthLimit(t *testing.T) {
	// Unbounded recursion trips the frame depth guard: the deepest call is
	// replaced by nil and the recursion unwinds instead of growing forever.
	b := bytecode.NewBuilder()
	loop := b.Function("loop", 0, 0)
	loop.Emit(op.Call, int(loop.Index()), 0)
	loop.Emit(op.Return, 1)

	main := b.Function("main", 0, 0)
	main.Emit(op.Call, int(loop.Index()), 0)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module())
	require.True(t, result.IsNil())
}

func TestNativePrintToWriter(t *testing.T) {
	b := bytecode.NewBuilder()
	hello := b.String("hi")
	name := b.String("echo")
	main := b.Function("main", 0, 0)
	main.Emit(op.PushConst, int(hello))
	main.Emit(op.CallNative, int(name), 1)
	main.Emit(op.Return, 1)

	var buf bytes.Buffer
	echo := func(vm *VM, argc int) {
		v := vm.Pop()
		buf.WriteString(v.Display())
		vm.Push(object.Nil)
	}
	runModule(t, b.Module(), WithOut(&buf), WithNatives(map[string]NativeFunc{"echo": echo}))
	require.Equal(t, "hi", buf.String())
}

func TestStoreLocalGrowsStack(t *testing.T) {
	// STORE_LOCAL into a slot beyond the current stack top fills the gap
	// with nil before writing.
	b := bytecode.NewBuilder()
	nine := b.Int(9)
	main := b.Function("main", 0, 0) // deliberately no declared locals
	main.Emit(op.PushConst, int(nine))
	main.Emit(op.StoreLocal, 3)
	main.Emit(op.LoadLocal, 3)
	main.Emit(op.Return, 1)

	require.Equal(t, object.NewInt(9), runModule(t, b.Module()))
}

func TestConstantsSurviveCollection(t *testing.T) {
	// With a threshold of one, nearly every opcode boundary collects. The
	// string constants are roots and must survive to the end.
	b := bytecode.NewBuilder()
	hello := b.String("Hello")
	world := b.String("World")
	main := b.Function("main", 0, 1)
	main.Emit(op.NewArray)
	main.Emit(op.StoreLocal, 0)
	main.Emit(op.PushConst, int(hello))
	main.Emit(op.PushConst, int(world))
	main.Emit(op.StringConcat)
	main.Emit(op.Return, 1)

	result := runModule(t, b.Module(), WithGCThreshold(1))
	require.Equal(t, "HelloWorld", result.Display())
}
