package bytecode

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/droplet-lang/droplet/errz"
)

// Read parses a DLBC module image. Every structural violation (bad magic,
// unknown version, truncated extent, bad index, out-of-bounds function
// slice) aborts the load with a load error.
func Read(data []byte) (*Module, error) {
	r := &reader{data: data}

	magic := r.bytes(4, "magic")
	if r.err != nil {
		return nil, r.err
	}
	if string(magic) != Magic {
		return nil, errz.LoadErrorf("bad magic %q", string(magic))
	}
	version := r.u8("version")
	if r.err != nil {
		return nil, r.err
	}
	if version != Version {
		return nil, errz.LoadErrorf("unsupported module version %d", version)
	}

	constCount := r.u32("constant count")
	constants := make([]Constant, 0, constCount)
	for i := uint32(0); i < constCount && r.err == nil; i++ {
		constants = append(constants, r.constant())
	}
	if r.err != nil {
		return nil, r.err
	}

	type fnHeader struct {
		nameIndex  uint32
		start      uint32
		size       uint32
		argCount   uint8
		localCount uint8
	}
	fnCount := r.u32("function count")
	headers := make([]fnHeader, 0, fnCount)
	for i := uint32(0); i < fnCount && r.err == nil; i++ {
		headers = append(headers, fnHeader{
			nameIndex:  r.u32("function name index"),
			start:      r.u32("function start"),
			size:       r.u32("function size"),
			argCount:   r.u8("function arg count"),
			localCount: r.u8("function local count"),
		})
	}
	if r.err != nil {
		return nil, r.err
	}

	codeSize := r.u32("code size")
	code := r.bytes(int(codeSize), "code section")
	if r.err != nil {
		return nil, r.err
	}

	functions := make([]*Function, 0, fnCount)
	for i, h := range headers {
		if h.nameIndex >= uint32(len(constants)) {
			return nil, errz.LoadErrorf("function %d: name index %d out of range", i, h.nameIndex)
		}
		name := constants[h.nameIndex]
		if name.Tag != TagString {
			return nil, errz.LoadErrorf("function %d: name constant %d is not a string", i, h.nameIndex)
		}
		end := uint64(h.start) + uint64(h.size)
		if end > uint64(len(code)) {
			return nil, errz.LoadErrorf("function %q: code slice [%d, %d) outside code section of %d bytes",
				name.Str, h.start, end, len(code))
		}
		if h.localCount < h.argCount {
			return nil, errz.LoadErrorf("function %q: local count %d below arg count %d",
				name.Str, h.localCount, h.argCount)
		}
		fnCode := make([]byte, h.size)
		copy(fnCode, code[h.start:end])
		functions = append(functions, &Function{
			Name:       name.Str,
			ArgCount:   h.argCount,
			LocalCount: h.localCount,
			Code:       fnCode,
		})
	}

	return &Module{Constants: constants, Functions: functions}, nil
}

// ReadFile reads and parses a DLBC module file.
func ReadFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errz.LoadErrorf("read module %q: %v", path, err).WithCause(err)
	}
	return Read(data)
}

// reader walks the module image sequentially, tracking the first truncation
// or decode error it encounters.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = errz.LoadErrorf("truncated module: %s at offset %d", what, r.off)
	}
}

func (r *reader) bytes(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.fail(what)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8(what string) uint8 {
	b := r.bytes(1, what)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u32(what string) uint32 {
	b := r.bytes(4, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i32(what string) int32 {
	return int32(r.u32(what))
}

func (r *reader) f64(what string) float64 {
	b := r.bytes(8, what)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (r *reader) constant() Constant {
	tag := ConstantTag(r.u8("constant tag"))
	if r.err != nil {
		return Constant{}
	}
	switch tag {
	case TagInt:
		return Constant{Tag: TagInt, Int: r.i32("int constant")}
	case TagFloat:
		return Constant{Tag: TagFloat, Float: r.f64("float constant")}
	case TagString:
		length := r.u32("string constant length")
		data := r.bytes(int(length), "string constant data")
		if r.err != nil {
			return Constant{}
		}
		return Constant{Tag: TagString, Str: string(data)}
	case TagNil:
		return Constant{Tag: TagNil}
	case TagBool:
		return Constant{Tag: TagBool, Bool: r.u8("bool constant") != 0}
	default:
		if r.err == nil {
			r.err = errz.LoadErrorf("unknown constant tag %d at offset %d", tag, r.off-1)
		}
		return Constant{}
	}
}
