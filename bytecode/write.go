package bytecode

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
)

// Write serializes the module to the DLBC wire encoding. Function names are
// resolved against the constant pool; a name with no matching string
// constant gets one appended to the serialized pool (the in-memory module is
// not modified).
func Write(m *Module) []byte {
	constants := m.Constants
	nameIndex := func(name string) uint32 {
		for i, c := range constants {
			if c.Tag == TagString && c.Str == name {
				return uint32(i)
			}
		}
		constants = append(constants, StringConstant(name))
		return uint32(len(constants) - 1)
	}
	fnIndexes := make([]uint32, len(m.Functions))
	for i, fn := range m.Functions {
		fnIndexes[i] = nameIndex(fn.Name)
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte(Version)

	writeU32(&buf, uint32(len(constants)))
	for _, c := range constants {
		writeConstant(&buf, c)
	}

	writeU32(&buf, uint32(len(m.Functions)))
	start := uint32(0)
	for i, fn := range m.Functions {
		writeU32(&buf, fnIndexes[i])
		writeU32(&buf, start)
		writeU32(&buf, uint32(len(fn.Code)))
		buf.WriteByte(fn.ArgCount)
		buf.WriteByte(fn.LocalCount)
		start += uint32(len(fn.Code))
	}

	writeU32(&buf, start)
	for _, fn := range m.Functions {
		buf.Write(fn.Code)
	}
	return buf.Bytes()
}

// WriteFile serializes the module and writes it to the given path.
func WriteFile(m *Module, path string) error {
	return os.WriteFile(path, Write(m), 0o644)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeConstant(buf *bytes.Buffer, c Constant) {
	buf.WriteByte(byte(c.Tag))
	switch c.Tag {
	case TagInt:
		writeU32(buf, uint32(c.Int))
	case TagFloat:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(c.Float))
		buf.Write(b[:])
	case TagString:
		writeU32(buf, uint32(len(c.Str)))
		buf.WriteString(c.Str)
	case TagNil:
	case TagBool:
		if c.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
}
