// Package dis disassembles Droplet bytecode into a readable instruction
// listing, resolving constant-pool operands where possible.
package dis

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/droplet-lang/droplet/bytecode"
	"github.com/droplet-lang/droplet/errz"
	"github.com/droplet-lang/droplet/op"
)

// Instruction is one decoded instruction.
type Instruction struct {
	// Offset is the byte offset of the opcode within the function's code.
	Offset int

	// Code is the opcode.
	Code op.Code

	// Name is the opcode mnemonic.
	Name string

	// Operands holds the decoded inline operands in order.
	Operands []uint32

	// Info is a human-readable resolution of constant and function operands,
	// empty when there is nothing to resolve.
	Info string
}

// Disassemble decodes the code of one function in the given module. It fails
// on unknown opcode bytes and truncated operands.
func Disassemble(m *bytecode.Module, fn *bytecode.Function) ([]Instruction, error) {
	var instructions []Instruction
	code := fn.Code
	offset := 0
	for offset < len(code) {
		opcode := op.Code(code[offset])
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return nil, errz.LoadErrorf("unknown opcode %d in function %q at offset %d",
				opcode, fn.Name, offset)
		}
		if offset+info.Size() > len(code) {
			return nil, errz.LoadErrorf("truncated %s operands in function %q at offset %d",
				info.Name, fn.Name, offset)
		}
		operands := make([]uint32, len(info.Operands))
		pos := offset + 1
		for i, width := range info.Operands {
			switch width {
			case op.WidthU8:
				operands[i] = uint32(code[pos])
				pos++
			case op.WidthU32:
				operands[i] = uint32(code[pos]) | uint32(code[pos+1])<<8 |
					uint32(code[pos+2])<<16 | uint32(code[pos+3])<<24
				pos += 4
			}
		}
		instructions = append(instructions, Instruction{
			Offset:   offset,
			Code:     opcode,
			Name:     info.Name,
			Operands: operands,
			Info:     resolve(m, opcode, operands),
		})
		offset = pos
	}
	return instructions, nil
}

// resolve renders the constant or function a constant-index operand refers
// to, so listings show names and literals instead of bare pool indices.
func resolve(m *bytecode.Module, opcode op.Code, operands []uint32) string {
	constant := func(idx uint32) string {
		if idx >= uint32(len(m.Constants)) {
			return fmt.Sprintf("<bad constant %d>", idx)
		}
		return m.Constants[idx].String()
	}
	switch opcode {
	case op.PushConst, op.LoadGlobal, op.StoreGlobal, op.NewObject,
		op.GetField, op.SetField, op.IsInstance:
		return constant(operands[0])
	case op.CallNative:
		return constant(operands[0])
	case op.CallFFI:
		return fmt.Sprintf("%s!%s", constant(operands[0]), constant(operands[1]))
	case op.Call:
		idx := operands[0]
		if idx < uint32(len(m.Functions)) {
			return m.Functions[idx].Name
		}
		return fmt.Sprintf("<bad function %d>", idx)
	default:
		return ""
	}
}

// Print writes the instruction listing as a bordered table. Opcode names
// are colored only when the writer is a terminal, so redirected or captured
// output stays free of escape codes.
func Print(instructions []Instruction, w io.Writer) {
	headers := []string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}
	rows := make([][]string, len(instructions))
	for i, inst := range instructions {
		operands := make([]string, len(inst.Operands))
		for j, operand := range inst.Operands {
			operands[j] = fmt.Sprintf("%d", operand)
		}
		rows[i] = []string{
			fmt.Sprintf("%d", inst.Offset),
			inst.Name,
			strings.Join(operands, ", "),
			inst.Info,
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	border := "+"
	for _, width := range widths {
		border += strings.Repeat("-", width+2) + "+"
	}
	fmt.Fprintln(w, border)
	fmt.Fprintln(w, formatRow(headers, widths, true, nil))
	fmt.Fprintln(w, border)
	var opcodeColor *color.Color
	if isTerminal(w) {
		opcodeColor = color.New(color.FgCyan)
	}
	for _, row := range rows {
		fmt.Fprintln(w, formatRow(row, widths, false, opcodeColor))
	}
	fmt.Fprintln(w, border)
}

// isTerminal reports whether the writer is an interactive terminal. Only
// *os.File writers can be terminals; everything else (buffers, pipes opened
// as plain writers) renders without color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func formatRow(cells []string, widths []int, center bool, opcodeColor *color.Color) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range cells {
		padded := cell
		if center {
			total := widths[i] - len(cell)
			left := total / 2
			padded = strings.Repeat(" ", left) + cell + strings.Repeat(" ", total-left)
		} else if i == 0 || i == 2 {
			padded = strings.Repeat(" ", widths[i]-len(cell)) + cell
		} else {
			padded = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		if !center && i == 1 && opcodeColor != nil {
			// Pad before coloring so escape codes don't skew the width.
			padded = opcodeColor.Sprint(padded)
		}
		sb.WriteString(" " + padded + " |")
	}
	return sb.String()
}
