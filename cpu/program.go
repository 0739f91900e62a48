// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"iter"

	"github.com/ezrec/armulet/internal"
)

// Opcode is a line of assembled code with its source location.
type Opcode struct {
	LineNo int      // Source line number, starting at 1.
	Addr   uint32   // Byte address of the instruction.
	Words  []string // Tokens of the source line.
	Code   Code     // Assembled instruction.
}

// Program is an assembled program: the instructions, followed by the
// literal pool of constants too large to encode inline.
type Program struct {
	Opcodes  []Opcode
	Literals []uint32
}

// Debug returns the opcode assembled at addr, or nil if addr is not an
// instruction address.
func (prog *Program) Debug(addr uint32) (op *Opcode) {
	if addr%4 != 0 {
		return
	}

	index := int(addr / 4)
	if index >= len(prog.Opcodes) {
		return
	}

	return &prog.Opcodes[index]
}

// Len returns the number of words in the program image.
func (prog *Program) Len() int {
	return len(prog.Opcodes) + len(prog.Literals)
}

// Codes iterates over the program image by byte address: first the
// instructions, then the literal pool.
func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	var instructions iter.Seq[Code] = func(yield func(Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Code) {
				return
			}
		}
	}
	var literals iter.Seq[Code] = func(yield func(Code) bool) {
		for _, value := range prog.Literals {
			if !yield(Code(value)) {
				return
			}
		}
	}

	return internal.Addressed(0, 4, internal.Concat(instructions, literals))
}

// Binary returns the program image as words.
func (prog *Program) Binary() (bins []uint32) {
	bins = make([]uint32, 0, prog.Len())
	for _, code := range prog.Codes() {
		bins = append(bins, uint32(code))
	}

	return
}
