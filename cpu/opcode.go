// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"math/bits"

	"github.com/ezrec/armulet/bitfield"
)

// CodeCond is a condition code.
type CodeCond int

//go:generate go tool stringer -linecomment -type=CodeCond
const (
	COND_EQ = CodeCond(0b0000) // eq
	COND_NE = CodeCond(0b0001) // ne
	COND_GE = CodeCond(0b1010) // ge
	COND_LT = CodeCond(0b1011) // lt
	COND_GT = CodeCond(0b1100) // gt
	COND_LE = CodeCond(0b1101) // le
	COND_AL = CodeCond(0b1110) // al
)

// suffix is the mnemonic suffix of the condition; empty for COND_AL.
func (cond CodeCond) suffix() string {
	if cond == COND_AL {
		return ""
	}
	return cond.String()
}

// CodeClass is the instruction class, as determined by the decoder.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	CLASS_DATA_PROCESSING = CodeClass(0) // data
	CLASS_MULTIPLY        = CodeClass(1) // multiply
	CLASS_TRANSFER        = CodeClass(2) // transfer
	CLASS_BRANCH          = CodeClass(3) // branch
	CLASS_TERMINATE       = CodeClass(4) // terminate
)

// CodeAluOp is a data processing operation.
type CodeAluOp int

//go:generate go tool stringer -linecomment -type=CodeAluOp
const (
	ALU_OP_AND = CodeAluOp(0b0000) // and
	ALU_OP_EOR = CodeAluOp(0b0001) // eor
	ALU_OP_SUB = CodeAluOp(0b0010) // sub
	ALU_OP_RSB = CodeAluOp(0b0011) // rsb
	ALU_OP_ADD = CodeAluOp(0b0100) // add
	ALU_OP_TST = CodeAluOp(0b1000) // tst
	ALU_OP_TEQ = CodeAluOp(0b1001) // teq
	ALU_OP_CMP = CodeAluOp(0b1010) // cmp
	ALU_OP_ORR = CodeAluOp(0b1100) // orr
	ALU_OP_MOV = CodeAluOp(0b1101) // mov
)

// Compare returns true for the operations that only set flags.
func (op CodeAluOp) Compare() bool {
	return op >= ALU_OP_TST && op <= ALU_OP_CMP
}

// Register names a register for disassembly.
func Register(reg int) string {
	if reg == REG_PC {
		return "pc"
	}
	return fmt.Sprintf("r%d", reg)
}

// Code is a single 32-bit instruction word.
type Code uint32

// MakeCodeTerminate creates the all-zero halt instruction.
func MakeCodeTerminate() Code {
	return Code(0)
}

// MakeCodeDataProcessing creates a data processing instruction.
// If imm is set, operand is a rotated immediate field (see EncodeImmediate),
// otherwise it is a shifted register field (see ShiftedRegister.Encode).
func MakeCodeDataProcessing(cond CodeCond, op CodeAluOp, set bool, rn, rd int, imm bool, operand uint32) Code {
	word := bitfield.Put(0, uint32(cond), 31, 4)
	word = bitfield.PutBit(word, imm, 25)
	word = bitfield.Put(word, uint32(op), 24, 4)
	word = bitfield.PutBit(word, set, 20)
	word = bitfield.Put(word, uint32(rn), 19, 4)
	word = bitfield.Put(word, uint32(rd), 15, 4)
	word = bitfield.Put(word, operand, 11, 12)
	return Code(word)
}

// MakeCodeMultiply creates a multiply, or multiply-accumulate, instruction.
func MakeCodeMultiply(cond CodeCond, accumulate bool, rd, rn, rs, rm int) Code {
	word := bitfield.Put(0, uint32(cond), 31, 4)
	word = bitfield.PutBit(word, accumulate, 21)
	word = bitfield.Put(word, uint32(rd), 19, 4)
	word = bitfield.Put(word, uint32(rn), 15, 4)
	word = bitfield.Put(word, uint32(rs), 11, 4)
	word = bitfield.Put(word, 0b1001, 7, 4)
	word = bitfield.Put(word, uint32(rm), 3, 4)
	return Code(word)
}

// MakeCodeTransfer creates a single data transfer instruction.
// If reg is set, offset is a shifted register field, otherwise it is an
// unsigned 12-bit byte offset.
func MakeCodeTransfer(cond CodeCond, reg, pre, up, load bool, rn, rd int, offset uint32) Code {
	word := bitfield.Put(0, uint32(cond), 31, 4)
	word = bitfield.Put(word, 0b01, 27, 2)
	word = bitfield.PutBit(word, reg, 25)
	word = bitfield.PutBit(word, pre, 24)
	word = bitfield.PutBit(word, up, 23)
	word = bitfield.PutBit(word, load, 20)
	word = bitfield.Put(word, uint32(rn), 19, 4)
	word = bitfield.Put(word, uint32(rd), 15, 4)
	word = bitfield.Put(word, offset, 11, 12)
	return Code(word)
}

// MakeCodeBranch creates a branch instruction. The offset is in words,
// relative to the instruction address plus 8.
func MakeCodeBranch(cond CodeCond, offset int32) Code {
	word := bitfield.Put(0, uint32(cond), 31, 4)
	word = bitfield.Put(word, 0b1010, 27, 4)
	word = bitfield.Put(word, uint32(offset), 23, 24)
	return Code(word)
}

// Cond returns the condition code of the instruction.
func (code Code) Cond() CodeCond {
	return CodeCond(bitfield.Get(uint32(code), 31, 4))
}

// Class decodes the instruction class. The checks are ordered; the first
// matching class wins.
func (code Code) Class() CodeClass {
	word := uint32(code)
	switch {
	case word == 0:
		return CLASS_TERMINATE
	case bitfield.Bit(word, 27):
		return CLASS_BRANCH
	case bitfield.Bit(word, 26):
		return CLASS_TRANSFER
	case bitfield.Get(word, 27, 6) == 0 && bitfield.Get(word, 7, 4) == 0b1001:
		return CLASS_MULTIPLY
	default:
		return CLASS_DATA_PROCESSING
	}
}

// Immediate returns the I bit of a data processing or transfer instruction.
//
// For data processing it selects a rotated immediate operand; for a
// transfer it selects a shifted register offset.
func (code Code) Immediate() bool {
	return bitfield.Bit(uint32(code), 25)
}

// Operand returns the 12-bit operand 2, or offset, field.
func (code Code) Operand() uint32 {
	return bitfield.Get(uint32(code), 11, 12)
}

// DataProcessingDecode decodes a data processing instruction.
func (code Code) DataProcessingDecode() (op CodeAluOp, set bool, rn, rd int) {
	word := uint32(code)
	op = CodeAluOp(bitfield.Get(word, 24, 4))
	set = bitfield.Bit(word, 20)
	rn = int(bitfield.Get(word, 19, 4))
	rd = int(bitfield.Get(word, 15, 4))
	return
}

// MultiplyDecode decodes a multiply instruction.
func (code Code) MultiplyDecode() (accumulate bool, rd, rn, rs, rm int) {
	word := uint32(code)
	accumulate = bitfield.Bit(word, 21)
	rd = int(bitfield.Get(word, 19, 4))
	rn = int(bitfield.Get(word, 15, 4))
	rs = int(bitfield.Get(word, 11, 4))
	rm = int(bitfield.Get(word, 3, 4))
	return
}

// TransferDecode decodes a single data transfer instruction.
func (code Code) TransferDecode() (pre, up, load bool, rn, rd int) {
	word := uint32(code)
	pre = bitfield.Bit(word, 24)
	up = bitfield.Bit(word, 23)
	load = bitfield.Bit(word, 20)
	rn = int(bitfield.Get(word, 19, 4))
	rd = int(bitfield.Get(word, 15, 4))
	return
}

// BranchDecode returns the branch offset in bytes, relative to the
// instruction address plus 8.
func (code Code) BranchDecode() (offset int32) {
	return bitfield.SignExtend(bitfield.Get(uint32(code), 23, 24), 24) << 2
}

// EncodeImmediate encodes value as a rotated 8-bit immediate operand field.
func EncodeImmediate(value uint32) (field uint32, ok bool) {
	imm8, rotate, ok := bitfield.RotateImmediate(value)
	if !ok {
		return
	}

	field = bitfield.Put(0, rotate/2, 11, 4)
	field = bitfield.Put(field, imm8, 7, 8)
	return
}

// DecodeImmediate decodes a rotated 8-bit immediate operand field.
func DecodeImmediate(field uint32) (value uint32, rotate uint32) {
	rotate = 2 * bitfield.Get(field, 11, 4)
	value = bits.RotateLeft32(bitfield.Get(field, 7, 8), -int(rotate))
	return
}

// ShiftedRegister is a register operand passed through the barrel shifter.
type ShiftedRegister struct {
	Rm     int            // Register to shift.
	Shift  bitfield.Shift // Shift operation.
	ByReg  bool           // If set, the amount is the low byte of Rs.
	Rs     int            // Register holding the shift amount.
	Amount uint32         // Constant shift amount, 0-31.
}

// DecodeShiftedRegister decodes a 12-bit shifted register field.
func DecodeShiftedRegister(field uint32) (sr ShiftedRegister) {
	sr.Rm = int(bitfield.Get(field, 3, 4))
	sr.Shift = bitfield.Shift(bitfield.Get(field, 6, 2))
	sr.ByReg = bitfield.Bit(field, 4)
	if sr.ByReg {
		sr.Rs = int(bitfield.Get(field, 11, 4))
	} else {
		sr.Amount = bitfield.Get(field, 11, 5)
	}
	return
}

// Encode returns the 12-bit shifted register field.
func (sr ShiftedRegister) Encode() (field uint32) {
	field = bitfield.Put(0, uint32(sr.Rm), 3, 4)
	field = bitfield.Put(field, uint32(sr.Shift), 6, 2)
	if sr.ByReg {
		field = bitfield.PutBit(field, true, 4)
		field = bitfield.Put(field, uint32(sr.Rs), 11, 4)
	} else {
		field = bitfield.Put(field, sr.Amount, 11, 5)
	}
	return
}

func (sr ShiftedRegister) String() string {
	switch {
	case sr.ByReg:
		return fmt.Sprintf("%v, %v %v", Register(sr.Rm), sr.Shift, Register(sr.Rs))
	case sr.Amount != 0:
		return fmt.Sprintf("%v, %v #%d", Register(sr.Rm), sr.Shift, sr.Amount)
	default:
		return Register(sr.Rm)
	}
}

// operandString renders operand 2 of a data processing instruction.
func (code Code) operandString() string {
	if code.Immediate() {
		value, _ := DecodeImmediate(code.Operand())
		if value > 0xff {
			return fmt.Sprintf("#%#x", value)
		}
		return fmt.Sprintf("#%d", value)
	}
	return DecodeShiftedRegister(code.Operand()).String()
}

// String returns the assembly language representation of the instruction.
func (code Code) String() (out string) {
	cond := code.Cond()

	switch code.Class() {
	case CLASS_TERMINATE:
		out = "andeq r0, r0, r0"
	case CLASS_BRANCH:
		out = fmt.Sprintf("b%v .%+d", cond.suffix(), code.BranchDecode()+8)
	case CLASS_MULTIPLY:
		acc, rd, rn, rs, rm := code.MultiplyDecode()
		if acc {
			out = fmt.Sprintf("mla%v %v, %v, %v, %v", cond.suffix(), Register(rd), Register(rm), Register(rs), Register(rn))
		} else {
			out = fmt.Sprintf("mul%v %v, %v, %v", cond.suffix(), Register(rd), Register(rm), Register(rs))
		}
	case CLASS_TRANSFER:
		pre, up, load, rn, rd := code.TransferDecode()
		op := "str"
		if load {
			op = "ldr"
		}
		sign := ""
		if !up {
			sign = "-"
		}
		var offset string
		if code.Immediate() {
			offset = sign + DecodeShiftedRegister(code.Operand()).String()
		} else {
			offset = fmt.Sprintf("#%v%d", sign, code.Operand())
		}
		switch {
		case pre && !code.Immediate() && code.Operand() == 0:
			out = fmt.Sprintf("%v%v %v, [%v]", op, cond.suffix(), Register(rd), Register(rn))
		case pre:
			out = fmt.Sprintf("%v%v %v, [%v, %v]", op, cond.suffix(), Register(rd), Register(rn), offset)
		default:
			out = fmt.Sprintf("%v%v %v, [%v], %v", op, cond.suffix(), Register(rd), Register(rn), offset)
		}
	case CLASS_DATA_PROCESSING:
		op, set, rn, rd := code.DataProcessingDecode()
		flags := ""
		if set && !op.Compare() {
			flags = "s"
		}
		mnemonic := op.String() + cond.suffix() + flags
		switch {
		case op.Compare():
			out = fmt.Sprintf("%v %v, %v", mnemonic, Register(rn), code.operandString())
		case op == ALU_OP_MOV:
			out = fmt.Sprintf("%v %v, %v", mnemonic, Register(rd), code.operandString())
		default:
			out = fmt.Sprintf("%v %v, %v, %v", mnemonic, Register(rd), Register(rn), code.operandString())
		}
	}

	return
}
