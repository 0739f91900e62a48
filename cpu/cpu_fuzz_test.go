package cpu

import (
	"bytes"
	"fmt"
	"math/bits"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/armulet/bitfield"
)

var fuzzAluOps = []CodeAluOp{
	ALU_OP_AND, ALU_OP_EOR, ALU_OP_SUB, ALU_OP_RSB, ALU_OP_ADD,
	ALU_OP_TST, ALU_OP_TEQ, ALU_OP_CMP, ALU_OP_ORR, ALU_OP_MOV,
}

// refShift is a reference barrel shifter for constant amounts of 1-31.
func refShift(shift bitfield.Shift, value uint32, amount uint32) uint32 {
	switch shift {
	case bitfield.SHIFT_LSL:
		return value << amount
	case bitfield.SHIFT_LSR:
		return value >> amount
	case bitfield.SHIFT_ASR:
		return uint32(int32(value) >> amount)
	default:
		return (value >> amount) | (value << (32 - amount))
	}
}

// refAlu is a reference ALU.
func refAlu(op CodeAluOp, a, b uint32) uint32 {
	switch op {
	case ALU_OP_AND, ALU_OP_TST:
		return a & b
	case ALU_OP_EOR, ALU_OP_TEQ:
		return a ^ b
	case ALU_OP_SUB, ALU_OP_CMP:
		return a - b
	case ALU_OP_RSB:
		return b - a
	case ALU_OP_ADD:
		return a + b
	case ALU_OP_ORR:
		return a | b
	default:
		return b
	}
}

func FuzzCpu(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0))
	f.Add(uint32(0xe3a00005), uint32(0), uint32(0))
	f.Add(uint32(0xe0910002), uint32(0xffffffff), uint32(1))
	f.Add(uint32(0xe1510002), uint32(5), uint32(5))
	f.Add(uint32(0xe0020190), uint32(6), uint32(7))
	f.Add(uint32(0xe5910000), uint32(0x100), uint32(0))
	f.Add(uint32(0x1afffffd), uint32(0), uint32(0))

	f.Fuzz(func(t *testing.T, word uint32, r1 uint32, r2 uint32) {
		assert := assert.New(t)

		code := Code(word)
		class := code.Class()

		cpu := NewCpu()
		cpu.Console = &bytes.Buffer{}
		for n := range REG_GENERAL {
			cpu.Register[n] = uint32(n) * 0x01010101
		}
		cpu.Register[1] = r1
		cpu.Register[2] = r2
		cpu.Register[REG_PC] = 0x108
		cpu.Register[REG_CPSR] = (r1 ^ r2) & 0xf0000000

		before := cpu.Register
		pass := cpu.Condition(code.Cond())

		branched := cpu.Execute(code, class)

		code_str := fmt.Sprintf("%#08x (%v)\nr1:%#x r2:%#x\ncpu:%v", word, code, r1, r2, cpu.String())

		// V is never modified.
		assert.Equal(before[REG_CPSR]&FLAG_V, cpu.Register[REG_CPSR]&FLAG_V, code_str)

		if !pass {
			assert.Equal(before, cpu.Register, code_str)
			assert.False(branched, code_str)
			return
		}

		switch class {
		case CLASS_TERMINATE:
			assert.Equal(before, cpu.Register, code_str)
		case CLASS_BRANCH:
			assert.True(branched, code_str)
			assert.Equal(before[REG_PC]+uint32(code.BranchDecode()), cpu.Register[REG_PC], code_str)
		case CLASS_MULTIPLY:
			assert.False(branched, code_str)
			acc, rd, rn, rs, rm := code.MultiplyDecode()
			expected := before[rm] * before[rs]
			if acc {
				expected += before[rn]
			}
			assert.Equal(expected, cpu.Register[rd], code_str)
			assert.Equal(expected == 0, cpu.Flag(FLAG_Z), code_str)
		case CLASS_DATA_PROCESSING:
			assert.False(branched, code_str)
			op, set, rn, rd := code.DataProcessingDecode()
			if !slices.Contains(fuzzAluOps, op) {
				assert.Equal(before, cpu.Register, code_str)
				break
			}
			for n := range REG_COUNT {
				if n == rd || (set && n == REG_CPSR) {
					continue
				}
				assert.Equal(before[n], cpu.Register[n], "r%d: %v", n, code_str)
			}
			var operand uint32
			if code.Immediate() {
				operand, _ = DecodeImmediate(code.Operand())
			} else {
				sr := DecodeShiftedRegister(code.Operand())
				switch {
				case sr.ByReg:
					return
				case sr.Amount == 0:
					operand = before[sr.Rm]
				default:
					operand = refShift(sr.Shift, before[sr.Rm], sr.Amount)
				}
			}
			result := refAlu(op, before[rn], operand)
			if op.Compare() {
				assert.Equal(before[rd], cpu.Register[rd], code_str)
			} else {
				assert.Equal(result, cpu.Register[rd], code_str)
			}
			if set {
				assert.Equal(result == 0, cpu.Flag(FLAG_Z), code_str)
				assert.Equal(bits.LeadingZeros32(result) == 0, cpu.Flag(FLAG_N), code_str)
			}
		case CLASS_TRANSFER:
			assert.False(branched, code_str)
			assert.Equal(before[REG_CPSR], cpu.Register[REG_CPSR], code_str)
		}
	})
}

func FuzzAssembleRoundTrip(f *testing.F) {
	f.Add(uint8(13), uint8(0), uint8(1), uint8(2), uint8(0), uint8(0), uint32(5), true)
	f.Add(uint8(4), uint8(1), uint8(0), uint8(2), uint8(2), uint8(3), uint32(0), false)
	f.Add(uint8(10), uint8(0), uint8(15), uint8(2), uint8(1), uint8(31), uint32(0xff000000), true)

	f.Fuzz(func(t *testing.T, opIndex, rd, rn, rm, shift, amount uint8, value uint32, imm bool) {
		assert := assert.New(t)

		op := fuzzAluOps[int(opIndex)%len(fuzzAluOps)]
		rd &= 0xf
		rn &= 0xf
		rm &= 0xf
		amount &= 0x1f

		set := op.Compare()
		if set {
			rd = 0
		}
		if op == ALU_OP_MOV {
			rn = 0
		}

		var field uint32
		if imm {
			var ok bool
			field, ok = EncodeImmediate(value)
			if !ok {
				return
			}
		} else {
			sr := ShiftedRegister{Rm: int(rm), Amount: uint32(amount)}
			if amount != 0 {
				sr.Shift = bitfield.Shift(shift & 3)
			}
			field = sr.Encode()
		}

		code := MakeCodeDataProcessing(COND_AL, op, set, int(rn), int(rd), imm, field)

		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(code.String()))
		if !assert.NoError(err, code.String()) {
			return
		}

		assert.Equal([]uint32{uint32(code)}, prog.Binary(), code.String())
	})
}
