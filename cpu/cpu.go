// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"io"
	"log"
	"math/bits"
	"os"
	"strings"

	"github.com/mgutz/ansi"

	"github.com/ezrec/armulet/bitfield"
)

// Slot is a pipeline register.
type Slot struct {
	Code  Code // Instruction word held by the slot.
	Valid bool // Set if the slot holds an instruction.
	Fault bool // Set if the word was fetched from outside memory.
}

// Cpu is the simulation context for the pipelined processor.
//
// Each Tick runs one cycle of the three stage pipeline: the word at PC is
// fetched, the word fetched on the previous cycle is decoded, and the word
// decoded on the previous cycle is executed. As a consequence PC reads as
// the executing instruction's address plus 8.
type Cpu struct {
	Verbose bool      // Set to enable verbose logging.
	Console io.Writer // Destination for runtime diagnostics. os.Stdout if nil.

	Memory   Memory            // Flat memory.
	Register [REG_COUNT]uint32 // Register file, including PC and CPSR.

	Fetched Slot      // Word fetched on the previous cycle, to decode.
	Decoded Slot      // Word decoded on the previous cycle, to execute.
	Class   CodeClass // Decoded class of the word in Decoded.

	Ticks int // CPU ticks counter.
}

// classColor selects the verbose trace colour of each instruction class.
var classColor = map[CodeClass]string{
	CLASS_DATA_PROCESSING: "green",
	CLASS_MULTIPLY:        "cyan",
	CLASS_TRANSFER:        "yellow",
	CLASS_BRANCH:          "magenta",
	CLASS_TERMINATE:       "red+b",
}

// NewCpu creates a new CPU with empty memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()
	return
}

// Reset the CPU state.
// - Clears the registers and the pipeline.
// - Zeros the tick counter.
// Memory is left untouched.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Fetched = Slot{}
	cpu.Decoded = Slot{}
	cpu.Class = CLASS_DATA_PROCESSING
	cpu.Ticks = 0
}

// Load replaces the contents of memory with words, starting at address 0.
func (cpu *Cpu) Load(words []uint32) (err error) {
	if len(words) > len(cpu.Memory) {
		err = ErrImageSize
		return
	}

	clear(cpu.Memory[:])
	copy(cpu.Memory[:], words)

	return
}

// console returns the runtime diagnostic writer.
func (cpu *Cpu) console() io.Writer {
	if cpu.Console == nil {
		return os.Stdout
	}
	return cpu.Console
}

// Flag returns the state of a CPSR flag.
func (cpu *Cpu) Flag(flag uint32) bool {
	return (cpu.Register[REG_CPSR] & flag) != 0
}

// setFlag sets or clears a CPSR flag.
func (cpu *Cpu) setFlag(flag uint32, value bool) {
	if value {
		cpu.Register[REG_CPSR] |= flag
	} else {
		cpu.Register[REG_CPSR] &^= flag
	}
}

// setNZ sets N and Z from a result.
func (cpu *Cpu) setNZ(result uint32) {
	cpu.setFlag(FLAG_N, bitfield.Bit(result, 31))
	cpu.setFlag(FLAG_Z, result == 0)
}

// Condition returns true if the flags satisfy cond. Unknown conditions
// never pass.
func (cpu *Cpu) Condition(cond CodeCond) bool {
	n := cpu.Flag(FLAG_N)
	z := cpu.Flag(FLAG_Z)
	v := cpu.Flag(FLAG_V)

	switch cond {
	case COND_EQ:
		return z
	case COND_NE:
		return !z
	case COND_GE:
		return n == v
	case COND_LT:
		return n != v
	case COND_GT:
		return !z && n == v
	case COND_LE:
		return z || n != v
	case COND_AL:
		return true
	default:
		return false
	}
}

// Fetch reads the instruction word at PC.
func (cpu *Cpu) Fetch() (slot Slot) {
	value, ok := cpu.Memory.Load(cpu.Register[REG_PC])
	if !ok {
		return Slot{Valid: true, Fault: true}
	}

	return Slot{Code: Code(value), Valid: true}
}

// Halted returns true once the terminator is the next instruction to
// execute.
func (cpu *Cpu) Halted() bool {
	return cpu.Decoded.Valid && !cpu.Decoded.Fault && cpu.Class == CLASS_TERMINATE
}

// Tick executes a single pipeline cycle, and returns done once the
// terminator reaches the execute stage.
func (cpu *Cpu) Tick() (done bool, err error) {
	fetched := cpu.Fetch()

	var class CodeClass
	if cpu.Fetched.Valid && !cpu.Fetched.Fault {
		class = cpu.Fetched.Code.Class()
	}

	var branched bool
	if cpu.Decoded.Valid {
		if cpu.Decoded.Fault {
			err = ErrFetchBounds
			return
		}
		branched = cpu.Execute(cpu.Decoded.Code, cpu.Class)
	}

	if branched {
		// Flush the pipeline; PC already holds the branch target.
		cpu.Fetched = Slot{}
		cpu.Decoded = Slot{}
		cpu.Class = CLASS_DATA_PROCESSING
	} else {
		cpu.Decoded = cpu.Fetched
		cpu.Class = class
		cpu.Fetched = fetched
		cpu.Register[REG_PC] += 4
	}

	cpu.Ticks++

	done = cpu.Halted()
	return
}

// Execute executes a single decoded instruction, if its condition passes.
// Returns true if the instruction was a taken branch.
func (cpu *Cpu) Execute(code Code, class CodeClass) (branched bool) {
	if cpu.Verbose {
		log.Printf("%08x: %v %v", cpu.Register[REG_PC]-8, ansi.Color(fmt.Sprintf("%-9v", class), classColor[class]), code)
	}

	if !cpu.Condition(code.Cond()) {
		return
	}

	switch class {
	case CLASS_DATA_PROCESSING:
		cpu.dataProcessing(code)
	case CLASS_MULTIPLY:
		cpu.multiply(code)
	case CLASS_TRANSFER:
		cpu.transfer(code)
	case CLASS_BRANCH:
		cpu.Register[REG_PC] += uint32(code.BranchDecode())
		branched = true
	case CLASS_TERMINATE:
		// Nothing to do; Tick reports completion.
	}

	return
}

// shifted evaluates a shifted register field through the barrel shifter.
func (cpu *Cpu) shifted(field uint32) (value uint32, carry bool) {
	sr := DecodeShiftedRegister(field)

	amount := sr.Amount
	if sr.ByReg {
		amount = cpu.Register[sr.Rs] & 0xff
	}

	return sr.Shift.Apply(cpu.Register[sr.Rm], amount, cpu.Flag(FLAG_C))
}

// dataProcessing executes a data processing instruction.
func (cpu *Cpu) dataProcessing(code Code) {
	op, set, rn, rd := code.DataProcessingDecode()

	var operand uint32
	var carry bool
	if code.Immediate() {
		var rotate uint32
		operand, rotate = DecodeImmediate(code.Operand())
		carry = cpu.Flag(FLAG_C)
		if rotate != 0 {
			carry = bitfield.Bit(operand, 31)
		}
	} else {
		operand, carry = cpu.shifted(code.Operand())
	}

	input := cpu.Register[rn]

	var result uint32
	var flag uint32
	switch op {
	case ALU_OP_AND, ALU_OP_TST:
		result = input & operand
	case ALU_OP_EOR, ALU_OP_TEQ:
		result = input ^ operand
	case ALU_OP_ORR:
		result = input | operand
	case ALU_OP_MOV:
		result = operand
	case ALU_OP_SUB, ALU_OP_CMP:
		result, flag = bits.Sub32(input, operand, 0)
		carry = flag == 0 // no borrow
	case ALU_OP_RSB:
		result, flag = bits.Sub32(operand, input, 0)
		carry = flag == 0
	case ALU_OP_ADD:
		result, flag = bits.Add32(input, operand, 0)
		carry = flag == 1
	default:
		// Opcodes outside of the supported set are no-ops.
		return
	}

	if !op.Compare() {
		cpu.Register[rd] = result
	}

	if set {
		cpu.setNZ(result)
		cpu.setFlag(FLAG_C, carry)
	}
}

// multiply executes a multiply, or multiply-accumulate, instruction.
func (cpu *Cpu) multiply(code Code) {
	accumulate, rd, rn, rs, rm := code.MultiplyDecode()

	result := cpu.Register[rm] * cpu.Register[rs]
	if accumulate {
		result += cpu.Register[rn]
	}

	cpu.Register[rd] = result
	cpu.setNZ(result)
}

// transfer executes a single data transfer instruction.
func (cpu *Cpu) transfer(code Code) {
	pre, up, load, rn, rd := code.TransferDecode()

	var offset uint32
	if code.Immediate() {
		offset, _ = cpu.shifted(code.Operand())
	} else {
		offset = code.Operand()
	}

	base := cpu.Register[rn]
	moved := base + offset
	if !up {
		moved = base - offset
	}

	addr := base
	if pre {
		addr = moved
	}

	var ok bool
	if load {
		var value uint32
		value, ok = cpu.Memory.Load(addr)
		if ok {
			cpu.Register[rd] = value
		}
	} else {
		ok = cpu.Memory.Store(addr, cpu.Register[rd])
	}

	if !ok {
		if cpu.Verbose {
			log.Printf("cpu: transfer out of bounds at %#08x", addr)
		}
		fmt.Fprintf(cpu.console(), "Error: Out of bounds memory access at address 0x%08x\n", addr)
	}

	if !pre {
		cpu.Register[rn] = moved
	}
}

// WriteState writes the register file and all non-zero memory words.
// Memory words are shown most significant byte first, in address order.
func (cpu *Cpu) WriteState(w io.Writer) (err error) {
	_, err = io.WriteString(w, cpu.String())
	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	var text strings.Builder

	text.WriteString("Registers:\n")
	for n := range REG_GENERAL {
		val := cpu.Register[n]
		fmt.Fprintf(&text, "$%-3d: %10d (0x%08x)\n", n, int32(val), val)
	}
	for _, reg := range []struct {
		name  string
		index int
	}{{"PC  ", REG_PC}, {"CPSR", REG_CPSR}} {
		val := cpu.Register[reg.index]
		fmt.Fprintf(&text, "%v: %10d (0x%08x)\n", reg.name, int32(val), val)
	}

	text.WriteString("Non-zero memory:\n")
	for n, val := range cpu.Memory {
		if val == 0 {
			continue
		}
		fmt.Fprintf(&text, "0x%08x: 0x%08x\n", n*4, bits.ReverseBytes32(val))
	}

	return text.String()
}
