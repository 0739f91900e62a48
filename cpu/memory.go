// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

const (
	MEMORY_SIZE  = 0x1_0000        // Bytes of simulated memory.
	MEMORY_WORDS = MEMORY_SIZE / 4 // 32-bit words of simulated memory.
)

// Register file layout.
const (
	REG_GENERAL = 13 // r0-r12 are general purpose.
	REG_PC      = 15 // Program counter.
	REG_CPSR    = 16 // Flags.
	REG_COUNT   = 17 // Size of the register file.
)

// CPSR flag bits.
const (
	FLAG_N = uint32(1 << 31) // Negative.
	FLAG_Z = uint32(1 << 30) // Zero.
	FLAG_C = uint32(1 << 29) // Carry.
	FLAG_V = uint32(1 << 28) // Overflow.
)

// Memory is the flat, word organised, memory of the machine. Byte addresses
// are little-endian within each word.
type Memory [MEMORY_WORDS]uint32

// InBounds returns true if the four bytes at addr are all within memory.
func (mem *Memory) InBounds(addr uint32) bool {
	return uint64(addr)+4 <= MEMORY_SIZE
}

// byteAt returns the byte at addr, which must be in bounds.
func (mem *Memory) byteAt(addr uint32) uint32 {
	return (mem[addr/4] >> (8 * (addr % 4))) & 0xff
}

// setByte sets the byte at addr, which must be in bounds.
func (mem *Memory) setByte(addr uint32, value uint32) {
	shift := 8 * (addr % 4)
	mem[addr/4] = (mem[addr/4] &^ (0xff << shift)) | ((value & 0xff) << shift)
}

// Load reads the 32-bit word at byte address addr, which need not be
// aligned.
func (mem *Memory) Load(addr uint32) (value uint32, ok bool) {
	if !mem.InBounds(addr) {
		return
	}

	if addr%4 == 0 {
		return mem[addr/4], true
	}

	for n := range uint32(4) {
		value |= mem.byteAt(addr+n) << (8 * n)
	}
	return value, true
}

// Store writes the 32-bit word at byte address addr, which need not be
// aligned.
func (mem *Memory) Store(addr uint32, value uint32) (ok bool) {
	if !mem.InBounds(addr) {
		return
	}

	if addr%4 == 0 {
		mem[addr/4] = value
		return true
	}

	for n := range uint32(4) {
		mem.setByte(addr+n, value>>(8*n))
	}
	return true
}
