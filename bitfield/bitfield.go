// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package bitfield provides the bit-level helpers shared by the assembler and
// the CPU: reading and writing fields of a 32-bit word, the barrel shifter,
// and the rotated 8-bit immediate search.
//
// Field positions follow the instruction set documentation: a field is named
// by its most significant bit and its width, so the 4-bit condition code is
// field (31, 4) and the 12-bit operand is field (11, 12).
package bitfield

import (
	"math/bits"
)

// mask returns a mask of the low width bits.
func mask(width int) uint32 {
	if width >= 32 {
		return 0xffffffff
	}
	return (uint32(1) << width) - 1
}

// Bit returns true if bit pos of word is set.
func Bit(word uint32, pos int) bool {
	return (word>>pos)&1 == 1
}

// Get returns the width bits of word whose most significant bit is hi.
func Get(word uint32, hi int, width int) uint32 {
	return (word >> (hi - width + 1)) & mask(width)
}

// Put returns word with the width bits whose most significant bit is hi
// replaced by value. Bits of value beyond width are discarded.
func Put(word uint32, value uint32, hi int, width int) uint32 {
	lo := hi - width + 1
	m := mask(width) << lo
	return (word &^ m) | ((value << lo) & m)
}

// PutBit returns word with bit pos set to value.
func PutBit(word uint32, value bool, pos int) uint32 {
	if value {
		return word | (1 << pos)
	}
	return word &^ (1 << pos)
}

// SignExtend sign extends the low width bits of value.
func SignExtend(value uint32, width int) int32 {
	shift := 32 - width
	return int32(value<<shift) >> shift
}

// RotateImmediate finds the smallest even rotation (0, 2, .. 30) for which
// value rotated left fits in 8 bits. The encoded immediate is then
// imm8 rotated right by rotate.
func RotateImmediate(value uint32) (imm8 uint32, rotate uint32, ok bool) {
	for rot := 0; rot <= 30; rot += 2 {
		candidate := bits.RotateLeft32(value, rot)
		if candidate <= 0xff {
			return candidate, uint32(rot), true
		}
	}

	return
}
