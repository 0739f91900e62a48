// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bitfield

import (
	"math/bits"
)

// Shift is a barrel shifter operation, as encoded in bits 6-5 of a shifted
// register operand.
type Shift int

//go:generate go tool stringer -linecomment -type=Shift
const (
	SHIFT_LSL = Shift(0) // lsl
	SHIFT_LSR = Shift(1) // lsr
	SHIFT_ASR = Shift(2) // asr
	SHIFT_ROR = Shift(3) // ror
)

// Apply runs value through the barrel shifter, returning the shifted value
// and the carry out.
//
// A zero amount leaves the value untouched and passes carryIn through.
// Amounts of 32 and above saturate: logical shifts produce zero (carrying
// out the last bit shifted at exactly 32), arithmetic shifts replicate the
// sign bit, and rotates are taken modulo 32.
func (s Shift) Apply(value uint32, amount uint32, carryIn bool) (result uint32, carry bool) {
	if amount == 0 {
		return value, carryIn
	}

	switch s {
	case SHIFT_LSL:
		switch {
		case amount < 32:
			carry = Bit(value, int(32-amount))
			result = value << amount
		case amount == 32:
			carry = Bit(value, 0)
		}
	case SHIFT_LSR:
		switch {
		case amount < 32:
			carry = Bit(value, int(amount-1))
			result = value >> amount
		case amount == 32:
			carry = Bit(value, 31)
		}
	case SHIFT_ASR:
		if amount >= 32 {
			amount = 32
			carry = Bit(value, 31)
		} else {
			carry = Bit(value, int(amount-1))
		}
		result = uint32(int32(value) >> amount)
	case SHIFT_ROR:
		amount &= 0x1f
		result = bits.RotateLeft32(value, -int(amount))
		carry = Bit(result, 31)
	default:
		panic("unknown shift")
	}

	return
}
