package bitfield

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("lsl", SHIFT_LSL.String())
	assert.Equal("lsr", SHIFT_LSR.String())
	assert.Equal("asr", SHIFT_ASR.String())
	assert.Equal("ror", SHIFT_ROR.String())
	assert.Equal("Shift(7)", Shift(7).String())
	assert.Equal("Shift(-1)", Shift(-1).String())
}

func TestShiftApply(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		shift   Shift
		value   uint32
		amount  uint32
		carryIn bool
		result  uint32
		carry   bool
	}{
		// Zero amount passes value and carry through.
		{SHIFT_LSL, 0x80000001, 0, false, 0x80000001, false},
		{SHIFT_LSL, 0x80000001, 0, true, 0x80000001, true},
		{SHIFT_LSR, 0x80000001, 0, true, 0x80000001, true},
		{SHIFT_ASR, 0x80000001, 0, false, 0x80000001, false},
		{SHIFT_ROR, 0x80000001, 0, true, 0x80000001, true},

		{SHIFT_LSL, 0x00000001, 4, false, 0x00000010, false},
		{SHIFT_LSL, 0x80000001, 1, false, 0x00000002, true},
		{SHIFT_LSL, 0x10000000, 4, false, 0x00000000, true},
		{SHIFT_LSL, 0x00000001, 31, false, 0x80000000, false},
		{SHIFT_LSL, 0x00000001, 32, false, 0x00000000, true},
		{SHIFT_LSL, 0xffffffff, 33, true, 0x00000000, false},

		{SHIFT_LSR, 0x00000010, 4, false, 0x00000001, false},
		{SHIFT_LSR, 0x00000018, 4, false, 0x00000001, true},
		{SHIFT_LSR, 0x80000000, 31, false, 0x00000001, false},
		{SHIFT_LSR, 0x80000000, 32, false, 0x00000000, true},
		{SHIFT_LSR, 0xffffffff, 40, true, 0x00000000, false},

		{SHIFT_ASR, 0x80000000, 4, false, 0xf8000000, false},
		{SHIFT_ASR, 0x40000008, 4, false, 0x04000000, true},
		{SHIFT_ASR, 0x80000000, 32, false, 0xffffffff, true},
		{SHIFT_ASR, 0x7fffffff, 32, true, 0x00000000, false},
		{SHIFT_ASR, 0x80000000, 200, false, 0xffffffff, true},

		{SHIFT_ROR, 0x00000001, 1, false, 0x80000000, true},
		{SHIFT_ROR, 0x000000f0, 4, true, 0x0000000f, false},
		{SHIFT_ROR, 0x0000000f, 4, false, 0xf0000000, true},
		{SHIFT_ROR, 0x80000000, 32, false, 0x80000000, true},
		{SHIFT_ROR, 0x00000002, 33, false, 0x00000001, false},
	}

	for _, entry := range table {
		name := fmt.Sprintf("%v %#x by %d", entry.shift, entry.value, entry.amount)
		result, carry := entry.shift.Apply(entry.value, entry.amount, entry.carryIn)
		assert.Equal(entry.result, result, name)
		assert.Equal(entry.carry, carry, name)
	}
}

func TestShiftApplyPanics(t *testing.T) {
	assert := assert.New(t)

	assert.Panics(func() { Shift(4).Apply(1, 1, false) })
}
