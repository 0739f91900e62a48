package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/armulet/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(0, emu.Program.Len())
	assert.Equal(0, emu.LineNo())
}

func doAssemble(t *testing.T, emu *Emulator, program []string) {
	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	emu.SetProgram(prog)
	emu.Cpu.Console = &bytes.Buffer{}

	err = emu.Reset()
	if err != nil {
		t.Fatal(err)
	}
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(t, emu, []string{
		"mov r0, #5",
		"add r1, r0, #3",
		"andeq r0, r0, r0",
	})

	err := emu.Run()
	assert.NoError(err)
	assert.Equal(4, emu.Ticks())
	assert.Equal(3, emu.LineNo())
	assert.Equal(cpu.Code(0), emu.Code())

	buf := &bytes.Buffer{}
	assert.NoError(emu.Report(buf))
	report := buf.String()
	assert.Contains(report, "$0  :          5 (0x00000005)\n")
	assert.Contains(report, "$1  :          8 (0x00000008)\n")
	assert.Contains(report, "PC  :         16 (0x00000010)\n")
	assert.Contains(report, "CPSR:          0 (0x00000000)\n")
	assert.Contains(report, "Non-zero memory:\n0x00000000: 0x0500a0e3\n0x00000004: 0x031080e2\n")
}

func TestEmulatorLineNo(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"; count down",
		"	mov r0, #2",
		"loop:",
		"	sub r0, r0, #1",
		"	cmp r0, #0",
		"	bne loop",
		"	andeq r0, r0, r0",
	}

	emu := NewEmulator()
	doAssemble(t, emu, program)

	var lines []int
	for {
		done, err := emu.Tick()
		if !assert.NoError(err) {
			return
		}
		if done {
			break
		}
		if emu.Cpu.Decoded.Valid {
			lines = append(lines, emu.LineNo())
		}
	}

	assert.Equal([]int{2, 4, 5, 6, 4, 5, 6}, lines)
	assert.Equal(7, emu.LineNo())
	assert.Equal(uint32(0), emu.Cpu.Register[0])
}

func TestEmulatorTickLimit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(t, emu, []string{
		"loop:",
		"	b loop",
	})
	emu.MaxTicks = 100

	err := emu.Run()
	assert.ErrorIs(err, ErrTickLimit)
	assert.Equal(100, emu.Ticks())

	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
}

func TestEmulatorFetchBounds(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(t, emu, []string{
		"	b 0x10000",
	})

	err := emu.Run()
	assert.ErrorIs(err, cpu.ErrFetchBounds)

	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(uint32(0x10000), rt.Addr)
		assert.Equal(0, rt.LineNo)
	}
}

func TestEmulatorLoad(t *testing.T) {
	assert := assert.New(t)

	image := []byte{
		0x05, 0x00, 0xa0, 0xe3, // mov r0, #5
		0x00, 0x00, 0x00, 0x00, // andeq r0, r0, r0
	}

	emu := NewEmulator()
	emu.Program = &cpu.Program{Opcodes: []cpu.Opcode{{LineNo: 9}}}
	assert.NoError(emu.Load(bytes.NewReader(image)))
	assert.Equal([]uint32{0xe3a00005, 0}, emu.Rom.Data)
	assert.Equal(0, emu.Program.Len())

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run())
	assert.Equal(uint32(5), emu.Cpu.Register[0])
	assert.Equal(uint32(12), emu.Cpu.Register[cpu.REG_PC])
	assert.Equal(0, emu.LineNo())

	// Reset restores the image, and clears the CPU.
	emu.Cpu.Memory[0] = 0
	assert.NoError(emu.Reset())
	assert.Equal(uint32(0xe3a00005), emu.Cpu.Memory[0])
	assert.Equal(uint32(0), emu.Cpu.Register[0])

	err := emu.Load(bytes.NewReader(image[:3]))
	assert.Error(err)
}

func TestEmulatorImageSize(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Rom.Data = make([]uint32, cpu.MEMORY_WORDS+1)
	assert.ErrorIs(emu.Reset(), cpu.ErrImageSize)
}
