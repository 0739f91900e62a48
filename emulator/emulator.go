// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"io"
	"log"

	"github.com/ezrec/armulet/cpu"
	armio "github.com/ezrec/armulet/io"
)

// Emulator state. CPU + program image.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.
	Rom      armio.Rom    // Program image, loaded into memory on Reset.
	MaxTicks int          // If non-zero, Run fails after this many ticks.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Load reads a program image. The listing is cleared, as the image carries
// no source lines.
func (emu *Emulator) Load(r io.Reader) (err error) {
	_, err = emu.Rom.ReadFrom(r)
	if err != nil {
		return
	}

	emu.Program = &cpu.Program{}

	return
}

// SetProgram uses an assembled program as the image, keeping its listing
// for line number lookups.
func (emu *Emulator) SetProgram(prog *cpu.Program) {
	emu.Program = prog
	emu.Rom.Data = prog.Binary()
}

// Reset loads the image into memory and resets the CPU.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Load(emu.Rom.Data)
	if err != nil {
		return
	}

	emu.Cpu.Reset()

	if emu.Verbose {
		log.Printf("emulator: %d words loaded", len(emu.Rom.Data))
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Addr returns the address of the instruction in the execute stage.
func (emu *Emulator) Addr() uint32 {
	return emu.Cpu.Register[cpu.REG_PC] - 8
}

// Code returns the instruction in the execute stage.
func (emu *Emulator) Code() cpu.Code {
	return emu.Cpu.Decoded.Code
}

// LineNo returns the source line number of the instruction in the execute
// stage, or 0 if there is no listing for it.
func (emu *Emulator) LineNo() int {
	op := emu.Program.Debug(emu.Addr())
	if op == nil {
		return 0
	}

	return op.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	addr := emu.Addr()
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Addr: addr, LineNo: lineno, Err: err}
		}
	}()

	done, err = emu.Cpu.Tick()
	return
}

// Run ticks the emulator until the program halts.
func (emu *Emulator) Run() (err error) {
	for {
		if emu.MaxTicks != 0 && emu.Ticks() >= emu.MaxTicks {
			err = &ErrRuntime{Addr: emu.Addr(), LineNo: emu.LineNo(), Err: ErrTickLimit}
			return
		}

		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}
}

// Report writes the final CPU state.
func (emu *Emulator) Report(w io.Writer) (err error) {
	return emu.Cpu.WriteState(w)
}
