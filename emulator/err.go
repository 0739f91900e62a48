// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"

	"github.com/ezrec/armulet/translate"
)

var f = translate.From

var (
	ErrTickLimit = errors.New(f("tick limit exceeded"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Addr   uint32 // Address of the executing instruction.
	LineNo int    // Source line, or 0 if unknown.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("address %#08x %v", err.Addr, err.Err)
	}
	return f("line %d (address %#08x) %v", err.LineNo, err.Addr, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
