// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"

	"github.com/ezrec/armulet/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrFetchBounds = errors.New(f("instruction fetch out of bounds"))
	ErrImageSize   = errors.New(f("image larger than memory"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeMissing      = errors.New(f("operand missing"))
	ErrOpcodeInvalid      = errors.New(f("operand invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrCondInvalid        = errors.New(f("condition invalid"))
	ErrAddressSyntax      = errors.New(f("address syntax"))
	ErrOffsetRange        = errors.New(f("offset out of range"))
	ErrLiteralStore       = errors.New(f("literal store"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrRegister string

func (err ErrRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrImmediate uint32

func (err ErrImmediate) Error() string {
	return f("immediate %#x cannot be represented", uint32(err))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
