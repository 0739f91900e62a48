// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/armulet/bitfield"
	"github.com/ezrec/armulet/symtab"
)

// encoder selects the encoder of a special cased mnemonic.
type encoder uint32

const (
	ENCODE_SPECIAL  = encoder(0) // andeq, lsl
	ENCODE_MULTIPLY = encoder(1) // mul, mla
	ENCODE_TRANSFER = encoder(2) // ldr, str
)

// Source is a line of assembly source.
type Source struct {
	LineNo int    // Line number, starting at 1.
	Text   string // Line text, without comments or surrounding space.
}

// Label returns the label defined by the line, if any.
func (src Source) Label() (label string, ok bool) {
	label, _, ok = strings.Cut(src.Text, ":")
	label = strings.TrimSpace(label)
	return
}

// Assembler is a two pass assembler. The first pass assigns addresses to
// labels, the second encodes one word per instruction line.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.
	Literal []uint32 // Literal pool, placed after the last opcode.

	Label    symtab.Table      // Label byte addresses.
	Mnemonic symtab.Table      // Special cased mnemonics, to their encoder.
	AluOp    symtab.Table      // Data processing mnemonics, to their opcode.
	Cond     symtab.Table      // Branch suffixes, to their condition code.
	Shift    symtab.Table      // Shift names, to their shift type.
	Equate   map[string]string // Map of equates.

	predefine    map[string]string // Predefines
	instructions int               // Instruction count found by the first pass.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// reset prepares the symbol tables for a new program.
func (asm *Assembler) reset() {
	asm.Opcode = asm.Opcode[:0]
	asm.Literal = asm.Literal[:0]
	asm.instructions = 0

	asm.Label.Reset()
	asm.Mnemonic.Reset()
	asm.AluOp.Reset()
	asm.Cond.Reset()
	asm.Shift.Reset()

	asm.Mnemonic.Insert("lsl", uint32(ENCODE_SPECIAL))
	asm.Mnemonic.Insert("andeq", uint32(ENCODE_SPECIAL))
	asm.Mnemonic.Insert("mul", uint32(ENCODE_MULTIPLY))
	asm.Mnemonic.Insert("mla", uint32(ENCODE_MULTIPLY))
	asm.Mnemonic.Insert("ldr", uint32(ENCODE_TRANSFER))
	asm.Mnemonic.Insert("str", uint32(ENCODE_TRANSFER))

	for _, op := range []CodeAluOp{
		ALU_OP_AND, ALU_OP_EOR, ALU_OP_SUB, ALU_OP_RSB, ALU_OP_ADD,
		ALU_OP_ORR, ALU_OP_MOV, ALU_OP_TST, ALU_OP_TEQ, ALU_OP_CMP,
	} {
		asm.AluOp.Insert(op.String(), uint32(op))
	}

	for _, s := range []bitfield.Shift{bitfield.SHIFT_LSL, bitfield.SHIFT_LSR, bitfield.SHIFT_ASR, bitfield.SHIFT_ROR} {
		asm.Shift.Insert(s.String(), uint32(s))
	}

	for _, cond := range []CodeCond{COND_EQ, COND_NE, COND_GE, COND_LT, COND_GT, COND_LE, COND_AL} {
		asm.Cond.Insert(cond.String(), uint32(cond))
	}

	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = map[string]string{}
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		value = uint32(0xffffffff + (v64 + 1))
	} else {
		value = uint32(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations. Labels and integer
// equates are visible as variables.
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeUint64(uint64(value32))
	}
	for label, addr := range asm.Label.All() {
		_, ok := pred[label]
		if ok {
			continue
		}
		pred[label] = starlark.MakeUint64(uint64(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

var parenRe = regexp.MustCompile(`\$\([^\$]*\)`)

// tokenize splits an instruction into its mnemonic and operands.
func tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
}

// parseLine expands expressions and equates in a line, and splits it into
// words. Equate definitions are consumed and return no words.
func (asm *Assembler) parseLine(line string) (words []string, err error) {
	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = tokenize(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Equates may follow an immediate or literal marker.
		prefix := ""
		if strings.HasPrefix(word, "#") || strings.HasPrefix(word, "=") {
			prefix, word = word[:1], word[1:]
		}
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = prefix + equate
		}
	}

	return
}

// readSource reads the input, stripping comments and blank lines.
func readSource(input io.Reader) (lines []Source, err error) {
	scanner := bufio.NewScanner(input)

	var lineno int
	for scanner.Scan() {
		lineno += 1
		text, _, _ := strings.Cut(scanner.Text(), ";")
		text = strings.TrimSpace(text)
		if len(text) == 0 {
			continue
		}
		lines = append(lines, Source{LineNo: lineno, Text: text})
	}

	err = scanner.Err()
	return
}

// isDirective returns true for lines that are neither labels nor
// instructions.
func isDirective(text string) bool {
	return strings.HasPrefix(text, ".")
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	lines, err := readSource(input)
	if err != nil {
		return
	}

	var line Source

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: line.LineNo, Line: line.Text, Err: err}
		}
	}()

	asm.reset()

	// First pass: assign label addresses.
	for _, line = range lines {
		if isDirective(line.Text) {
			continue
		}
		label, ok := line.Label()
		if !ok {
			asm.instructions += 1
			continue
		}
		if asm.Label.Contains(label) {
			if asm.Verbose {
				log.Printf("%v: label %v redefined, keeping %#x", line.LineNo, label, asm.Label.Lookup(label))
			}
		}
		addr := uint32(asm.instructions * 4)
		asm.Label.Insert(label, addr)
	}

	// Second pass: encode instructions.
	for _, line = range lines {
		if asm.Verbose {
			log.Printf("%v: %v\n", line.LineNo, line.Text)
		}

		if _, ok := line.Label(); ok && !isDirective(line.Text) {
			continue
		}

		var words []string
		words, err = asm.parseLine(line.Text)
		if err != nil {
			return
		}
		if len(words) == 0 {
			continue
		}

		index := len(asm.Opcode)
		var code Code
		code, err = asm.parseWords(words, index)
		if err != nil {
			return
		}

		asm.Opcode = append(asm.Opcode, Opcode{
			LineNo: line.LineNo,
			Addr:   uint32(index * 4),
			Words:  words,
			Code:   code,
		})
	}

	prog = &Program{
		Opcodes:  slices.Clone(asm.Opcode),
		Literals: slices.Clone(asm.Literal),
	}

	return
}

// parseRegister returns the register index of a register name.
func parseRegister(word string) (reg int, err error) {
	if word == "pc" {
		return REG_PC, nil
	}

	if len(word) < 2 || len(word) > 3 || word[0] != 'r' {
		err = ErrRegister(word)
		return
	}

	for _, c := range word[1:] {
		if c < '0' || c > '9' {
			err = ErrRegister(word)
			return
		}
	}

	reg, _ = strconv.Atoi(word[1:])
	if reg > REG_PC {
		err = ErrRegister(word)
		return
	}

	return
}

// parseRegisters parses a list of register names.
func parseRegisters(words []string, regs ...*int) (err error) {
	if len(words) < len(regs) {
		err = ErrOpcodeMissing
		return
	}
	if len(words) > len(regs) {
		err = ErrOpcodeExtraArgs
		return
	}

	for n, word := range words {
		*regs[n], err = parseRegister(word)
		if err != nil {
			return
		}
	}

	return
}

// parseWords encodes the words of a single instruction, which will be
// placed at instruction index.
func (asm *Assembler) parseWords(words []string, index int) (code Code, err error) {
	mnemonic := words[0]

	enc, ok := asm.Mnemonic.Get(mnemonic)
	if ok {
		switch encoder(enc) {
		case ENCODE_SPECIAL:
			return asm.special(words)
		case ENCODE_MULTIPLY:
			return asm.multiply(words)
		case ENCODE_TRANSFER:
			return asm.transfer(words, index)
		}
	}

	if strings.HasPrefix(mnemonic, "b") {
		return asm.branch(words, index)
	}

	return asm.dataProcessing(words)
}

// shiftedRegister parses 'Rm', 'Rm, shift #amount' or 'Rm, shift Rs'.
func (asm *Assembler) shiftedRegister(words []string) (sr ShiftedRegister, err error) {
	switch {
	case len(words) == 0 || len(words) == 2:
		err = ErrOpcodeMissing
		return
	case len(words) > 3:
		err = ErrOpcodeExtraArgs
		return
	}

	sr.Rm, err = parseRegister(words[0])
	if err != nil {
		return
	}

	if len(words) == 1 {
		return
	}

	shift, ok := asm.Shift.Get(words[1])
	if !ok {
		err = ErrOpcodeInvalid
		return
	}
	sr.Shift = bitfield.Shift(shift)

	if strings.HasPrefix(words[2], "#") {
		sr.Amount, err = asm.valueOf(words[2][1:])
		if err != nil {
			return
		}
		if sr.Amount > 31 {
			err = ErrOffsetRange
			return
		}
		return
	}

	sr.ByReg = true
	sr.Rs, err = parseRegister(words[2])
	return
}

// operand2 parses the flexible second operand of a data processing
// instruction.
func (asm *Assembler) operand2(words []string) (imm bool, field uint32, err error) {
	if len(words) == 0 {
		err = ErrOpcodeMissing
		return
	}

	if strings.HasPrefix(words[0], "#") {
		if len(words) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var value uint32
		value, err = asm.valueOf(words[0][1:])
		if err != nil {
			return
		}
		var ok bool
		field, ok = EncodeImmediate(value)
		if !ok {
			err = ErrImmediate(value)
			return
		}
		imm = true
		return
	}

	sr, err := asm.shiftedRegister(words)
	if err != nil {
		return
	}

	field = sr.Encode()
	return
}

// dataProcessing encodes a data processing instruction.
func (asm *Assembler) dataProcessing(words []string) (code Code, err error) {
	value, ok := asm.AluOp.Get(words[0])
	if !ok {
		err = ErrInstructionInvalid
		return
	}
	op := CodeAluOp(value)

	args := words[1:]

	var set bool
	var rn, rd int
	switch {
	case op.Compare():
		// Flags only: Rn, <operand2>
		set = true
		if len(args) < 2 {
			err = ErrOpcodeMissing
			return
		}
		err = parseRegisters(args[:1], &rn)
		args = args[1:]
	case op == ALU_OP_MOV:
		// Rd, <operand2>
		if len(args) < 2 {
			err = ErrOpcodeMissing
			return
		}
		err = parseRegisters(args[:1], &rd)
		args = args[1:]
	default:
		// Rd, Rn, <operand2>
		if len(args) < 3 {
			err = ErrOpcodeMissing
			return
		}
		err = parseRegisters(args[:2], &rd, &rn)
		args = args[2:]
	}
	if err != nil {
		return
	}

	imm, operand, err := asm.operand2(args)
	if err != nil {
		return
	}

	code = MakeCodeDataProcessing(COND_AL, op, set, rn, rd, imm, operand)
	return
}

// multiply encodes 'mul Rd, Rm, Rs' and 'mla Rd, Rm, Rs, Rn'.
func (asm *Assembler) multiply(words []string) (code Code, err error) {
	var rd, rm, rs, rn int

	accumulate := words[0] == "mla"
	if accumulate {
		err = parseRegisters(words[1:], &rd, &rm, &rs, &rn)
	} else {
		err = parseRegisters(words[1:], &rd, &rm, &rs)
	}
	if err != nil {
		return
	}

	code = MakeCodeMultiply(COND_AL, accumulate, rd, rn, rs, rm)
	return
}

// transferOffset parses the offset of an address: '#±imm' or
// '±Rm{, shift}'.
func (asm *Assembler) transferOffset(words []string) (reg bool, up bool, field uint32, err error) {
	up = true

	if len(words) == 0 {
		return
	}

	first := words[0]
	if strings.HasPrefix(first, "#") {
		if len(words) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		first = first[1:]
		if strings.HasPrefix(first, "-") {
			up = false
			first = first[1:]
		}
		field, err = asm.valueOf(first)
		if err != nil {
			return
		}
		if field > 0xfff {
			err = ErrOffsetRange
			return
		}
		return
	}

	switch {
	case strings.HasPrefix(first, "-"):
		up = false
		first = first[1:]
	case strings.HasPrefix(first, "+"):
		first = first[1:]
	}

	sr, err := asm.shiftedRegister(append([]string{first}, words[1:]...))
	if err != nil {
		return
	}

	reg = true
	field = sr.Encode()
	return
}

// transfer encodes 'ldr' and 'str'.
func (asm *Assembler) transfer(words []string, index int) (code Code, err error) {
	if len(words) < 3 {
		err = ErrOpcodeMissing
		return
	}

	load := words[0] == "ldr"

	rd, err := parseRegister(words[1])
	if err != nil {
		return
	}

	args := words[2:]

	// Constant load: ldr Rd, =value
	if strings.HasPrefix(args[0], "=") {
		if !load {
			err = ErrLiteralStore
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var value uint32
		value, err = asm.valueOf(args[0][1:])
		if err != nil {
			return
		}
		if value <= 0xff {
			code = MakeCodeDataProcessing(COND_AL, ALU_OP_MOV, false, 0, rd, true, value)
			return
		}
		return asm.literal(rd, value, index)
	}

	if !strings.HasPrefix(args[0], "[") {
		err = ErrAddressSyntax
		return
	}

	closing := slices.IndexFunc(args, func(word string) bool {
		return strings.HasSuffix(word, "]")
	})
	if closing < 0 {
		err = ErrAddressSyntax
		return
	}

	inner := slices.Clone(args[:closing+1])
	inner[0] = strings.TrimPrefix(inner[0], "[")
	inner[closing] = strings.TrimSuffix(inner[closing], "]")

	rn, err := parseRegister(inner[0])
	if err != nil {
		return
	}

	var offset []string
	pre := true
	if closing == 0 {
		// [Rn] or [Rn], <offset>
		offset = args[1:]
		pre = len(offset) == 0
	} else {
		// [Rn, <offset>]
		if len(args) > closing+1 {
			err = ErrOpcodeExtraArgs
			return
		}
		offset = inner[1:]
	}

	reg, up, field, err := asm.transferOffset(offset)
	if err != nil {
		return
	}

	code = MakeCodeTransfer(COND_AL, reg, pre, up, load, rn, rd, field)
	return
}

// literal places value in the literal pool, and encodes a PC relative load
// of it. PC reads 8 bytes ahead of the executing instruction.
func (asm *Assembler) literal(rd int, value uint32, index int) (code Code, err error) {
	slot := asm.instructions + len(asm.Literal)

	offset := (slot-index)*4 - 8
	up := true
	if offset < 0 {
		up = false
		offset = -offset
	}
	if offset > 0xfff {
		err = ErrOffsetRange
		return
	}

	asm.Literal = append(asm.Literal, value)

	code = MakeCodeTransfer(COND_AL, false, true, up, true, REG_PC, rd, uint32(offset))
	return
}

// branch encodes 'b' and 'b<cond>'.
func (asm *Assembler) branch(words []string, index int) (code Code, err error) {
	cond := COND_AL
	if suffix := words[0][1:]; len(suffix) != 0 {
		value, ok := asm.Cond.Get(suffix)
		if !ok {
			err = ErrCondInvalid
			return
		}
		cond = CodeCond(value)
	}

	if len(words) < 2 {
		err = ErrOpcodeMissing
		return
	}
	if len(words) > 2 {
		err = ErrOpcodeExtraArgs
		return
	}

	target, ok := asm.Label.Get(words[1])
	if !ok {
		var _err error
		target, _err = asm.valueOf(words[1])
		if _err != nil {
			err = ErrLabelMissing(words[1])
			return
		}
	}

	offset := (int32(target) - int32(index*4+8)) >> 2
	code = MakeCodeBranch(cond, offset)
	return
}

// special encodes the halt instruction 'andeq', and 'lsl Rn, <operand>'
// as 'mov Rn, Rn, lsl <operand>'.
func (asm *Assembler) special(words []string) (code Code, err error) {
	if words[0] == "andeq" {
		code = MakeCodeTerminate()
		return
	}

	if len(words) < 3 {
		err = ErrOpcodeMissing
		return
	}
	if len(words) > 3 {
		err = ErrOpcodeExtraArgs
		return
	}

	return asm.dataProcessing([]string{"mov", words[1], words[1], "lsl", words[2]})
}
