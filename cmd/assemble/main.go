// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ezrec/armulet/cpu"
	"github.com/ezrec/armulet/io"
	"github.com/ezrec/armulet/translate"
)

var f = translate.From

var errDefine = errors.New(f("expected name=value"))

// defines collects -D name=value predefines.
type defines map[string]string

func (df defines) String() string {
	var list []string
	for name, value := range df {
		list = append(list, name+"="+value)
	}
	return strings.Join(list, ",")
}

func (df defines) Set(text string) error {
	name, value, ok := strings.Cut(text, "=")
	if !ok || len(name) == 0 {
		return errDefine
	}
	df[name] = value
	return nil
}

func main() {
	var verbose bool
	predefine := defines{}

	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Var(predefine, "D", "Predefine an equate, as name=value")

	flag.Usage = func() {
		log.Printf("usage: %v [-v] [-D name=value]... <input.s> <output.bin>", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	input := flag.Arg(0)
	output := flag.Arg(1)

	asm := &cpu.Assembler{Verbose: verbose}
	for name, value := range predefine {
		asm.Predefine(name, value)
	}

	err := assemble(io.HostFS{}, asm, input, output)
	if err != nil {
		log.Fatal(err)
	}
}

// assemble translates the input source into an output image. The output is
// only created once the whole source has assembled.
func assemble(fsys io.CreateFS, asm *cpu.Assembler, input string, output string) (err error) {
	inf, err := fsys.Open(input)
	if err != nil {
		err = fmt.Errorf("%v: %w", input, err)
		return
	}
	defer inf.Close()

	prog, err := asm.Parse(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", input, err)
		return
	}

	if asm.Verbose {
		for addr, code := range prog.Codes() {
			log.Printf("%08x: %08x %v", addr, uint32(code), code)
		}
	}

	err = io.SaveRom(fsys, output, &io.Rom{Data: prog.Binary()})
	if err != nil {
		err = fmt.Errorf("%v: %w", output, err)
		return
	}

	return
}
