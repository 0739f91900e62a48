// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"

	"github.com/ezrec/armulet/emulator"
	"github.com/ezrec/armulet/io"
)

func main() {
	var verbose bool
	var maxTicks int

	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.IntVar(&maxTicks, "t", 0, "Maximum ticks to run, 0 for no limit")

	flag.Usage = func() {
		log.Printf("usage: %v [-v] [-t max-ticks] <input.bin>", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	input := flag.Arg(0)

	rom, err := io.LoadRom(io.HostFS{}, input)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.MaxTicks = maxTicks
	emu.Rom = *rom

	err = emu.Reset()
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	err = emu.Run()
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	err = emu.Report(os.Stdout)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
}
