// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package io provides the program image exchanged between the assembler and
// the emulator: a flat stream of little-endian 32-bit words, with no header.
package io

import (
	"encoding/binary"
	"io"
	"iter"
	"slices"
)

// Rom is a program image.
type Rom struct {
	Data []uint32
}

var _ io.ReaderFrom = (*Rom)(nil)
var _ io.WriterTo = (*Rom)(nil)

// Receive iterates over the words of the image.
func (rc *Rom) Receive() iter.Seq[uint32] {
	return slices.Values(rc.Data)
}

// Send appends a word to the image.
func (rc *Rom) Send(value uint32) {
	rc.Data = append(rc.Data, value)
}

// ReadFrom replaces the image with the words read from r, until EOF.
func (rc *Rom) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		return
	}

	if len(data)%4 != 0 {
		err = ErrImageTruncated
		return
	}

	rc.Data = make([]uint32, 0, len(data)/4)
	for word := range slices.Chunk(data, 4) {
		rc.Send(binary.LittleEndian.Uint32(word))
	}

	return
}

// WriteTo writes the image to w.
func (rc *Rom) WriteTo(w io.Writer) (n int64, err error) {
	buf := make([]byte, 0, 4*len(rc.Data))
	for word := range rc.Receive() {
		buf = binary.LittleEndian.AppendUint32(buf, word)
	}

	written, err := w.Write(buf)
	n = int64(written)
	return
}
