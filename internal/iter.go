// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package internal holds iterator helpers shared by the assembler and the
// emulator.
package internal

import (
	"iter"
)

// Concat concatenates multiple iterators into a single iterator sequence.
func Concat[T any](seqs ...iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seq := range seqs {
			for val := range seq {
				if !yield(val) {
					return // Stop if the consumer stops
				}
			}
		}
	}
}

// Addressed pairs each value of seq with its byte address, starting at base
// and advancing by stride per value.
func Addressed[T any](base uint32, stride uint32, seq iter.Seq[T]) iter.Seq2[uint32, T] {
	return func(yield func(uint32, T) bool) {
		addr := base
		for val := range seq {
			if !yield(addr, val) {
				return
			}
			addr += stride
		}
	}
}
