// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package symtab implements the assembler's symbol table: an insertion
// ordered list of key/value pairs where duplicate keys are allowed and the
// first definition of a key wins.
package symtab

import (
	"iter"
)

// Entry is a single symbol definition.
type Entry struct {
	Key   string
	Value uint32
}

// Table is an ordered symbol table.
type Table struct {
	Entries []Entry
}

// Insert appends a definition. Existing definitions of key are never
// overwritten, and shadow the new one.
func (tb *Table) Insert(key string, value uint32) {
	tb.Entries = append(tb.Entries, Entry{Key: key, Value: value})
}

// Get returns the value of the first definition of key.
func (tb *Table) Get(key string) (value uint32, ok bool) {
	for _, entry := range tb.Entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}

	return
}

// Contains returns true if key has been defined.
func (tb *Table) Contains(key string) bool {
	_, ok := tb.Get(key)
	return ok
}

// Lookup returns the value of the first definition of key, or 0 if key is
// undefined. Use Contains or Get where 0 is a meaningful value.
func (tb *Table) Lookup(key string) uint32 {
	value, _ := tb.Get(key)
	return value
}

// Len returns the number of definitions, including shadowed duplicates.
func (tb *Table) Len() int {
	return len(tb.Entries)
}

// All iterates over all definitions in insertion order.
func (tb *Table) All() iter.Seq2[string, uint32] {
	return func(yield func(key string, value uint32) bool) {
		for _, entry := range tb.Entries {
			if !yield(entry.Key, entry.Value) {
				return
			}
		}
	}
}

// Reset releases all definitions.
func (tb *Table) Reset() {
	if len(tb.Entries) > 0 {
		clear(tb.Entries)
		tb.Entries = tb.Entries[:0]
	}
}
