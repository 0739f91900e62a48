// Package cpu implements the processor and assembler for a reduced ARM
// instruction set.
//
// The CPU consists of thirteen 32-bit general-purpose registers (r0-r12),
// a program counter, a status register with N, Z, C and V flags, a barrel
// shifter and 64 KiB of flat memory. Instructions are executed through a
// three stage fetch, decode and execute pipeline, so the program counter
// reads as the executing instruction's address plus 8.
//
// Five classes of instruction are supported: data processing, multiply,
// single data transfer, branch, and the all-zero terminator 'andeq r0, r0, r0'.
//
// The assembler translates the instruction mnemonics into words, supporting
// labels, equates, literal pools and compile-time expression evaluation.
package cpu
