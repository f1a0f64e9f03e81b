// Package vm implements a minimal fixed-width virtual CPU.
//
// The machine consists of sixteen 8-bit general-purpose registers, 4 kiB
// of flat byte-addressable memory shared by code and data, a program
// counter, and a sixteen-deep call stack of return addresses. Every
// instruction is a 16-bit big-endian word decoded into four 4-bit fields.
//
// The assembler provides a small line-oriented assembly language for the
// instruction set, supporting labels, equates, origin directives, and
// compile-time expression evaluation.
package vm
