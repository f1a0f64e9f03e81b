package vm

import (
	"encoding/binary"
	"iter"
)

// Opcode represents a line of assembled code with its source location
// and generated instruction.
type Opcode struct {
	LineNo    int
	Addr      int
	Words     []string
	Code      Word
	LinkLabel string
}

// Program is an assembled instruction stream with source line info.
type Program struct {
	Opcodes []Opcode
}

// Codes iterates over the (address, instruction word) pairs of the program.
func (prog *Program) Codes() iter.Seq2[uint16, Word] {
	return func(yield func(addr uint16, code Word) bool) {
		for _, op := range prog.Opcodes {
			if !yield(uint16(op.Addr), op.Code) {
				return
			}
		}
	}
}

// Binary returns the big-endian memory image of the program, sized to
// its highest occupied address. Gaps left by .org are zero filled, which
// encodes as the terminating instruction.
func (prog *Program) Binary() (bin []byte) {
	for addr, code := range prog.Codes() {
		end := int(addr) + 2
		if end > len(bin) {
			bin = append(bin, make([]byte, end-len(bin))...)
		}
		binary.BigEndian.PutUint16(bin[addr:], uint16(code))
	}

	return
}
