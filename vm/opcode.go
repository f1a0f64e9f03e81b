package vm

import (
	"fmt"
)

// Op is the 4-bit operation field of an instruction word.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_SYS     = Op(0)  // sys
	OP_ADD     = Op(1)  // add
	OP_ADD_IMM = Op(2)  // addi
	OP_OR      = Op(3)  // or
	OP_OR_IMM  = Op(4)  // ori
	OP_AND     = Op(5)  // and
	OP_AND_IMM = Op(6)  // andi
	OP_MOV     = Op(7)  // mov
	OP_MOV_IMM = Op(8)  // movi
	OP_JUMP    = Op(9)  // jmp
	OP_CALL    = Op(10) // call
	OP_RET     = Op(11) // ret
)

// Reserved encodings in operation class 0.
const (
	WORD_HALT = Word(0x0000) // terminates execution
	WORD_NOP  = Word(0x0111) // reserved no-op encoding
)

// Word is a single 16-bit instruction word, stored big-endian in memory.
//
// The fields pack most-significant to least-significant as
// operation|x|y|z. For the ALU operations x and y (or an immediate in
// place of y) are sources and z is the destination; for JUMP and CALL
// the x, y, and z fields concatenate into a 12-bit memory address.
type Word uint16

// Op returns the operation field of the instruction word.
func (w Word) Op() Op {
	return Op((w >> 12) & 0xf)
}

// X returns the x field of the instruction word.
func (w Word) X() uint8 {
	return uint8((w >> 8) & 0xf)
}

// Y returns the y field of the instruction word. Depending on the
// operation, this is a register index or a 4-bit immediate value.
func (w Word) Y() uint8 {
	return uint8((w >> 4) & 0xf)
}

// Z returns the z field of the instruction word.
func (w Word) Z() uint8 {
	return uint8(w & 0xf)
}

// Addr returns the x, y, and z fields concatenated as a 12-bit address.
func (w Word) Addr() uint16 {
	return uint16(w & 0xfff)
}

func makeWord(op Op, x, y, z uint8) Word {
	return Word((uint16(op) << 12) | (uint16(x&0xf) << 8) | (uint16(y&0xf) << 4) | uint16(z&0xf))
}

// MakeWordHalt creates the terminating instruction.
func MakeWordHalt() Word {
	return WORD_HALT
}

// MakeWordNop creates the reserved no-op instruction.
func MakeWordNop() Word {
	return WORD_NOP
}

// MakeWordAlu creates an ADD, OR, or AND instruction, register or
// immediate form. y holds the second source register index or the 4-bit
// immediate, z the destination register.
func MakeWordAlu(op Op, x, y, z uint8) Word {
	return makeWord(op, x, y, z)
}

// MakeWordMov creates a register-to-register move into register x.
func MakeWordMov(x, y uint8) Word {
	return makeWord(OP_MOV, x, y, 0)
}

// MakeWordMovImm creates an immediate move into register x.
func MakeWordMovImm(x, value uint8) Word {
	return makeWord(OP_MOV_IMM, x, value, 0)
}

// MakeWordJump creates a jump to a 12-bit memory address.
func MakeWordJump(addr uint16) Word {
	return Word(uint16(OP_JUMP)<<12 | (addr & 0xfff))
}

// MakeWordCall creates a call to a 12-bit memory address.
func MakeWordCall(addr uint16) Word {
	return Word(uint16(OP_CALL)<<12 | (addr & 0xfff))
}

// MakeWordRet creates a return instruction.
func MakeWordRet() Word {
	return makeWord(OP_RET, 0, 0, 0)
}

// String returns the assembly language representation of this instruction.
func (w Word) String() (out string) {
	switch w {
	case WORD_HALT:
		return "halt"
	case WORD_NOP:
		return "nop"
	}

	op := w.Op()
	switch op {
	case OP_ADD, OP_OR, OP_AND:
		out = fmt.Sprintf("%v r%d r%d r%d", op, w.X(), w.Y(), w.Z())
	case OP_ADD_IMM, OP_OR_IMM, OP_AND_IMM:
		out = fmt.Sprintf("%v r%d %#x r%d", op, w.X(), w.Y(), w.Z())
	case OP_MOV:
		out = fmt.Sprintf("%v r%d r%d", op, w.X(), w.Y())
	case OP_MOV_IMM:
		out = fmt.Sprintf("%v r%d %#x", op, w.X(), w.Y())
	case OP_JUMP, OP_CALL:
		out = fmt.Sprintf("%v 0x%03x", op, w.Addr())
	case OP_RET:
		out = op.String()
	default:
		out = fmt.Sprintf("%v %#04x", op, uint16(w))
	}

	return
}
