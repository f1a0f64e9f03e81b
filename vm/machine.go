package vm

import (
	"fmt"
	"log"
)

const (
	MEMORY_SIZE    = 0x1000 // 4 kiB of memory, shared by code and data
	REGISTER_COUNT = 16     // 8-bit general purpose registers
)

// Machine is the simulation context for the virtual CPU.
//
// Callers populate Memory directly with big-endian instruction words at
// even addresses (or via Load), seed Register as needed, then invoke Run.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Register [REGISTER_COUNT]uint8 // Register bank.
	Memory   [MEMORY_SIZE]uint8    // Flat code/data memory.
	Pc       uint16                // Current program counter.
	Stack    Stack                 // Call stack.

	Limit int // Optional cycle budget; 0 is unbounded.
	Ticks int // Executed cycle counter.

	halted bool
}

// NewMachine creates a new machine with zeroed state.
func NewMachine() (m *Machine) {
	m = &Machine{}

	return
}

// Reset clears the registers, memory, call stack, program counter, and
// statistics counters.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("vm: reset")
	}

	clear(m.Register[:])
	clear(m.Memory[:])
	m.Stack.Reset()
	m.Pc = 0
	m.Ticks = 0
	m.halted = false
}

// Load copies a binary memory image into memory, starting at address 0.
func (m *Machine) Load(image []byte) (err error) {
	if len(image) > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	copy(m.Memory[:], image)
	return
}

// Halted returns true once the machine has executed the terminating
// instruction. Running off the top of memory does not set this.
func (m *Machine) Halted() bool {
	return m.halted
}

// ReadRegister returns the current value of a register.
func (m *Machine) ReadRegister(index int) (value uint8, err error) {
	if index < 0 || index >= REGISTER_COUNT {
		err = ErrRegisterRange
		return
	}

	value = m.Register[index]
	return
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text = fmt.Sprintf("   pc: %03x\n", m.Pc)
	for n, value := range m.Register {
		text += fmt.Sprintf("  r%-2d: %02x\n", n, value)
	}
	addr, ok := m.Stack.Peek()
	if ok {
		text += fmt.Sprintf("stack: %03x (%d deep)\n", addr, len(m.Stack.Data))
	} else {
		text += "stack: ---\n"
	}

	return
}

// FetchWord reads the big-endian instruction word at the program counter.
// Decode is pure; the word carries its own field accessors.
func (m *Machine) FetchWord() Word {
	return Word((uint16(m.Memory[m.Pc]) << 8) | uint16(m.Memory[m.Pc+1]))
}

// Step executes a single instruction cycle.
// done reports that the machine has halted, or that the program counter
// reached the top of memory.
func (m *Machine) Step() (done bool, err error) {
	if m.halted || m.Pc >= MEMORY_SIZE-1 {
		done = true
		return
	}

	if m.Limit > 0 && m.Ticks >= m.Limit {
		err = ErrCycleLimit
		return
	}

	word := m.FetchWord()
	if word == WORD_HALT {
		if m.Verbose {
			log.Printf("%03x: %v", m.Pc, word)
		}
		m.halted = true
		done = true
		return
	}

	m.Ticks++

	next, err := m.execute(word)
	if err != nil {
		return
	}
	m.Pc = next

	return
}

// Run executes instruction cycles until the machine halts, the program
// counter reaches the top of memory, or an instruction fails.
func (m *Machine) Run() (err error) {
	for done, err := m.Step(); !done; done, err = m.Step() {
		if err != nil {
			return err
		}
	}

	return
}

// execute dispatches a single decoded instruction and returns the
// program counter for the next cycle. JUMP and CALL redirect it; RET
// resumes at the word after the matching CALL; everything else advances
// by one instruction word.
func (m *Machine) execute(word Word) (next uint16, err error) {
	if m.Verbose {
		log.Printf("%03x: %v", m.Pc, word)
	}

	next = m.Pc + 2

	x := word.X()
	y := word.Y()
	z := word.Z()

	switch op := word.Op(); op {
	case OP_SYS:
		if word != WORD_NOP && m.Verbose {
			log.Printf("vm: not implemented: %#04x", uint16(word))
		}
	case OP_ADD:
		// 8-bit arithmetic wraps mod 256.
		m.Register[z] = m.Register[x] + m.Register[y]
	case OP_ADD_IMM:
		m.Register[z] = m.Register[x] + y
	case OP_OR:
		m.Register[z] = m.Register[x] | m.Register[y]
	case OP_OR_IMM:
		m.Register[z] = m.Register[x] | y
	case OP_AND:
		m.Register[z] = m.Register[x] & m.Register[y]
	case OP_AND_IMM:
		m.Register[z] = m.Register[x] & y
	case OP_MOV:
		m.Register[x] = m.Register[y]
	case OP_MOV_IMM:
		m.Register[x] = y
	case OP_JUMP:
		next = word.Addr()
	case OP_CALL:
		if m.Stack.Full() {
			err = ErrStackFull
			return
		}
		m.Stack.Push(m.Pc)
		next = word.Addr()
	case OP_RET:
		addr, ok := m.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			return
		}
		next = addr + 2
	default:
		// Operations 12-15 are unassigned. Execute as a no-op so a
		// stray word cannot wedge the machine.
		if m.Verbose {
			log.Printf("vm: not implemented: %#04x", uint16(word))
		}
	}

	return
}
