package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%#v", MEMORY_SIZE), asm.Equate["MEMORY_SIZE"])
	assert.Equal(fmt.Sprintf("%#v", REGISTER_COUNT), asm.Equate["REGISTER_COUNT"])
	assert.Equal(fmt.Sprintf("%#v", STACK_LIMIT), asm.Equate["STACK_LIMIT"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerInstructions(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"nop",
		"add r0 r1 r2",
		"addi r0 0xf r2",
		"or r0 r1 r2",
		"ori r0 15 r2",
		"and r0 r1 r2",
		"andi r0 0xf r2",
		"mov r0 r1",
		"movi r0 0xf",
		"jmp 0x26",
		"call 0x100",
		"ret",
		"halt",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{1, 0, []string{"nop"}, 0x0111, ""},
		{2, 2, []string{"add", "r0", "r1", "r2"}, 0x1012, ""},
		{3, 4, []string{"addi", "r0", "0xf", "r2"}, 0x20f2, ""},
		{4, 6, []string{"or", "r0", "r1", "r2"}, 0x3012, ""},
		{5, 8, []string{"ori", "r0", "15", "r2"}, 0x40f2, ""},
		{6, 10, []string{"and", "r0", "r1", "r2"}, 0x5012, ""},
		{7, 12, []string{"andi", "r0", "0xf", "r2"}, 0x60f2, ""},
		{8, 14, []string{"mov", "r0", "r1"}, 0x7010, ""},
		{9, 16, []string{"movi", "r0", "0xf"}, 0x80f0, ""},
		{10, 18, []string{"jmp", "0x26"}, 0x9026, ""},
		{11, 20, []string{"call", "0x100"}, 0xa100, ""},
		{12, 22, []string{"ret"}, 0xb000, ""},
		{13, 24, []string{"halt"}, 0x0000, ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerComments(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"; a whole-line comment",
		"",
		"  nop ; trailing comment",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	assert.Equal(1, len(prog.Opcodes))
	assert.Equal(WORD_NOP, prog.Opcodes[0].Code)
	assert.Equal(3, prog.Opcodes[0].LineNo)
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"top: nop",
		"jmp bottom",
		"jmp top",
		"bottom: halt",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal(0, asm.Label["top"])
	assert.Equal(6, asm.Label["bottom"])

	expected := []Opcode{
		{1, 0, []string{"nop"}, 0x0111, ""},
		{2, 2, []string{"jmp", "bottom"}, 0x9006, "bottom"},
		{3, 4, []string{"jmp", "top"}, 0x9000, "top"},
		{4, 6, []string{"halt"}, 0x0000, ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerOrigin(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"call helper",
		"halt",
		".org 0x100",
		"helper: ret",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal(0x100, asm.Label["helper"])
	assert.Equal(Word(0xa100), prog.Opcodes[0].Code)
	assert.Equal(0x100, prog.Opcodes[2].Addr)
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".equ counter r2",
		".equ BASE 0x100",
		"movi counter 5",
		"jmp BASE",
		"call $(BASE + 8)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal(Word(0x8250), prog.Opcodes[0].Code)
	assert.Equal(Word(0x9100), prog.Opcodes[1].Code)
	assert.Equal(Word(0xa108), prog.Opcodes[2].Code)
}

func TestAssemblerExpressions(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("TARGET", "0x20")

	program := []string{
		"jmp $(TARGET | 6)",
		"movi r0 $(MEMORY_SIZE >> 10)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal(Word(0x9026), prog.Opcodes[0].Code)
	assert.Equal(Word(0x8040), prog.Opcodes[1].Code)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		want    error
	}){
		{"equ_arity", []string{".equ ONLY"}, ErrEquateSyntax},
		{"equ_duplicate", []string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate},
		{"org_arity", []string{".org"}, ErrOriginSyntax},
		{"org_odd", []string{".org 3"}, ErrValueRange},
		{"org_range", []string{".org 0x1000"}, ErrValueRange},
		{"label_duplicate", []string{"a: nop", "a: nop"}, ErrLabelDuplicate},
		{"opcode_invalid", []string{"frob r0"}, ErrOpcodeInvalid},
		{"register_invalid", []string{"mov r0 r16"}, ErrRegisterInvalid},
		{"register_missing", []string{"mov r0"}, ErrOperandMissing},
		{"extra_args", []string{"ret r0"}, ErrOpcodeExtraArgs},
		{"immediate_range", []string{"movi r0 16"}, ErrValueRange},
		{"target_range", []string{"jmp 0x1000"}, ErrValueRange},
		{"target_invalid", []string{"jmp 1bad"}, ErrTargetInvalid},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.program, "\n")))
		assert.ErrorIs(err, entry.want, entry.name)

		var syntax ErrSyntax
		assert.True(errors.As(err, &syntax), entry.name)
	}
}

func TestAssemblerLabelMissing(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("jmp nowhere"))
	assert.Error(err)

	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal("nowhere", string(missing))
}

func TestAssemblerRun(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"; sum two constants via a helper",
		".equ CALLEE 0x100",
		"movi r0 3",
		"movi r1 4",
		"nop",
		"call helper",
		"halt",
		".org CALLEE",
		"helper: add r0 r1 r2",
		"ret",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	machine := NewMachine()
	assert.NoError(machine.Load(prog.Binary()))
	assert.NoError(machine.Run())

	value, err := machine.ReadRegister(2)
	assert.NoError(err)
	assert.Equal(uint8(7), value)
	assert.Equal(uint16(8), machine.Pc)
	assert.True(machine.Halted())
}
