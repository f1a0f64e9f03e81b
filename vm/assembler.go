// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":         "0",
	"MEMORY_SIZE":    fmt.Sprintf("%#v", MEMORY_SIZE),
	"REGISTER_COUNT": fmt.Sprintf("%#v", REGISTER_COUNT),
	"STACK_LIMIT":    fmt.Sprintf("%#v", STACK_LIMIT),
}

// The two-source ALU mnemonics, register and immediate forms.
var aluMap = map[string]Op{
	"add":  OP_ADD,
	"addi": OP_ADD_IMM,
	"or":   OP_OR,
	"ori":  OP_OR_IMM,
	"and":  OP_AND,
	"andi": OP_AND_IMM,
}

// Assembler is a single pass assembler for the virtual CPU instruction set.
//
// The source language is line oriented: an optional 'label:' prefix,
// then a mnemonic and its operands, separated by spaces. ';' starts a
// comment. '.equ NAME VALUE' defines an equate, '.org ADDR' moves the
// assembly address, and '$( ... )' evaluates a constant expression with
// all numeric equates in scope.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to memory addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	equate, ok := asm.Equate[word]
	if ok {
		word = equate
	}

	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// registerOf returns the register index named by a word ("r0" to "r15").
func (asm *Assembler) registerOf(word string) (index uint8, err error) {
	equate, ok := asm.Equate[word]
	if ok {
		word = equate
	}

	if len(word) < 2 || word[0] != 'r' {
		err = ErrRegisterInvalid
		return
	}

	value, err := strconv.ParseUint(word[1:], 10, 8)
	if err != nil || value >= REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}

	index = uint8(value)
	return
}

// immediateOf returns a 4-bit immediate value.
func (asm *Assembler) immediateOf(word string) (imm uint8, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if value < 0 || value > 0xf {
		err = ErrValueRange
		return
	}

	imm = uint8(value)
	return
}

// targetOf resolves a jump or call target: a 12-bit address, or a label
// to be linked after the whole stream has been parsed.
func (asm *Assembler) targetOf(word string) (addr uint16, label string, err error) {
	value, verr := asm.valueOf(word)
	if verr == nil {
		if value < 0 || value >= MEMORY_SIZE {
			err = ErrValueRange
			return
		}
		addr = uint16(value)
		return
	}

	if !labelRe.MatchString(word) {
		err = ErrTargetInvalid
		return
	}

	label = word
	return
}

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// parenEval evaluates a $() expression, with all of the numeric equates
// as predefined variables.
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}

	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, verr := strconv.ParseInt(str, 0, 64)
		if verr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}

	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return
}

// parseLine parses a single line into zero or one opcodes at *addr.
func (asm *Assembler) parseLine(line string, lineno int, addr *int) (err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	all_words := strings.Split(line, " ")

	var words []string
	for _, single := range all_words {
		if len(single) > 0 {
			words = append(words, single)
		}
	}

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			return ErrEquateSyntax
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			return ErrEquateDuplicate
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	// .org ADDR
	if words[0] == ".org" {
		if len(words) != 2 {
			return ErrOriginSyntax
		}
		var value int64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value < 0 || value >= MEMORY_SIZE || (value&1) != 0 {
			return ErrValueRange
		}
		*addr = int(value)
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			return ErrLabelDuplicate
		}

		asm.Label[label] = *addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	code, link, err := asm.parseWords(words)
	if err != nil {
		return
	}

	if *addr+2 > MEMORY_SIZE {
		return ErrProgramSize
	}

	asm.Opcode = append(asm.Opcode, Opcode{
		LineNo:    lineno,
		Addr:      *addr,
		Words:     words,
		Code:      code,
		LinkLabel: link,
	})
	*addr += 2

	return
}

// parseWords assembles a mnemonic and its operands into an instruction word.
func (asm *Assembler) parseWords(words []string) (code Word, link string, err error) {
	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	need := func(count int) error {
		if len(args) < count {
			return ErrOperandMissing
		}
		if len(args) > count {
			return ErrOpcodeExtraArgs
		}
		return nil
	}

	switch mnemonic {
	case "halt":
		err = need(0)
		code = MakeWordHalt()
	case "nop":
		err = need(0)
		code = MakeWordNop()
	case "ret":
		err = need(0)
		code = MakeWordRet()
	case "add", "or", "and":
		err = need(3)
		if err != nil {
			return
		}
		var x, y, z uint8
		if x, err = asm.registerOf(args[0]); err != nil {
			return
		}
		if y, err = asm.registerOf(args[1]); err != nil {
			return
		}
		if z, err = asm.registerOf(args[2]); err != nil {
			return
		}
		code = MakeWordAlu(aluMap[mnemonic], x, y, z)
	case "addi", "ori", "andi":
		err = need(3)
		if err != nil {
			return
		}
		var x, y, z uint8
		if x, err = asm.registerOf(args[0]); err != nil {
			return
		}
		if y, err = asm.immediateOf(args[1]); err != nil {
			return
		}
		if z, err = asm.registerOf(args[2]); err != nil {
			return
		}
		code = MakeWordAlu(aluMap[mnemonic], x, y, z)
	case "mov":
		err = need(2)
		if err != nil {
			return
		}
		var x, y uint8
		if x, err = asm.registerOf(args[0]); err != nil {
			return
		}
		if y, err = asm.registerOf(args[1]); err != nil {
			return
		}
		code = MakeWordMov(x, y)
	case "movi":
		err = need(2)
		if err != nil {
			return
		}
		var x, y uint8
		if x, err = asm.registerOf(args[0]); err != nil {
			return
		}
		if y, err = asm.immediateOf(args[1]); err != nil {
			return
		}
		code = MakeWordMovImm(x, y)
	case "jmp", "call":
		err = need(1)
		if err != nil {
			return
		}
		var addr uint16
		addr, link, err = asm.targetOf(args[0])
		if err != nil {
			return
		}
		if mnemonic == "jmp" {
			code = MakeWordJump(addr)
		} else {
			code = MakeWordCall(addr)
		}
	default:
		err = ErrOpcodeInvalid
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Opcode = asm.Opcode[:0]
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	addr := 0

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		err = asm.parseLine(line, lineno, &addr)
		if err != nil {
			return
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	// Link label targets now that every label address is known.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		if op.LinkLabel == "" {
			continue
		}
		target, ok := asm.Label[op.LinkLabel]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		op.Code |= Word(uint16(target) & 0xfff)
	}

	prog = &Program{Opcodes: asm.Opcode}

	return
}
