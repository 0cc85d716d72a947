// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":        "0",
	"NUM_REGISTERS": fmt.Sprintf("%d", NUM_REGISTERS),
}

var labelRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Assembler is a two pass assembler for the reversible machine.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Lines   []Line // List of assembled lines.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of branch labels to instruction indexes.
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
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// register returns the index of a register word, 'r0'..'r31' or 'x0'..'x31'.
func (asm *Assembler) register(word string) (reg int, err error) {
	word = strings.ToLower(word)
	if len(word) < 2 || (word[0] != 'r' && word[0] != 'x') {
		err = ErrParseValue(word)
		return
	}

	reg, err = strconv.Atoi(word[1:])
	if err != nil {
		err = ErrParseValue(word)
		return
	}

	if !validRegister(reg) {
		err = ErrRegisterInvalid
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
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

// parseLine parses a single line into words, handling equates and labels.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	// Operands may be separated by commas or spaces.
	words = strings.Fields(strings.ReplaceAll(line, ",", " "))

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.ToLower(words[0]) == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !labelRegexp.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = len(asm.Lines)
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	for n, word := range words {
		// Check for equate
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Lines = asm.Lines[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of branch labels.
	for n := range asm.Lines {
		op := &asm.Lines[n]
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		if len(op.LinkLabel) != 0 {
			pc, ok := asm.Label[op.LinkLabel]
			if !ok {
				err = ErrLabelMissing(op.LinkLabel)
				return
			}
			op.Instruction.Target = pc
		}

		err = op.Instruction.Decode(len(asm.Lines))
		if err != nil {
			return
		}
	}

	prog = &Program{
		Lines:  slices.Clone(asm.Lines),
		Labels: maps.Clone(asm.Label),
	}

	return
}

// mnemonicMap maps alternate mnemonics.
var mnemonicMap = map[string]string{
	"rload":  "rxchg",
	"rstore": "rxchg",
}

// registers parses a list of register words.
func (asm *Assembler) registers(words []string) (regs []int, err error) {
	regs = make([]int, len(words))
	for n, word := range words {
		regs[n], err = asm.register(word)
		if err != nil {
			return
		}
	}

	return
}

// offset parses an optional trailing immediate.
func (asm *Assembler) offset(words []string) (imm int64, err error) {
	switch len(words) {
	case 0:
		return
	case 1:
		imm, err = asm.valueOf(words[0])
	default:
		err = ErrOpcodeExtraArgs
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	var in Instruction
	var label string

	mnemonic := strings.ToLower(words[0])
	alias, ok := mnemonicMap[mnemonic]
	if ok {
		mnemonic = alias
	}

	op, ok := ParseOpcode(mnemonic)
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	args := words[1:]

	var regs []int
	switch op {
	case OP_RXOR, OP_RADD, OP_RSWAP:
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		regs, err = asm.registers(args)
		if err != nil {
			return
		}
		in = Instruction{Op: op, Rd: regs[0], Rs1: regs[1]}
	case OP_RXCHG, OP_LOAD, OP_STORE:
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		regs, err = asm.registers(args[:2])
		if err != nil {
			return
		}
		var imm int64
		imm, err = asm.offset(args[2:])
		if err != nil {
			return
		}
		switch op {
		case OP_RXCHG:
			in = MakeRxchg(regs[0], regs[1], imm)
		case OP_LOAD:
			in = MakeLoad(regs[0], regs[1], imm)
		case OP_STORE:
			in = MakeStore(regs[0], regs[1], imm)
		}
	case OP_BEQ:
		if len(args) < 3 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 3 {
			err = ErrOpcodeExtraArgs
			return
		}
		regs, err = asm.registers(args[:2])
		if err != nil {
			return
		}
		target, _err := asm.valueOf(args[2])
		if _err != nil {
			// Resolved by the link pass.
			label = args[2]
		}
		in = MakeBeq(regs[0], regs[1], int(target))
	case OP_ADD, OP_SUB:
		if len(args) < 3 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 3 {
			err = ErrOpcodeExtraArgs
			return
		}
		regs, err = asm.registers(args[:2])
		if err != nil {
			return
		}
		in = Instruction{Op: op, Rd: regs[0], Rs1: regs[1]}
		rs2, _err := asm.register(args[2])
		if _err == nil {
			in.Rs2 = rs2
		} else {
			in.Imm, err = asm.valueOf(args[2])
			if err != nil {
				err = ErrParseValue(args[2])
				return
			}
			in.Immediate = true
		}
	case OP_HALT:
		if len(args) > 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		in = MakeHalt()
	}

	asm.Lines = append(asm.Lines, Line{
		LineNo:      lineno,
		Pc:          len(asm.Lines),
		Words:       words,
		Instruction: in,
		LinkLabel:   label,
	})

	return
}
