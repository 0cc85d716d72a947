package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Line is a single assembled instruction, and where it came from.
type Line struct {
	LineNo      int      // Source line number.
	Pc          int      // Instruction index.
	Words       []string // Source words, after equate substitution.
	Instruction Instruction
	LinkLabel   string // Branch label resolved at link time.
}

// Program is an assembled instruction sequence.
type Program struct {
	Lines  []Line
	Labels map[string]int // Label to instruction index.
}

// Debug finds the source line of the instruction at 'pc', or nil.
func (prog *Program) Debug(pc int) (line *Line) {
	for n := range prog.Lines {
		if prog.Lines[n].Pc == pc {
			line = &prog.Lines[n]
			break
		}
	}

	return
}

// Len returns the number of instructions.
func (prog *Program) Len() int {
	return len(prog.Lines)
}

// Instructions returns the instruction sequence for a Machine.
func (prog *Program) Instructions() (codes []Instruction) {
	codes = make([]Instruction, 0, len(prog.Lines))
	for _, in := range prog.Codes() {
		codes = append(codes, in)
	}

	return
}

// Codes iterates over the instructions by program counter.
func (prog *Program) Codes() iter.Seq2[int, Instruction] {
	return func(yield func(pc int, in Instruction) bool) {
		for _, line := range prog.Lines {
			if !yield(line.Pc, line.Instruction) {
				return
			}
		}
	}
}

// String returns a listing of the program.
func (prog *Program) String() string {
	var sb strings.Builder
	for _, line := range prog.Lines {
		fmt.Fprintf(&sb, "%03d: %-24v ; %d\n", line.Pc, line.Instruction, line.LineNo)
	}

	return sb.String()
}
