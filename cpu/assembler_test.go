package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const loopSource = `; Mixed reversible and irreversible loop

; r1 = loop counter
; r2 = accumulator
; r3 = decrement value (1)

ADD r1, r0, 10      ; r1 = 10
ADD r2, r0, 0       ; r2 = 0
ADD r3, r0, 1       ; r3 = 1

loop_start:
BEQ r1, r0, done    ; if r1 == 0, exit loop

; Reversible work
RADD r2, r1         ; r2 = r2 + r1
RXOR r2, r1         ; reversible mix
RXOR r2, r1         ; unmix

; Irreversible decrement
SUB r1, r1, r3      ; r1 = r1 - 1

; Unconditional jump
BEQ r0, r0, loop_start

done:
HALT
`

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, prog.Len())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("32", asm.Equate["NUM_REGISTERS"])
}

func TestAssemblerLoop(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(loopSource))
	if !assert.NoError(err) {
		return
	}

	assert.Equal(10, prog.Len())
	assert.Equal(map[string]int{"loop_start": 3, "done": 9}, prog.Labels)

	expected := []Instruction{
		MakeAddImm(1, 0, 10),
		MakeAddImm(2, 0, 0),
		MakeAddImm(3, 0, 1),
		MakeBeq(1, 0, 9),
		MakeRadd(2, 1),
		MakeRxor(2, 1),
		MakeRxor(2, 1),
		MakeSub(1, 1, 3),
		MakeBeq(0, 0, 3),
		MakeHalt(),
	}
	assert.Equal(expected, prog.Instructions())

	line := prog.Debug(3)
	if assert.NotNil(line) {
		assert.Equal(12, line.LineNo)
		assert.Equal("done", line.LinkLabel)
	}

	m := NewMachine(flatModel{})
	m.Load(prog.Instructions())

	steps, stop, err := m.Run(1000)
	assert.NoError(err)
	assert.Equal(STOP_HALT, stop)
	assert.Equal(65, steps)
	assert.Equal(int64(0), m.Register[1])
	assert.Equal(int64(55), m.Register[2])
	assert.Equal(51, m.Metrics.Reversible)
	assert.Equal(14, m.Metrics.Irreversible)
	assert.Equal(51, m.History.Depth())
	assert.Equal(9, m.Pc)

	// Undo everything that can be undone. The decrements cannot, so the
	// accumulator keeps its total.
	for !m.History.Empty() {
		_, err = m.StepBackward()
		assert.NoError(err)
	}
	assert.Equal(3, m.Pc)
	assert.Equal(int64(55), m.Register[2])

	_, err = m.StepBackward()
	assert.ErrorIs(err, ErrUndoUnsupported)
}

func TestAssemblerSyntax(t *testing.T) {
	assert := assert.New(t)

	source := strings.Join([]string{
		".equ BASE 0x100",
		".equ COUNTER r7",
		"start: RLOAD x4, r5, BASE",
		"rstore r4 r5",
		"rxchg r4 r5 $(BASE + 8)",
		"add COUNTER, COUNTER, -1 ; decrement",
		"sub r1 r2 r3",
		"load r1 r2",
		"store r1 r2 ~0",
		"rswap R1 R2",
		"beq r1 r2 start",
		"beq r1 r2 11",
		"halt",
	}, "\n")

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	if !assert.NoError(err) {
		return
	}

	expected := []Instruction{
		MakeRxchg(4, 5, 0x100),
		MakeRxchg(4, 5, 0),
		MakeRxchg(4, 5, 0x108),
		MakeAddImm(7, 7, -1),
		MakeSub(1, 2, 3),
		MakeLoad(1, 2, 0),
		MakeStore(1, 2, -1),
		MakeRswap(1, 2),
		MakeBeq(1, 2, 0),
		MakeBeq(1, 2, 11),
		MakeHalt(),
	}
	assert.Equal(expected, prog.Instructions())
	assert.Equal("0x100", asm.Equate["BASE"])
	assert.Equal([]string{"add", "r7", "r7", "-1"}, prog.Lines[3].Words)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("STRIDE", "4")
	asm.Predefine("STRIDE", "8")

	prog, err := asm.Parse(strings.NewReader("add r1 r0 $(STRIDE * NUM_REGISTERS)\nadd r2 r0 $(LINENO)"))
	assert.NoError(err)
	assert.Equal([]Instruction{
		MakeAddImm(1, 0, 256),
		MakeAddImm(2, 0, 2),
	}, prog.Instructions())
}

func TestAssemblerErrors(t *testing.T) {
	table := [](struct {
		source string
		lineno int
		err    error
	}){
		{"jump r1", 1, ErrOpcodeInvalid},
		{"rxor r1", 1, ErrOpcodeValueMissing},
		{"rxor r1 r2 r3", 1, ErrOpcodeExtraArgs},
		{"rxor r1 r1", 1, ErrOperandAlias},
		{"radd r1 r32", 1, ErrRegisterInvalid},
		{"radd r1 q2", 1, ErrParseValue("q2")},
		{"add r1 r2 zz", 1, ErrParseValue("zz")},
		{"rxchg r1 r2 0x", 1, ErrParseNumber("0x")},
		{"rxchg r1 r2 1 2", 1, ErrOpcodeExtraArgs},
		{"halt now", 1, ErrOpcodeExtraArgs},
		{"beq r1 r2 nowhere\nhalt", 1, ErrLabelMissing("nowhere")},
		{"beq r1 r2 5\nhalt", 1, ErrTargetInvalid},
		{"a: halt\na: halt", 2, ErrLabelDuplicate},
		{"1a: halt", 1, ErrLabelInvalid},
		{".equ X 1\n.equ X 2", 2, ErrEquateDuplicate},
		{".equ X", 1, ErrEquateSyntax},
		{"add r1 r0 $(1 +)", 1, nil},
		{"add r1 r0 $('a')", 1, ErrParseExpression("'a'")},
	}

	for _, entry := range table {
		assert := assert.New(t)

		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(entry.source))
		if !assert.Error(err, entry.source) {
			continue
		}

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.source) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.source)
		}
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.source)
		}
	}
}
