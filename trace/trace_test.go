package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lunixbochs/struc"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/revsim/cpu"
)

func TestRecord(t *testing.T) {
	assert := assert.New(t)

	entries := []cpu.Entry{
		cpu.DataEntry{Pc: 7, Op: cpu.OP_RADD, Rd: 1, Rs1: 31},
		cpu.DataEntry{Pc: 8, Op: cpu.OP_RXCHG, Rd: 2, Rs1: 2, Captured: -16, HasCapture: true},
		cpu.BranchEntry{Pc: 9, Taken: true},
		cpu.BranchEntry{Pc: 10},
	}

	for _, entry := range entries {
		rec, err := FromEntry(entry)
		assert.NoError(err)
		dup, err := rec.Entry()
		assert.NoError(err)
		assert.Equal(entry, dup)
	}

	_, err := FromEntry(nil)
	assert.Error(err)

	_, err = Record{Kind: 9}.Entry()
	assert.Error(err)

	_, err = Record{Kind: KIND_DATA, Op: uint8(cpu.OP_STORE)}.Entry()
	assert.Error(err)

	_, err = Record{Kind: KIND_DATA, Op: uint8(cpu.OP_RADD), Rd: 200, Rs1: 1}.Entry()
	assert.ErrorIs(err, cpu.ErrRegisterInvalid)

	_, err = Record{Kind: KIND_DATA, Op: uint8(cpu.OP_RSWAP), Rd: 1, Rs1: cpu.NUM_REGISTERS}.Entry()
	assert.ErrorIs(err, cpu.ErrRegisterInvalid)

	_, err = Record{Kind: KIND_DATA, Op: uint8(cpu.OP_RXOR), Rd: 4, Rs1: 4}.Entry()
	assert.ErrorIs(err, cpu.ErrOperandAlias)
}

func TestTraceRestoreCorrupt(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, "corrupt.asm")
	if !assert.NoError(err) {
		return
	}
	assert.NoError(w.Write(cpu.DataEntry{Pc: 0, Op: cpu.OP_RADD, Rd: 1, Rs1: 2}))
	bad := Record{Kind: KIND_DATA, Op: uint8(cpu.OP_RADD), Rd: 200, Rs1: 1, Pc: 1}
	assert.NoError(struc.Pack(w.zw, &bad))
	assert.NoError(w.Close())

	r, err := NewReader(&buf)
	if !assert.NoError(err) {
		return
	}

	m := cpu.NewMachine(nil)
	err = r.Restore(&m.History)
	assert.ErrorIs(err, cpu.ErrRegisterInvalid)
	assert.True(m.History.Empty())

	_, err = m.StepBackward()
	assert.ErrorIs(err, cpu.ErrEmptyHistory)
}

func TestTrace(t *testing.T) {
	assert := assert.New(t)

	m := cpu.NewMachine(nil)
	m.Load([]cpu.Instruction{
		cpu.MakeRadd(1, 2),
		cpu.MakeRxchg(1, 3, 4),
		cpu.MakeBeq(0, 0, 4),
		cpu.MakeHalt(),
		cpu.MakeRxor(2, 1),
		cpu.MakeHalt(),
	})
	m.Register[1] = 3
	m.Register[2] = 4
	m.Register[3] = 8
	before := m.Register

	_, stop, err := m.Run(0)
	assert.NoError(err)
	assert.Equal(cpu.STOP_HALT, stop)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, "example.asm")
	if !assert.NoError(err) {
		return
	}
	err = w.WriteHistory(&m.History)
	assert.NoError(err)
	assert.Equal(4, w.Count)
	assert.NoError(w.Close())

	r, err := NewReader(&buf)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("example.asm", r.Header.Program)
	assert.Equal(uint8(cpu.NUM_REGISTERS), r.Header.Registers)
	assert.Equal(uint8(cpu.PC_BITS), r.Header.PcBits)

	// Replace the live history with the one from the trace, and unwind.
	m.History.Reset()
	err = r.Restore(&m.History)
	assert.NoError(err)
	assert.Equal(4, m.History.Depth())

	for !m.History.Empty() {
		_, err = m.StepBackward()
		assert.NoError(err)
	}
	assert.Equal(before, m.Register)
	assert.Equal(0, m.Memory.Len())
	assert.Equal(0, m.Pc)
}

func TestTraceLongName(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, strings.Repeat("x", 40))
	assert.NoError(err)
	assert.NoError(w.Close())

	r, err := NewReader(&buf)
	assert.NoError(err)
	assert.Equal(strings.Repeat("x", NAME_LEN), r.Header.Program)

	entries, err := r.ReadAll()
	assert.NoError(err)
	assert.Empty(entries)
}

func TestTraceBadHeader(t *testing.T) {
	assert := assert.New(t)

	_, err := NewReader(strings.NewReader("RV"))
	assert.Error(err)

	_, err = NewReader(strings.NewReader(strings.Repeat("\x00", 64)))
	assert.ErrorContains(err, "magic")

	var buf bytes.Buffer
	header := Header{
		Magic:     TRACE_MAGIC,
		Version:   TRACE_VERSION,
		Registers: 16,
		PcBits:    cpu.PC_BITS,
		Program:   "small.asm",
	}
	assert.NoError(struc.Pack(&buf, &header))
	_, err = NewReader(&buf)
	assert.ErrorContains(err, "16 registers")
}
