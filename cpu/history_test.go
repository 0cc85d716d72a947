package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryEntryBits(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(46, DataEntry{Op: OP_RADD, Rd: 1, Rs1: 2}.Bits())
	assert.Equal(110, DataEntry{Op: OP_RXCHG, Rd: 1, Rs1: 2, Captured: 8, HasCapture: true}.Bits())
	assert.Equal(37, BranchEntry{Taken: true}.Bits())

	assert.Equal(3, DataEntry{Pc: 3}.Source())
	assert.Equal(7, BranchEntry{Pc: 7}.Source())
}

func TestHistory(t *testing.T) {
	assert := assert.New(t)

	var h History

	assert.True(h.Empty())
	_, ok := h.Pop()
	assert.False(ok)
	_, ok = h.Peek()
	assert.False(ok)

	h.Push(DataEntry{Pc: 0, Op: OP_RADD, Rd: 1, Rs1: 2})
	h.Push(BranchEntry{Pc: 1, Taken: true})
	h.Push(DataEntry{Pc: 2, Op: OP_RXOR, Rd: 1, Rs1: 3})

	assert.Equal(3, h.Depth())

	entry, ok := h.Peek()
	assert.True(ok)
	assert.Equal(2, entry.Source())
	assert.Equal(3, h.Depth())

	var order []int
	for n, entry := range h.Entries() {
		assert.Equal(n, entry.Source())
		order = append(order, entry.Source())
	}
	assert.Equal([]int{0, 1, 2}, order)

	entry, ok = h.Pop()
	assert.True(ok)
	assert.Equal(DataEntry{Pc: 2, Op: OP_RXOR, Rd: 1, Rs1: 3}, entry)

	entry, ok = h.Pop()
	assert.True(ok)
	assert.Equal(BranchEntry{Pc: 1, Taken: true}, entry)

	assert.Equal(1, h.Depth())

	st := h.Stats()
	assert.Equal(1, st.Depth)
	assert.Equal(46, st.Bits)
	assert.Equal(3, st.PeakDepth)
	assert.Equal(46+37+46, st.PeakBits)
	assert.Equal(3, st.TotalEntries)
	assert.Equal(46+37+46, st.TotalBits)
	assert.Equal(2, st.DataEntries)
	assert.Equal(1, st.BranchEntries)
	assert.Equal(46+46, st.DataBits)
	assert.Equal(37, st.BranchBits)
	assert.Equal(st.TotalBits, st.DataBits+st.BranchBits)

	assert.True(h.Fits(3))
	assert.False(h.Fits(2))

	h.Reset()
	assert.True(h.Empty())
	assert.Equal(HistoryStats{}, h.Stats())
}

func TestHistoryArenaReuse(t *testing.T) {
	assert := assert.New(t)

	var h History

	for n := range 8 {
		h.Push(BranchEntry{Pc: n})
	}
	for range 8 {
		_, ok := h.Pop()
		assert.True(ok)
	}
	assert.True(h.Empty())

	count := 0
	for range h.Entries() {
		count++
	}
	assert.Equal(0, count)

	h.Push(DataEntry{Pc: 42, Op: OP_RSWAP, Rd: 1, Rs1: 2})
	entry, ok := h.Peek()
	assert.True(ok)
	assert.Equal(42, entry.Source())
	assert.Equal(1, h.Depth())
	assert.Equal(8, h.Stats().PeakDepth)
	assert.Equal(9, h.Stats().TotalEntries)
}

func TestHistoryEntriesEarlyReturn(t *testing.T) {
	assert := assert.New(t)

	var h History
	h.Push(BranchEntry{Pc: 0})
	h.Push(BranchEntry{Pc: 1})

	count := 0
	for range h.Entries() {
		count++
		break
	}

	assert.Equal(1, count)
}

func TestHistoryTimeline(t *testing.T) {
	assert := assert.New(t)

	var h History

	h.Sample(1)
	assert.Empty(h.Timeline())

	h.TrackDepth = true
	h.Push(DataEntry{Pc: 0, Op: OP_RADD, Rd: 1, Rs1: 2})
	h.Sample(1)
	h.Push(BranchEntry{Pc: 1})
	h.Sample(2)
	h.Pop()
	h.Sample(3)

	timeline := h.Timeline()
	assert.Equal([]DepthSample{{1, 1}, {2, 2}, {3, 1}}, timeline)

	// The returned timeline is a copy.
	timeline[0].Depth = 99
	assert.Equal(1, h.Timeline()[0].Depth)

	h.Reset()
	assert.Empty(h.Timeline())
	assert.True(h.TrackDepth)
}

func TestHistoryTimelineMachine(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(nil)
	m.Load([]Instruction{
		MakeRadd(1, 2),
		MakeAddImm(3, 3, 1),
		MakeBeq(0, 0, 4),
		MakeHalt(),
		MakeRxor(2, 1),
		MakeHalt(),
	})
	m.History.TrackDepth = true

	_, stop, err := m.Run(0)
	assert.NoError(err)
	assert.Equal(STOP_HALT, stop)

	assert.Equal([]DepthSample{
		{Step: 1, Depth: 1},
		{Step: 2, Depth: 1},
		{Step: 3, Depth: 2},
		{Step: 4, Depth: 3},
		{Step: 5, Depth: 3},
	}, m.History.Timeline())

	// Backward steps are not sampled.
	_, err = m.StepBackward()
	assert.NoError(err)
	assert.Len(m.History.Timeline(), 5)
}
