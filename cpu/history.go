package cpu

import (
	"fmt"
	"iter"
	"slices"
)

// Bit widths used to size history entries.
const (
	OPCODE_BITS   = 4  // Opcode field.
	REGISTER_BITS = 5  // Register index field.
	PC_BITS       = 32 // Program counter field.
	CAPTURE_BITS  = 64 // Captured word.
	OUTCOME_BITS  = 1  // Branch taken/not-taken.
)

// Entry is a single history record; either a DataEntry or a BranchEntry.
type Entry interface {
	// Source returns the program counter of the instruction that pushed the entry.
	Source() int
	// Bits returns the storage needed for the entry.
	Bits() int

	entry()
}

// DataEntry records a reversible data instruction. The opcode and operands
// are enough to invert it; Captured holds the one runtime value an inverse
// may need.
type DataEntry struct {
	Pc         int
	Op         Opcode
	Rd         int
	Rs1        int
	Captured   int64 // rxchg: effective address.
	HasCapture bool
}

func (de DataEntry) entry() {}

func (de DataEntry) Source() int {
	return de.Pc
}

func (de DataEntry) Bits() (bits int) {
	bits = OPCODE_BITS + PC_BITS + 2*REGISTER_BITS
	if de.HasCapture {
		bits += CAPTURE_BITS
	}
	return
}

func (de DataEntry) String() string {
	if de.HasCapture {
		return fmt.Sprintf("%03d: %v r%d r%d [%d]", de.Pc, de.Op, de.Rd, de.Rs1, de.Captured)
	}
	return fmt.Sprintf("%03d: %v r%d r%d", de.Pc, de.Op, de.Rd, de.Rs1)
}

// BranchEntry records a branch by its source and outcome. The target is
// not needed to go back.
type BranchEntry struct {
	Pc    int
	Taken bool
}

func (be BranchEntry) entry() {}

func (be BranchEntry) Source() int {
	return be.Pc
}

func (be BranchEntry) Bits() int {
	return OPCODE_BITS + PC_BITS + OUTCOME_BITS
}

func (be BranchEntry) String() string {
	return fmt.Sprintf("%03d: %v taken=%v", be.Pc, OP_BEQ, be.Taken)
}

// HistoryStats are the buffer sizing figures of a history log.
type HistoryStats struct {
	Depth         int // Entries currently held.
	Bits          int // Bits currently held.
	PeakDepth     int // High-water mark of Depth.
	PeakBits      int // High-water mark of Bits.
	TotalEntries  int // Entries ever pushed.
	TotalBits     int // Bits ever pushed.
	DataEntries   int // DataEntry records ever pushed.
	BranchEntries int // BranchEntry records ever pushed.
	DataBits      int // Bits of DataEntry records ever pushed.
	BranchBits    int // Bits of BranchEntry records ever pushed.
}

// DepthSample is the history depth after a forward step.
type DepthSample struct {
	Step  int
	Depth int
}

// Fits returns true if the peak depth fits in a FIFO of 'depth' entries.
func (hs HistoryStats) Fits(depth int) bool {
	return hs.PeakDepth <= depth
}

// History is the LIFO log of undoable instructions.
//
// Popped entries stay in the arena until overwritten, so the log never
// shrinks its backing store while running.
type History struct {
	TrackDepth bool // Keep a depth timeline; see Sample.

	arena    []Entry
	top      int
	stats    HistoryStats
	timeline []DepthSample
}

// Push appends an entry.
func (h *History) Push(entry Entry) {
	if h.top < len(h.arena) {
		h.arena[h.top] = entry
	} else {
		h.arena = append(h.arena, entry)
	}
	h.top++

	bits := entry.Bits()

	st := &h.stats
	st.Depth = h.top
	st.Bits += bits
	st.PeakDepth = max(st.PeakDepth, st.Depth)
	st.PeakBits = max(st.PeakBits, st.Bits)
	st.TotalEntries++
	st.TotalBits += bits
	switch entry.(type) {
	case DataEntry:
		st.DataEntries++
		st.DataBits += bits
	case BranchEntry:
		st.BranchEntries++
		st.BranchBits += bits
	}
}

// Sample records the current depth at 'step', if TrackDepth is set.
func (h *History) Sample(step int) {
	if !h.TrackDepth {
		return
	}

	h.timeline = append(h.timeline, DepthSample{Step: step, Depth: h.top})
}

// Timeline returns the depth samples, oldest first.
func (h *History) Timeline() []DepthSample {
	return slices.Clone(h.timeline)
}

// Pop removes and returns the newest entry.
func (h *History) Pop() (entry Entry, ok bool) {
	entry, ok = h.Peek()
	if ok {
		h.top--
		h.stats.Depth = h.top
		h.stats.Bits -= entry.Bits()
	}
	return
}

// Peek returns the newest entry without removing it.
func (h *History) Peek() (entry Entry, ok bool) {
	if h.Empty() {
		return
	}

	return h.arena[h.top-1], true
}

// Depth returns the number of entries held.
func (h *History) Depth() int {
	return h.top
}

// Empty returns true if there is nothing to undo.
func (h *History) Empty() bool {
	return h.top == 0
}

// Reset discards all entries, statistics and samples. TrackDepth is kept.
func (h *History) Reset() {
	clear(h.arena)
	h.arena = h.arena[:0]
	h.top = 0
	h.stats = HistoryStats{}
	h.timeline = nil
}

// Entries iterates over the held entries, oldest first.
func (h *History) Entries() iter.Seq2[int, Entry] {
	return func(yield func(n int, entry Entry) bool) {
		for n, entry := range h.arena[:h.top] {
			if !yield(n, entry) {
				return
			}
		}
	}
}

// Stats returns the sizing statistics.
func (h *History) Stats() HistoryStats {
	return h.stats
}

// Fits returns true if the peak depth so far fits in a FIFO of 'depth' entries.
func (h *History) Fits(depth int) bool {
	return h.stats.Fits(depth)
}
