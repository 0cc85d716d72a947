package cpu

import (
	"iter"
	"maps"

	"github.com/ezrec/revsim/internal"
)

// Memory is a sparse word store. Absent addresses read as zero, and zero
// words are not stored, so equal contents always compare equal.
type Memory struct {
	data map[int64]int64

	Standard  int // Count of load/store accesses.
	Exchanges int // Count of exchange accesses.
}

// Load reads a word.
func (mem *Memory) Load(addr int64) (value int64) {
	mem.Standard++
	value = mem.data[addr]
	return
}

// Store writes a word, losing the prior contents.
func (mem *Memory) Store(addr int64, value int64) {
	mem.Standard++
	mem.put(addr, value)
}

// Exchange swaps a word with 'value', and returns the prior contents.
// Nothing is lost, so a second exchange restores the memory.
func (mem *Memory) Exchange(addr int64, value int64) (prior int64) {
	mem.Exchanges++
	prior = mem.data[addr]
	mem.put(addr, value)
	return
}

func (mem *Memory) put(addr int64, value int64) {
	if value == 0 {
		delete(mem.data, addr)
		return
	}

	if mem.data == nil {
		mem.data = make(map[int64]int64)
	}
	mem.data[addr] = value
}

// Len returns the number of non-zero words.
func (mem *Memory) Len() int {
	return len(mem.data)
}

// Reset clears all words and access counters.
func (mem *Memory) Reset() {
	clear(mem.data)
	mem.Standard = 0
	mem.Exchanges = 0
}

// Words iterates over the non-zero words in address order.
func (mem *Memory) Words() iter.Seq2[int64, int64] {
	return internal.Sorted2(mem.data)
}

// Equal compares the contents of two memories, ignoring access counters.
func (mem *Memory) Equal(other *Memory) bool {
	return maps.Equal(mem.data, other.data)
}

// Clone returns an independent copy of the memory.
func (mem *Memory) Clone() (dup *Memory) {
	dup = &Memory{
		data:      maps.Clone(mem.data),
		Standard:  mem.Standard,
		Exchanges: mem.Exchanges,
	}
	return
}
