package cpu

// Metrics counts dispatched instructions by class and opcode.
type Metrics struct {
	Reversible   int
	Irreversible int
	PerOpcode    [OPCODE_COUNT]int
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Reversible   int
	Irreversible int
	PerOpcode    map[string]int // Keyed by mnemonic; only opcodes seen.
	Ratio        float64
}

func (ms MetricsSnapshot) String() string {
	return f("reversible=%d, irreversible=%d, ratio=%.2f", ms.Reversible, ms.Irreversible, ms.Ratio)
}

// Record counts one dispatched instruction. Invalid opcodes are ignored.
func (m *Metrics) Record(op Opcode) {
	if !op.Valid() {
		return
	}

	if op.Reversible() {
		m.Reversible++
	} else {
		m.Irreversible++
	}
	m.PerOpcode[op]++
}

// Reset zeros all counters.
func (m *Metrics) Reset() {
	*m = Metrics{}
}

// Total returns the count of all recorded instructions.
func (m *Metrics) Total() int {
	return m.Reversible + m.Irreversible
}

// Ratio returns the fraction of reversible instructions, or 0 if none.
func (m *Metrics) Ratio() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return float64(m.Reversible) / float64(total)
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() (ms MetricsSnapshot) {
	ms = MetricsSnapshot{
		Reversible:   m.Reversible,
		Irreversible: m.Irreversible,
		PerOpcode:    map[string]int{},
		Ratio:        m.Ratio(),
	}

	for n, count := range m.PerOpcode {
		if count > 0 {
			ms.PerOpcode[Opcode(n).String()] = count
		}
	}

	return
}
