package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
)

// EnergyModel assigns a cost to each dispatched opcode.
type EnergyModel interface {
	Cost(op Opcode) float64
}

// Status is the run state of the machine.
type Status int

//go:generate go tool stringer -linecomment -type=Status
const (
	STATUS_RUNNING = Status(iota) // running
	STATUS_HALTED                 // halted
	STATUS_ERROR                  // error
)

// Stop is the reason Run returned.
type Stop int

//go:generate go tool stringer -linecomment -type=Stop
const (
	STOP_HALT         = Stop(iota) // halt
	STOP_OUT_OF_RANGE              // out-of-range
	STOP_BUDGET                    // budget
	STOP_ERROR                     // error
)

var _machine_defines = map[string]string{
	"NUM_REGISTERS": fmt.Sprintf("%d", NUM_REGISTERS),
	"OPCODE_BITS":   fmt.Sprintf("%d", OPCODE_BITS),
	"REGISTER_BITS": fmt.Sprintf("%d", REGISTER_BITS),
	"PC_BITS":       fmt.Sprintf("%d", PC_BITS),
}

// Machine is the reversible execution engine.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Register RegisterFile // Register bank.
	Memory   Memory       // Word memory.
	History  History      // Undo log.
	Metrics  Metrics      // Dispatch counters.

	Pc     int    // Program counter.
	Status Status // Run state.
	Err    error  // Fatal error, when Status is STATUS_ERROR.

	Energy float64 // Accumulated energy.
	Ticks  int     // Forward steps executed.

	Model EnergyModel // Cost of each opcode; nil costs nothing.

	program []Instruction
}

// NewMachine creates a machine using an energy model.
func NewMachine(model EnergyModel) (m *Machine) {
	m = &Machine{
		Model: model,
	}

	return
}

// Defines for the machine.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Load installs a program, and rewinds execution to its first instruction.
// Registers and memory are kept, so a caller may seed them before or after.
func (m *Machine) Load(program []Instruction) {
	if m.Verbose {
		log.Printf("machine: load %d instructions", len(program))
	}

	m.program = slices.Clone(program)
	m.rewind()
}

// Reset clears all state except the loaded program.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("machine: reset")
	}

	m.Register.Reset()
	m.Memory.Reset()
	m.rewind()
}

func (m *Machine) rewind() {
	m.History.Reset()
	m.Metrics.Reset()
	m.Pc = 0
	m.Status = STATUS_RUNNING
	m.Err = nil
	m.Energy = 0
	m.Ticks = 0
}

// Len returns the number of loaded instructions.
func (m *Machine) Len() int {
	return len(m.program)
}

// Fetch returns the instruction at 'pc'.
func (m *Machine) Fetch(pc int) (in Instruction, ok bool) {
	if pc < 0 || pc >= len(m.program) {
		return
	}

	in = m.program[pc]
	ok = true
	return
}

// StepForward executes the instruction at the program counter.
func (m *Machine) StepForward() (in Instruction, err error) {
	switch m.Status {
	case STATUS_HALTED:
		err = ErrHalted
		return
	case STATUS_ERROR:
		err = m.Err
		return
	}

	in, ok := m.Fetch(m.Pc)
	if !ok {
		err = ErrOutOfRange
		return
	}

	err = in.Decode(len(m.program))
	if err != nil {
		err = ErrDecode{Pc: m.Pc, Instruction: in, Err: err}
		m.Status = STATUS_ERROR
		m.Err = err
		if m.Verbose {
			log.Printf("machine: %v", err)
		}
		return
	}

	if m.Verbose {
		log.Printf("%03d: %v", m.Pc, in)
	}

	reg := &m.Register
	next_pc := m.Pc + 1

	switch in.Op {
	case OP_RXOR:
		reg[in.Rd] ^= reg[in.Rs1]
		m.History.Push(DataEntry{Pc: m.Pc, Op: in.Op, Rd: in.Rd, Rs1: in.Rs1})
	case OP_RADD:
		reg[in.Rd] += reg[in.Rs1]
		m.History.Push(DataEntry{Pc: m.Pc, Op: in.Op, Rd: in.Rd, Rs1: in.Rs1})
	case OP_RSWAP:
		reg[in.Rd], reg[in.Rs1] = reg[in.Rs1], reg[in.Rd]
		m.History.Push(DataEntry{Pc: m.Pc, Op: in.Op, Rd: in.Rd, Rs1: in.Rs1})
	case OP_RXCHG:
		addr := reg[in.Rs1] + in.Imm
		reg[in.Rd] = m.Memory.Exchange(addr, reg[in.Rd])
		m.History.Push(DataEntry{Pc: m.Pc, Op: in.Op, Rd: in.Rd, Rs1: in.Rs1, Captured: addr, HasCapture: true})
	case OP_BEQ:
		taken := reg[in.Rs1] == reg[in.Rs2]
		if taken {
			next_pc = in.Target
		}
		m.History.Push(BranchEntry{Pc: m.Pc, Taken: taken})
	case OP_ADD:
		reg[in.Rd] = reg[in.Rs1] + m.operand(in)
	case OP_SUB:
		reg[in.Rd] = reg[in.Rs1] - m.operand(in)
	case OP_LOAD:
		reg[in.Rd] = m.Memory.Load(reg[in.Rs1] + in.Imm)
	case OP_STORE:
		m.Memory.Store(reg[in.Rs1]+in.Imm, reg[in.Rs2])
	case OP_HALT:
		m.Status = STATUS_HALTED
		next_pc = m.Pc
	default:
		panic("unknown opcode")
	}

	if m.Model != nil {
		m.Energy += m.Model.Cost(in.Op)
	}
	m.Metrics.Record(in.Op)
	m.Ticks++
	m.Pc = next_pc
	m.History.Sample(m.Ticks)

	return
}

func (m *Machine) operand(in Instruction) int64 {
	if in.Immediate {
		return in.Imm
	}
	return m.Register[in.Rs2]
}

// StepBackward undoes the newest history entry, returning the machine to
// the state just before that instruction executed. Energy, metrics and
// ticks are left alone.
func (m *Machine) StepBackward() (entry Entry, err error) {
	entry, ok := m.History.Pop()
	if !ok {
		err = ErrEmptyHistory
		if m.Metrics.Irreversible > 0 {
			err = errors.Join(ErrUndoUnsupported, err)
		}
		return
	}

	if m.Verbose {
		log.Printf("undo %v", entry)
	}

	reg := &m.Register

	switch e := entry.(type) {
	case DataEntry:
		switch e.Op {
		case OP_RXOR:
			reg[e.Rd] ^= reg[e.Rs1]
		case OP_RADD:
			reg[e.Rd] -= reg[e.Rs1]
		case OP_RSWAP:
			reg[e.Rd], reg[e.Rs1] = reg[e.Rs1], reg[e.Rd]
		case OP_RXCHG:
			reg[e.Rd] = m.Memory.Exchange(e.Captured, reg[e.Rd])
		default:
			panic("irreversible opcode in history")
		}
	case BranchEntry:
		// The source pc is all that is needed.
	default:
		panic("unknown history entry")
	}

	m.Pc = entry.Source()
	m.Status = STATUS_RUNNING
	m.Err = nil

	return
}

// Run steps forward until halt, the end of the program, an error, or
// 'budget' steps have executed. A budget <= 0 is unlimited.
func (m *Machine) Run(budget int) (steps int, stop Stop, err error) {
	for budget <= 0 || steps < budget {
		_, err = m.StepForward()
		switch {
		case err == nil:
			steps++
			if m.Status == STATUS_HALTED {
				stop = STOP_HALT
				return
			}
		case errors.Is(err, ErrHalted):
			err = nil
			stop = STOP_HALT
			return
		case errors.Is(err, ErrOutOfRange):
			err = nil
			stop = STOP_OUT_OF_RANGE
			return
		default:
			stop = STOP_ERROR
			return
		}
	}

	stop = STOP_BUDGET
	return
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text = fmt.Sprintf("   pc: %03d\n", m.Pc)
	text += fmt.Sprintf("state: %v\n", m.Status)
	text += fmt.Sprintf("ticks: %d\n", m.Ticks)
	text += fmt.Sprintf("depth: %d\n", m.History.Depth())
	text += m.Register.String()

	return
}
