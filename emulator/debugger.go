package emulator

import (
	"log"

	"github.com/ezrec/revsim/cpu"
)

// Watchpoint is a register condition checked after every forward step.
type Watchpoint struct {
	Name        string
	Register    int
	Violated    func(value int64) bool // True when the value is wrong.
	Description string
}

// Violation records a triggered watchpoint.
type Violation struct {
	Step       int // Debugger step count when triggered.
	Watchpoint *Watchpoint
	Value      int64
}

// CorruptionReport locates the instruction that last changed a register.
type CorruptionReport struct {
	Pc          int
	LineNo      int
	Instruction cpu.Instruction
	Register    int
	Before      int64 // Value before the instruction.
	After       int64 // Value after the instruction.
	StepsBack   int   // Backward steps taken to find it.
}

func (cr *CorruptionReport) String() string {
	return f("pc %d (line %d) '%v' changed r%d from %d to %d, %d steps back",
		cr.Pc, cr.LineNo, cr.Instruction, cr.Register, cr.Before, cr.After, cr.StepsBack)
}

// TrailStep is one undoable step in the history, with its source.
type TrailStep struct {
	Entry       cpu.Entry
	LineNo      int
	Instruction cpu.Instruction
}

// Debugger runs an emulator forward under watchpoints, and walks it
// backward to find where a register went wrong.
type Debugger struct {
	*Emulator

	Watchpoints []*Watchpoint
	Violations  []Violation
	Steps       int // Forward steps taken by the debugger.
}

// NewDebugger creates a debugger over an emulator.
func NewDebugger(emu *Emulator) (dbg *Debugger) {
	dbg = &Debugger{
		Emulator: emu,
	}

	return
}

// Watch adds a watchpoint that triggers when 'violated' returns true.
func (dbg *Debugger) Watch(name string, register int, violated func(value int64) bool, description string) (err error) {
	if register < 0 || register >= cpu.NUM_REGISTERS {
		err = ErrWatchRegister
		return
	}

	if len(description) == 0 {
		description = f("Watch r%d", register)
	}

	dbg.Watchpoints = append(dbg.Watchpoints, &Watchpoint{
		Name:        name,
		Register:    register,
		Violated:    violated,
		Description: description,
	})

	return
}

// WatchEquals triggers when the register differs from 'expected'.
func (dbg *Debugger) WatchEquals(register int, expected int64) (err error) {
	return dbg.Watch(f("r%d==%d", register, expected), register,
		func(value int64) bool { return value != expected },
		f("Triggered when r%d != %d", register, expected))
}

// WatchRange triggers when the register leaves [lo, hi].
func (dbg *Debugger) WatchRange(register int, lo, hi int64) (err error) {
	return dbg.Watch(f("r%d in [%d,%d]", register, lo, hi), register,
		func(value int64) bool { return value < lo || value > hi },
		f("Triggered when r%d outside [%d, %d]", register, lo, hi))
}

// check returns the first violated watchpoint, or nil.
func (dbg *Debugger) check() (wp *Watchpoint) {
	for _, wp = range dbg.Watchpoints {
		value := dbg.Machine.Register[wp.Register]
		if wp.Violated(value) {
			dbg.Violations = append(dbg.Violations, Violation{
				Step:       dbg.Steps,
				Watchpoint: wp,
				Value:      value,
			})
			return
		}
	}

	return nil
}

// RunUntilViolation steps forward until a watchpoint triggers, the
// program is done, or 'maxSteps' steps. The triggered watchpoint is
// returned, or nil if none triggered.
func (dbg *Debugger) RunUntilViolation(maxSteps int) (wp *Watchpoint, err error) {
	for steps := 0; maxSteps <= 0 || steps < maxSteps; steps++ {
		var done bool
		done, err = dbg.Tick()
		if err != nil || done {
			return
		}
		dbg.Steps++

		wp = dbg.check()
		if wp != nil {
			if dbg.Verbose {
				log.Printf("debugger: %v at step %d, r%d = %d", wp.Name, dbg.Steps, wp.Register, dbg.Machine.Register[wp.Register])
			}
			return
		}
	}

	return
}

// FindCorruption walks backward until 'register' changes, and reports the
// instruction that changed it. A nil report means the history was used up
// without the register changing.
func (dbg *Debugger) FindCorruption(register int) (report *CorruptionReport, err error) {
	if register < 0 || register >= cpu.NUM_REGISTERS {
		err = ErrWatchRegister
		return
	}

	current := dbg.Machine.Register[register]
	steps := 0

	for !dbg.Machine.History.Empty() {
		err = dbg.Back()
		if err != nil {
			return
		}
		steps++

		value := dbg.Machine.Register[register]
		if value != current {
			pc := dbg.Machine.Pc
			in, _ := dbg.Instruction()
			report = &CorruptionReport{
				Pc:          pc,
				LineNo:      dbg.LineNo(),
				Instruction: in,
				Register:    register,
				Before:      value,
				After:       current,
				StepsBack:   steps,
			}
			if dbg.Verbose {
				log.Printf("debugger: %v", report)
			}
			return
		}
	}

	return
}

// Trail returns the undoable steps in the history, oldest first.
func (dbg *Debugger) Trail() (trail []TrailStep) {
	for _, entry := range dbg.Machine.History.Entries() {
		step := TrailStep{Entry: entry}
		pc := entry.Source()
		if line := dbg.Program.Debug(pc); line != nil {
			step.LineNo = line.LineNo
		}
		step.Instruction, _ = dbg.Machine.Fetch(pc)
		trail = append(trail, step)
	}

	return
}
