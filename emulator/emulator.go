// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator runs assembled programs on the reversible machine, and
// provides a time-travel debugger over it.
package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/revsim/cpu"
	"github.com/ezrec/revsim/energy"
	"github.com/ezrec/revsim/internal"
)

const (
	BUDGET_DEFAULT = 100_000 // Default forward step budget.
)

var _emulator_defines = map[string]string{
	"BUDGET_DEFAULT": fmt.Sprintf("%v", BUDGET_DEFAULT),
}

// Result is the outcome of a run.
type Result struct {
	Steps     int              // Forward steps taken by this run.
	Stop      cpu.Stop         // Why the run ended.
	Registers cpu.RegisterFile // Final registers.
	Energy    float64          // Energy accumulated since reset.
	Metrics   cpu.MetricsSnapshot
	History   cpu.HistoryStats
	Timeline  []cpu.DepthSample // History depth per step, when tracked.
}

// Emulator state. Machine + program listing + energy costs.
type Emulator struct {
	Verbose      bool          // If set, enables verbose logging.
	*cpu.Machine               // Reference to the machine simulation.
	Program      *cpu.Program  // Reference to the currently running program listing.
	Costs        *energy.Model // Energy cost table.
}

// NewEmulator creates a new emulator with the default energy costs.
func NewEmulator() (emu *Emulator) {
	costs := energy.Default()

	emu = &Emulator{
		Machine: cpu.NewMachine(costs),
		Program: &cpu.Program{},
		Costs:   costs,
	}

	return
}

// SetCosts replaces the energy cost table.
func (emu *Emulator) SetCosts(costs *energy.Model) {
	emu.Costs = costs
	emu.Machine.Model = costs
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		emu.Machine.Defines(),
	)
}

// Assemble parses a program, and resets the emulator to run it.
// Extra predefines may be given as NAME, VALUE pairs.
func (emu *Emulator) Assemble(input io.Reader, defines ...iter.Seq2[string, string]) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range internal.Concat2(append([]iter.Seq2[string, string]{emu.Defines()}, defines...)...) {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog
	emu.Reset()

	return
}

// Reset loads the program listing, and clears all machine state.
func (emu *Emulator) Reset() {
	emu.Machine.Verbose = emu.Verbose
	emu.Machine.Load(emu.Program.Instructions())
	emu.Machine.Reset()

	if emu.Verbose {
		log.Printf("emulator: reset, %d instructions", emu.Program.Len())
	}
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	line := emu.Program.Debug(emu.Machine.Pc)
	if line == nil {
		return 0
	}

	return line.LineNo
}

// Instruction returns the current instruction.
func (emu *Emulator) Instruction() (in cpu.Instruction, ok bool) {
	return emu.Machine.Fetch(emu.Machine.Pc)
}

func (emu *Emulator) runtime(err error) error {
	return &ErrRuntime{LineNo: emu.LineNo(), Pc: emu.Machine.Pc, Err: err}
}

// Tick performs a single forward step of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Machine.Verbose = emu.Verbose

	_, err = emu.Machine.StepForward()
	switch {
	case err == nil:
		done = emu.Machine.Status == cpu.STATUS_HALTED
	case errors.Is(err, cpu.ErrHalted), errors.Is(err, cpu.ErrOutOfRange):
		err = nil
		done = true
	default:
		err = emu.runtime(err)
	}

	return
}

// Back performs a single backward step of the emulator.
func (emu *Emulator) Back() (err error) {
	emu.Machine.Verbose = emu.Verbose

	_, err = emu.Machine.StepBackward()
	if err != nil {
		err = emu.runtime(err)
	}

	return
}

// Run steps forward until done, an error, or 'budget' steps.
// A budget <= 0 is unlimited.
func (emu *Emulator) Run(budget int) (result Result, err error) {
	emu.Machine.Verbose = emu.Verbose

	steps, stop, err := emu.Machine.Run(budget)
	if err != nil {
		err = emu.runtime(err)
	}

	result = Result{
		Steps:     steps,
		Stop:      stop,
		Registers: emu.Machine.Register,
		Energy:    emu.Machine.Energy,
		Metrics:   emu.Machine.Metrics.Snapshot(),
		History:   emu.Machine.History.Stats(),
		Timeline:  emu.Machine.History.Timeline(),
	}

	return
}
