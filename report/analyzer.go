package report

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/ezrec/revsim/cpu"
)

// Run is the history sizing of one program execution.
type Run struct {
	Name         string
	History      cpu.HistoryStats
	Ratio        float64 // Reversible fraction of dispatched instructions.
	Instructions int     // Dispatched instructions.
}

// BitsPerInstruction is the peak history storage per dispatched instruction.
func (run Run) BitsPerInstruction() float64 {
	if run.Instructions == 0 {
		return 0
	}

	return float64(run.History.PeakBits) / float64(run.Instructions)
}

// Analyzer compares history buffer needs across programs.
type Analyzer struct {
	Runs []Run
}

// Record adds the results of one program run.
func (a *Analyzer) Record(name string, stats cpu.HistoryStats, ms cpu.MetricsSnapshot) {
	a.Runs = append(a.Runs, Run{
		Name:         name,
		History:      stats,
		Ratio:        ms.Ratio,
		Instructions: ms.Reversible + ms.Irreversible,
	})
}

// Compare writes a table of all recorded runs, in the order recorded.
func (a *Analyzer) Compare(w io.Writer) (err error) {
	if len(a.Runs) == 0 {
		_, err = io.WriteString(w, f("No runs recorded.")+"\n")
		return
	}

	table := newTable(w, f("Program"), f("MaxDepth"), f("MaxBits"), f("Rev%"), f("Bits/Instr"))
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})
	for _, run := range a.Runs {
		table.Append([]string{
			run.Name,
			num(run.History.PeakDepth),
			num(run.History.PeakBits),
			f("%.0f%%", run.Ratio*100),
			f("%.1f", run.BitsPerInstruction()),
		})
	}
	table.Render()

	return
}
