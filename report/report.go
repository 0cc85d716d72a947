// Package report renders execution results as text tables: history buffer
// sizing, dispatch metrics, registers, and comparisons across programs.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ezrec/revsim/cpu"
	"github.com/ezrec/revsim/internal"
	"github.com/ezrec/revsim/translate"
)

var f = translate.From
var num = translate.Number

// FIFO_DEPTHS are the history FIFO sizes reported when none are given.
var FIFO_DEPTHS = []int{64, 256}

func newTable(w io.Writer, header ...string) (table *tablewriter.Table) {
	table = tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	return
}

// fit reports if a peak depth fits a FIFO.
func fit(stats cpu.HistoryStats, depth int) string {
	if stats.Fits(depth) {
		return f("OK")
	}
	return f("OVERFLOW")
}

// History writes the buffer sizing figures of a history log, and whether
// its peak fits each of 'fifos' (FIFO_DEPTHS if none).
func History(w io.Writer, stats cpu.HistoryStats, fifos ...int) {
	if len(fifos) == 0 {
		fifos = FIFO_DEPTHS
	}

	avg := 0.0
	if stats.TotalEntries > 0 {
		avg = float64(stats.TotalBits) / float64(stats.TotalEntries)
	}

	table := newTable(w, f("Measure"), f("Value"))
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Append([]string{f("Max depth"), f("%v entries", num(stats.PeakDepth))})
	table.Append([]string{f("Max bits"), f("%v bits (%.1f bytes)", num(stats.PeakBits), float64(stats.PeakBits)/8)})
	table.Append([]string{f("Total entries"), num(stats.TotalEntries)})
	table.Append([]string{f("Total bits"), f("%v bits (%.1f bytes)", num(stats.TotalBits), float64(stats.TotalBits)/8)})
	table.Append([]string{f("Avg bits/entry"), f("%.1f", avg)})
	table.Append([]string{f("Data entries"), f("%v entries, %v bits", num(stats.DataEntries), num(stats.DataBits))})
	table.Append([]string{f("Branch entries"), f("%v entries, %v bits", num(stats.BranchEntries), num(stats.BranchBits))})
	table.Append([]string{f("SRAM"), f("~%.2f KB", float64(stats.PeakBits)/8/1024)})
	for _, depth := range fifos {
		table.Append([]string{f("%d-deep FIFO", depth), fit(stats, depth)})
	}
	table.Render()
}

// TIMELINE_WIDTH is the widest bar drawn by Timeline.
const TIMELINE_WIDTH = 40

// Timeline writes history depth over time, as at most 'rows' evenly spaced
// samples (all samples if rows <= 0). The last sample is always shown.
func Timeline(w io.Writer, samples []cpu.DepthSample, rows int) {
	if len(samples) == 0 {
		io.WriteString(w, f("No depth samples recorded.")+"\n")
		return
	}

	if rows > 0 && len(samples) > rows {
		picked := make([]cpu.DepthSample, 0, rows)
		if rows == 1 {
			picked = append(picked, samples[len(samples)-1])
		} else {
			for n := range rows {
				picked = append(picked, samples[n*(len(samples)-1)/(rows-1)])
			}
		}
		samples = picked
	}

	peak := 0
	for _, sample := range samples {
		peak = max(peak, sample.Depth)
	}

	table := newTable(w, f("Step"), f("Depth"), "")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, sample := range samples {
		bar := 0
		if peak > 0 {
			bar = sample.Depth * TIMELINE_WIDTH / peak
		}
		table.Append([]string{num(sample.Step), num(sample.Depth), strings.Repeat("#", bar)})
	}
	table.Render()
}

// Metrics writes the per-opcode dispatch counts.
func Metrics(w io.Writer, ms cpu.MetricsSnapshot) {
	table := newTable(w, f("Opcode"), f("Class"), f("Count"))
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for name, count := range internal.Sorted2(ms.PerOpcode) {
		class := f("irreversible")
		op, ok := cpu.ParseOpcode(name)
		if ok && op.Reversible() {
			class = f("reversible")
		}
		table.Append([]string{name, class, num(count)})
	}
	table.SetFooter([]string{"", f("ratio %.2f", ms.Ratio), num(ms.Reversible + ms.Irreversible)})
	table.Render()
}

// Registers writes the non-zero registers, and those in 'always' even
// when zero.
func Registers(w io.Writer, rf *cpu.RegisterFile, always ...int) {
	table := newTable(w, f("Register"), f("Value"))
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for reg, value := range rf {
		if value == 0 && !slices.Contains(always, reg) {
			continue
		}
		table.Append([]string{fmt.Sprintf("r%d", reg), fmt.Sprintf("%d", value)})
	}
	table.Render()
}
