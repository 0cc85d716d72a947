// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"iter"
	"log"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ezrec/revsim/cpu"
	"github.com/ezrec/revsim/emulator"
	"github.com/ezrec/revsim/energy"
	"github.com/ezrec/revsim/report"
	"github.com/ezrec/revsim/trace"
)

// options are the command line settings shared by every program run.
type options struct {
	budget   int
	verbose  bool
	costs    *energy.Model
	defines  map[string]string
	history  bool
	timeline int
	fifos    []int
	trace    string
	back     int
}

func parseFifos(text string) (fifos []int, err error) {
	for _, word := range strings.Split(text, ",") {
		word = strings.TrimSpace(word)
		if len(word) == 0 {
			continue
		}
		var depth int
		depth, err = strconv.Atoi(word)
		if err != nil {
			return
		}
		fifos = append(fifos, depth)
	}

	return
}

func parseDefine(defines map[string]string, text string) (err error) {
	name, value, ok := strings.Cut(text, "=")
	if !ok || len(name) == 0 {
		err = fmt.Errorf("-D %v: expected NAME=VALUE", text)
		return
	}

	defines[name] = value
	return
}

// run assembles and runs one program, printing its results.
func run(path string, opts *options) (result emulator.Result, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	emu := emulator.NewEmulator()
	emu.Verbose = opts.verbose
	emu.SetCosts(opts.costs)

	var defines []iter.Seq2[string, string]
	if len(opts.defines) > 0 {
		defines = append(defines, maps.All(opts.defines))
	}

	err = emu.Assemble(inf, defines...)
	if err != nil {
		return
	}

	emu.Machine.History.TrackDepth = opts.timeline > 0

	result, err = emu.Run(opts.budget)
	if err != nil {
		return
	}

	fmt.Printf("%v: %v after %d steps, energy %.2f\n", path, result.Stop, result.Steps, result.Energy)
	report.Registers(os.Stdout, &result.Registers, 1, 2, 3)
	fmt.Printf("metrics: %v\n", result.Metrics)

	if opts.verbose {
		report.Metrics(os.Stdout, result.Metrics)
	}

	if opts.history {
		report.History(os.Stdout, result.History, opts.fifos...)
	}

	if opts.timeline > 0 {
		report.Timeline(os.Stdout, result.Timeline, opts.timeline)
	}

	if len(opts.trace) != 0 {
		err = writeTrace(opts.trace, path, &emu.Machine.History)
		if err != nil {
			return
		}
	}

	for n := range opts.back {
		entry, ok := emu.Machine.History.Peek()
		if !ok {
			fmt.Printf("back %d: history empty\n", n+1)
			break
		}
		err = emu.Back()
		if err != nil {
			return
		}
		fmt.Printf("back %d: undo %v (line %d)\n", n+1, entry, emu.LineNo())
	}
	if opts.back > 0 {
		report.Registers(os.Stdout, &emu.Machine.Register, 1, 2, 3)
	}

	return
}

func writeTrace(out string, program string, history *cpu.History) (err error) {
	ouf, err := os.Create(out)
	if err != nil {
		return
	}

	w, err := trace.NewWriter(ouf, filepath.Base(program))
	if err != nil {
		ouf.Close()
		return
	}

	err = w.WriteHistory(history)
	if err != nil {
		w.Close()
		return
	}

	err = w.Close()
	return
}

func main() {
	var opts options
	var costs string
	var fifos string

	opts.defines = map[string]string{}

	flag.IntVar(&opts.budget, "n", emulator.BUDGET_DEFAULT, "Forward step budget (<= 0 is unlimited)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose mode")
	flag.StringVar(&costs, "energy", "", ".toml energy cost table")
	flag.Func("D", "Predefine NAME=VALUE (repeatable)", func(text string) error {
		return parseDefine(opts.defines, text)
	})
	flag.BoolVar(&opts.history, "history", false, "Print the history buffer report")
	flag.IntVar(&opts.timeline, "timeline", 0, "Print the history depth timeline in N rows")
	flag.StringVar(&fifos, "fifo", "64,256", "History FIFO depths to check")
	flag.StringVar(&opts.trace, "trace", "", "Write the final history to a trace file")
	flag.IntVar(&opts.back, "back", 0, "Step backward N times after the run")

	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("%v: no programs given", os.Args[0])
	}

	if len(opts.trace) != 0 && flag.NArg() > 1 {
		log.Fatalf("%v: -trace needs a single program", os.Args[0])
	}

	var err error
	opts.fifos, err = parseFifos(fifos)
	if err != nil {
		log.Fatalf("-fifo %v: %v", fifos, err)
	}

	opts.costs = energy.Default()
	if len(costs) != 0 {
		inf, err := os.Open(costs)
		if err != nil {
			log.Fatalf("%v: %v", costs, err)
		}
		opts.costs, err = energy.Decode(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", costs, err)
		}
	}

	var analyzer report.Analyzer
	for _, path := range flag.Args() {
		result, err := run(path, &opts)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
		analyzer.Record(filepath.Base(path), result.History, result.Metrics)
	}

	if flag.NArg() > 1 {
		err = analyzer.Compare(os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
	}
}
