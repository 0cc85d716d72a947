// Package energy assigns a cost to each dispatched opcode.
//
// A Model is immutable once built, and may be shared by any number of
// machines. Every irreversible opcode costs strictly more than every
// reversible one; the constructors refuse tables that break that order.
package energy

import (
	"errors"
	"io"
	"math"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/revsim/cpu"
)

const (
	REVERSIBLE_COST   = 0.1 // Default cost of a reversible opcode.
	IRREVERSIBLE_COST = 1.0 // Default cost of an irreversible opcode.
)

// Model is a per-opcode cost table.
type Model struct {
	costs [cpu.OPCODE_COUNT]float64
}

var _ cpu.EnergyModel = (*Model)(nil)

// Table is the file form of a Model. Opcode entries override the flat
// class costs.
type Table struct {
	Reversible   float64            `toml:"reversible"`
	Irreversible float64            `toml:"irreversible"`
	Opcode       map[string]float64 `toml:"opcode,omitempty"`
}

// New creates a model with one cost for each class of opcode.
func New(reversible, irreversible float64) (model *Model, err error) {
	return FromTable(Table{Reversible: reversible, Irreversible: irreversible})
}

// Default returns the model with the default class costs.
func Default() (model *Model) {
	model, err := New(REVERSIBLE_COST, IRREVERSIBLE_COST)
	if err != nil {
		panic(err)
	}

	return
}

// FromTable creates a model from a cost table.
func FromTable(table Table) (model *Model, err error) {
	model = &Model{}

	for n := range cpu.OPCODE_COUNT {
		op := cpu.Opcode(n)
		if op.Reversible() {
			model.costs[n] = table.Reversible
		} else {
			model.costs[n] = table.Irreversible
		}
	}

	for name, cost := range table.Opcode {
		op, ok := cpu.ParseOpcode(name)
		if !ok {
			model = nil
			err = ErrOpcodeUnknown(name)
			return
		}
		model.costs[op] = cost
	}

	err = model.Validate()
	if err != nil {
		model = nil
		return
	}

	return
}

// Decode reads a model from a TOML cost table. Unset class costs take
// their defaults.
func Decode(r io.Reader) (model *Model, err error) {
	table := Table{
		Reversible:   REVERSIBLE_COST,
		Irreversible: IRREVERSIBLE_COST,
	}

	meta, err := toml.NewDecoder(r).Decode(&table)
	if err != nil {
		return
	}

	for _, key := range meta.Undecoded() {
		err = errors.Join(err, ErrKeyUnknown(key.String()))
	}
	if err != nil {
		return
	}

	return FromTable(table)
}

// Cost returns the cost of an opcode. Invalid opcodes cost nothing.
func (model *Model) Cost(op cpu.Opcode) float64 {
	if !op.Valid() {
		return 0
	}

	return model.costs[op]
}

// Validate checks the cost ordering.
func (model *Model) Validate() (err error) {
	maxReversible := math.Inf(-1)
	minIrreversible := math.Inf(1)

	for n, cost := range model.costs {
		op := cpu.Opcode(n)
		if cost < 0 || math.IsNaN(cost) {
			err = ErrCostNegative
			return
		}
		if op.Reversible() {
			maxReversible = max(maxReversible, cost)
		} else {
			minIrreversible = min(minIrreversible, cost)
		}
	}

	if minIrreversible <= maxReversible {
		err = ErrCostOrder
		return
	}

	return
}

// Table returns the file form of the model, with every opcode listed.
func (model *Model) Table() (table Table) {
	table.Irreversible = math.Inf(1)
	table.Opcode = make(map[string]float64, cpu.OPCODE_COUNT)
	for n, cost := range model.costs {
		op := cpu.Opcode(n)
		table.Opcode[op.String()] = cost
		if op.Reversible() {
			table.Reversible = max(table.Reversible, cost)
		} else {
			table.Irreversible = min(table.Irreversible, cost)
		}
	}

	return
}

// Encode writes the model as a TOML cost table.
func (model *Model) Encode(w io.Writer) (err error) {
	err = toml.NewEncoder(w).Encode(model.Table())
	return
}
