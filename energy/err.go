package energy

import (
	"errors"

	"github.com/ezrec/revsim/translate"
)

var f = translate.From

var (
	ErrCostNegative = errors.New(f("cost negative"))
	ErrCostOrder    = errors.New(f("irreversible cost must exceed every reversible cost"))
)

type ErrOpcodeUnknown string

func (err ErrOpcodeUnknown) Error() string {
	return f("opcode %v unknown", string(err))
}

type ErrKeyUnknown string

func (err ErrKeyUnknown) Error() string {
	return f("cost table key %v unknown", string(err))
}
