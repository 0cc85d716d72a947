package emulator

import (
	"errors"

	"github.com/ezrec/revsim/translate"
)

var f = translate.From

var (
	ErrWatchRegister = errors.New(f("watchpoint register invalid"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Pc     int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d (pc %d) %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
