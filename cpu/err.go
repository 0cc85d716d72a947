package cpu

import (
	"errors"

	"github.com/ezrec/revsim/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrHalted          = errors.New(f("machine halted"))
	ErrOutOfRange      = errors.New(f("pc out of range"))
	ErrEmptyHistory    = errors.New(f("history empty"))
	ErrUndoUnsupported = errors.New(f("irreversible instructions cannot be undone"))

	// Instruction decode errors
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrTargetInvalid   = errors.New(f("target invalid"))
	ErrOperandAlias    = errors.New(f("destination aliases source"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
)

// ErrDecode is a malformed instruction found at dispatch.
type ErrDecode struct {
	Pc          int
	Instruction Instruction
	Err         error
}

func (err ErrDecode) Error() string {
	return f("%03d: bad instruction '%v' %v", err.Pc, err.Instruction, err.Err)
}

func (err ErrDecode) Unwrap() error {
	return err.Err
}

// Is matches any ErrDecode.
func (err ErrDecode) Is(target error) (ok bool) {
	_, ok = target.(ErrDecode)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
