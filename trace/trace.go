// Package trace stores a machine's history log in a compact file, so a
// run's undo information can be inspected or replayed offline.
//
// A trace file is a packed Header followed by a snappy-compressed stream of
// packed Records, oldest entry first.
package trace

import (
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/ezrec/revsim/cpu"
)

var TRACE_MAGIC = "RVHT"

const (
	TRACE_VERSION = 1
	NAME_LEN      = 32 // Bytes reserved for the program name.
)

// Record kinds.
const (
	KIND_DATA   = 0
	KIND_BRANCH = 1
)

type Header struct {
	// MAGIC ("RVHT")
	Magic string `struc:"[4]byte"`
	// file format version
	Version uint32

	Registers uint8 // Size of the register file.
	PcBits    uint8 // Width of a history program counter.

	// Program name. Right-null-padded.
	Program string `struc:"[32]byte"`
}

// Record is the packed form of a history entry.
type Record struct {
	Kind       uint8
	Op         uint8
	Rd         uint8
	Rs1        uint8
	Taken      bool
	HasCapture bool
	Pc         uint32
	Captured   int64
}

// FromEntry packs a history entry.
func FromEntry(entry cpu.Entry) (rec Record, err error) {
	switch e := entry.(type) {
	case cpu.DataEntry:
		rec = Record{
			Kind:       KIND_DATA,
			Op:         uint8(e.Op),
			Rd:         uint8(e.Rd),
			Rs1:        uint8(e.Rs1),
			HasCapture: e.HasCapture,
			Pc:         uint32(e.Pc),
			Captured:   e.Captured,
		}
	case cpu.BranchEntry:
		rec = Record{
			Kind:  KIND_BRANCH,
			Op:    uint8(cpu.OP_BEQ),
			Taken: e.Taken,
			Pc:    uint32(e.Pc),
		}
	default:
		err = errors.Errorf("unknown history entry %T", entry)
	}

	return
}

// Entry unpacks a history entry.
func (rec Record) Entry() (entry cpu.Entry, err error) {
	switch rec.Kind {
	case KIND_DATA:
		op := cpu.Opcode(rec.Op)
		if !op.Reversible() || op.Control() {
			err = errors.Errorf("opcode %d cannot be undone", rec.Op)
			return
		}
		in := cpu.Instruction{Op: op, Rd: int(rec.Rd), Rs1: int(rec.Rs1)}
		if err = in.Decode(0); err != nil {
			err = errors.Wrapf(err, "record %v r%d r%d", op, rec.Rd, rec.Rs1)
			return
		}
		entry = cpu.DataEntry{
			Pc:         int(rec.Pc),
			Op:         op,
			Rd:         int(rec.Rd),
			Rs1:        int(rec.Rs1),
			Captured:   rec.Captured,
			HasCapture: rec.HasCapture,
		}
	case KIND_BRANCH:
		entry = cpu.BranchEntry{
			Pc:    int(rec.Pc),
			Taken: rec.Taken,
		}
	default:
		err = errors.Errorf("unknown record kind: %d", rec.Kind)
	}

	return
}

type Writer struct {
	w  io.Writer
	zw *snappy.Writer

	Header Header
	Count  int // Records written.
}

// NewWriter writes a trace header for 'program' and returns a writer for
// its records.
func NewWriter(w io.Writer, program string) (*Writer, error) {
	if len(program) > NAME_LEN {
		program = program[:NAME_LEN]
	}
	header := Header{
		Magic:     TRACE_MAGIC,
		Version:   TRACE_VERSION,
		Registers: cpu.NUM_REGISTERS,
		PcBits:    cpu.PC_BITS,
		Program:   program,
	}
	if err := struc.Pack(w, &header); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	zw := snappy.NewBufferedWriter(w)
	return &Writer{w: w, zw: zw, Header: header}, nil
}

// Write a single history entry.
func (t *Writer) Write(entry cpu.Entry) error {
	rec, err := FromEntry(entry)
	if err != nil {
		return err
	}
	if err := struc.Pack(t.zw, &rec); err != nil {
		return errors.Wrap(err, "failed to pack record")
	}
	t.Count++
	return nil
}

// WriteHistory writes every entry held by a history log, oldest first.
func (t *Writer) WriteHistory(h *cpu.History) error {
	for n, entry := range h.Entries() {
		if err := t.Write(entry); err != nil {
			return errors.Wrapf(err, "entry %d", n)
		}
	}
	return nil
}

// Close flushes the compressed stream, and closes the underlying writer if
// it is closable.
func (t *Writer) Close() error {
	if err := t.zw.Close(); err != nil {
		return errors.Wrap(err, "failed to flush trace")
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type Reader struct {
	r  io.Reader
	zr *snappy.Reader

	Header Header
}

// NewReader reads and checks a trace header.
func NewReader(r io.Reader) (*Reader, error) {
	t := &Reader{r: r}
	if err := struc.Unpack(r, &t.Header); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != TRACE_MAGIC {
		return nil, errors.New("invalid trace file magic")
	}
	if t.Header.Version != TRACE_VERSION {
		return nil, errors.Errorf("unsupported trace version %d", t.Header.Version)
	}
	if t.Header.Registers != cpu.NUM_REGISTERS {
		return nil, errors.Errorf("trace has %d registers, machine has %d", t.Header.Registers, cpu.NUM_REGISTERS)
	}
	t.Header.Program = strings.TrimRight(t.Header.Program, "\x00")
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns the next history entry, or io.EOF.
func (t *Reader) Next() (cpu.Entry, error) {
	var rec Record
	if err := struc.Unpack(t.zr, &rec); err != nil {
		if errors.Cause(err) == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "failed to unpack record")
	}
	return rec.Entry()
}

// ReadAll returns the remaining history entries, oldest first.
func (t *Reader) ReadAll() (entries []cpu.Entry, err error) {
	for {
		var entry cpu.Entry
		entry, err = t.Next()
		if err == io.EOF {
			err = nil
			return
		}
		if err != nil {
			return
		}
		entries = append(entries, entry)
	}
}

// Restore pushes the remaining entries onto a history log, so that a
// machine in the traced end state can step backward through them.
func (t *Reader) Restore(h *cpu.History) error {
	entries, err := t.ReadAll()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		h.Push(entry)
	}
	return nil
}
