package cpu

import (
	"fmt"
	"strings"
)

// Opcode is an instruction operation.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_RXOR  = Opcode(0) // rxor
	OP_RADD  = Opcode(1) // radd
	OP_RSWAP = Opcode(2) // rswap
	OP_RXCHG = Opcode(3) // rxchg
	OP_BEQ   = Opcode(4) // beq
	OP_ADD   = Opcode(5) // add
	OP_SUB   = Opcode(6) // sub
	OP_LOAD  = Opcode(7) // load
	OP_STORE = Opcode(8) // store
	OP_HALT  = Opcode(9) // halt
)

const (
	OPCODE_COUNT = 10 // Number of defined opcodes.
)

// Reversible returns true if the opcode is undone by algebraic inversion.
// Branches count as reversible; they record their outcome instead.
func (op Opcode) Reversible() bool {
	switch op {
	case OP_RXOR, OP_RADD, OP_RSWAP, OP_RXCHG, OP_BEQ:
		return true
	}
	return false
}

// Control returns true if the opcode may redirect the program counter.
func (op Opcode) Control() bool {
	return op == OP_BEQ
}

// Valid returns true for a defined opcode.
func (op Opcode) Valid() bool {
	return op >= 0 && op < OPCODE_COUNT
}

// ParseOpcode finds an opcode by its mnemonic, ignoring case.
func ParseOpcode(name string) (op Opcode, ok bool) {
	name = strings.ToLower(name)
	for n := range OPCODE_COUNT {
		op = Opcode(n)
		if op.String() == name {
			ok = true
			return
		}
	}

	op = -1
	return
}

// Instruction is a decoded instruction. Operands not used by the opcode are
// ignored.
type Instruction struct {
	Op        Opcode
	Rd        int   // Destination register.
	Rs1       int   // First source register.
	Rs2       int   // Second source register.
	Imm       int64 // Immediate value or address offset.
	Immediate bool  // add/sub use Imm in place of Rs2.
	Target    int   // beq destination, as an absolute instruction index.
}

// MakeRxor creates 'rd ^= rs1'.
func MakeRxor(rd, rs1 int) Instruction {
	return Instruction{Op: OP_RXOR, Rd: rd, Rs1: rs1}
}

// MakeRadd creates 'rd += rs1'.
func MakeRadd(rd, rs1 int) Instruction {
	return Instruction{Op: OP_RADD, Rd: rd, Rs1: rs1}
}

// MakeRswap creates 'rd <-> rs1'.
func MakeRswap(rd, rs1 int) Instruction {
	return Instruction{Op: OP_RSWAP, Rd: rd, Rs1: rs1}
}

// MakeRxchg creates 'rd <-> mem[rs1+imm]'.
func MakeRxchg(rd, rs1 int, imm int64) Instruction {
	return Instruction{Op: OP_RXCHG, Rd: rd, Rs1: rs1, Imm: imm}
}

// MakeBeq creates 'if rs1 == rs2 { pc = target }'.
func MakeBeq(rs1, rs2 int, target int) Instruction {
	return Instruction{Op: OP_BEQ, Rs1: rs1, Rs2: rs2, Target: target}
}

// MakeAdd creates 'rd = rs1 + rs2'.
func MakeAdd(rd, rs1, rs2 int) Instruction {
	return Instruction{Op: OP_ADD, Rd: rd, Rs1: rs1, Rs2: rs2}
}

// MakeAddImm creates 'rd = rs1 + imm'.
func MakeAddImm(rd, rs1 int, imm int64) Instruction {
	return Instruction{Op: OP_ADD, Rd: rd, Rs1: rs1, Imm: imm, Immediate: true}
}

// MakeSub creates 'rd = rs1 - rs2'.
func MakeSub(rd, rs1, rs2 int) Instruction {
	return Instruction{Op: OP_SUB, Rd: rd, Rs1: rs1, Rs2: rs2}
}

// MakeSubImm creates 'rd = rs1 - imm'.
func MakeSubImm(rd, rs1 int, imm int64) Instruction {
	return Instruction{Op: OP_SUB, Rd: rd, Rs1: rs1, Imm: imm, Immediate: true}
}

// MakeLoad creates 'rd = mem[rs1+imm]'.
func MakeLoad(rd, rs1 int, imm int64) Instruction {
	return Instruction{Op: OP_LOAD, Rd: rd, Rs1: rs1, Imm: imm}
}

// MakeStore creates 'mem[rs1+imm] = rs2'.
func MakeStore(rs1, rs2 int, imm int64) Instruction {
	return Instruction{Op: OP_STORE, Rs1: rs1, Rs2: rs2, Imm: imm}
}

// MakeHalt creates 'halt'.
func MakeHalt() Instruction {
	return Instruction{Op: OP_HALT}
}

func validRegister(reg int) bool {
	return reg >= 0 && reg < NUM_REGISTERS
}

// Decode checks the operands of the instruction against the opcode, for a
// program of 'count' instructions.
func (in Instruction) Decode(count int) (err error) {
	var regs []int

	switch in.Op {
	case OP_RXOR, OP_RADD:
		if in.Rd == in.Rs1 {
			// x^x and x+x both lose x.
			err = ErrOperandAlias
			return
		}
		regs = []int{in.Rd, in.Rs1}
	case OP_RSWAP, OP_RXCHG, OP_LOAD:
		regs = []int{in.Rd, in.Rs1}
	case OP_BEQ:
		if in.Target < 0 || in.Target > count {
			err = ErrTargetInvalid
			return
		}
		regs = []int{in.Rs1, in.Rs2}
	case OP_ADD, OP_SUB:
		regs = []int{in.Rd, in.Rs1}
		if !in.Immediate {
			regs = append(regs, in.Rs2)
		}
	case OP_STORE:
		regs = []int{in.Rs1, in.Rs2}
	case OP_HALT:
		// no operands
	default:
		err = ErrOpcodeInvalid
		return
	}

	for _, reg := range regs {
		if !validRegister(reg) {
			err = ErrRegisterInvalid
			return
		}
	}

	return
}

// String returns the assembly language representation of this instruction.
func (in Instruction) String() (out string) {
	switch in.Op {
	case OP_RXOR, OP_RADD, OP_RSWAP:
		out = fmt.Sprintf("%v r%d r%d", in.Op, in.Rd, in.Rs1)
	case OP_RXCHG, OP_LOAD:
		out = fmt.Sprintf("%v r%d r%d %d", in.Op, in.Rd, in.Rs1, in.Imm)
	case OP_BEQ:
		out = fmt.Sprintf("%v r%d r%d @%d", in.Op, in.Rs1, in.Rs2, in.Target)
	case OP_ADD, OP_SUB:
		if in.Immediate {
			out = fmt.Sprintf("%v r%d r%d %d", in.Op, in.Rd, in.Rs1, in.Imm)
		} else {
			out = fmt.Sprintf("%v r%d r%d r%d", in.Op, in.Rd, in.Rs1, in.Rs2)
		}
	case OP_STORE:
		out = fmt.Sprintf("%v r%d r%d %d", in.Op, in.Rs1, in.Rs2, in.Imm)
	default:
		out = in.Op.String()
	}

	return
}
