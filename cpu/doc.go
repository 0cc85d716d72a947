// Package cpu implements the reversible machine and its assembler.
//
// The machine has 32 signed 64-bit registers (r0-r31, none hardwired), a
// sparse word memory, and a program counter indexing a decoded instruction
// sequence. Reversible instructions (rxor, radd, rswap, rxchg) and branches
// (beq) push a minimal entry onto a history log as they execute, which lets
// the machine step backward by algebraic inversion instead of replaying a
// saved trace. Irreversible instructions (add, sub, load, store, halt) push
// nothing and can never be undone.
//
// Energy and metrics describe the work done moving forward. Stepping
// backward never decrements them.
//
// The assembler turns a line-oriented assembly text, with labels, equates and
// $(...) compile-time expressions, into a Program for the machine.
package cpu
