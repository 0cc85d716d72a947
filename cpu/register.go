package cpu

import (
	"fmt"
	"strings"
)

const (
	NUM_REGISTERS = 32 // Size of the register file.
)

// RegisterFile is the machine's bank of signed registers. No register is
// hardwired; r0 holds whatever was last written to it.
type RegisterFile [NUM_REGISTERS]int64

// Reset zeros all registers.
func (rf *RegisterFile) Reset() {
	clear(rf[:])
}

// String returns the registers, four to a line.
func (rf *RegisterFile) String() (text string) {
	var sb strings.Builder
	for n, val := range rf {
		fmt.Fprintf(&sb, "% 4s: %-20d", fmt.Sprintf("r%d", n), val)
		if n%4 == 3 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}

	text = sb.String()
	return
}
