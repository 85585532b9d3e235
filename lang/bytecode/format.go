package bytecode

import "fmt"

// Format renders one decoded instruction as a disassembly line: its
// absolute offset followed by its String() form. This is the flat listing
// shape internal/maincmd's disassemble command prints, one line per
// Instruction, in program order.
func Format(in *Instruction) string {
	return fmt.Sprintf("%06x: %s", in.Offset, in)
}
