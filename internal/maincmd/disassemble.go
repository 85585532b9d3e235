package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
)

func (c *Cmd) Disassemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisassembleFiles(ctx, stdio, args...)
}

// DisassembleFiles decodes each file with the Bytecode Reader and prints
// its flat instruction listing, one line per Instruction, in program
// order; unlike Decompile it never loads an action table, so ACTION
// operands print their raw index rather than a resolved name.
func DisassembleFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		insns, err := (bytecode.Reader{}).Read(ctx, b)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, in := range insns {
			fmt.Fprintln(stdio.Stdout, bytecode.Format(in))
		}
	}
	return firstErr
}
