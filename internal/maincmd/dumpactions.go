package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
)

func (c *Cmd) DumpActions(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DumpActionsFiles(ctx, stdio, args...)
}

// DumpActionsFiles loads each file as an action-table source and prints
// one debug line per declared action, in table order, via Action.Dump.
func DumpActionsFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		fh, err := os.Open(f)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		tbl, err := actiontable.Load(fh)
		fh.Close()
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprint(stdio.Stdout, actiontable.Dump(tbl))
	}
	return firstErr
}
