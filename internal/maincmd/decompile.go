package maincmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mna/mainer"
	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/pipeline"
)

func (c *Cmd) Decompile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	cfg, actionsPath, files, err := c.resolveBatch(args)
	if err != nil {
		return printError(stdio, err)
	}
	actions, err := loadActionsFile(actionsPath)
	if err != nil {
		return printError(stdio, err)
	}
	return DecompileFiles(ctx, stdio, actions, cfg, files...)
}

// DecompileFiles runs the Pipeline Driver over every file in files, one
// goroutine per file: lang/pipeline.Decompile is a pure function of its
// inputs (spec's concurrency model), so a batch of independent files has
// no cross-file dependency to serialize on. Results print to stdout in
// file order once every goroutine has finished, keeping output
// deterministic regardless of which file happens to finish first.
func DecompileFiles(ctx context.Context, stdio mainer.Stdio, actions *actiontable.ActionTable, cfg pipeline.Config, files ...string) error {
	type outcome struct {
		nss string
		err error
	}
	outcomes := make([]outcome, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f string) {
			defer wg.Done()
			b, err := os.ReadFile(f)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			res, err := pipeline.Decompile(ctx, b, actions, cfg)
			if err != nil {
				outcomes[i] = outcome{err: fmt.Errorf("%s: %w", f, err)}
				return
			}
			outcomes[i] = outcome{nss: res.NSS}
		}(i, f)
	}
	wg.Wait()

	var firstErr error
	for i, o := range outcomes {
		if o.err != nil {
			fmt.Fprintln(stdio.Stderr, o.err)
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		fmt.Fprintf(stdio.Stdout, "// %s\n%s", files[i], o.nss)
	}
	return firstErr
}
