package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/nwscript-tools/ncsdecomp/internal/filetest"
	"github.com/nwscript-tools/ncsdecomp/internal/maincmd"
)

var testUpdateDumpActionsTests = flag.Bool("test.update-dumpactions-tests", false, "If set, replace expected dump-actions test results with actual results.")

func TestDumpActions(t *testing.T) {
	ctx := context.Background()
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".act") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{
				Stdout: &buf,
				Stderr: &ebuf,
			}

			_ = maincmd.DumpActionsFiles(ctx, stdio, filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateDumpActionsTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateDumpActionsTests)
		})
	}
}
