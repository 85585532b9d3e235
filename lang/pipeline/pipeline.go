// Package pipeline implements the Pipeline Driver (spec §4.10): it composes
// the Bytecode Reader, Structural Linker, Call-Graph Builder, Prototype
// Engine, Stack Simulator, Control-Flow Structurer, and Emitter into one
// ordered pass over a single compiled script. This is the direct analog of
// the teacher's lang/compiler/compiler.go CompileFiles driver (and of
// internal/maincmd's per-command orchestration), generalized from "compile N
// files independently" to "run N ordered stages over one file".
package pipeline

import (
	"bytes"
	"context"
	"errors"

	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/ast"
	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/callgraph"
	cfgstruct "github.com/nwscript-tools/ncsdecomp/lang/cfg"
	"github.com/nwscript-tools/ncsdecomp/lang/diag"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
	"github.com/nwscript-tools/ncsdecomp/lang/machine"
	"github.com/nwscript-tools/ncsdecomp/lang/prototype"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

const stageName = "pipeline"

// Diagnostic and Severity re-export lang/diag's shape (see lang/diag's own
// package doc: every stage returns its own diagnostics to avoid an import
// cycle, and pipeline is where they are re-exported under one name for
// callers — internal/maincmd among them — that never need to import
// lang/diag directly).
type Diagnostic = diag.Diagnostic
type Severity = diag.Severity

const (
	Warning = diag.Warning
	Fatal   = diag.Fatal
)

// Cancelled is returned by Decompile when ctx is done before the run
// finishes; per spec §5, a cancelled run never returns partial output.
var Cancelled = errors.New("pipeline: cancelled")

// Config controls optional behavior of one Decompile run (spec §4.10).
type Config struct {
	// StrictSignatures rejects emitting a parameter or return type that is
	// still types.Any once the Prototype Engine's fixed point has
	// converged, instead of widening silently (spec §9, Open Question (a)).
	StrictSignatures bool
	// GameProfile names the action-table dialect in effect (e.g. "nwn",
	// "kotor", "kotor2"). Decompile does not read it: it neither selects
	// the table nor appears in diagnostics; the table content itself is
	// supplied by the caller via actions.
	GameProfile string
	// MaxIterations bounds the Prototype Engine's per-SCC fixed-point loop
	// (spec §4.6); zero uses lang/prototype's own default.
	MaxIterations int
	// PruneDead omits subroutines unreachable from the script's entry point
	// from the emitted output (lang/linker's Dead() simplification note;
	// superseded here by the call graph's own reachability set).
	PruneDead bool
}

// Result is one Decompile run's output: the emitted NSS source plus every
// diagnostic raised by any stage, fatal or not (spec §4.10).
type Result struct {
	NSS         string
	Diagnostics []Diagnostic
}

// Decompile runs spec §4.1 through §4.9, in order, over ncs. It
// short-circuits with no Result on the first fatal diagnostic any stage
// raises (or on any hard error, e.g. a malformed action-table reference),
// and honors ctx between stages and between each strongly-connected
// component processed by the Stack Simulator (spec §5).
func Decompile(ctx context.Context, ncs []byte, actions *actiontable.ActionTable, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, Cancelled
	}

	insns, err := (bytecode.Reader{}).Read(ctx, ncs)
	if err != nil {
		return nil, err
	}

	var entry uint32
	if len(insns) > 0 {
		entry = insns[0].Offset
	}
	prog, err := linker.Link(insns, entry)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, Cancelled
	}

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)

	var diags []Diagnostic

	sigs, pdiags := prototype.Infer(prog, cg, sccs, actions, cfg.MaxIterations)
	diags = append(diags, pdiags...)
	if d, ok := firstFatal(pdiags); ok {
		return nil, errors.New(d.String())
	}
	if cfg.StrictSignatures {
		diags = append(diags, strictCheck(sigs)...)
		if d, ok := firstFatal(diags); ok {
			return nil, errors.New(d.String())
		}
	}

	results := make(map[uint32]*machine.Result, len(prog.Subroutines))
	for _, scc := range sccs {
		if err := ctx.Err(); err != nil {
			return nil, Cancelled
		}
		for _, e := range scc {
			sub := prog.Subroutines[e]
			if sub == nil {
				continue
			}
			res, mdiags := machine.Simulate(sub, sigs, actions)
			diags = append(diags, mdiags...)
			if d, ok := firstFatal(mdiags); ok {
				return nil, errors.New(d.String())
			}
			results[e] = res
		}
	}

	var reachable map[uint32]bool
	if cfg.PruneDead {
		reachable = cg.ReachableFrom(prog.Entry)
	}

	// Structure and emit in the same leaves-first SCC order the Stack
	// Simulator ran in (see ast.Program).
	var entries []uint32
	for _, scc := range sccs {
		entries = append(entries, scc...)
	}

	program := &ast.Program{}
	for _, e := range entries {
		if cfg.PruneDead && !reachable[e] {
			continue
		}
		res := results[e]
		if res == nil {
			continue
		}
		body, cdiags := cfgstruct.Structure(res)
		diags = append(diags, cdiags...)
		if d, ok := firstFatal(cdiags); ok {
			return nil, errors.New(d.String())
		}
		res.Func.Body = body
		program.Funcs = append(program.Funcs, res.Func)
	}

	var buf bytes.Buffer
	if err := ast.NewEmitter(&buf).Emit(program); err != nil {
		return nil, err
	}

	return &Result{NSS: buf.String(), Diagnostics: diags}, nil
}

func firstFatal(ds []Diagnostic) (Diagnostic, bool) {
	for _, d := range ds {
		if d.Severity == Fatal {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// strictCheck implements the strict half of spec §9's Open Question (a):
// under StrictSignatures, any subroutine whose converged signature still
// carries types.Any is a Fatal, not a silently widened emission.
func strictCheck(sigs map[uint32]*prototype.Signature) []Diagnostic {
	var diags []Diagnostic
	for e, sig := range sigs {
		if sig.ReturnType.Kind == types.Any {
			diags = append(diags, diag.Fatalf(stageName, e, "strict mode: %s return type did not converge", ast.FuncName(e)))
			continue
		}
		for i, p := range sig.ParamTypes {
			if p.Kind == types.Any {
				diags = append(diags, diag.Fatalf(stageName, e, "strict mode: %s parameter %d did not converge", ast.FuncName(e), i))
			}
		}
	}
	return diags
}
