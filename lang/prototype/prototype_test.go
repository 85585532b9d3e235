package prototype_test

import (
	"strings"
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/callgraph"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
	"github.com/nwscript-tools/ncsdecomp/lang/prototype"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
	"github.com/stretchr/testify/require"
)

func emptyActions(t *testing.T) *actiontable.ActionTable {
	t.Helper()
	tbl, err := actiontable.Load(strings.NewReader(""))
	require.NoError(t, err)
	return tbl
}

// S1 from spec §8: main() with `JSR fn_A; RETN`, `fn_A: RETN`. Boundary
// behavior: an empty subroutine (single RETN) infers void().
func TestInferS1EmptySubroutine(t *testing.T) {
	mainCall := &bytecode.Instruction{Op: bytecode.JSR, Offset: 0, Size: 5}
	mainCall.JumpRel = 5 // target = end(5) + 5 = 10
	mainRetn := &bytecode.Instruction{Op: bytecode.RETN, Offset: 5, Size: 1}
	fnARetn := &bytecode.Instruction{Op: bytecode.RETN, Offset: 10, Size: 1}

	insns := []*bytecode.Instruction{mainCall, mainRetn, fnARetn}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)

	sigs, diags := prototype.Infer(prog, cg, sccs, emptyActions(t), 16)
	for _, d := range diags {
		require.NotEqual(t, "fatal", d.Severity.String(), d.String())
	}

	fnA := sigs[10]
	require.Equal(t, 0, fnA.ParamCount)
	require.True(t, fnA.ReturnType.Equal(types.TVoid))

	main := sigs[0]
	require.True(t, main.ReturnType.Equal(types.TVoid))
}

func cpTopBP(off uint32, stackOff int32) *bytecode.Instruction {
	return &bytecode.Instruction{Op: bytecode.CPTOPBP, Offset: off, StackOff: stackOff, Size1: 4, Size: 9}
}

func constInt(off uint32, v int32) *bytecode.Instruction {
	in := &bytecode.Instruction{Op: bytecode.CONST, Offset: off, DType: bytecode.DTInt, Size: 6}
	in.Lit.Int = v
	return in
}

func addIntInt(off uint32) *bytecode.Instruction {
	return &bytecode.Instruction{Op: bytecode.ADD, Offset: off, DType: bytecode.DTIntInt, Size: 2}
}

func retn(off uint32) *bytecode.Instruction {
	return &bytecode.Instruction{Op: bytecode.RETN, Offset: off, Size: 1}
}

func jsrTo(off, target uint32) *bytecode.Instruction {
	in := &bytecode.Instruction{Op: bytecode.JSR, Offset: off, Size: 5}
	in.JumpRel = int32(target) - int32(off+5)
	return in
}

// S2 from spec §8: mutually recursive fn_A <-> fn_B, each taking one int,
// joined against a literal int base case so the fixed point has a concrete
// signal to converge on rather than only forwarding each other's Any.
func TestInferS2MutualRecursionConverges(t *testing.T) {
	// fn_A @ 0
	aParam1 := cpTopBP(0, -4)
	aLit := constInt(9, 1)
	aAdd := addIntInt(15)
	aRetn1 := retn(17)
	aParam2 := cpTopBP(18, -4)
	aCall := jsrTo(27, 50)
	aRetn2 := retn(32)

	// fn_B @ 50
	bParam1 := cpTopBP(50, -4)
	bLit := constInt(59, 2)
	bAdd := addIntInt(65)
	bRetn1 := retn(67)
	bParam2 := cpTopBP(68, -4)
	bCall := jsrTo(77, 0)
	bRetn2 := retn(82)

	insns := []*bytecode.Instruction{
		aParam1, aLit, aAdd, aRetn1, aParam2, aCall, aRetn2,
		bParam1, bLit, bAdd, bRetn1, bParam2, bCall, bRetn2,
	}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)
	require.Len(t, prog.Subroutines, 2)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)
	require.Len(t, sccs, 1)

	sigs, _ := prototype.Infer(prog, cg, sccs, emptyActions(t), 16)

	fnA, fnB := sigs[0], sigs[50]
	require.Equal(t, 1, fnA.ParamCount)
	require.Equal(t, []types.Type{types.TInt}, fnA.ParamTypes)
	require.True(t, fnA.ReturnType.Equal(types.TInt))

	require.Equal(t, 1, fnB.ParamCount)
	require.Equal(t, []types.Type{types.TInt}, fnB.ParamTypes)
	require.True(t, fnB.ReturnType.Equal(types.TInt))
}

// Boundary: a subroutine calling itself tail-recursively is its own
// size-1 SCC and converges in a single pass.
func TestInferSelfRecursionSinglePass(t *testing.T) {
	p1 := cpTopBP(0, -4)
	lit := constInt(9, 1)
	add := addIntInt(15)
	r1 := retn(17)
	call := jsrTo(18, 0)
	r2 := retn(23)

	insns := []*bytecode.Instruction{p1, lit, add, r1, call, r2}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)
	require.Len(t, sccs, 1)
	require.Equal(t, []uint32{0}, sccs[0])

	sigs, _ := prototype.Infer(prog, cg, sccs, emptyActions(t), 16)
	sig := sigs[0]
	require.Equal(t, 1, sig.ParamCount)
	require.True(t, sig.ReturnType.Equal(types.TInt))
}

// Boundary: a subroutine with parameters never read has paramCount 0.
func TestInferUnreadParamsParamCountZero(t *testing.T) {
	insns := []*bytecode.Instruction{retn(0)}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)

	sigs, _ := prototype.Infer(prog, cg, sccs, emptyActions(t), 16)
	require.Equal(t, 0, sigs[0].ParamCount)
}

// Exercises the ACTION opcode path: a param's type is refined from the
// engine action's declared parameter type, not from an arithmetic op.
func TestInferActionCallRefinesParamType(t *testing.T) {
	actions, err := actiontable.Load(strings.NewReader("// 0: print a string\nvoid PrintString(string sString);\n"))
	require.NoError(t, err)

	param := cpTopBP(0, -4)
	action := &bytecode.Instruction{Op: bytecode.ACTION, Offset: 9, ActionIdx: 0, ArgCount: 1, Size: 4}
	ret := retn(13)

	insns := []*bytecode.Instruction{param, action, ret}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)

	sigs, _ := prototype.Infer(prog, cg, sccs, actions, 16)
	sig := sigs[0]
	require.Equal(t, 1, sig.ParamCount)
	require.Equal(t, []types.Type{types.TString}, sig.ParamTypes)
	require.True(t, sig.ReturnType.Equal(types.TVoid))
}

func TestInferActionTableMissingIsFatalDiagnostic(t *testing.T) {
	param := cpTopBP(0, -4)
	action := &bytecode.Instruction{Op: bytecode.ACTION, Offset: 9, ActionIdx: 99, ArgCount: 0, Size: 4}
	ret := retn(13)

	insns := []*bytecode.Instruction{param, action, ret}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)

	_, diags := prototype.Infer(prog, cg, sccs, emptyActions(t), 16)
	var found bool
	for _, d := range diags {
		if d.Severity.String() == "fatal" {
			found = true
		}
	}
	require.True(t, found, "expected a fatal diagnostic for the missing action index")
}
