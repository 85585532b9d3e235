package machine_test

import (
	"strings"
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/ast"
	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
	"github.com/nwscript-tools/ncsdecomp/lang/machine"
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

func retn(off uint32) *bytecode.Instruction {
	return &bytecode.Instruction{Op: bytecode.RETN, Offset: off, Size: 1}
}

// S1 from spec §8: a subroutine that is nothing but RETN produces a
// single block with a single void Return statement and no edges.
func TestSimulateS1EmptySubroutine(t *testing.T) {
	insns := []*bytecode.Instruction{retn(0)}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	sigs := map[uint32]*prototype.Signature{0: {ReturnType: types.TVoid}}
	res, diags := machine.Simulate(prog.Subroutines[0], sigs, emptyActions(t))
	for _, d := range diags {
		require.NotEqual(t, "fatal", d.Severity.String(), d.String())
	}

	require.Len(t, res.Blocks, 1)
	blk := res.Blocks[0]
	require.Len(t, blk.Stmts, 1)
	ret, ok := blk.Stmts[0].(*ast.Return)
	require.True(t, ok)
	require.Nil(t, ret.Value)
	require.Empty(t, res.Edges)
}

// `int fn_0() { return 1 + 2; }`: CONST 1; CONST 2; ADD; RETN.
func TestSimulateArithmeticReturn(t *testing.T) {
	c1 := &bytecode.Instruction{Op: bytecode.CONST, DType: bytecode.DTInt, Offset: 0, Size: 6}
	c1.Lit.Int = 1
	c2 := &bytecode.Instruction{Op: bytecode.CONST, DType: bytecode.DTInt, Offset: 6, Size: 6}
	c2.Lit.Int = 2
	add := &bytecode.Instruction{Op: bytecode.ADD, DType: bytecode.DTIntInt, Offset: 12, Size: 2}
	ret := retn(14)

	insns := []*bytecode.Instruction{c1, c2, add, ret}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	sigs := map[uint32]*prototype.Signature{0: {ReturnType: types.TInt}}
	res, diags := machine.Simulate(prog.Subroutines[0], sigs, emptyActions(t))
	for _, d := range diags {
		require.NotEqual(t, "fatal", d.Severity.String(), d.String())
	}

	blk := res.Blocks[0]
	require.Len(t, blk.Stmts, 1)
	retStmt, ok := blk.Stmts[0].(*ast.Return)
	require.True(t, ok)
	bin, ok := retStmt.Value.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op)

	lhs, ok := bin.Left.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int32(1), lhs.Int)
	rhs, ok := bin.Right.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int32(2), rhs.Int)
}

// S5 from spec §8: an ACTION call that passes fewer arguments than the
// action declares must still emit every declared parameter slot, filling
// the omitted leading ones from their default literal.
func TestSimulateActionCallEmitsAllDeclaredArgs(t *testing.T) {
	tbl, err := actiontable.Load(strings.NewReader(
		"// 0: void DoStuff(int a=1, int b=2, int c);\n" +
			"void DoStuff(int a=1, int b=2, int c);\n"))
	require.NoError(t, err)

	c := &bytecode.Instruction{Op: bytecode.CONST, DType: bytecode.DTInt, Offset: 0, Size: 6}
	c.Lit.Int = 9
	action := &bytecode.Instruction{Op: bytecode.ACTION, Offset: 6, Size: 4, ActionIdx: 0, ArgCount: 1}
	movsp := &bytecode.Instruction{Op: bytecode.MOVSP, Offset: 10, Size: 5, Count: 0}
	ret := retn(15)

	insns := []*bytecode.Instruction{c, action, movsp, ret}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	sigs := map[uint32]*prototype.Signature{0: {ReturnType: types.TVoid}}
	res, diags := machine.Simulate(prog.Subroutines[0], sigs, tbl)
	for _, d := range diags {
		require.NotEqual(t, "fatal", d.Severity.String(), d.String())
	}

	blk := res.Blocks[0]
	require.Len(t, blk.Stmts, 2) // ExprStmt(DoStuff(...)); Return
	call, ok := blk.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	action2, ok := call.Expr.(*ast.ActionCall)
	require.True(t, ok)
	require.Len(t, action2.Args, 3)

	a0, ok := action2.Args[0].(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int32(1), a0.Int)
	a1, ok := action2.Args[1].(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int32(2), a1.Int)
	a2, ok := action2.Args[2].(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int32(9), a2.Int)
}
