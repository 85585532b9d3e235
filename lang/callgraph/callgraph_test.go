package callgraph_test

import (
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/callgraph"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
	"github.com/stretchr/testify/require"
)

func jsrTo(off, target uint32) *bytecode.Instruction {
	in := &bytecode.Instruction{Op: bytecode.JSR, Offset: off, Size: 5}
	in.JumpRel = int32(target) - int32(off+5)
	in.JumpAbs = target
	in.Resolved = true
	return in
}

func retn(off uint32) *bytecode.Instruction {
	return &bytecode.Instruction{Op: bytecode.RETN, Offset: off, Size: 1}
}

// Builds: main (0) -> fn_A (10) -> fn_B (20), fn_B leaf.
func buildLinearProgram(t *testing.T) *linker.Program {
	t.Helper()
	main1 := jsrTo(0, 10)
	mainR := retn(5)
	a1 := jsrTo(10, 20)
	aR := retn(15)
	bR := retn(20)
	insns := []*bytecode.Instruction{main1, mainR, a1, aR, bR}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)
	return prog
}

func TestBuildAndSuccessors(t *testing.T) {
	prog := buildLinearProgram(t)
	cg := callgraph.Build(prog)
	require.ElementsMatch(t, []uint32{0, 10, 20}, cg.Nodes())
	require.Equal(t, []uint32{10}, cg.Successors(0))
	require.Equal(t, []uint32{20}, cg.Successors(10))
	require.Empty(t, cg.Successors(20))
}

func TestReachableFrom(t *testing.T) {
	prog := buildLinearProgram(t)
	cg := callgraph.Build(prog)
	reach := cg.ReachableFrom(0)
	require.Len(t, reach, 3)
	require.True(t, reach[20])
}

func TestCondenseSCCsLeavesFirst(t *testing.T) {
	prog := buildLinearProgram(t)
	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)
	require.Len(t, sccs, 3)

	// index of the SCC containing each offset
	pos := make(map[uint32]int)
	for i, comp := range sccs {
		for _, n := range comp {
			pos[n] = i
		}
	}
	// 0 calls 10 calls 20: 20 must precede 10 must precede 0
	require.Less(t, pos[20], pos[10])
	require.Less(t, pos[10], pos[0])
}

func TestCondenseSCCsMutualRecursion(t *testing.T) {
	// fn_A (0) <-> fn_B (10): each JSRs the other then RETNs.
	aCall := jsrTo(0, 10)
	aRetn := retn(5)
	bCall := jsrTo(10, 0)
	bRetn := retn(15)
	insns := []*bytecode.Instruction{aCall, aRetn, bCall, bRetn}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)
	require.Len(t, sccs, 1)
	require.ElementsMatch(t, []uint32{0, 10}, sccs[0])
}

func TestCondenseSCCsSelfRecursion(t *testing.T) {
	self := jsrTo(0, 0)
	r := retn(5)
	insns := []*bytecode.Instruction{self, r}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	cg := callgraph.Build(prog)
	sccs := callgraph.CondenseSCCs(cg)
	require.Len(t, sccs, 1)
	require.Equal(t, []uint32{0}, sccs[0])
}
