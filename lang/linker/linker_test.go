package linker_test

import (
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
	"github.com/stretchr/testify/require"
)

// insn builds an Instruction with only Op, Offset and the given encoded
// Size set (enough for these structural tests, which never decode real
// operand bytes).
func insn(off uint32, op bytecode.Opcode, size uint32) *bytecode.Instruction {
	return &bytecode.Instruction{Op: op, Offset: off, Size: size}
}

// S1 from spec §8: main() with `JSR fn_A; RETN`, `fn_A: RETN`.
func TestLinkS1(t *testing.T) {
	// offsets: 0 JSR -> targets fn_A at 10; 5 RETN (end of main); 10 RETN (fn_A)
	jsr := insn(0, bytecode.JSR, 5)
	jsr.JumpRel = 5 // target = End()(5) + 5 = 10
	mainRetn := insn(5, bytecode.RETN, 1)
	fnARetn := insn(10, bytecode.RETN, 1)

	insns := []*bytecode.Instruction{jsr, mainRetn, fnARetn}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)

	require.True(t, jsr.Resolved)
	require.Equal(t, uint32(10), jsr.JumpAbs)

	require.Len(t, prog.Subroutines, 2)
	mainSub := prog.Subroutines[0]
	require.Len(t, mainSub.Insns, 2)
	fnASub := prog.Subroutines[10]
	require.Len(t, fnASub.Insns, 1)

	owner, ok := prog.Owner(10)
	require.True(t, ok)
	require.Equal(t, uint32(10), owner)
}

func TestLinkUnresolvedJump(t *testing.T) {
	jmp := insn(0, bytecode.JMP, 5)
	jmp.JumpRel = 100 // target 105 does not exist
	insns := []*bytecode.Instruction{jmp}
	_, err := linker.Link(insns, 0)
	require.Error(t, err)
	var uj *linker.UnresolvedJumpError
	require.ErrorAs(t, err, &uj)
}

func TestLinkDeadCodeAfterRetn(t *testing.T) {
	retn := insn(0, bytecode.RETN, 1)
	dead := insn(1, bytecode.NOP, 1)
	insns := []*bytecode.Instruction{retn, dead}
	prog, err := linker.Link(insns, 0)
	require.NoError(t, err)
	require.False(t, prog.Dead(0))
	require.True(t, prog.Dead(1))
}
