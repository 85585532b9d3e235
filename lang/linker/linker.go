// Package linker implements the Structural Linker (spec §4.3): it resolves
// every jump/JSR operand to the instruction it targets, discovers
// subroutine entry points, and partitions the flat instruction stream from
// lang/bytecode into per-subroutine instruction ranges.
//
// This mirrors lang/compiler/compiler.go's block-graph construction in the
// teacher repo, run in the opposite direction: the teacher linearizes a
// block graph (built from an AST) into a flat byte stream, recording each
// block's jmp/cjmp successors as it goes; Link instead recovers that same
// kind of graph structure by walking a flat byte stream that has already
// been linearized, matching each control-flow instruction back to the
// block it jumps to.
package linker

import (
	"fmt"
	"sort"

	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
)

// UnresolvedJumpError is returned when a control-flow instruction's operand
// does not resolve to the start of an existing instruction (spec §6, §7 —
// resolution error, fatal).
type UnresolvedJumpError struct {
	At     uint32
	Target uint32
}

func (e *UnresolvedJumpError) Error() string {
	return fmt.Sprintf("unresolved jump at offset %#x: target %#x is not a valid instruction", e.At, e.Target)
}

// Subroutine is a callable region of bytecode: an entry offset and its
// ordered instruction range (spec §3).
type Subroutine struct {
	Entry uint32
	Insns []*bytecode.Instruction
}

// Program is the result of linking: the full instruction stream plus the
// subroutine partition and per-instruction bookkeeping the Structural
// Linker derives (spec §4.3). Instruction values themselves are never
// mutated (spec §3, Lifecycles); ownership and liveness are recorded here
// instead, keyed by instruction offset.
type Program struct {
	Entry       uint32
	Insns       []*bytecode.Instruction
	ByOffset    map[uint32]*bytecode.Instruction
	Subroutines map[uint32]*Subroutine // keyed by entry offset
	owner       map[uint32]uint32      // instruction offset -> owning subroutine entry
	dead        map[uint32]bool        // instruction offset -> unreachable (after a RETN, before the next entry)
}

// Owner returns the entry offset of the subroutine that contains the
// instruction at off.
func (p *Program) Owner(off uint32) (uint32, bool) {
	e, ok := p.owner[off]
	return e, ok
}

// Dead reports whether the instruction at off follows a RETN with no
// intervening subroutine entry, i.e. it is unreachable (spec §4.3).
func (p *Program) Dead(off uint32) bool {
	return p.dead[off]
}

// SubroutineEntries returns every subroutine entry offset, sorted
// ascending.
func (p *Program) SubroutineEntries() []uint32 {
	out := make([]uint32, 0, len(p.Subroutines))
	for e := range p.Subroutines {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Link resolves jump targets and partitions insns (in offset order) into
// subroutines. entry is the program's entry offset (spec §4.3: "program
// entry (0 or the first instruction following the initial JSR from
// _start)"); the caller is responsible for locating it (typically the
// offset of the first instruction, or the first JSR target if the file
// wraps its top level in a synthetic bootstrap call).
func Link(insns []*bytecode.Instruction, entry uint32) (*Program, error) {
	p := &Program{
		Entry:       entry,
		Insns:       insns,
		ByOffset:    make(map[uint32]*bytecode.Instruction, len(insns)),
		Subroutines: make(map[uint32]*Subroutine),
		owner:       make(map[uint32]uint32, len(insns)),
		dead:        make(map[uint32]bool, len(insns)),
	}
	for _, in := range insns {
		p.ByOffset[in.Offset] = in
	}

	entries := map[uint32]bool{entry: true}
	for _, in := range insns {
		if bytecode.IsJump(in.Op) {
			target := uint32(int64(in.End()) + int64(in.JumpRel))
			dst, ok := p.ByOffset[target]
			if !ok {
				return nil, &UnresolvedJumpError{At: in.Offset, Target: target}
			}
			in.JumpAbs = target
			in.Resolved = true
			if in.Op == bytecode.JSR {
				entries[dst.Offset] = true
			}
		}
	}
	for e := range entries {
		p.Subroutines[e] = &Subroutine{Entry: e}
	}

	var curEntry uint32
	haveEntry := false
	deadFromHere := false
	for _, in := range insns {
		if entries[in.Offset] {
			curEntry = in.Offset
			haveEntry = true
			deadFromHere = false
		}
		if !haveEntry {
			// Bytes before the first recognized entry point: attribute them to
			// the program entry so they are not silently dropped, but they
			// cannot occur in a well-formed file where entry is insns[0].Offset.
			curEntry = entry
			haveEntry = true
		}
		p.owner[in.Offset] = curEntry
		p.dead[in.Offset] = deadFromHere
		sub := p.Subroutines[curEntry]
		sub.Insns = append(sub.Insns, in)
		if in.Op == bytecode.RETN {
			deadFromHere = true
		}
	}

	return p, nil
}
