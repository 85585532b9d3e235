// Package machine implements the Stack Simulator (spec §4.7): for each
// subroutine, it walks the instruction stream in program order maintaining
// a symbolic operand stack, a base-pointer-relative local/parameter frame,
// and the pending statement list those operations materialize. Unlike the
// teacher's lang/machine, which runs a concrete operand stack of runtime
// Values to execute code, this one is symbolic: every opcode that would
// push a runtime Value here builds an ast.Expr instead, and every opcode
// with an observable side effect materializes an ast.Stmt. The dispatch
// keeps the same sp-indexed stack shape and per-opcode-group case clauses
// as the teacher's giant switch in lang/machine/machine.go.
package machine

import (
	"github.com/nwscript-tools/ncsdecomp/lang/ast"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

// StackEntry is one 4-byte cell of the symbolic operand stack. Composite
// values (vector, struct) occupy several adjacent cells, each one a
// FieldAccess into the composite's Expr (spec §3: "structs decompose to a
// flat sequence of entries of their field types"); this keeps cell
// accounting exact for CPDOWNSP/CPTOPSP/MOVSP/DESTRUCT's byte-precise
// offsets, the same way the real VM sees them.
type StackEntry struct {
	Expr ast.Expr
	Typ  types.Type
}

// Block is a maximal run of non-control-flow statements between jump
// targets (spec §4.8 feeds on this as its basic-block input).
type Block struct {
	Offset uint32
	Stmts  []ast.Stmt
}

// Edge is a control-flow edge out of the jump instruction (or fallthrough
// point) at From. Cond is nil for an unconditional edge (a JMP, or the
// "not taken" side of a conditional); for a conditional edge it is
// normalized to read as "branch is taken when Cond is true", regardless of
// whether the source opcode was JZ or JNZ (spec §4.8 classifies loop/if
// shape from jump topology, not opcode identity).
type Edge struct {
	From uint32
	To   uint32
	Cond ast.Expr
}

// Result is the Stack Simulator's output for one subroutine: a partial
// FunctionDef (Body left nil — the Control-Flow Structurer fills it in),
// the basic blocks in program order, and the edges between them (spec
// §4.7, §4.8 handoff).
type Result struct {
	Func   *ast.FunctionDef
	Entry  uint32
	Blocks map[uint32]*Block
	Order  []uint32
	Edges  []Edge
}
