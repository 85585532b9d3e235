package machine

import (
	"fmt"

	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/ast"
	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/diag"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
	"github.com/nwscript-tools/ncsdecomp/lang/prototype"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

const stageName = "machine"

// StackUnderflowError reports an attempt to pop more cells than the
// symbolic stack holds at offset — a malformed or mis-linked subroutine
// (spec §7, Failures).
type StackUnderflowError struct{ Offset uint32 }

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("machine: stack underflow at %#x", e.Offset)
}

// TypeConflictError reports an operation whose operand types cannot be
// reconciled without widening to types.Any, which the Prototype Engine
// should already have resolved by the time the Stack Simulator runs (spec
// §7, Failures).
type TypeConflictError struct {
	Offset uint32
	Detail string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("machine: type conflict at %#x: %s", e.Offset, e.Detail)
}

// Simulate walks sub's instructions in program order, building the
// ast.Expr/ast.Stmt trees that its opcodes denote. This is the direct
// structural analog of the teacher's lang/machine/machine.go: the same
// pc-driven loop over a big opcode switch, the same sp-indexed operand
// stack shape — except every push computes an ast.Expr instead of a
// runtime Value, and the stack's cells are StackEntry, not Value.
//
// The returned Result carries a FunctionDef with its signature filled in
// but Body left nil, plus the basic blocks and edges the Control-Flow
// Structurer (spec §4.8) assembles into the final nested body. An
// unresolved JSR target is an assertion failure (panic), never a user-
// triggerable error: the Prototype Engine (spec §4.6) runs over the same
// linked program first and the Structural Linker guarantees every JSR
// resolves within a well-formed program.
func Simulate(sub *linker.Subroutine, sigs map[uint32]*prototype.Signature, actions *actiontable.ActionTable) (*Result, []diag.Diagnostic) {
	sig := sigs[sub.Entry]
	if sig == nil {
		sig = &prototype.Signature{ReturnType: types.TAny}
	}

	order, names := scanParams(sub)
	fn := &ast.FunctionDef{
		At:         sub.Entry,
		Name:       ast.FuncName(sub.Entry),
		ParamNames: make([]string, len(order)),
		ParamTypes: append([]types.Type(nil), sig.ParamTypes...),
		ReturnType: sig.ReturnType,
	}
	for i, off := range order {
		fn.ParamNames[i] = names[off]
	}

	s := &sim{
		sub:     sub,
		sigs:    sigs,
		actions: actions,
		sig:     sig,
		bpVars:  make(map[int32]bpSlot, len(order)),
	}
	for i, off := range order {
		typ := types.TAny
		if i < len(sig.ParamTypes) {
			typ = sig.ParamTypes[i]
		}
		s.bpVars[off] = bpSlot{Name: names[off], Typ: typ}
	}

	targets := jumpTargets(sub)

	res := &Result{
		Func:   fn,
		Entry:  sub.Entry,
		Blocks: make(map[uint32]*Block),
		Edges:  nil,
	}
	s.startBlock(sub.Entry)

	for i, in := range sub.Insns {
		if i > 0 && targets[in.Offset] && in.Offset != s.curOffset {
			s.closeBlock(res, in.Offset, true)
		}
		s.exec(res, in)
	}
	s.closeBlock(res, 0, false)

	return res, s.diags
}

// bpSlot names a base-pointer-relative parameter or local.
type bpSlot struct {
	Name string
	Typ  types.Type
}

type sim struct {
	sub     *linker.Subroutine
	sigs    map[uint32]*prototype.Signature
	actions *actiontable.ActionTable
	sig     *prototype.Signature

	stack     []StackEntry
	bpVars    map[int32]bpSlot
	diags     []diag.Diagnostic
	curOffset uint32
	curStmts  []ast.Stmt
}

func (s *sim) fatalf(offset uint32, format string, args ...interface{}) {
	s.diags = append(s.diags, diag.Fatalf(stageName, offset, format, args...))
}

func (s *sim) flush(stmt ast.Stmt) {
	s.curStmts = append(s.curStmts, stmt)
}

func (s *sim) startBlock(offset uint32) {
	s.curOffset = offset
	s.curStmts = nil
}

// closeBlock records the block accumulated since the last startBlock and,
// unless open is false (end of subroutine), starts the next one at
// nextOffset.
func (s *sim) closeBlock(res *Result, nextOffset uint32, open bool) {
	res.Blocks[s.curOffset] = &Block{Offset: s.curOffset, Stmts: s.curStmts}
	res.Order = append(res.Order, s.curOffset)
	if open {
		s.startBlock(nextOffset)
	}
}

// jumpTargets returns the set of instruction offsets that are the target
// of some jump within sub. Besides these and sub.Entry itself, a basic
// block also starts right after every JMP/JZ/JNZ (spec §4.8).
func jumpTargets(sub *linker.Subroutine) map[uint32]bool {
	out := map[uint32]bool{}
	for _, in := range sub.Insns {
		if !bytecode.IsJump(in.Op) || in.Op == bytecode.JSR {
			continue
		}
		if t, ok := in.Target(); ok {
			out[t] = true
		}
	}
	return out
}

// scanParams computes the stable, offset-keyed parameter names in the
// same index order the Prototype Engine's scanParamOffsets assigns (most
// negative BP offset first), naming each by the offset of the first
// instruction in program order that accesses it (spec §4.9, "keyed by
// defining offset").
func scanParams(sub *linker.Subroutine) (order []int32, names map[int32]string) {
	seen := map[int32]bool{}
	firstOffset := map[int32]uint32{}
	for _, in := range sub.Insns {
		if in.Op != bytecode.CPDOWNBP && in.Op != bytecode.CPTOPBP {
			continue
		}
		if in.StackOff >= 0 {
			continue
		}
		if !seen[in.StackOff] {
			seen[in.StackOff] = true
			firstOffset[in.StackOff] = in.Offset
			order = append(order, in.StackOff)
		}
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if order[j] < order[i] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}
	names = make(map[int32]string, len(order))
	for _, off := range order {
		names[off] = ast.LocalName(firstOffset[off])
	}
	return order, names
}

func (s *sim) exec(res *Result, in *bytecode.Instruction) {
	switch in.Op {
	case bytecode.NOP:
		// no-op, no stack effect.

	case bytecode.CONST:
		s.execConst(in)

	case bytecode.RSADD:
		s.execRSAdd(in)

	case bytecode.CPTOPSP:
		s.execCPTopSP(in)

	case bytecode.CPDOWNSP:
		s.execCPDownSP(in)

	case bytecode.CPTOPBP:
		s.execCPTopBP(in)

	case bytecode.CPDOWNBP:
		s.execCPDownBP(in)

	case bytecode.SAVEBP, bytecode.RESTOREBP:
		// frame bookkeeping only; our bp-relative addressing is resolved
		// directly by offset, not by tracking a live BP register.

	case bytecode.MOVSP:
		s.execMovSP(in)

	case bytecode.DESTRUCT:
		s.execDestruct(in)

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.INCOR, bytecode.EXCOR, bytecode.BOOLAND, bytecode.SHLEFT,
		bytecode.SHRIGHT, bytecode.USHRIGHT, bytecode.LOGAND, bytecode.LOGOR,
		bytecode.EQ, bytecode.NEQ, bytecode.GEQ, bytecode.GT, bytecode.LT, bytecode.LEQ:
		s.execBinary(in)

	case bytecode.NEG, bytecode.COMP, bytecode.NOT:
		s.execUnary(in)

	case bytecode.JZ, bytecode.JNZ:
		s.execConditionalJump(res, in)

	case bytecode.JMP:
		res.Edges = append(res.Edges, Edge{From: s.curOffset, To: in.JumpAbs})
		s.closeBlock(res, in.End(), true)

	case bytecode.JSR:
		s.execJSR(in)

	case bytecode.RETN:
		s.execRetn(in)

	case bytecode.ACTION:
		s.execAction(in)

	case bytecode.STORESTATE:
		s.execStoreState(in)

	default:
		s.fatalf(in.Offset, "unhandled opcode %s", in.Op)
	}
}

func (s *sim) execConst(in *bytecode.Instruction) {
	typ := scalarFromDType(in.DType)
	lit := &ast.Literal{At: in.Offset, Typ: typ, Int: in.Lit.Int, Flt: in.Lit.Float, Str: in.Lit.String}
	s.push(StackEntry{Expr: lit, Typ: typ})
}

func (s *sim) execRSAdd(in *bytecode.Instruction) {
	typ := scalarFromDType(in.DType)
	name := ast.LocalName(in.Offset)
	s.flush(&ast.VarDecl{At: in.Offset, Name: name, Typ: typ})
	s.push(StackEntry{Expr: &ast.Ident{At: in.Offset, Name: name, Typ: typ}, Typ: typ})
}

// push decomposes a composite value into one StackEntry cell per scalar
// field, each a FieldAccess into e, matching how the real operand stack
// stores a vector or struct as several adjacent scalar cells (spec §3).
func (s *sim) push(e StackEntry) {
	n := e.Typ.Size()
	if n <= 1 {
		s.stack = append(s.stack, e)
		return
	}
	if e.Typ.Kind == types.Vector {
		for i := 0; i < 3; i++ {
			s.stack = append(s.stack, StackEntry{
				Expr: &ast.FieldAccess{At: e.Expr.Offset(), Target: e.Expr, Field: i, Typ: types.TFloat},
				Typ:  types.TFloat,
			})
		}
		return
	}
	for i, ft := range e.Typ.Fields {
		s.stack = append(s.stack, StackEntry{
			Expr: &ast.FieldAccess{At: e.Expr.Offset(), Target: e.Expr, Field: i, Typ: ft},
			Typ:  ft,
		})
	}
}

// peek, like push's inverse, non-destructively reads the top n cells
// without removing them (used by CPDOWNSP/CPDOWNBP, which copy the stack
// top down without consuming it).
func (s *sim) peek(n int) []StackEntry {
	if n > len(s.stack) {
		n = len(s.stack)
	}
	return s.stack[len(s.stack)-n:]
}

func (s *sim) popCells(n int, at uint32) []StackEntry {
	if n > len(s.stack) {
		s.fatalf(at, "stack underflow popping %d cells, have %d", n, len(s.stack))
		n = len(s.stack)
	}
	out := s.stack[len(s.stack)-n:]
	s.stack = s.stack[:len(s.stack)-n]
	return out
}

// recombine reports whether raws is exactly a sequence of FieldAccess
// cells 0..n-1 into the same target, in which case popping them is
// equivalent to popping the whole composite value directly.
func recombine(raws []StackEntry) (ast.Expr, bool) {
	if len(raws) == 0 {
		return nil, false
	}
	fa0, ok := raws[0].Expr.(*ast.FieldAccess)
	if !ok {
		return nil, false
	}
	for i, r := range raws {
		fa, ok := r.Expr.(*ast.FieldAccess)
		if !ok || fa.Field != i || !sameExpr(fa.Target, fa0.Target) {
			return nil, false
		}
	}
	return fa0.Target, true
}

func sameExpr(a, b ast.Expr) bool {
	ai, aok := a.(*ast.Ident)
	bi, bok := b.(*ast.Ident)
	if aok && bok {
		return ai.Name == bi.Name
	}
	af, afok := a.(*ast.FieldAccess)
	bf, bfok := b.(*ast.FieldAccess)
	if afok && bfok {
		return af.Field == bf.Field && sameExpr(af.Target, bf.Target)
	}
	return false
}

// popValue pops exactly t.Size() cells (at least 1) and combines them
// into a single Expr of type t: a folded vector constructor when the
// cells are three independent float pushes (spec §4.7 edge cases,
// "vector literals appear as three consecutive float pushes"), the
// shared target when they are a prior composite read's FieldAccess
// cells, or the lone cell's own expression for a scalar.
func (s *sim) popValue(t types.Type, at uint32) ast.Expr {
	n := t.Size()
	if n <= 0 {
		n = 1
	}
	raws := s.popCells(n, at)
	if len(raws) == 1 {
		return raws[0].Expr
	}
	if tgt, ok := recombine(raws); ok {
		return tgt
	}
	if t.Kind == types.Vector && len(raws) == 3 {
		return &ast.VectorCtor{At: at, X: normalizeFloat(raws[0].Expr), Y: normalizeFloat(raws[1].Expr), Z: normalizeFloat(raws[2].Expr)}
	}
	return raws[len(raws)-1].Expr
}

// normalizeFloat rewrites a negative-zero float literal to positive zero
// so two structurally equal values always render identically (spec §9,
// open question: "normalize negative zero for determinism").
func normalizeFloat(e ast.Expr) ast.Expr {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Typ.Kind != types.Float {
		return e
	}
	if lit.Flt == 0 {
		lit.Flt = 0
	}
	return lit
}

func (s *sim) execCPTopSP(in *bytecode.Instruction) {
	n := int(in.Size1 / 4)
	if n < 1 {
		n = 1
	}
	idx := len(s.stack) + int(in.StackOff)/4
	for i := 0; i < n; i++ {
		j := idx + i
		if j < 0 || j >= len(s.stack) {
			s.fatalf(in.Offset, "CPTOPSP out of range")
			s.stack = append(s.stack, StackEntry{Expr: &ast.Literal{At: in.Offset, Typ: types.TAny}, Typ: types.TAny})
			continue
		}
		s.stack = append(s.stack, s.stack[j])
	}
}

func (s *sim) execCPDownSP(in *bytecode.Instruction) {
	n := int(in.Size1 / 4)
	if n < 1 {
		n = 1
	}
	top := s.peek(n)
	idx := len(s.stack) + int(in.StackOff)/4
	for i := 0; i < n; i++ {
		j := idx + i
		if j < 0 || j >= len(s.stack) {
			continue
		}
		s.assignSlot(in.Offset, j, top[i])
	}
}

// assignSlot writes val into stack slot j, materializing a VarDecl the
// first time the slot is written (its prior cell is not yet a named
// Ident) or an assignment statement thereafter (spec §4.7: CPDOWNSP
// "emit VarDecl/ExpressionStatement as needed").
func (s *sim) assignSlot(at uint32, j int, val StackEntry) {
	existing := s.stack[j]
	if id, ok := existing.Expr.(*ast.Ident); ok {
		s.flush(&ast.ExprStmt{At: at, Expr: &ast.Assign{At: at, Left: id, Right: val.Expr}})
		s.stack[j] = StackEntry{Expr: id, Typ: id.Typ}
		return
	}
	name := ast.LocalName(at)
	id := &ast.Ident{At: at, Name: name, Typ: val.Typ}
	s.flush(&ast.VarDecl{At: at, Name: name, Typ: val.Typ, Init: val.Expr})
	s.stack[j] = StackEntry{Expr: id, Typ: val.Typ}
}

func (s *sim) execCPTopBP(in *bytecode.Instruction) {
	slot, ok := s.bpVars[in.StackOff]
	if !ok {
		// first observed read of an as-yet-unnamed BP-relative local
		// (declared by a future write, or dead before its own RSADD/
		// CPDOWNBP establishes it); synthesize a placeholder identity
		// keyed by this read's own offset.
		slot = bpSlot{Name: ast.LocalName(in.Offset), Typ: types.TAny}
		s.bpVars[in.StackOff] = slot
	}
	id := &ast.Ident{At: in.Offset, Name: slot.Name, Typ: slot.Typ}
	s.push(StackEntry{Expr: id, Typ: slot.Typ})
}

func (s *sim) execCPDownBP(in *bytecode.Instruction) {
	n := int(in.Size1 / 4)
	if n < 1 {
		n = 1
	}
	slot, hasSlot := s.bpVars[in.StackOff]
	typ := slot.Typ
	if !hasSlot || typ.Kind == types.Any {
		typ = types.TAny
	}
	top := s.peek(n)
	valExpr, valTyp := combineCells(top, typ, in.Offset)

	if !hasSlot {
		name := ast.LocalName(in.Offset)
		s.bpVars[in.StackOff] = bpSlot{Name: name, Typ: valTyp}
		s.flush(&ast.VarDecl{At: in.Offset, Name: name, Typ: valTyp, Init: valExpr})
		return
	}
	s.flush(&ast.ExprStmt{At: in.Offset, Expr: &ast.Assign{
		At:    in.Offset,
		Left:  &ast.Ident{At: in.Offset, Name: slot.Name, Typ: slot.Typ},
		Right: valExpr,
	}})
}

// combineCells is popValue's non-destructive counterpart, used by
// CPDOWNBP/CPDOWNSP which copy the stack top down without popping it.
func combineCells(raws []StackEntry, declared types.Type, at uint32) (ast.Expr, types.Type) {
	if len(raws) == 1 {
		t := raws[0].Typ
		if declared.Kind != types.Any {
			t = declared
		}
		return raws[0].Expr, t
	}
	if tgt, ok := recombine(raws); ok {
		t := declared
		if t.Kind == types.Any && len(raws) == 3 {
			t = types.TVector
		}
		return tgt, t
	}
	if len(raws) == 3 {
		return &ast.VectorCtor{At: at, X: normalizeFloat(raws[0].Expr), Y: normalizeFloat(raws[1].Expr), Z: normalizeFloat(raws[2].Expr)}, types.TVector
	}
	return raws[len(raws)-1].Expr, declared
}

func (s *sim) execMovSP(in *bytecode.Instruction) {
	n := int(in.Count)
	if n < 0 {
		n = -n
	}
	popped := s.popCells(n/4, in.Offset)
	for _, e := range popped {
		if hasSideEffect(e.Expr) {
			s.flush(&ast.ExprStmt{At: in.Offset, Expr: e.Expr})
		}
	}
}

func hasSideEffect(e ast.Expr) bool {
	switch e.(type) {
	case *ast.UserCall, *ast.ActionCall, *ast.Assign:
		return true
	default:
		return false
	}
}

func (s *sim) execDestruct(in *bytecode.Instruction) {
	total := int(in.Size1 / 4)
	keepOff := int(in.KeepOff / 4)
	keep := int(in.Size2 / 4)
	popped := s.popCells(total, in.Offset)
	if keepOff < 0 || keepOff+keep > len(popped) {
		s.fatalf(in.Offset, "DESTRUCT keep-range out of bounds")
		return
	}
	for _, e := range popped[keepOff : keepOff+keep] {
		s.stack = append(s.stack, e)
	}
}

func (s *sim) execBinary(in *bytecode.Instruction) {
	// Operand widths come from the DType, not a fixed one cell each: a
	// vector operand occupies three cells (spec §4.7 edge cases), and the
	// right operand was pushed last, so it pops first.
	opL, opR := operandTypes(in.DType)
	rhs := s.popValue(opR, in.Offset)
	lhs := s.popValue(opL, in.Offset)
	result := binaryResultType(in.Op, opL, opR)
	bin := &ast.BinaryOp{At: in.Offset, Op: opSymbol(in.Op), Left: lhs, Right: rhs, Typ: result}
	s.push(StackEntry{Expr: bin, Typ: result})
}

func (s *sim) execUnary(in *bytecode.Instruction) {
	operand := s.popCells(1, in.Offset)
	var e ast.Expr
	if len(operand) == 1 {
		e = operand[0].Expr
	}
	typ := scalarFromDType(in.DType)
	un := &ast.UnaryOp{At: in.Offset, Op: unarySymbol(in.Op), Right: e, Typ: typ}
	s.push(StackEntry{Expr: un, Typ: typ})
}

// execConditionalJump records a control-flow edge whose Cond always reads
// as "branch is taken when true", independent of whether the source
// opcode tests for zero or non-zero (spec §4.8 classifies shapes from
// jump topology, not opcode identity).
func (s *sim) execConditionalJump(res *Result, in *bytecode.Instruction) {
	cond := s.popValue(types.TInt, in.Offset)
	taken := cond
	if in.Op == bytecode.JZ {
		taken = &ast.UnaryOp{At: in.Offset, Op: "!", Right: cond, Typ: types.TInt}
	}
	res.Edges = append(res.Edges, Edge{From: s.curOffset, To: in.JumpAbs, Cond: taken})
	res.Edges = append(res.Edges, Edge{From: s.curOffset, To: in.End()})
	s.closeBlock(res, in.End(), true)
}

func (s *sim) execJSR(in *bytecode.Instruction) {
	target, resolved := in.Target()
	if !resolved {
		panic(fmt.Sprintf("machine: unresolved JSR at %#x (Structural Linker invariant violated)", in.Offset))
	}
	callee := s.sigs[target]
	if callee == nil {
		panic(fmt.Sprintf("machine: no signature for subroutine at %#x (Prototype Engine invariant violated)", target))
	}
	args := make([]ast.Expr, len(callee.ParamTypes))
	for i := len(callee.ParamTypes) - 1; i >= 0; i-- {
		args[i] = s.popValue(callee.ParamTypes[i], in.Offset)
	}
	call := &ast.UserCall{At: in.Offset, Callee: ast.FuncName(target), Args: args, Typ: callee.ReturnType}
	if callee.ReturnType.Kind == types.Void {
		s.flush(&ast.ExprStmt{At: in.Offset, Expr: call})
		return
	}
	s.push(StackEntry{Expr: call, Typ: callee.ReturnType})
}

func (s *sim) execAction(in *bytecode.Instruction) {
	a, err := s.actions.Action(int(in.ActionIdx))
	if err != nil {
		s.fatalf(in.Offset, "%s", err)
		return
	}
	argc := int(in.ArgCount)
	start := len(a.Params) - argc
	if start < 0 {
		start = 0
	}
	popped := make([]ast.Expr, len(a.Params)-start)
	for i := len(popped) - 1; i >= 0; i-- {
		popped[i] = s.popValue(a.Params[start+i], in.Offset)
	}
	// Emit every declared parameter slot the bytecode implies, never only
	// the ones actually pushed: leading omitted parameters are filled from
	// their compile-time default literal (spec §9, open question: "emit
	// all argument slots the bytecode consumed, never trim trailing
	// defaults").
	args := make([]ast.Expr, len(a.Params))
	for i := 0; i < start; i++ {
		args[i] = defaultLiteralExpr(in.Offset, a.Params[i], defaultAt(a, i))
	}
	copy(args[start:], popped)

	call := &ast.ActionCall{At: in.Offset, Index: a.Index, Name: a.Name, Args: args, Typ: a.Return}
	if a.Return.Kind == types.Void {
		s.flush(&ast.ExprStmt{At: in.Offset, Expr: call})
		return
	}
	s.push(StackEntry{Expr: call, Typ: a.Return})
}

func defaultAt(a *actiontable.Action, i int) *bytecode.Literal {
	if i < 0 || i >= len(a.Defaults) {
		return nil
	}
	return a.Defaults[i]
}

func defaultLiteralExpr(at uint32, t types.Type, lit *bytecode.Literal) ast.Expr {
	if lit == nil {
		return &ast.Literal{At: at, Typ: t}
	}
	switch t.Kind {
	case types.Int, types.Object:
		return &ast.Literal{At: at, Typ: t, Int: lit.Int}
	case types.Float:
		return &ast.Literal{At: at, Typ: t, Flt: lit.Float}
	case types.String:
		return &ast.Literal{At: at, Typ: t, Str: lit.String}
	default:
		return &ast.Literal{At: at, Typ: t, Str: lit.String}
	}
}

func (s *sim) execRetn(in *bytecode.Instruction) {
	if s.sig.ReturnType.Kind == types.Void {
		s.flush(&ast.Return{At: in.Offset})
		return
	}
	val := s.popValue(s.sig.ReturnType, in.Offset)
	s.flush(&ast.Return{At: in.Offset, Value: val})
}

// execStoreState snapshots the point preceding a delayed-action closure
// (DelayCommand/AssignCommand/ActionDoCommand's second argument in real
// NWScript source). Reconstructing the deferred body's statements is out
// of this pass's scope — it is itself a JSR to an ordinary subroutine
// that Simulate decompiles on its own, the same way the teacher's
// lang/machine defers cleanup of an iterstack entry until its owning
// frame unwinds — so STORESTATE here only pushes an opaque marker of type
// Action for the following ACTION call to consume as its closure
// argument.
func (s *sim) execStoreState(in *bytecode.Instruction) {
	name := fmt.Sprintf("state_%x", in.Offset)
	s.push(StackEntry{Expr: &ast.Ident{At: in.Offset, Name: name, Typ: types.TAction}, Typ: types.TAction})
}

func scalarFromDType(dt bytecode.DataType) types.Type {
	switch dt {
	case bytecode.DTInt:
		return types.TInt
	case bytecode.DTFloat:
		return types.TFloat
	case bytecode.DTString:
		return types.TString
	case bytecode.DTObject:
		return types.TObject
	case bytecode.DTVector:
		return types.TVector
	case bytecode.DTEffect:
		return types.TEffect
	case bytecode.DTEvent:
		return types.TEvent
	case bytecode.DTLocation:
		return types.TLocation
	case bytecode.DTTalent:
		return types.TTalent
	default:
		return types.TAny
	}
}

func operandTypes(dt bytecode.DataType) (left, right types.Type) {
	switch dt {
	case bytecode.DTIntInt:
		return types.TInt, types.TInt
	case bytecode.DTFloatFloat:
		return types.TFloat, types.TFloat
	case bytecode.DTIntFloat:
		return types.TInt, types.TFloat
	case bytecode.DTFloatInt:
		return types.TFloat, types.TInt
	case bytecode.DTVectorVector:
		return types.TVector, types.TVector
	case bytecode.DTVectorFloat:
		return types.TVector, types.TFloat
	case bytecode.DTFloatVector:
		return types.TFloat, types.TVector
	case bytecode.DTStringString:
		return types.TString, types.TString
	case bytecode.DTObjectObject:
		return types.TObject, types.TObject
	default:
		return types.TAny, types.TAny
	}
}

func binaryResultType(op bytecode.Opcode, opL, opR types.Type) types.Type {
	switch op {
	case bytecode.EQ, bytecode.NEQ, bytecode.GEQ, bytecode.GT, bytecode.LT, bytecode.LEQ,
		bytecode.LOGAND, bytecode.LOGOR:
		return types.TInt
	}
	switch {
	case opL.Kind == types.Vector || opR.Kind == types.Vector:
		return types.TVector
	case opL.Kind == types.Float || opR.Kind == types.Float:
		return types.TFloat
	case opL.Kind == types.String || opR.Kind == types.String:
		return types.TString
	default:
		return types.TInt
	}
}

func opSymbol(op bytecode.Opcode) string {
	switch op {
	case bytecode.ADD:
		return "+"
	case bytecode.SUB:
		return "-"
	case bytecode.MUL:
		return "*"
	case bytecode.DIV:
		return "/"
	case bytecode.MOD:
		return "%"
	case bytecode.INCOR:
		return "|"
	case bytecode.EXCOR:
		return "^"
	case bytecode.BOOLAND:
		return "&"
	case bytecode.SHLEFT:
		return "<<"
	case bytecode.SHRIGHT, bytecode.USHRIGHT:
		// NSS has no distinct unsigned right-shift operator; both render
		// as ">>", a harmless rendering loss since the result types agree.
		return ">>"
	case bytecode.LOGAND:
		return "&&"
	case bytecode.LOGOR:
		return "||"
	case bytecode.EQ:
		return "=="
	case bytecode.NEQ:
		return "!="
	case bytecode.GEQ:
		return ">="
	case bytecode.GT:
		return ">"
	case bytecode.LT:
		return "<"
	case bytecode.LEQ:
		return "<="
	default:
		return "?"
	}
}

func unarySymbol(op bytecode.Opcode) string {
	switch op {
	case bytecode.NEG:
		return "-"
	case bytecode.COMP:
		return "~"
	case bytecode.NOT:
		return "!"
	default:
		return "?"
	}
}
