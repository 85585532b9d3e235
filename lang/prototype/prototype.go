// Package prototype implements the Prototype Engine (spec §4.6): a
// whole-program static-analysis pass that assigns every subroutine a typed
// calling signature before the Stack Simulator runs, processing the
// call-graph's strongly-connected components leaves-first and iterating
// each SCC to a fixed point.
//
// This is the direct semantic analog of lang/resolver/resolver.go: both are
// whole-program passes that assign a typed classification to every binding
// (there, a scope; here, a parameter or return slot) before the next phase
// runs, and both replace an earlier on-demand, exception-prone design with
// a single globally-ordered pass.
package prototype

import (
	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/callgraph"
	"github.com/nwscript-tools/ncsdecomp/lang/diag"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

const stageName = "prototype"

// Infer computes a Signature for every subroutine in prog, processing the
// SCCs of sccs in the order given (leaves-first, per callgraph.CondenseSCCs)
// and iterating each SCC's members until a pass produces no change or
// maxIter passes elapse, whichever comes first. Slots that remain
// unresolved after the cap freezes to types.Any and are reported as
// non-fatal diagnostics; turning those into a fatal error is the caller's
// concern (spec §4.10 strictSignatures is a Pipeline Driver option, not an
// Infer parameter).
func Infer(prog *linker.Program, cg *callgraph.CallGraph, sccs [][]uint32, actions *actiontable.ActionTable, maxIter int) (map[uint32]*Signature, []diag.Diagnostic) {
	if maxIter <= 0 {
		maxIter = 16
	}

	sigs := make(map[uint32]*Signature, len(prog.Subroutines))
	for _, e := range prog.SubroutineEntries() {
		sigs[e] = seedSignature()
	}

	offsets := scanParamOffsets(prog)

	var diags []diag.Diagnostic
	for _, scc := range sccs {
		converged := false
		for pass := 0; pass < maxIter; pass++ {
			changed := false
			for _, e := range scc {
				sub := prog.Subroutines[e]
				next, d := inferOne(sub, offsets[e], sigs, actions)
				diags = append(diags, d...)
				if !next.Equal(sigs[e]) {
					sigs[e] = next
					changed = true
				}
			}
			if !changed {
				converged = true
				break
			}
		}
		if !converged {
			diags = append(diags, diag.Warningf(stageName, scc[0],
				"SCC containing %d subroutine(s) did not converge after %d passes; freezing remaining unknowns to any", len(scc), maxIter))
		}
	}

	for _, e := range prog.SubroutineEntries() {
		sig := sigs[e]
		if sig.ReturnType.Kind == types.Any {
			diags = append(diags, diag.Warningf(stageName, e, "subroutine at %#x has unresolved return type", e))
		}
		for i, t := range sig.ParamTypes {
			if t.Kind == types.Any {
				diags = append(diags, diag.Warningf(stageName, e, "subroutine at %#x has unresolved parameter %d", e, i))
			}
		}
	}

	return sigs, diags
}

// scanParamOffsets builds, for every subroutine, a stable mapping from the
// negative base-pointer-relative offset of each distinct CPDOWNBP/CPTOPBP
// access to a 0-based logical parameter index (offset closest to the
// prologue — most negative — is parameter 0). Every NWScript value type is
// read or written with a single contiguous CPDOWNBP/CPTOPBP access at its
// own base offset (a vector parameter is one 12-byte copy, not three
// 4-byte ones), so distinct offsets correspond exactly to distinct logical
// parameters. This mapping is computed once, independent of inferred
// types, so parameter indices stay stable across fixed-point passes.
func scanParamOffsets(prog *linker.Program) map[uint32]map[int32]int {
	out := make(map[uint32]map[int32]int, len(prog.Subroutines))
	for e, sub := range prog.Subroutines {
		seen := map[int32]bool{}
		var ordered []int32
		for _, in := range sub.Insns {
			if in.Op != bytecode.CPDOWNBP && in.Op != bytecode.CPTOPBP {
				continue
			}
			if in.StackOff >= 0 {
				continue // local variable access, not a parameter
			}
			if !seen[in.StackOff] {
				seen[in.StackOff] = true
				ordered = append(ordered, in.StackOff)
			}
		}
		// most negative (furthest from BP, first-declared parameter) first.
		for i := 0; i < len(ordered); i++ {
			for j := i + 1; j < len(ordered); j++ {
				if ordered[j] < ordered[i] {
					ordered[i], ordered[j] = ordered[j], ordered[i]
				}
			}
		}
		idx := make(map[int32]int, len(ordered))
		for i, off := range ordered {
			idx[off] = i
		}
		out[e] = idx
	}
	return out
}

// cell is one 4-byte-granular entry of the lightweight type-only stack
// inferOne walks alongside the subroutine's instructions. paramIdx is >= 0
// only while the cell still represents an as-yet-unmodified read of a
// parameter slot, letting a later operation's DataType refine that
// parameter's inferred type; any op that combines or transforms the value
// clears the passthrough.
type cell struct {
	typ      types.Type
	paramIdx int
}

func noParam(t types.Type) cell { return cell{typ: t, paramIdx: -1} }

// inferOne runs one pass of the lightweight abstract interpretation over
// sub's prologue and body (spec §4.6 step 1-2): a single linear scan of the
// instruction stream, resetting the type-only stack at every RETN since
// live ranges do not cross control-flow merges that this pass does not
// model (full control-flow-aware simulation is the Stack Simulator's job,
// spec §4.7, not this one's).
func inferOne(sub *linker.Subroutine, paramOffsets map[int32]int, sigs map[uint32]*Signature, actions *actiontable.ActionTable) (*Signature, []diag.Diagnostic) {
	cur := sigs[sub.Entry].clone()
	paramCount := len(paramOffsets)
	if paramCount > cur.ParamCount {
		cur.ParamCount = paramCount
	}
	for len(cur.ParamTypes) < cur.ParamCount {
		cur.ParamTypes = append(cur.ParamTypes, types.TAny)
	}

	var diags []diag.Diagnostic
	var stack []cell
	pop := func(n int) []cell {
		if n > len(stack) {
			n = len(stack)
		}
		out := stack[len(stack)-n:]
		stack = stack[:len(stack)-n]
		return out
	}
	join := func(idx int, t types.Type) {
		if idx < 0 || idx >= len(cur.ParamTypes) {
			return
		}
		cur.ParamTypes[idx] = types.Join(cur.ParamTypes[idx], t)
	}

	for _, in := range sub.Insns {
		switch in.Op {
		case bytecode.CONST, bytecode.RSADD:
			stack = append(stack, noParam(scalarFromDType(in.DType)))

		case bytecode.CPTOPSP:
			for i := 0; i < int(in.Size1/4); i++ {
				stack = append(stack, noParam(types.TAny))
			}

		case bytecode.CPDOWNSP:
			// assignment: leaves the stack shape unchanged (spec §4.7 edge
			// cases are handled by the full simulator, not here).

		case bytecode.CPTOPBP:
			n := int(in.Size1 / 4)
			if n < 1 {
				n = 1
			}
			if in.StackOff < 0 {
				idx, ok := paramOffsets[in.StackOff]
				for i := 0; i < n; i++ {
					if ok {
						stack = append(stack, cell{typ: cur.ParamTypes[idx], paramIdx: idx})
					} else {
						stack = append(stack, noParam(types.TAny))
					}
				}
			} else {
				for i := 0; i < n; i++ {
					stack = append(stack, noParam(types.TAny))
				}
			}

		case bytecode.CPDOWNBP:
			n := int(in.Size1 / 4)
			if n < 1 {
				n = 1
			}
			popped := pop(n)
			if in.StackOff < 0 {
				if idx, ok := paramOffsets[in.StackOff]; ok {
					for _, c := range popped {
						join(idx, c.typ)
					}
				}
			}

		case bytecode.MOVSP:
			n := int(in.Count)
			if n < 0 {
				n = -n
			}
			pop(n / 4)

		case bytecode.DESTRUCT:
			pop(int(in.Size1 / 4))
			keep := int(in.Size2 / 4)
			for i := 0; i < keep; i++ {
				stack = append(stack, noParam(types.TAny))
			}

		case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
			bytecode.INCOR, bytecode.EXCOR, bytecode.BOOLAND, bytecode.SHLEFT,
			bytecode.SHRIGHT, bytecode.USHRIGHT, bytecode.LOGAND, bytecode.LOGOR,
			bytecode.EQ, bytecode.NEQ, bytecode.GEQ, bytecode.GT, bytecode.LT, bytecode.LEQ:
			two := pop(2)
			var lt, rt types.Type
			if len(two) == 2 {
				lt, rt = two[0].typ, two[1].typ
			}
			opL, opR := operandTypes(in.DType)
			if len(two) == 2 {
				join(two[0].paramIdx, opL)
				join(two[1].paramIdx, opR)
			}
			stack = append(stack, noParam(binaryResultType(in.Op, opL, opR, lt, rt)))

		case bytecode.NEG, bytecode.COMP, bytecode.NOT:
			one := pop(1)
			opT := scalarFromDType(in.DType)
			if len(one) == 1 {
				join(one[0].paramIdx, opT)
			}
			stack = append(stack, noParam(opT))

		case bytecode.JZ, bytecode.JNZ:
			one := pop(1)
			if len(one) == 1 {
				join(one[0].paramIdx, types.TInt)
			}

		case bytecode.JSR:
			target, _ := in.Target()
			callee := sigs[target]
			if callee == nil {
				callee = seedSignature()
			}
			args := pop(callee.ParamCount)
			for i, c := range args {
				if i < len(callee.ParamTypes) {
					join(c.paramIdx, callee.ParamTypes[i])
				}
			}
			if callee.ReturnType.Kind != types.Void {
				stack = append(stack, noParam(callee.ReturnType))
			}

		case bytecode.ACTION:
			a, err := actions.Action(int(in.ActionIdx))
			if err != nil {
				diags = append(diags, diag.Fatalf(stageName, in.Offset, "%s", err))
				break
			}
			argc := int(in.ArgCount)
			start := len(a.Params) - argc
			if start < 0 {
				start = 0
			}
			consumed := a.ParamSize(len(a.Params)) - a.ParamSize(start)
			args := pop(consumed)
			for i, c := range args {
				pi := start + i
				if pi < len(a.Params) {
					join(c.paramIdx, a.Params[pi])
				}
			}
			if a.Return.Kind != types.Void {
				stack = append(stack, noParam(a.Return))
			}

		case bytecode.RETN:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				cur.ReturnType = types.Join(cur.ReturnType, top.typ)
			} else {
				cur.ReturnType = types.Join(cur.ReturnType, types.TVoid)
			}
			stack = stack[:0]

		case bytecode.STORESTATE:
			// snapshot point only; no type-stack effect at this stage.
		}
	}

	return cur, diags
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
	case bytecode.DTStructStruct:
		return types.TAny, types.TAny
	default:
		return types.TAny, types.TAny
	}
}

func binaryResultType(op bytecode.Opcode, opL, opR types.Type, observedL, observedR types.Type) types.Type {
	switch op {
	case bytecode.EQ, bytecode.NEQ, bytecode.GEQ, bytecode.GT, bytecode.LT, bytecode.LEQ,
		bytecode.LOGAND, bytecode.LOGOR:
		return types.TInt // NWScript booleans are ints
	}
	switch {
	case opL.Kind == types.Vector || opR.Kind == types.Vector:
		return types.TVector
	case opL.Kind == types.Float || opR.Kind == types.Float:
		return types.TFloat
	case opL.Kind == types.String || opR.Kind == types.String:
		return types.TString
	case opL.Kind == types.Any && opR.Kind == types.Any:
		return types.Join(observedL, observedR)
	default:
		return types.TInt
	}
}
