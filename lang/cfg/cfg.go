// Package cfg implements the Control-Flow Structurer (spec §4.8): it
// consumes a Stack Simulator Result — basic blocks and the edges between
// them — and rebuilds the nested if/while/do-while/switch shape a human
// would have written, falling back to an unstructured goto/label pair only
// when a jump cannot be classified as one of those (spec §4.8, "non-local
// jumps as last resort with diagnostic").
//
// This pass has no direct analog in the teacher's concrete VM (an
// interpreter never needs to recover structure, it just executes the
// jumps); its shape instead follows the teacher's whole-graph, single-pass
// resolution style in lang/resolver/resolver.go, which walks an entire
// program once computing a global classification before anything
// downstream runs — here that classification is dominance and natural
// loops, computed once in newGraph before any region is structured.
package cfg

import (
	"fmt"
	"sort"

	"github.com/nwscript-tools/ncsdecomp/lang/ast"
	"github.com/nwscript-tools/ncsdecomp/lang/diag"
	"github.com/nwscript-tools/ncsdecomp/lang/machine"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

const stageName = "cfg"

// UnstructuredJumpError documents that some jump could not be classified
// as an if/while/do-while/break/continue and was rendered as a goto/label
// pair instead. It is never returned as an error: the condition is always
// surfaced as a Warning diagnostic (spec §7 treats this as a graceful
// structural fallback, not a stage failure).
type UnstructuredJumpError struct{ At uint32 }

func (e *UnstructuredJumpError) Error() string {
	return fmt.Sprintf("cfg: unstructured jump at %#x, falling back to goto", e.At)
}

// Structure rebuilds res's basic blocks into a single nested ast.Block
// (spec §4.8).
func Structure(res *machine.Result) (*ast.Block, []diag.Diagnostic) {
	g := newGraph(res)
	st := &structurer{g: g, labelNames: map[uint32]string{}}
	body := st.region(res.Entry, 0, false)
	return body, st.diags
}

// graph indexes a Result's blocks and edges for the structurer: outgoing
// edges per block (with a synthesized fallthrough edge for any block that
// does not end in a control-transferring statement), the reverse
// (incoming) edges for dominator computation, each block's immediate
// dominator, and the back edges that identify loop headers.
type graph struct {
	blocks    map[uint32]*machine.Block
	order     []uint32
	out       map[uint32][]machine.Edge
	preds     map[uint32][]uint32
	idom      map[uint32]uint32
	backEdges map[uint32][]uint32 // header offset -> latch offsets
}

func newGraph(res *machine.Result) *graph {
	g := &graph{
		blocks: res.Blocks,
		order:  res.Order,
		out:    make(map[uint32][]machine.Edge, len(res.Order)),
		preds:  make(map[uint32][]uint32, len(res.Order)),
	}
	for _, e := range res.Edges {
		g.out[e.From] = append(g.out[e.From], e)
		g.preds[e.To] = append(g.preds[e.To], e.From)
	}
	// A block whose last statement does not itself transfer control (no
	// Return/Goto/Break/Continue recorded, and the Stack Simulator never
	// emitted a jump edge for it) falls straight through to the next block
	// in program order.
	for i, off := range res.Order {
		if len(g.out[off]) != 0 {
			continue
		}
		if endsBlock(g.blocks[off]) {
			continue
		}
		if i+1 < len(res.Order) {
			next := res.Order[i+1]
			g.out[off] = []machine.Edge{{From: off, To: next}}
			g.preds[next] = append(g.preds[next], off)
		}
	}
	g.idom = computeDominators(res.Entry, g.out, g.preds)
	g.backEdges = g.computeBackEdges(res.Edges)
	return g
}

func endsBlock(b *machine.Block) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}
	return b.Stmts[len(b.Stmts)-1].BlockEnding()
}

// computeDominators runs the standard Cooper/Harvey/Kennedy iterative
// dominator algorithm: a reverse-postorder DFS numbering followed by
// fixed-point intersection of each block's predecessors' dominator sets.
func computeDominators(entry uint32, out map[uint32][]machine.Edge, preds map[uint32][]uint32) map[uint32]uint32 {
	return computeDominatorsEdges(entry, edgesFromOut(out), preds)
}

func edgesFromOut(out map[uint32][]machine.Edge) map[uint32][]uint32 {
	m := make(map[uint32][]uint32, len(out))
	for from, edges := range out {
		for _, e := range edges {
			m[from] = append(m[from], e.To)
		}
	}
	return m
}

func computeDominatorsEdges(entry uint32, succ map[uint32][]uint32, preds map[uint32][]uint32) map[uint32]uint32 {
	postIndex := map[uint32]int{}
	visited := map[uint32]bool{}
	counter := 0
	var walk func(n uint32)
	walk = func(n uint32) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, to := range succ[n] {
			walk(to)
		}
		postIndex[n] = counter
		counter++
	}
	walk(entry)

	rpo := make([]uint32, 0, len(postIndex))
	for n := range postIndex {
		rpo = append(rpo, n)
	}
	sort.Slice(rpo, func(i, j int) bool { return postIndex[rpo[i]] > postIndex[rpo[j]] })

	idom := map[uint32]uint32{entry: entry}
	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			var newIdom uint32
			found := false
			for _, p := range preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = intersect(newIdom, p, idom, postIndex)
			}
			if !found {
				continue
			}
			if old, ok := idom[b]; !ok || old != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersect(a, b uint32, idom map[uint32]uint32, postIndex map[uint32]int) uint32 {
	for a != b {
		for postIndex[a] < postIndex[b] {
			a = idom[a]
		}
		for postIndex[b] < postIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// dominates reports whether a dominates b (every path from the entry to b
// passes through a), including the trivial a == b case.
func (g *graph) dominates(a, b uint32) bool {
	if a == b {
		return true
	}
	seen := map[uint32]bool{}
	for {
		p, ok := g.idom[b]
		if !ok {
			return false
		}
		if p == b {
			return false // reached the entry without finding a
		}
		if p == a {
			return true
		}
		if seen[p] {
			return false
		}
		seen[p] = true
		b = p
	}
}

// computeBackEdges finds every edge L -> H where H dominates L: the
// defining property of a natural loop header (spec §4.8).
func (g *graph) computeBackEdges(edges []machine.Edge) map[uint32][]uint32 {
	back := map[uint32][]uint32{}
	for _, e := range edges {
		if g.dominates(e.To, e.From) {
			back[e.To] = append(back[e.To], e.From)
		}
	}
	for h, latches := range back {
		sort.Slice(latches, func(i, j int) bool { return latches[i] < latches[j] })
		back[h] = latches
	}
	return back
}

// naturalLoop collects header h plus every block that can reach latch l
// without passing back through h — the standard natural-loop membership
// test.
func (g *graph) naturalLoop(h, l uint32) map[uint32]bool {
	body := map[uint32]bool{h: true}
	if l == h {
		return body
	}
	body[l] = true
	stack := []uint32{l}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.preds[n] {
			if !body[p] {
				body[p] = true
				stack = append(stack, p)
			}
		}
	}
	return body
}

// splitConditional separates a 2-edge block's edges into the conditional
// ("taken") edge and the unconditional fallthrough edge (spec §4.7: Cond
// is always normalized so it reads "branch taken when true").
func splitConditional(outs []machine.Edge) (taken, fall machine.Edge, ok bool) {
	if len(outs) != 2 {
		return machine.Edge{}, machine.Edge{}, false
	}
	if outs[0].Cond != nil && outs[1].Cond == nil {
		return outs[0], outs[1], true
	}
	if outs[1].Cond != nil && outs[0].Cond == nil {
		return outs[1], outs[0], true
	}
	return machine.Edge{}, machine.Edge{}, false
}

func negate(e ast.Expr) ast.Expr {
	if u, ok := e.(*ast.UnaryOp); ok && u.Op == "!" {
		return u.Right
	}
	return &ast.UnaryOp{Op: "!", Right: e, Typ: types.TInt}
}

// loopFrame tracks the innermost loop being structured, so a branch to its
// header or its exit can be rendered as continue/break instead of being
// recursed into as its own region (spec §4.8).
type loopFrame struct {
	header  uint32
	exit    uint32
	hasExit bool
}

type structurer struct {
	g          *graph
	diags      []diag.Diagnostic
	labelNames map[uint32]string
	loops      []loopFrame
}

func (st *structurer) warn(at uint32, format string, args ...interface{}) {
	st.diags = append(st.diags, diag.Warningf(stageName, at, format, args...))
}

func (st *structurer) labelFor(off uint32) string {
	if n, ok := st.labelNames[off]; ok {
		return n
	}
	n := fmt.Sprintf("label_%x", off)
	st.labelNames[off] = n
	return n
}

func (st *structurer) fallbackGoto(at uint32) ast.Stmt {
	st.diags = append(st.diags, diag.Warningf(stageName, at, "%s", (&UnstructuredJumpError{At: at}).Error()))
	return &ast.Goto{At: at, Label: st.labelFor(at)}
}

// region walks forward from start, materializing straight-line code,
// loops and if/else as it goes, until it reaches stop (when hasStop) or
// runs out of reachable blocks. It never revisits a block within its own
// traversal — a re-entry it cannot explain as a loop is reported and
// rendered as goto.
func (st *structurer) region(start uint32, stop uint32, hasStop bool) *ast.Block {
	result := &ast.Block{At: start}
	cur := start
	visited := map[uint32]bool{}
	for {
		if hasStop && cur == stop {
			return result
		}
		blk, ok := st.g.blocks[cur]
		if !ok {
			return result
		}
		if visited[cur] {
			st.warn(cur, "control re-enters block %#x outside any recognized loop", cur)
			result.Stmts = append(result.Stmts, st.fallbackGoto(cur))
			return result
		}
		visited[cur] = true

		if len(st.g.backEdges[cur]) > 0 {
			loopStmt, next, hasNext := st.buildLoop(cur)
			result.Stmts = append(result.Stmts, loopStmt)
			if !hasNext {
				return result
			}
			cur = next
			continue
		}

		result.Stmts = append(result.Stmts, blk.Stmts...)
		outs := st.g.out[cur]

		switch len(outs) {
		case 0:
			return result
		case 1:
			cur = outs[0].To
		case 2:
			taken, fall, ok := splitConditional(outs)
			if !ok {
				st.warn(cur, "block %#x has two outgoing edges that are not a condition/fallthrough pair", cur)
				return result
			}
			ifStmt, next, hasNext := st.buildIf(cur, taken, fall)
			result.Stmts = append(result.Stmts, ifStmt)
			if !hasNext {
				return result
			}
			cur = next
		default:
			st.warn(cur, "block %#x has %d outgoing edges, cannot structure", cur, len(outs))
			result.Stmts = append(result.Stmts, st.fallbackGoto(cur))
			return result
		}
	}
}

type branchKind int

const (
	branchRegion branchKind = iota
	branchContinue
	branchBreak
)

func (st *structurer) classify(to uint32) branchKind {
	if len(st.loops) == 0 {
		return branchRegion
	}
	top := st.loops[len(st.loops)-1]
	if to == top.header {
		return branchContinue
	}
	if top.hasExit && to == top.exit {
		return branchBreak
	}
	return branchRegion
}

// branchBlock renders one arm of an if: a bare break/continue if the
// target is the innermost loop's header or exit, an empty block if the
// target is the merge point itself (an else-less if), or a recursively
// structured region otherwise.
func (st *structurer) branchBlock(at uint32, to uint32, merge uint32, hasMerge bool) *ast.Block {
	switch st.classify(to) {
	case branchContinue:
		return &ast.Block{At: at, Stmts: []ast.Stmt{&ast.Continue{At: at}}}
	case branchBreak:
		return &ast.Block{At: at, Stmts: []ast.Stmt{&ast.Break{At: at}}}
	default:
		if hasMerge && to == merge {
			return &ast.Block{At: at}
		}
		return st.region(to, merge, hasMerge)
	}
}

func (st *structurer) buildIf(at uint32, taken, fall machine.Edge) (ast.Stmt, uint32, bool) {
	merge, hasMerge := st.findMerge(taken.To, fall.To)

	thenBlock := st.branchBlock(at, taken.To, merge, hasMerge)
	elseBlock := st.branchBlock(at, fall.To, merge, hasMerge)

	ifStmt := &ast.If{At: at, Cond: taken.Cond, Then: thenBlock}
	if len(elseBlock.Stmts) > 0 {
		ifStmt.Else = elseBlock
	}
	return collapseSwitch(ifStmt), merge, hasMerge
}

// switchDiscriminant reports whether e is "x == c" and, if so, returns x
// and c.
func switchDiscriminant(e ast.Expr) (ast.Expr, ast.Expr, bool) {
	b, ok := e.(*ast.BinaryOp)
	if !ok || b.Op != "==" {
		return nil, nil, false
	}
	return b.Left, b.Right, true
}

func sameDiscriminant(a, b ast.Expr) bool {
	ai, aok := a.(*ast.Ident)
	bi, bok := b.(*ast.Ident)
	if aok && bok {
		return ai.Name == bi.Name
	}
	return false
}

// collapseSwitch rewrites a chain of "if (x == c1) {...} else if (x == c2)
// {...} else {...}" into a single Switch once every condition in the
// chain compares the same discriminant for equality (spec §4.8, §8 S4).
// A trailing Break is appended to any case body that does not already end
// in a control-transferring statement, since Switch's cases fall through
// to the next one by default (spec §3) the way the emitted source's
// bytecode-derived jumps actually intended.
func collapseSwitch(ifStmt *ast.If) ast.Stmt {
	disc, firstVal, ok := switchDiscriminant(ifStmt.Cond)
	if !ok {
		return ifStmt
	}
	cases := []*ast.Case{{At: ifStmt.At, Values: []ast.Expr{firstVal}, Body: ifStmt.Then}}

	cur := ifStmt
	for cur.Else != nil && len(cur.Else.Stmts) == 1 {
		next, isIf := cur.Else.Stmts[0].(*ast.If)
		if !isIf {
			break
		}
		d2, val2, ok2 := switchDiscriminant(next.Cond)
		if !ok2 || !sameDiscriminant(disc, d2) {
			break
		}
		cases = append(cases, &ast.Case{At: next.At, Values: []ast.Expr{val2}, Body: next.Then})
		cur = next
	}
	if len(cases) < 2 {
		return ifStmt
	}
	if cur.Else != nil {
		cases = append(cases, &ast.Case{At: cur.Else.At, Body: cur.Else})
	}
	for _, c := range cases {
		if n := len(c.Body.Stmts); n == 0 || !c.Body.Stmts[n-1].BlockEnding() {
			c.Body.Stmts = append(c.Body.Stmts, &ast.Break{At: c.At})
		}
	}
	return &ast.Switch{At: ifStmt.At, Disc: disc, Cases: cases}
}

// findMerge locates the nearest block reachable from both a and b — the
// point where an if/else's two arms rejoin — by comparing each side's
// forward BFS order. It returns !ok when the arms never rejoin within the
// subroutine (e.g. both end in return).
func (st *structurer) findMerge(a, b uint32) (uint32, bool) {
	orderA := st.bfsOrder(a)
	setB := map[uint32]bool{}
	for _, x := range st.bfsOrder(b) {
		setB[x] = true
	}
	for _, x := range orderA {
		if setB[x] {
			return x, true
		}
	}
	return 0, false
}

func (st *structurer) bfsOrder(start uint32) []uint32 {
	visited := map[uint32]bool{start: true}
	queue := []uint32{start}
	var order []uint32
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, e := range st.g.out[n] {
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return order
}

// buildLoop structures the natural loop headed at h: a pre-tested While
// when h itself branches out of the body, a post-tested DoWhile when the
// exit test lives on the latch instead, or an infinite While (TRUE) when
// neither the header nor the latch ever branches outside the body (an
// NWScript `while (TRUE) { ... }` with only an inner return as its exit).
func (st *structurer) buildLoop(h uint32) (ast.Stmt, uint32, bool) {
	latches := st.g.backEdges[h]
	l := latches[0]
	if len(latches) > 1 {
		st.warn(h, "loop header %#x has %d latches, structuring only the first", h, len(latches))
	}
	body := st.g.naturalLoop(h, l)
	headerBlk := st.g.blocks[h]
	outs := st.g.out[h]

	if len(outs) == 2 {
		taken, fall, ok := splitConditional(outs)
		if ok {
			var cond ast.Expr
			var bodyStart, exit uint32
			var hasExit bool
			switch {
			case body[taken.To] && !body[fall.To]:
				cond, bodyStart, exit, hasExit = taken.Cond, taken.To, fall.To, true
			case body[fall.To] && !body[taken.To]:
				cond, bodyStart, exit, hasExit = negate(taken.Cond), fall.To, taken.To, true
			}
			if hasExit {
				st.loops = append(st.loops, loopFrame{header: h, exit: exit, hasExit: true})
				bodyBlock := st.region(bodyStart, h, true)
				st.loops = st.loops[:len(st.loops)-1]
				bodyBlock.Stmts = append(append([]ast.Stmt{}, headerBlk.Stmts...), bodyBlock.Stmts...)
				return &ast.While{At: h, Cond: cond, Body: bodyBlock}, exit, true
			}
		}
		st.warn(h, "loop header %#x branch shape doesn't separate body from exit", h)
		return st.fallbackGoto(h), 0, false
	}

	if len(outs) == 1 && l != h {
		latchOuts := st.g.out[l]
		if taken, fall, ok := splitConditional(latchOuts); ok {
			var cond ast.Expr
			var exit uint32
			var hasExit bool
			switch {
			case body[taken.To] && !body[fall.To]:
				cond, exit, hasExit = taken.Cond, fall.To, true
			case body[fall.To] && !body[taken.To]:
				cond, exit, hasExit = negate(taken.Cond), taken.To, true
			}
			if hasExit {
				st.loops = append(st.loops, loopFrame{header: h, exit: exit, hasExit: true})
				bodyBlock := st.region(outs[0].To, l, true)
				st.loops = st.loops[:len(st.loops)-1]
				bodyBlock.Stmts = append(append([]ast.Stmt{}, headerBlk.Stmts...), bodyBlock.Stmts...)
				return &ast.DoWhile{At: h, Body: bodyBlock, Cond: cond}, exit, true
			}
		}
	}

	if len(outs) == 1 {
		// Neither the header nor the latch carries a visible exit test in
		// this subroutine: render as an infinite loop, every exit from it is
		// some inner return.
		st.loops = append(st.loops, loopFrame{header: h})
		bodyBlock := st.region(outs[0].To, h, true)
		st.loops = st.loops[:len(st.loops)-1]
		bodyBlock.Stmts = append(append([]ast.Stmt{}, headerBlk.Stmts...), bodyBlock.Stmts...)
		cond := &ast.Literal{Typ: types.TInt, Int: 1}
		return &ast.While{At: h, Cond: cond, Body: bodyBlock}, 0, false
	}

	st.warn(h, "loop header %#x has %d outgoing edges, cannot structure", h, len(outs))
	return st.fallbackGoto(h), 0, false
}
