// Package callgraph implements the Call-Graph Builder (spec §4.4) and the
// SCC Condenser (spec §4.5): a directed graph over subroutine-entry offsets,
// and Tarjan's algorithm to group it into strongly-connected components in
// reverse-topological (leaves-first) order.
package callgraph

import (
	"sort"

	"github.com/dolthub/swiss"
	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/linker"
)

// CallGraph maps each subroutine-entry offset to the set of callee entry
// offsets it invokes via JSR. Edge sets use the same swiss.Map the teacher
// reaches for whenever it needs a general-purpose hash set/map
// (lang/machine/map.go's Map value type), here keyed by offset instead of
// by Value.
type CallGraph struct {
	edges map[uint32]*swiss.Map[uint32, struct{}]
	nodes []uint32
}

// Build sweeps every subroutine in prog for JSR instructions and records an
// edge from the subroutine's entry to the resolved callee entry. Self-loops
// (direct recursion) are recorded like any other edge (spec §4.4).
func Build(prog *linker.Program) *CallGraph {
	cg := &CallGraph{edges: make(map[uint32]*swiss.Map[uint32, struct{}])}

	entries := prog.SubroutineEntries()
	cg.nodes = entries
	for _, e := range entries {
		cg.edges[e] = swiss.NewMap[uint32, struct{}](4)
	}

	for _, e := range entries {
		sub := prog.Subroutines[e]
		for _, in := range sub.Insns {
			if in.Op != bytecode.JSR {
				continue
			}
			target, ok := in.Target()
			if !ok {
				continue // resolved by the linker; absence here means malformed input already rejected upstream
			}
			cg.edges[e].Put(target, struct{}{})
		}
	}
	return cg
}

// Nodes returns every subroutine entry offset, sorted ascending.
func (cg *CallGraph) Nodes() []uint32 {
	out := make([]uint32, len(cg.nodes))
	copy(out, cg.nodes)
	return out
}

// Successors returns the callee entry offsets of e, sorted ascending.
func (cg *CallGraph) Successors(e uint32) []uint32 {
	m, ok := cg.edges[e]
	if !ok {
		return nil
	}
	out := make([]uint32, 0, m.Count())
	m.Iter(func(k uint32, _ struct{}) bool {
		out = append(out, k)
		return false
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReachableFrom returns the set of subroutine entries reachable from entry,
// including entry itself.
func (cg *CallGraph) ReachableFrom(entry uint32) map[uint32]bool {
	seen := map[uint32]bool{entry: true}
	stack := []uint32{entry}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range cg.Successors(n) {
			if !seen[succ] {
				seen[succ] = true
				stack = append(stack, succ)
			}
		}
	}
	return seen
}
