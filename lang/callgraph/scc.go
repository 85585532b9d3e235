package callgraph

// CondenseSCCs computes the strongly-connected components of cg using
// Tarjan's algorithm and returns them such that if component A has an edge
// to component B (A != B) in the condensation DAG, B precedes A in the
// result — i.e. leaves of the call graph first (spec §4.5), which is
// exactly the order the Prototype Engine needs to process SCCs in (spec
// §4.6, "Topological scope"). A self-recursive single-node component is its
// own SCC.
//
// The algorithm is iterative rather than recursive: unlike the resolver's
// scope-stack bookkeeping it mirrors in style (plain maps plus an explicit
// stack, no hidden recursion), a subroutine call graph can be deep enough in
// pathological inputs that a recursive Tarjan would risk stack exhaustion,
// so the explicit-stack form is the safer default here.
func CondenseSCCs(cg *CallGraph) [][]uint32 {
	t := &tarjan{
		cg:      cg,
		index:   make(map[uint32]int),
		lowlink: make(map[uint32]int),
		onStack: make(map[uint32]bool),
	}
	for _, n := range cg.Nodes() {
		if _, seen := t.index[n]; !seen {
			t.strongconnect(n)
		}
	}
	return t.sccs
}

type tarjan struct {
	cg      *CallGraph
	counter int
	index   map[uint32]int
	lowlink map[uint32]int
	onStack map[uint32]bool
	stack   []uint32
	sccs    [][]uint32
}

// frame is one level of the explicit call stack standing in for a
// recursive strongconnect(v) invocation.
type frame struct {
	v        uint32
	succIdx  int
	succs    []uint32
}

func (t *tarjan) strongconnect(start uint32) {
	var call []*frame
	push := func(v uint32) {
		t.index[v] = t.counter
		t.lowlink[v] = t.counter
		t.counter++
		t.stack = append(t.stack, v)
		t.onStack[v] = true
		call = append(call, &frame{v: v, succs: t.cg.Successors(v)})
	}

	push(start)
	for len(call) > 0 {
		top := call[len(call)-1]

		if top.succIdx < len(top.succs) {
			w := top.succs[top.succIdx]
			top.succIdx++

			if _, seen := t.index[w]; !seen {
				push(w)
				continue
			} else if t.onStack[w] {
				if t.index[w] < t.lowlink[top.v] {
					t.lowlink[top.v] = t.index[w]
				}
			}
			continue
		}

		// all successors visited: pop this frame, propagate lowlink to caller
		call = call[:len(call)-1]
		if len(call) > 0 {
			caller := call[len(call)-1]
			if t.lowlink[top.v] < t.lowlink[caller.v] {
				t.lowlink[caller.v] = t.lowlink[top.v]
			}
		}

		if t.lowlink[top.v] == t.index[top.v] {
			var comp []uint32
			for {
				n := len(t.stack) - 1
				w := t.stack[n]
				t.stack = t.stack[:n]
				t.onStack[w] = false
				comp = append(comp, w)
				if w == top.v {
					break
				}
			}
			t.sccs = append(t.sccs, comp)
		}
	}
}
