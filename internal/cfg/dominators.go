package cfg

// Dominators holds the immediate-dominator tree and the post-order of a
// graph, computed by the iterative Cooper–Harvey–Kennedy algorithm.
type Dominators struct {
	// Idom maps each reachable block to its immediate dominator; the
	// start block maps to itself.
	Idom []BlockID

	// PostOrder lists reachable blocks, successors before predecessors;
	// the start block is last.
	PostOrder []BlockID

	// PostIndex is the inverse permutation of PostOrder; unreachable
	// blocks hold -1.
	PostIndex []int
}

// ComputeDominators analyzes the graph. Unreachable blocks keep Idom
// equal to themselves and PostIndex -1; they never participate in
// dominance queries.
func ComputeDominators(g *Graph) *Dominators {
	n := len(g.Blocks)
	d := &Dominators{
		Idom:      make([]BlockID, n),
		PostIndex: make([]int, n),
	}
	for i := range d.PostIndex {
		d.PostIndex[i] = -1
		d.Idom[i] = BlockID(i)
	}

	// Depth-first search collecting post-order.
	visited := make([]bool, n)
	var dfs func(BlockID)
	dfs = func(id BlockID) {
		visited[id] = true
		for _, s := range g.Blocks[id].End.Successors() {
			if !visited[s] {
				dfs(s)
			}
		}
		d.PostIndex[id] = len(d.PostOrder)
		d.PostOrder = append(d.PostOrder, id)
	}
	dfs(Start)

	preds := g.Preds()

	// Iterate to fixpoint. idom is "defined" once processed; the start
	// block seeds the lattice.
	defined := make([]bool, n)
	defined[Start] = true

	changed := true
	for changed {
		changed = false
		// Reverse post-order: predecessors tend to be processed first.
		for i := len(d.PostOrder) - 1; i >= 0; i-- {
			id := d.PostOrder[i]
			if id == Start {
				continue
			}
			var newIdom BlockID
			haveNew := false
			for _, p := range preds[id] {
				if d.PostIndex[p] < 0 || !defined[p] {
					continue
				}
				if !haveNew {
					newIdom = p
					haveNew = true
				} else {
					newIdom = d.intersect(p, newIdom)
				}
			}
			if !haveNew {
				continue
			}
			if !defined[id] || d.Idom[id] != newIdom {
				d.Idom[id] = newIdom
				defined[id] = true
				changed = true
			}
		}
	}
	return d
}

// intersect walks two blocks up the partial dominator tree to their
// common ancestor, comparing by post-order index.
func (d *Dominators) intersect(a, b BlockID) BlockID {
	for a != b {
		for d.PostIndex[a] < d.PostIndex[b] {
			a = d.Idom[a]
		}
		for d.PostIndex[b] < d.PostIndex[a] {
			b = d.Idom[b]
		}
	}
	return a
}

// Dominates reports whether a dominates b (reflexively).
func (d *Dominators) Dominates(a, b BlockID) bool {
	for {
		if a == b {
			return true
		}
		if b == Start {
			return false
		}
		next := d.Idom[b]
		if next == b {
			return false
		}
		b = next
	}
}

// ReversePostOrder returns reachable blocks in reverse post-order.
func (d *Dominators) ReversePostOrder() []BlockID {
	out := make([]BlockID, len(d.PostOrder))
	for i, id := range d.PostOrder {
		out[len(out)-1-i] = id
	}
	return out
}

// DomPreorder returns reachable blocks in pre-order over the idom tree:
// every block appears after its immediate dominator.
func (d *Dominators) DomPreorder() []BlockID {
	children := map[BlockID][]BlockID{}
	for i := len(d.PostOrder) - 1; i >= 0; i-- {
		id := d.PostOrder[i]
		if id == Start {
			continue
		}
		children[d.Idom[id]] = append(children[d.Idom[id]], id)
	}
	var out []BlockID
	var walk func(BlockID)
	walk = func(id BlockID) {
		out = append(out, id)
		for _, c := range children[id] {
			walk(c)
		}
	}
	walk(Start)
	return out
}
