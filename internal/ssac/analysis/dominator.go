package analysis

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// DomTree is the result of solving either the dominator or
// post-dominator relation over a function's CFG: the immediate
// dominator of every reachable block, the dominator tree built from
// those edges, and each block's dominance frontier.
type DomTree struct {
	reverse bool
	idom    map[ir.BlockID]ir.BlockID
	tree    map[ir.BlockID][]ir.BlockID
	front   map[ir.BlockID][]ir.BlockID
}

// IDom returns the immediate dominator of b, or (b, false) if b is the
// root of the tree (the entry block for a forward tree, a virtual
// join of the exits for a post-dominator tree that is not itself a
// real block).
func (d *DomTree) IDom(b ir.BlockID) (ir.BlockID, bool) {
	p, ok := d.idom[b]
	if !ok || p == b {
		return b, false
	}
	return p, true
}

// Dominates reports whether a dominates b (reflexively: a dominates
// itself).
func (d *DomTree) Dominates(a, b ir.BlockID) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		p, ok := d.IDom(cur)
		if !ok {
			return cur == a
		}
		cur = p
	}
}

// Children returns the blocks whose immediate dominator is b.
func (d *DomTree) Children(b ir.BlockID) []ir.BlockID { return d.tree[b] }

// Frontier returns b's dominance frontier: blocks dominated by a
// predecessor of b-dominated territory but not strictly dominated by
// b itself.
func (d *DomTree) Frontier(b ir.BlockID) []ir.BlockID { return d.front[b] }

// BuildDominatorTree computes forward dominance over f's CFG, rooted
// at the entry block.
func BuildDominatorTree(f *ir.Function) *DomTree {
	entry := f.EntryBlock()
	if entry == nil {
		return &DomTree{idom: map[ir.BlockID]ir.BlockID{}, tree: map[ir.BlockID][]ir.BlockID{}, front: map[ir.BlockID][]ir.BlockID{}}
	}
	succs := func(b ir.BlockID) []ir.BlockID { return f.Block(b).Succs() }
	return solve(f, []ir.BlockID{entry.ID()}, succs, false)
}

// BuildPostDominatorTree computes post-dominance over f's CFG: b
// post-dominates a if every path from a to a Ret passes through b.
// The virtual root joins every Ret block.
func BuildPostDominatorTree(f *ir.Function) *DomTree {
	exits := exitBlocks(f)
	preds := func(b ir.BlockID) []ir.BlockID { return f.Block(b).Preds() }
	return solve(f, exits, preds, true)
}

// solve runs the Lengauer-Tarjan dominator algorithm over the blocks
// of f reachable (in the `next` direction) from entryPoints, joined at
// a virtual source node. Passing `next` as successors computes
// dominance; passing it as predecessors (over the same block set)
// computes post-dominance.
func solve(f *ir.Function, entryPoints []ir.BlockID, next func(ir.BlockID) []ir.BlockID, reverse bool) *DomTree {
	blocks := f.Blocks()
	index := make(map[ir.BlockID]int, len(blocks))
	idOf := make([]ir.BlockID, len(blocks))
	for i, b := range blocks {
		if !b.Valid() {
			continue
		}
		index[b.ID()] = i
		idOf[i] = b.ID()
	}
	n := len(blocks)
	virtualSource := n

	graph := make([][]int, n+1)
	for _, b := range blocks {
		if !b.Valid() {
			continue
		}
		u := index[b.ID()]
		for _, s := range next(b.ID()) {
			sb := f.Block(s)
			if sb == nil || !sb.Valid() {
				continue
			}
			graph[u] = append(graph[u], index[s])
		}
	}
	for _, e := range entryPoints {
		graph[virtualSource] = append(graph[virtualSource], index[e])
	}

	nodeCount := n + 1
	backward := make([][]int, nodeCount)
	for u := 0; u < nodeCount; u++ {
		for _, v := range graph[u] {
			backward[v] = append(backward[v], u)
		}
	}

	blockToDfs := make([]int, nodeCount)
	dfsToBlock := make([]int, nodeCount)
	parent := make([]int, nodeCount)
	semiDom := make([]int, nodeCount)
	dsuParent := make([]int, nodeCount)
	minAncestor := make([]int, nodeCount)
	semiChildren := make([][]int, nodeCount)
	immDom := make([]int, nodeCount)

	for i := range dsuParent {
		dsuParent[i] = i
		minAncestor[i] = i
		semiDom[i] = i
	}

	dfsCount := -1
	var dfs func(u int)
	dfs = func(u int) {
		dfsCount++
		blockToDfs[u] = dfsCount
		dfsToBlock[dfsCount] = u
		semiDom[u] = blockToDfs[u]
		for _, v := range graph[u] {
			if blockToDfs[v] == 0 && v != virtualSource {
				dfs(v)
				parent[v] = u
			}
		}
	}
	dfs(virtualSource)

	var dsuFind func(u int) int
	dsuFind = func(u int) int {
		if dsuParent[u] == u {
			return u
		}
		root := dsuFind(dsuParent[u])
		if semiDom[minAncestor[dsuParent[u]]] < semiDom[minAncestor[u]] {
			minAncestor[u] = minAncestor[dsuParent[u]]
		}
		dsuParent[u] = root
		return root
	}
	dsuQuery := func(u int) int {
		dsuFind(u)
		return minAncestor[u]
	}

	for dfsID := dfsCount; dfsID > 0; dfsID-- {
		curr := dfsToBlock[dfsID]
		for _, pred := range backward[curr] {
			if blockToDfs[pred] == 0 && pred != virtualSource {
				continue
			}
			var evalNode int
			if blockToDfs[pred] < blockToDfs[curr] {
				evalNode = pred
			} else {
				evalNode = dsuQuery(pred)
			}
			if semiDom[evalNode] < semiDom[curr] {
				semiDom[curr] = semiDom[evalNode]
			}
		}

		sdomBlock := dfsToBlock[semiDom[curr]]
		semiChildren[sdomBlock] = append(semiChildren[sdomBlock], curr)
		dsuParent[curr] = parent[curr]

		p := parent[curr]
		for _, child := range semiChildren[p] {
			u := dsuQuery(child)
			if semiDom[u] == semiDom[child] {
				immDom[child] = p
			} else {
				immDom[child] = u
			}
		}
		semiChildren[p] = nil
	}

	for dfsID := 1; dfsID <= dfsCount; dfsID++ {
		curr := dfsToBlock[dfsID]
		if immDom[curr] != dfsToBlock[semiDom[curr]] {
			immDom[curr] = immDom[immDom[curr]]
		}
	}

	for i := 0; i < nodeCount; i++ {
		if blockToDfs[i] == 0 && i != virtualSource {
			continue
		}
		if immDom[i] == virtualSource {
			immDom[i] = i
		}
	}

	result := &DomTree{
		reverse: reverse,
		idom:    make(map[ir.BlockID]ir.BlockID),
		tree:    make(map[ir.BlockID][]ir.BlockID),
		front:   make(map[ir.BlockID][]ir.BlockID),
	}
	for i := 0; i < n; i++ {
		if blockToDfs[i] == 0 {
			// Unreached by this direction's traversal (e.g. a block with
			// no path to any exit, for post-dominance); leave unmapped.
			continue
		}
		bid := idOf[i]
		did := idOf[immDom[i]]
		result.idom[bid] = did
		if did != bid {
			result.tree[did] = append(result.tree[did], bid)
		}
	}

	for u := 0; u < n; u++ {
		if blockToDfs[u] == 0 {
			continue
		}
		for _, v := range graph[u] {
			if blockToDfs[v] == 0 {
				continue
			}
			runner := u
			for runner != immDom[v] {
				result.front[idOf[runner]] = append(result.front[idOf[runner]], idOf[v])
				next := immDom[runner]
				if next == runner {
					break
				}
				runner = next
			}
		}
	}

	return result
}
