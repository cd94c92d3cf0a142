// Package analysis computes the function-level facts the optimizer
// passes depend on: reverse postorder, dominator/post-dominator
// trees and frontiers, and natural loop structure.
package analysis

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// ReversePostOrder returns the blocks of f reachable from its entry
// block, ordered so that every block appears after all of its
// predecessors in the acyclic part of the CFG (back edges aside).
//
// The DFS is iterative and explicit-stack based rather than recursive,
// which avoids a deep Go call stack on large, loop-free functions and
// gives a stable place to hang future cycle diagnostics.
func ReversePostOrder(f *ir.Function) []ir.BlockID {
	entry := f.EntryBlock()
	if entry == nil {
		return nil
	}

	const (
		unseen  = 0
		seen    = 1
		done    = 2
		emitted = 3
	)
	state := make(map[ir.BlockID]int)
	postorder := make([]ir.BlockID, 0, len(f.Blocks()))

	stack := []ir.BlockID{entry.ID()}
	state[entry.ID()] = seen
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch state[top] {
		case unseen:
			panic("analysis: unreachable block pushed onto explore stack")
		case seen:
			stack = append(stack, top)
			blk := f.Block(top)
			for _, succ := range blk.Succs() {
				sb := f.Block(succ)
				if sb == nil || !sb.Valid() {
					continue
				}
				// A successor pushed earlier but not yet expanded is pushed
				// again so it is expanded (and emitted) below this block.
				if state[succ] < done {
					state[succ] = seen
					stack = append(stack, succ)
				}
			}
			state[top] = done
		case done:
			postorder = append(postorder, top)
			state[top] = emitted
		case emitted:
			// stale duplicate of a block already emitted
		}
	}

	for i, j := 0, len(postorder)-1; i < j; i, j = i+1, j-1 {
		postorder[i], postorder[j] = postorder[j], postorder[i]
	}
	return postorder
}

// Reachable returns the set of block ids reachable from the entry
// block.
func Reachable(f *ir.Function) map[ir.BlockID]bool {
	rpo := ReversePostOrder(f)
	set := make(map[ir.BlockID]bool, len(rpo))
	for _, b := range rpo {
		set[b] = true
	}
	return set
}

// exitBlocks returns the ids of every valid block ending in a Ret —
// the entry set used when building the post-dominator tree.
func exitBlocks(f *ir.Function) []ir.BlockID {
	var exits []ir.BlockID
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		if t := b.Tail(); t != nil && t.Opcode() == ir.OpRet {
			exits = append(exits, b.ID())
		}
	}
	return exits
}
