package analysis

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// LoopInfo records, for each block found to head a natural loop
// (a predecessor of the block is dominated by it — a back edge), the
// set of blocks in that loop's body.
type LoopInfo struct {
	headers map[ir.BlockID]bool
	body    map[ir.BlockID][]ir.BlockID
}

// IsHeader reports whether b is the header of a natural loop.
func (l *LoopInfo) IsHeader(b ir.BlockID) bool { return l.headers[b] }

// Body returns the blocks belonging to the loop headed by b
// (including b itself), or nil if b is not a loop header.
func (l *LoopInfo) Body(b ir.BlockID) []ir.BlockID { return l.body[b] }

// DetectLoops finds every natural loop in f using dom, walking each
// back edge's source upward through predecessors until the header is
// reached (the standard natural-loop body construction).
func DetectLoops(f *ir.Function, dom *DomTree) *LoopInfo {
	li := &LoopInfo{headers: make(map[ir.BlockID]bool), body: make(map[ir.BlockID][]ir.BlockID)}

	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		for _, pred := range b.Preds() {
			pb := f.Block(pred)
			if pb == nil || !pb.Valid() {
				continue
			}
			if dom.Dominates(b.ID(), pred) {
				li.headers[b.ID()] = true
				li.body[b.ID()] = mergeBody(li.body[b.ID()], natural(f, b.ID(), pred))
			}
		}
	}
	return li
}

// natural walks backward from the back edge's tail (latch) to the
// header, collecting every block on some path that doesn't leave the
// loop.
func natural(f *ir.Function, header, latch ir.BlockID) []ir.BlockID {
	body := map[ir.BlockID]bool{header: true}
	stack := []ir.BlockID{latch}
	body[latch] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == header {
			continue
		}
		blk := f.Block(cur)
		if blk == nil {
			continue
		}
		for _, pred := range blk.Preds() {
			if !body[pred] {
				body[pred] = true
				stack = append(stack, pred)
			}
		}
	}
	// body's iteration order is otherwise map-randomized; sorting keeps
	// LICM's block scan (and therefore the preheader's final
	// instruction order) reproducible across runs of the same input.
	out := maps.Keys(body)
	slices.Sort(out)
	return out
}

func mergeBody(existing, fresh []ir.BlockID) []ir.BlockID {
	seen := make(map[ir.BlockID]bool, len(existing))
	for _, b := range existing {
		seen[b] = true
	}
	for _, b := range fresh {
		if !seen[b] {
			seen[b] = true
			existing = append(existing, b)
		}
	}
	return existing
}
