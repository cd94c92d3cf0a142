package pass

import (
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/analysis"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// Mem2Reg promotes scalar Allocas with no address-taken use (never
// passed as a GEP base to anything but a direct Load/Store) into SSA
// registers: each Store becomes a definition, each Load is replaced by
// the most recent dominating definition, and control-flow merge points
// that see more than one incoming definition get a Phi.
//
// Array allocas (non-empty Dims) are left in memory: splitting an
// array into per-element SSA registers is a distinct, more invasive
// transform this pipeline does not attempt.
func Mem2Reg(f *ir.Function) bool {
	candidates := promotableAllocas(f)
	if len(candidates) == 0 {
		return false
	}

	dom := analysis.BuildDominatorTree(f)
	changed := false
	for _, alloca := range candidates {
		promoteOne(f, dom, alloca)
		changed = true
	}
	return changed
}

func promotableAllocas(f *ir.Function) []*ir.Instruction {
	var out []*ir.Instruction
	entry := f.EntryBlock()
	for cur := entry.Root(); cur != nil; cur = cur.Next() {
		if cur.Opcode() != ir.OpAlloca {
			continue
		}
		if len(cur.Dims()) != 0 {
			continue
		}
		if isPromotable(f, cur.Dst()) {
			out = append(out, cur)
		}
	}
	return out
}

// isPromotable reports whether every use of ptr is a direct Load or
// the pointer operand of a direct Store (never read by GEP, never
// passed to a Call — either of which would let the address escape).
func isPromotable(f *ir.Function, ptr ir.Value) bool {
	for _, b := range f.Blocks() {
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			switch cur.Opcode() {
			case ir.OpLoad:
				a, _ := cur.Args()
				if a == ptr {
					continue
				}
			case ir.OpStore:
				_, dstPtr := cur.Args()
				if dstPtr == ptr {
					continue
				}
			}
			if cur.Opcode() != ir.OpAlloca && instructionUses(cur, ptr) {
				return false
			}
		}
	}
	return true
}

func instructionUses(i *ir.Instruction, v ir.Value) bool {
	a, b := i.Args()
	if a == v || b == v {
		return true
	}
	for _, idx := range i.Indices() {
		if idx == v {
			return true
		}
	}
	for _, arg := range i.CallArgs() {
		if arg.Val == v {
			return true
		}
	}
	return false
}

// promoteOne runs the classic alloca-promotion algorithm for a single
// candidate: insert Phis at every block in the iterated dominance
// frontier of a Store to this alloca, then rename via a dominator-tree
// preorder walk carrying one "current value" stack.
func promoteOne(f *ir.Function, dom *analysis.DomTree, alloca *ir.Instruction) {
	ptr := alloca.Dst()
	elemType := alloca.Type()

	defBlocks := map[ir.BlockID]bool{}
	useBlocks := map[ir.BlockID]bool{} // blocks holding a Load or Store of ptr
	for _, b := range f.Blocks() {
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			if cur.Opcode() == ir.OpStore {
				_, dstPtr := cur.Args()
				if dstPtr == ptr {
					defBlocks[b.ID()] = true
					useBlocks[b.ID()] = true
				}
			}
			if a, _ := cur.Args(); cur.Opcode() == ir.OpLoad && a == ptr {
				useBlocks[b.ID()] = true
			}
		}
	}

	// Entry-block fast path: when every Load and Store of the alloca
	// sits in the entry block, a linear last-write-wins walk of that
	// block resolves every Load without any merge.
	if len(useBlocks) == 0 || (len(useBlocks) == 1 && useBlocks[f.EntryBlock().ID()]) {
		promoteSingleBlock(f, ptr, elemType, defBlocks)
		stripAlloca(f, alloca)
		return
	}

	phiBlocks := iteratedDominanceFrontier(dom, defBlocks)
	phis := make(map[ir.BlockID]*ir.Instruction, len(phiBlocks))
	for blk := range phiBlocks {
		phis[blk] = f.Phi(f.Block(blk), elemType)
	}

	rename(f, dom, f.EntryBlock().ID(), ptr, phis, zeroValue(f, elemType))

	for blk, phi := range phis {
		b := f.Block(blk)
		for _, pred := range b.Preds() {
			if _, ok := phi.PhiValueFor(pred); !ok {
				// A predecessor never reached a dominating definition
				// along its path; this can only happen for a value read
				// before any write, which is undefined in the source
				// language — feed it the zero value of the element type.
				phi.AddIncoming(pred, zeroValue(f, elemType))
			}
		}
	}

	stripAlloca(f, alloca)
}

func promoteSingleBlock(f *ir.Function, ptr ir.Value, elemType ir.Type, defBlocks map[ir.BlockID]bool) {
	var blk ir.BlockID
	for b := range defBlocks {
		blk = b
	}
	target := f.EntryBlock()
	if len(defBlocks) == 1 {
		target = f.Block(blk)
	}

	current := zeroValue(f, elemType)
	var toRemove []*ir.Instruction
	for cur := target.Root(); cur != nil; cur = cur.Next() {
		switch cur.Opcode() {
		case ir.OpStore:
			_, dstPtr := cur.Args()
			if dstPtr == ptr {
				v, _ := cur.Args()
				current = v
				toRemove = append(toRemove, cur)
			}
		case ir.OpLoad:
			a, _ := cur.Args()
			if a == ptr {
				replaceAllUses(f, cur.Dst(), current)
				toRemove = append(toRemove, cur)
			}
		}
	}
	for _, i := range toRemove {
		i.Block().Remove(i)
	}
}

// rename performs the dominator-tree preorder renaming pass, carrying
// incoming as the value visible at the start of blk.
func rename(f *ir.Function, dom *analysis.DomTree, blk ir.BlockID, ptr ir.Value, phis map[ir.BlockID]*ir.Instruction, incoming ir.Value) {
	b := f.Block(blk)
	current := incoming
	if phi, ok := phis[blk]; ok {
		current = phi.Dst()
	}

	var toRemove []*ir.Instruction
	for cur := b.Root(); cur != nil; cur = cur.Next() {
		switch cur.Opcode() {
		case ir.OpStore:
			_, dstPtr := cur.Args()
			if dstPtr == ptr {
				v, _ := cur.Args()
				current = v
				toRemove = append(toRemove, cur)
			}
		case ir.OpLoad:
			a, _ := cur.Args()
			if a == ptr {
				replaceAllUses(f, cur.Dst(), current)
				toRemove = append(toRemove, cur)
			}
		}
	}
	for _, i := range toRemove {
		i.Block().Remove(i)
	}

	for _, succ := range b.Succs() {
		if phi, ok := phis[succ]; ok {
			phi.AddIncoming(blk, current)
		}
	}

	for _, child := range dom.Children(blk) {
		rename(f, dom, child, ptr, phis, current)
	}
}

func iteratedDominanceFrontier(dom *analysis.DomTree, defs map[ir.BlockID]bool) map[ir.BlockID]bool {
	result := map[ir.BlockID]bool{}
	worklist := make([]ir.BlockID, 0, len(defs))
	for b := range defs {
		worklist = append(worklist, b)
	}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, fr := range dom.Frontier(b) {
			if !result[fr] {
				result[fr] = true
				worklist = append(worklist, fr)
			}
		}
	}
	return result
}

func replaceAllUses(f *ir.Function, old, replacement ir.Value) {
	if old == nil || replacement == nil {
		return
	}
	for _, inst := range f.AllInstructions() {
		inst.ReplaceUses(old, replacement)
	}
}

func zeroValue(f *ir.Function, t ir.Type) ir.Value {
	of := f.Module().Operands
	if t.IsFloat() {
		return of.ImmF32(0)
	}
	return of.ImmI32(0)
}

func stripAlloca(f *ir.Function, alloca *ir.Instruction) {
	alloca.Block().Remove(alloca)
}
