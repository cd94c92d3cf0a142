package pass

import (
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/analysis"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// LICM hoists loop-invariant computations into a synthesized preheader
// that runs once per loop entry instead of once per iteration. An
// instruction is invariant if every register it reads is either
// defined outside the loop or is itself already hoisted; it is safe
// to hoist only if it is pure (see isCSEEligible) and, for Div/Mod,
// the divisor cannot be proven non-zero at the hoist point is treated
// as unsafe — dividing by a value that might be zero on some iteration
// but was never reached is observable if the hoist makes it execute
// unconditionally, so Div/Mod are hoisted only when the divisor is a
// nonzero constant.
func LICM(f *ir.Function) bool {
	dom := analysis.BuildDominatorTree(f)
	loops := analysis.DetectLoops(f, dom)
	changed := false

	for _, b := range f.Blocks() {
		if !b.Valid() || !loops.IsHeader(b.ID()) {
			continue
		}
		if hoistLoop(f, dom, loops, b.ID()) {
			changed = true
		}
	}
	return changed
}

func hoistLoop(f *ir.Function, dom *analysis.DomTree, loops *analysis.LoopInfo, header ir.BlockID) bool {
	body := loops.Body(header)
	bodySet := make(map[ir.BlockID]bool, len(body))
	for _, b := range body {
		bodySet[b] = true
	}

	definedInLoop := make(map[ir.RegisterID]bool)
	for _, bid := range body {
		blk := f.Block(bid)
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			if d := cur.Dst(); d != nil {
				definedInLoop[d.Register()] = true
			}
		}
	}

	preheader := f.AddBlock()
	hoisted := false

	// Iterate to a fixpoint: hoisting one instruction can make a
	// dependent instruction invariant too.
	for {
		progressed := false
		for _, bid := range body {
			blk := f.Block(bid)
			if !dom.Dominates(header, bid) {
				continue // only hoist from blocks the loop always enters through the header
			}
			var cur *ir.Instruction
			for cur = blk.Root(); cur != nil; {
				next := cur.Next()
				if isLoopInvariant(cur, definedInLoop) && canSpeculate(cur) {
					blk.Remove(cur)
					preheader.Insert(cur)
					delete(definedInLoop, safeReg(cur.Dst()))
					progressed, hoisted = true, true
				}
				cur = next
			}
		}
		if !progressed {
			break
		}
	}

	if !hoisted {
		f.DeleteBlock(preheader.ID())
		return false
	}

	// Redirect every edge into the header that originates outside the
	// loop body to land on the preheader instead; the preheader falls
	// through to the header.
	redirectExternalPreds(f, header, bodySet, preheader.ID())
	f.BrUncond(preheader, header)
	return true
}

func isLoopInvariant(inst *ir.Instruction, definedInLoop map[ir.RegisterID]bool) bool {
	if !isCSEEligible(inst) {
		return false
	}
	for _, v := range operandsOf(inst) {
		if v == nil || v.Kind() != ir.OperandRegister {
			continue
		}
		if definedInLoop[v.Register()] {
			return false
		}
	}
	return true
}

// canSpeculate additionally guards Div/Mod against introducing a
// trap that would not have executed on every iteration.
func canSpeculate(inst *ir.Instruction) bool {
	if inst.Opcode() != ir.OpDiv && inst.Opcode() != ir.OpMod {
		return true
	}
	_, b := inst.Args()
	return b != nil && b.Kind() == ir.OperandImmI32 && b.ImmI32() != 0
}

func safeReg(v ir.Value) ir.RegisterID {
	if v == nil {
		return 0
	}
	return v.Register()
}

// redirectExternalPreds rewrites every branch target equal to header,
// originating from a block not in body, to target replacement
// instead.
func redirectExternalPreds(f *ir.Function, header ir.BlockID, body map[ir.BlockID]bool, replacement ir.BlockID) {
	h := f.Block(header)
	for _, pred := range append([]ir.BlockID{}, h.Preds()...) {
		if body[pred] {
			continue
		}
		term := f.Block(pred).Terminator()
		f.Retarget(term, header, replacement)
	}
}
