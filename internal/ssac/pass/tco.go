package pass

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// TCO (Tail Call Optimization) rewrites self-recursive calls in tail
// position — a Call whose result, with no intervening work, is the
// value returned by the Ret ending the same block — into a loop: the
// function's body is moved behind a synthesized loop header whose
// Phis carry each parameter across iterations, every tail call becomes
// a branch back to that header feeding the Phis with the call's
// arguments instead of a real Call, and the original entry block
// becomes a one-instruction preamble that seeds the Phis from the
// incoming parameter registers.
//
// This turns unbounded recursion into a constant-stack loop, which
// matters a great deal on a target with no tail-call ABI convention.
// A call whose result reaches a Ret only through a branch is not
// matched: once UnifyReturn has merged several returns into one exit
// block, a call feeding that exit's Phi is not a tail site, and neither
// is a call in a function that returns no value. Only direct
// self-recursion is matched: f calling f,
// not mutual recursion between two functions, which would require a
// cross-function CFG splice this pass does not attempt.
func TCO(f *ir.Function) bool {
	sites := tailCallSites(f)
	if len(sites) == 0 {
		return false
	}

	header, phis := loopify(f)

	for _, site := range sites {
		// loopify may have relocated the instructions captured below
		// (the self-recursive call's own block, if it was the entry)
		// into header, so re-resolve the owning block through the
		// instruction itself rather than trusting a block pointer
		// captured before the move.
		rewriteTailCall(f, header, phis, site.call.Block(), site.call, site.ret)
	}
	return true
}

type tailCallSite struct {
	call *ir.Instruction
	ret  *ir.Instruction
}

func tailCallSites(f *ir.Function) []tailCallSite {
	var sites []tailCallSite
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		term := b.Tail()
		if term == nil || term.Opcode() != ir.OpRet {
			continue
		}
		retVal, _ := term.Args()
		call := tailCallFeeding(b, retVal)
		if call != nil && call.CallName() == f.Name {
			sites = append(sites, tailCallSite{call, term})
		}
	}
	return sites
}

// tailCallFeeding returns the Call instruction that directly produces
// retVal — a true tail position has nothing else computed from the
// call's result before the Ret.
func tailCallFeeding(b *ir.BasicBlock, retVal ir.Value) *ir.Instruction {
	if retVal == nil || retVal.Kind() != ir.OperandRegister {
		return nil
	}
	for cur := b.Tail().Prev(); cur != nil; cur = cur.Prev() {
		if cur.Dst() == retVal {
			if cur.Opcode() == ir.OpCall {
				return cur
			}
			return nil
		}
	}
	return nil
}

// loopify moves f's entire original body into a fresh header block,
// leaving the entry block as a single unconditional branch into it,
// and installs one Phi per parameter in the header seeded from the
// entry's parameter registers.
func loopify(f *ir.Function) (*ir.BasicBlock, []*ir.Instruction) {
	entry := f.EntryBlock()
	header := f.AddBlock()

	var moving []*ir.Instruction
	for cur := entry.Root(); cur != nil; cur = cur.Next() {
		moving = append(moving, cur)
	}
	for _, inst := range moving {
		entry.Remove(inst)
		header.Insert(inst)
	}
	// moving instructions' BrCond/BrUncond targets never referenced
	// entry itself (a function entry has no predecessors), so no
	// branch-target rewrite is needed for the relocated code.

	f.BrUncond(entry, header.ID())

	phis := make([]*ir.Instruction, len(f.Params))
	for i, p := range f.Params {
		phi := f.Phi(header, p.Type)
		phi.AddIncoming(entry.ID(), p.Reg)
		phis[i] = phi
	}
	for i, p := range f.Params {
		for _, inst := range f.AllInstructions() {
			if inst == phis[i] {
				continue
			}
			inst.ReplaceUses(p.Reg, phis[i].Dst())
		}
	}
	return header, phis
}

func rewriteTailCall(f *ir.Function, header *ir.BasicBlock, phis []*ir.Instruction, b *ir.BasicBlock, call, term *ir.Instruction) {
	args := call.CallArgs()

	b.Remove(term)
	b.Remove(call)
	f.BrUncond(b, header.ID())

	for i, phi := range phis {
		phi.AddIncoming(b.ID(), args[i].Val)
	}
}
