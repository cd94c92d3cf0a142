package pass

import (
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/analysis"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// ADCE (Aggressive Dead Code Elimination) computes liveness backward
// from a seed of instructions with an intrinsic side effect (Store,
// Call, Ret) and the branches they are control-dependent on, then
// deletes everything never marked live: dead pure computations, and —
// conservatively — no branch is ever deleted outright, since removing
// a conditional branch would also require rewriting every Phi fed by
// its now-collapsed edge, which this pass leaves to a later run of
// Mem2Reg/SCCP instead of attempting inline.
func ADCE(f *ir.Function) bool {
	pdom := analysis.BuildPostDominatorTree(f)
	live := map[*ir.Instruction]bool{}
	var worklist []*ir.Instruction

	for _, inst := range f.AllInstructions() {
		if isAlwaysLive(inst) {
			live[inst] = true
			worklist = append(worklist, inst)
		}
	}

	markOperand := func(v ir.Value) {
		if v == nil || v.Kind() != ir.OperandRegister {
			return
		}
		def := definingInstr(f, v)
		if def != nil && !live[def] {
			live[def] = true
			worklist = append(worklist, def)
		}
	}

	for len(worklist) > 0 {
		inst := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, use := range operandsOf(inst) {
			markOperand(use)
		}

		// Control dependence: the terminator of every block that is
		// NOT post-dominated by this instruction's own block (i.e. a
		// branch whose outcome decides whether control reaches here)
		// must also stay live.
		for _, b := range f.Blocks() {
			if !b.Valid() || pdom.Dominates(inst.Block().ID(), b.ID()) {
				continue
			}
			term := b.Terminator()
			if term.Opcode() == ir.OpBrCond && !live[term] {
				live[term] = true
				worklist = append(worklist, term)
			}
		}
	}

	changed := false
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		var dead []*ir.Instruction
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			if cur.Opcode().IsTerminator() {
				continue
			}
			if !live[cur] {
				dead = append(dead, cur)
			}
		}
		for _, d := range dead {
			b.Remove(d)
			changed = true
		}
	}
	return changed
}

func isAlwaysLive(inst *ir.Instruction) bool {
	switch inst.Opcode() {
	case ir.OpStore, ir.OpCall, ir.OpRet:
		return true
	default:
		return false
	}
}

func operandsOf(inst *ir.Instruction) []ir.Value {
	var out []ir.Value
	a, b := inst.Args()
	out = append(out, a, b)
	out = append(out, inst.Indices()...)
	for _, arg := range inst.CallArgs() {
		out = append(out, arg.Val)
	}
	incoming, order := inst.PhiIncoming()
	for _, p := range order {
		out = append(out, incoming[p])
	}
	return out
}

func definingInstr(f *ir.Function, v ir.Value) *ir.Instruction {
	for _, inst := range f.AllInstructions() {
		if inst.Dst() == v {
			return inst
		}
	}
	return nil
}
