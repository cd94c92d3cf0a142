package regalloc

import (
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
)

// rewrite replaces every virtual-register Use/Def across mf with its
// assigned physical register, inserting an FILoad before the
// instruction for each spilled use and an FIStore after it for each
// spilled def — through one of two reserved scratch registers per
// class, reused across an instruction's several spilled operands since
// a use's reload is dead by the time the def's value needs storing.
func rewrite(mf *machine.MFunction, intervals map[machine.VReg]*interval) {
	for _, b := range mf.Blocks {
		out := make([]*machine.MInstruction, 0, len(b.Insts))
		for _, inst := range b.Insts {
			var before, after []*machine.MInstruction

			reloaded := map[machine.VReg]machine.VReg{}
			nextScratch := map[machine.RegType]int{}

			for i, u := range inst.Uses {
				iv, ok := intervals[u]
				if !ok {
					continue // already a real register, or a class rewrite hasn't touched it
				}
				if !iv.spilled {
					inst.Uses[i] = u.WithRealReg(iv.physReg)
					continue
				}
				scratch, ok := reloaded[u]
				if !ok {
					idx := nextScratch[u.RegType()] % 2
					nextScratch[u.RegType()]++
					scratch = u.WithRealReg(scratchReg(u.RegType(), idx))
					before = append(before, machine.NewFILoad(scratch, iv.spillFI))
					reloaded[u] = scratch
				}
				inst.Uses[i] = scratch
			}

			// A Phi's Defs[0] isn't an ordinary result: it's only ever
			// materialized by the copies phi elimination inserts in each
			// predecessor block, so rewriting it here would both destroy
			// the original vreg identity phi elimination needs to look up
			// in mf.Assignments, and (if spilled) leave a dangling
			// FIStore writing a scratch register the deleted Phi never
			// actually sets.
			if inst.Kind != machine.KindPhi {
				for i, d := range inst.Defs {
					iv, ok := intervals[d]
					if !ok {
						continue
					}
					if !iv.spilled {
						inst.Defs[i] = d.WithRealReg(iv.physReg)
						continue
					}
					scratch := d.WithRealReg(scratchReg(d.RegType(), 0))
					inst.Defs[i] = scratch
					after = append(after, machine.NewFIStore(scratch, iv.spillFI))
				}
			}

			// PhiIncoming operands aren't ordinary Uses: they're only
			// realized once phi elimination places a copy in the
			// corresponding predecessor block, so a spilled incoming
			// value is left virtual here — phi elimination resolves it
			// via mf.Assignments instead of a reload inserted on this
			// (wrong) block.
			for pred, op := range inst.PhiIncoming {
				if op.Kind() != machine.OperandReg {
					continue
				}
				iv, ok := intervals[op.Reg()]
				if !ok || iv.spilled {
					continue
				}
				inst.PhiIncoming[pred] = machine.RegOperand(op.Reg().WithRealReg(iv.physReg), op.Type())
			}

			out = append(out, before...)
			out = append(out, inst)
			out = append(out, after...)
		}
		b.Insts = out
	}
}

func scratchReg(rt machine.RegType, idx int) machine.RealReg {
	if rt == machine.RegTypeFloat {
		return riscv64.FloatScratch[idx]
	}
	return riscv64.IntScratch[idx]
}
