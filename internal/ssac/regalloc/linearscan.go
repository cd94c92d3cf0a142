package regalloc

import (
	"golang.org/x/exp/slices"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
)

func isCall(inst *machine.MInstruction) bool { return inst.Kind == riscv64.CALL }

// Allocate assigns every virtual register in mf a physical register or
// a spill slot, and rewrites mf's instructions accordingly: Moves,
// loads, stores, and arithmetic end up referencing real RISC-V
// registers, with FILoad/FIStore pairs inserted around any operand that
// didn't fit in a register. Int and float registers are allocated
// independently, since the two classes never compete for the same
// physical register file.
func Allocate(mf *machine.MFunction) {
	l := linearize(mf)

	intIvs := allocateClass(mf, machine.RegTypeInt, l)
	floatIvs := allocateClass(mf, machine.RegTypeFloat, l)

	all := make(map[machine.VReg]*interval, len(intIvs)+len(floatIvs))
	for v, iv := range intIvs {
		all[v] = iv
	}
	for v, iv := range floatIvs {
		all[v] = iv
	}
	for v, iv := range all {
		mf.RecordAssignment(v, machine.RegAssignment{PhysReg: iv.physReg, Spilled: iv.spilled, SpillFI: iv.spillFI})
	}
	rewrite(mf, all)
}

// allocateClass runs the linear-scan core for one register class:
// build intervals from liveness, sort by start, and sweep left to
// right maintaining the set of registers in use by intervals still
// active at the current position — freeing registers whose interval
// has ended, and spilling when no free register remains.
func allocateClass(mf *machine.MFunction, rt machine.RegType, l *linearized) map[machine.VReg]*interval {
	intervals := buildIntervals(l, mf, rt)

	order := make([]*interval, 0, len(intervals))
	for _, iv := range intervals {
		order = append(order, iv)
	}
	slices.SortFunc(order, func(a, b *interval) int {
		if a.start() != b.start() {
			return a.start() - b.start()
		}
		if a.vreg < b.vreg {
			return -1
		} else if a.vreg > b.vreg {
			return 1
		}
		return 0
	})

	active := make([]*interval, 0, len(order))
	inUse := map[machine.RealReg]bool{}

	for _, iv := range order {
		expireOld(&active, inUse, iv.start())

		prefs := riscv64.DefaultOrder(rt)
		if iv.crossesCall {
			prefs = riscv64.CrossesCallPreferred(rt)
		}

		assigned := false
		for _, r := range prefs {
			if !inUse[r] {
				iv.physReg = r
				inUse[r] = true
				active = append(active, iv)
				assigned = true
				break
			}
		}
		if assigned {
			continue
		}
		spillAtInterval(&active, inUse, iv)
	}

	for _, iv := range order {
		if iv.spilled {
			iv.spillFI = mf.Frame.CreateSpillSlot(8, 8)
		}
	}
	return intervals
}

func expireOld(active *[]*interval, inUse map[machine.RealReg]bool, pos int) {
	kept := (*active)[:0]
	for _, a := range *active {
		if a.end() > pos {
			kept = append(kept, a)
		} else {
			delete(inUse, a.physReg)
		}
	}
	*active = kept
}

// spillAtInterval implements the classic "spill the interval ending
// furthest in the future" heuristic: if some active interval outlives
// iv, it's better to hand iv that interval's register now and spill
// the long-lived one instead — the long-lived interval's remaining
// lifetime is where the register pressure actually is.
func spillAtInterval(active *[]*interval, inUse map[machine.RealReg]bool, iv *interval) {
	var victim *interval
	victimIdx := -1
	for i, a := range *active {
		if victim == nil || a.end() > victim.end() {
			victim = a
			victimIdx = i
		}
	}
	if victim != nil && victim.end() > iv.end() {
		// The register changes hands from victim to iv; inUse[r] stays
		// true throughout; record the new owner's physReg for the
		// benefit of whatever relies on it matching *active's contents.
		iv.physReg = victim.physReg
		inUse[iv.physReg] = true
		(*active)[victimIdx] = iv
		victim.physReg = machine.RealRegInvalid
		victim.spilled = true
		return
	}
	iv.spilled = true
}
