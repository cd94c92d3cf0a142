package regalloc

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"

// linearized numbers every instruction of mf with a single global
// position, in block layout order, so liveness and intervals can be
// expressed as plain integer ranges instead of (block, intra-block)
// pairs.
type linearized struct {
	insts      []*machine.MInstruction
	blockRange map[uint32]segment // block id -> [start,end) over insts
	callPoints []int

	// phiExit[b] holds every register a successor's Phi reads as its
	// incoming value from predecessor b. A Phi's PhiIncoming isn't an
	// ordinary instruction operand (it's only realized once phi
	// elimination places a copy at the end of b), so without this,
	// liveness would treat such a register as dead the instant its
	// last real Use/Def in b finishes — even though the Phi still
	// needs it live all the way to b's last instruction.
	phiExit map[uint32][]machine.VReg
}

func linearize(mf *machine.MFunction) *linearized {
	l := &linearized{blockRange: map[uint32]segment{}, phiExit: map[uint32][]machine.VReg{}}
	pos := 0
	for _, b := range mf.Blocks {
		start := pos
		for _, inst := range b.Insts {
			l.insts = append(l.insts, inst)
			if isCall(inst) {
				l.callPoints = append(l.callPoints, pos)
			}
			pos++
		}
		l.blockRange[b.ID] = segment{start, pos}

		for _, phi := range b.Phis() {
			for pred, op := range phi.PhiIncoming {
				if op.Kind() == machine.OperandReg {
					l.phiExit[pred] = append(l.phiExit[pred], op.Reg())
				}
			}
		}
	}
	return l
}

// regsOfClass appends every vreg of rt found in regs to out.
func regsOfClass(regs []machine.VReg, rt machine.RegType, out []machine.VReg) []machine.VReg {
	for _, r := range regs {
		if r.Valid() && r.RegType() == rt {
			out = append(out, r)
		}
	}
	return out
}

// blockUseDef computes, for one block and one register class, the
// classic local USE/DEF sets: USE holds every register read before any
// write to it earlier in the block (i.e. it may be live-in) — including
// any register a successor's Phi reads from this block, which is a use
// occurring conceptually at the block's very end — and DEF holds every
// register written anywhere in the block.
func blockUseDef(b *machine.MBlock, phiExit []machine.VReg, rt machine.RegType) (use, def map[machine.VReg]bool) {
	use, def = map[machine.VReg]bool{}, map[machine.VReg]bool{}
	var tmp []machine.VReg
	for _, inst := range b.Insts {
		tmp = tmp[:0]
		for _, u := range regsOfClass(inst.Uses, rt, tmp) {
			if !def[u] {
				use[u] = true
			}
		}
		tmp = tmp[:0]
		for _, d := range regsOfClass(inst.Defs, rt, tmp) {
			def[d] = true
		}
	}
	tmp = tmp[:0]
	for _, r := range regsOfClass(phiExit, rt, tmp) {
		if !def[r] {
			use[r] = true
		}
	}
	return use, def
}

// solveLiveness runs the standard backward dataflow fixpoint
// IN[b] = USE[b] ∪ (OUT[b] − DEF[b]), OUT[b] = ⋃ IN[s] over b's
// successors, for one register class.
func solveLiveness(l *linearized, mf *machine.MFunction, rt machine.RegType) (in, out map[uint32]map[machine.VReg]bool, use, def map[uint32]map[machine.VReg]bool) {
	use, def = map[uint32]map[machine.VReg]bool{}, map[uint32]map[machine.VReg]bool{}
	in, out = map[uint32]map[machine.VReg]bool{}, map[uint32]map[machine.VReg]bool{}
	for _, b := range mf.Blocks {
		u, d := blockUseDef(b, l.phiExit[b.ID], rt)
		use[b.ID], def[b.ID] = u, d
		in[b.ID], out[b.ID] = map[machine.VReg]bool{}, map[machine.VReg]bool{}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range mf.Blocks {
			newOut := map[machine.VReg]bool{}
			for _, s := range b.Succs {
				for r := range in[s] {
					newOut[r] = true
				}
			}
			newIn := map[machine.VReg]bool{}
			for r := range use[b.ID] {
				newIn[r] = true
			}
			for r := range newOut {
				if !def[b.ID][r] {
					newIn[r] = true
				}
			}
			if !sameSet(newOut, out[b.ID]) || !sameSet(newIn, in[b.ID]) {
				out[b.ID], in[b.ID] = newOut, newIn
				changed = true
			}
		}
	}
	return in, out, use, def
}

func sameSet(a, b map[machine.VReg]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if !b[r] {
			return false
		}
	}
	return true
}

// buildIntervals constructs one interval per virtual register of class
// rt, scanning each block backward: a register live at block-exit
// starts with an assumed end at the block's own end position, and
// walking backward, a def closes the segment open since that end
// (or opens a dead, single-position segment if the def was never
// used again), while a use not yet tracked opens a new live-end at
// pos+1. Whatever remains open at the top of the block matches IN[b]
// and gets a segment from the block's own start to its recorded end;
// each predecessor covers its part through its own live-out set, and a
// register live on entry to the function (e.g. a parameter) starts at
// the entry block's first position.
func buildIntervals(l *linearized, mf *machine.MFunction, rt machine.RegType) map[machine.VReg]*interval {
	_, out, _, _ := solveLiveness(l, mf, rt)
	intervals := map[machine.VReg]*interval{}
	get := func(v machine.VReg) *interval {
		iv, ok := intervals[v]
		if !ok {
			iv = newInterval(v)
			intervals[v] = iv
		}
		return iv
	}

	var tmp []machine.VReg
	for _, b := range mf.Blocks {
		rng := l.blockRange[b.ID]
		liveEnd := map[machine.VReg]int{}
		for r := range out[b.ID] {
			liveEnd[r] = rng.end
		}
		for _, r := range regsOfClass(l.phiExit[b.ID], rt, nil) {
			if _, ok := liveEnd[r]; !ok {
				liveEnd[r] = rng.end
			}
		}

		for pos := rng.end - 1; pos >= rng.start; pos-- {
			inst := l.insts[pos]

			tmp = tmp[:0]
			for _, d := range regsOfClass(inst.Defs, rt, tmp) {
				if d.IsRealReg() {
					continue
				}
				if end, ok := liveEnd[d]; ok {
					get(d).addSegment(pos, end)
					delete(liveEnd, d)
				} else {
					get(d).addSegment(pos, pos+1)
				}
			}
			tmp = tmp[:0]
			for _, u := range regsOfClass(inst.Uses, rt, tmp) {
				if u.IsRealReg() {
					continue
				}
				if _, ok := liveEnd[u]; !ok {
					liveEnd[u] = pos + 1
				}
			}
		}

		// Whatever is still open at the top of the block is live-in;
		// its segment covers from the block's start through its
		// recorded end (matching in[b.ID], by construction of the
		// dataflow solve above).
		for r, end := range liveEnd {
			get(r).addSegment(rng.start, end)
		}
	}

	for _, iv := range intervals {
		iv.merge()
		iv.crossesCall = iv.crosses(l.callPoints)
	}
	return intervals
}
