package riscv64

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"

// phiCopy is one value that needs to reach dst by the end of a
// predecessor block, resolved to wherever the register allocator
// actually put its source and destination.
type phiCopy struct {
	dstVReg machine.VReg // original phi-result vreg, for dstAssignment lookup

	srcReg     machine.VReg // valid when srcIsReg; already resolved to a real register
	srcIsReg   bool
	srcImm     machine.MOperand // valid when !srcIsReg && !srcSpilled
	srcSpilled bool
	srcSpillFI int
	srcType    machine.DataType
}

// PhiEliminationPass removes every Phi instruction from mf, replacing
// it with explicit copies inserted at the end of each predecessor
// block. Where a Phi result or one of its incoming values was
// spilled by register allocation, the copy becomes a stack load/store
// through a reserved scratch register instead of a plain Move.
func PhiEliminationPass(mf *machine.MFunction) {
	for _, b := range mf.Blocks {
		phis := b.Phis()
		if len(phis) == 0 {
			continue
		}

		copiesPerPred := map[uint32][]phiCopy{}
		for _, phi := range phis {
			dst := phi.Defs[0]
			for pred, op := range phi.PhiIncoming {
				copiesPerPred[pred] = append(copiesPerPred[pred], resolveCopy(mf, dst, op))
			}
		}

		for pred, copies := range copiesPerPred {
			predBlock := mf.Block(pred)
			if predBlock == nil {
				continue
			}
			insts := materializeCopies(mf, copies)
			predBlock.InsertAt(insertIndexFor(predBlock, b.ID), insts...)
		}

		b.Insts = removePhis(b.Insts)
	}
}

func resolveCopy(mf *machine.MFunction, dst machine.VReg, src machine.MOperand) phiCopy {
	c := phiCopy{dstVReg: dst}
	switch src.Kind() {
	case machine.OperandReg:
		r := src.Reg()
		if r.IsRealReg() {
			c.srcIsReg, c.srcReg, c.srcType = true, r, src.Type()
			return c
		}
		a := mf.Assignments[r]
		if a.Spilled {
			c.srcSpilled, c.srcSpillFI, c.srcType = true, a.SpillFI, src.Type()
		} else {
			c.srcIsReg, c.srcReg, c.srcType = true, r.WithRealReg(a.PhysReg), src.Type()
		}
	default:
		c.srcImm, c.srcType = src, src.Type()
	}
	return c
}

// materializeCopies turns one predecessor's accumulated copies into
// concrete instructions: register-to-register copies that could form
// a dependency cycle go through the parallel-copy sequentialization
// below; anything touching a spill slot or an immediate can never
// alias a register identity, so it's safe to emit directly in any
// order.
func materializeCopies(mf *machine.MFunction, copies []phiCopy) []*machine.MInstruction {
	var regCopies []phiCopy
	var out []*machine.MInstruction

	for _, c := range copies {
		dstA := mf.Assignments[c.dstVReg]
		switch {
		case !dstA.Spilled && c.srcIsReg:
			dstReg := c.dstVReg.WithRealReg(dstA.PhysReg)
			regCopies = append(regCopies, phiCopy{dstVReg: dstReg, srcIsReg: true, srcReg: c.srcReg, srcType: c.srcType})
		case !dstA.Spilled && c.srcSpilled:
			dstReg := c.dstVReg.WithRealReg(dstA.PhysReg)
			out = append(out, machine.NewFILoad(dstReg, c.srcSpillFI))
		case !dstA.Spilled: // immediate source
			dstReg := c.dstVReg.WithRealReg(dstA.PhysReg)
			out = append(out, machine.NewMove(dstReg, c.srcImm))
		case dstA.Spilled && c.srcIsReg:
			out = append(out, machine.NewFIStore(c.srcReg, dstA.SpillFI))
		case dstA.Spilled && c.srcSpilled:
			scratch := scratchVReg(c.srcType)
			out = append(out, machine.NewFILoad(scratch, c.srcSpillFI))
			out = append(out, machine.NewFIStore(scratch, dstA.SpillFI))
		default: // spilled dest, immediate source
			scratch := scratchVReg(c.srcType)
			out = append(out, machine.NewMove(scratch, c.srcImm))
			out = append(out, machine.NewFIStore(scratch, dstA.SpillFI))
		}
	}

	out = append(sequentializeRegCopies(regCopies), out...)
	return out
}

func scratchVReg(t machine.DataType) machine.VReg {
	if t.RegType() == machine.RegTypeFloat {
		return FloatVReg(FloatScratch[0])
	}
	return IntVReg(IntScratch[0])
}

// sequentializeRegCopies implements the classic parallel-copy
// resolution: repeatedly emit any copy whose source register is not
// some other remaining copy's destination; once only cycles remain,
// break one by routing its source through a fresh temporary.
func sequentializeRegCopies(copies []phiCopy) []*machine.MInstruction {
	var out []*machine.MInstruction
	remaining := append([]phiCopy{}, copies...)

	// Copies are compared by physical register: two operands held in the
	// same register still carry different vreg ids.
	same := func(x, y machine.VReg) bool { return x.RealReg() == y.RealReg() && x.RegType() == y.RegType() }

	hasDest := func(r machine.VReg) bool {
		for _, c := range remaining {
			if same(c.dstVReg, r) {
				return true
			}
		}
		return false
	}

	for len(remaining) > 0 {
		// Drop self-copies: a phi result is already in its own register.
		progress := false
		for i, c := range remaining {
			if same(c.srcReg, c.dstVReg) {
				remaining = append(remaining[:i], remaining[i+1:]...)
				progress = true
				break
			}
		}
		if progress {
			continue
		}

		for i, c := range remaining {
			if !hasDest(c.srcReg) {
				out = append(out, machine.NewMove(c.dstVReg, machine.RegOperand(c.srcReg, c.srcType)))
				remaining = append(remaining[:i], remaining[i+1:]...)
				progress = true
				break
			}
		}
		if progress {
			continue
		}

		// Everything left is part of a cycle: break the first one by
		// copying its source into a scratch register, then redirect
		// every other copy reading that same source to read the
		// scratch instead.
		c := remaining[0]
		tmp := scratchVReg(c.srcType)
		out = append(out, machine.NewMove(tmp, machine.RegOperand(c.srcReg, c.srcType)))
		for i := range remaining {
			if same(remaining[i].srcReg, c.srcReg) {
				remaining[i].srcReg = tmp
			}
		}
	}
	return out
}

func insertIndexFor(pred *machine.MBlock, target uint32) int {
	for i := len(pred.Insts) - 1; i >= 0; i-- {
		inst := pred.Insts[i]
		if t, ok := BranchTarget(inst); ok && t == target {
			return i
		}
	}
	if n := len(pred.Insts); n > 0 {
		last := pred.Insts[n-1]
		if IsCondBranch(last) || IsUncondBranch(last) || IsReturn(last) {
			return n - 1
		}
	}
	return len(pred.Insts)
}

func removePhis(insts []*machine.MInstruction) []*machine.MInstruction {
	out := insts[:0]
	for _, inst := range insts {
		if inst.Kind != machine.KindPhi {
			out = append(out, inst)
		}
	}
	return out
}
