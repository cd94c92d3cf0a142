package riscv64

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"

// calleeSavedIntForFrame/calleeSavedFloatForFrame are the FIXED register lists frame lowering
// reserves space for regardless of which of them this particular
// function actually uses — matching frame_lowering.cpp's save-area
// sizing, simpler than tracking per-function usage at the cost of a
// few unused save slots in small leaf functions.
var calleeSavedIntForFrame = []machine.RealReg{RegS0, RegS1, RegS2, RegS3, RegS4, RegS5, RegS6, RegS7, RegS8, RegS9, RegS10, RegS11}
var calleeSavedFloatForFrame = []machine.RealReg{RegFS0, RegFS1, RegFS2, RegFS3, RegFS4, RegFS5, RegFS6, RegFS7, RegFS8, RegFS9, RegFS10, RegFS11}

// FrameLoweringPass finalizes a function's stack layout once register
// allocation has decided every spill slot, and resolves every
// FrameIndexOperand appearing in a TARGET instruction's Operands[0]
// into a concrete SP-relative immediate (or, if the offset doesn't
// fit a 12-bit immediate, a materialized-through-scratch address).
//
// It runs after PhiEliminationPass (which may have introduced FILoad/
// FIStore pseudo-ops of its own, sized the same as everything else)
// and before StackLoweringPass (which needs the offsets this computes
// to expand those pseudo-ops into real loads/stores).
func FrameLoweringPass(mf *machine.MFunction) {
	baseOffset := 8 // ra
	baseOffset += len(calleeSavedIntForFrame) * 8
	baseOffset += len(calleeSavedFloatForFrame) * 8
	baseOffset = alignTo16(baseOffset)

	mf.Frame.SetBaseOffset(baseOffset)
	frameSize := mf.Frame.CalculateOffsets()
	mf.StackSize = alignTo16(baseOffset + frameSize)

	for _, b := range mf.Blocks {
		resolveFrameIndicesInBlock(mf, b)
	}
}

func alignTo16(v int) int { return (v + 15) &^ 15 }

func resolveFrameIndicesInBlock(mf *machine.MFunction, b *machine.MBlock) {
	for i := 0; i < len(b.Insts); i++ {
		inst := b.Insts[i]
		if len(inst.Operands) == 0 || inst.Operands[0].Kind() != machine.OperandFrameIndex {
			continue
		}
		offset := mf.Frame.Offset(inst.Operands[0].FrameIndex())

		if Imm12InRange(int64(offset)) {
			inst.Operands[0] = machine.ImmI64Operand(int64(offset))
			continue
		}

		// Offset doesn't fit the instruction's own immediate field:
		// materialize it in the scratch register and rebase the
		// instruction onto that instead of sp.
		scratch := IntVReg(IntScratch[0])
		materialize := []*machine.MInstruction{
			{Kind: LI, Defs: []machine.VReg{scratch}, Operands: []machine.MOperand{machine.ImmI64Operand(int64(offset))}},
			{Kind: ADD, Defs: []machine.VReg{scratch}, Uses: []machine.VReg{scratch, inst.Uses[0]}},
		}
		inst.Uses[0] = scratch
		inst.Operands[0] = machine.ImmI64Operand(0)

		b.InsertAt(i, materialize...)
		i += len(materialize)
	}
}
