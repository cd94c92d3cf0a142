package riscv64

import (
	"math"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
)

// StackLoweringPass expands the two remaining pseudo-instruction
// kinds — FILoad/FIStore (spill reload/store) and Move (a plain
// register/immediate copy) — into real RISC-V64 opcodes. It runs
// after FrameLoweringPass, since both expansions need a concrete
// SP-relative offset from mf.Frame.Offset.
//
// Every spill slot this backend creates is a fixed 8 bytes (see
// regalloc's and isel's CreateSpillSlot call sites), so unlike the
// width-sensitive LW/LD split stack_lowering.cpp makes for load/store
// width, FILoad/FIStore here always use the wide op (LD/FLD, SD/FSD)
// for their register class — the value always round-trips through
// the same 8-byte slot it was spilled from.
func StackLoweringPass(mf *machine.MFunction) {
	for _, b := range mf.Blocks {
		b.Insts = expandFISlots(mf, b.Insts)
		b.Insts = expandMoves(b.Insts)
	}
}

func expandFISlots(mf *machine.MFunction, insts []*machine.MInstruction) []*machine.MInstruction {
	out := make([]*machine.MInstruction, 0, len(insts))
	for _, inst := range insts {
		switch inst.Kind {
		case machine.KindFILoad:
			dst := inst.Defs[0]
			offset := mf.Frame.Offset(inst.FrameIndex)
			out = append(out, emitSlotAccess(loadOpFor(dst.RegType()), dst, nil, offset)...)
		case machine.KindFIStore:
			src := inst.Uses[0]
			offset := mf.Frame.Offset(inst.FrameIndex)
			out = append(out, emitSlotAccess(storeOpFor(src.RegType()), machine.VReg(0), &src, offset)...)
		default:
			out = append(out, inst)
		}
	}
	return out
}

func loadOpFor(rt machine.RegType) Op {
	if rt == machine.RegTypeFloat {
		return FLD
	}
	return LD
}

func storeOpFor(rt machine.RegType) Op {
	if rt == machine.RegTypeFloat {
		return FSD
	}
	return SD
}

// emitSlotAccess builds a load (dst != zero value, src == nil) or a
// store (src != nil) at sp+offset, materializing the offset through a
// scratch register first when it doesn't fit a 12-bit immediate.
func emitSlotAccess(op Op, dst machine.VReg, src *machine.VReg, offset int) []*machine.MInstruction {
	base := IntVReg(RegSP)
	if !Imm12InRange(int64(offset)) {
		scratch := IntVReg(IntScratch[1])
		li := &machine.MInstruction{Kind: LI, Defs: []machine.VReg{scratch}, Operands: []machine.MOperand{machine.ImmI64Operand(int64(offset))}}
		add := &machine.MInstruction{Kind: ADD, Defs: []machine.VReg{scratch}, Uses: []machine.VReg{scratch, base}}
		return []*machine.MInstruction{li, add, slotInst(op, dst, src, scratch, 0)}
	}
	return []*machine.MInstruction{slotInst(op, dst, src, base, offset)}
}

func slotInst(op Op, dst machine.VReg, src *machine.VReg, base machine.VReg, offset int) *machine.MInstruction {
	if src != nil {
		return &machine.MInstruction{Kind: op, Uses: []machine.VReg{base, *src}, Operands: []machine.MOperand{machine.ImmI64Operand(int64(offset))}}
	}
	return &machine.MInstruction{Kind: op, Defs: []machine.VReg{dst}, Uses: []machine.VReg{base}, Operands: []machine.MOperand{machine.ImmI64Operand(int64(offset))}}
}

func expandMoves(insts []*machine.MInstruction) []*machine.MInstruction {
	out := make([]*machine.MInstruction, 0, len(insts))
	for _, inst := range insts {
		if inst.Kind != machine.KindMove {
			out = append(out, inst)
			continue
		}
		dst := inst.Defs[0]
		src := inst.Operands[0]

		switch src.Kind() {
		case machine.OperandReg:
			if dst.RegType() == machine.RegTypeFloat {
				out = append(out, &machine.MInstruction{Kind: FMV_S, Defs: []machine.VReg{dst}, Uses: []machine.VReg{src.Reg()}})
			} else {
				out = append(out, &machine.MInstruction{Kind: ADDI, Defs: []machine.VReg{dst}, Uses: []machine.VReg{src.Reg()}, Operands: []machine.MOperand{machine.ImmI64Operand(0)}})
			}

		case machine.OperandImmI32:
			out = append(out, &machine.MInstruction{Kind: LI, Defs: []machine.VReg{dst}, Operands: []machine.MOperand{machine.ImmI64Operand(int64(src.ImmI32()))}})

		case machine.OperandImmI64:
			out = append(out, &machine.MInstruction{Kind: LI, Defs: []machine.VReg{dst}, Operands: []machine.MOperand{machine.ImmI64Operand(src.ImmI64())}})

		case machine.OperandImmF32:
			bits := int64(int32(math.Float32bits(src.ImmF32())))
			scratch := IntVReg(IntScratch[0])
			out = append(out,
				&machine.MInstruction{Kind: LI, Defs: []machine.VReg{scratch}, Operands: []machine.MOperand{machine.ImmI64Operand(bits)}},
				&machine.MInstruction{Kind: FMV_W_X, Defs: []machine.VReg{dst}, Uses: []machine.VReg{scratch}},
			)

		case machine.OperandImmF64:
			// No isel path currently produces an F64 immediate Move (the
			// opcode set has no FMV_D_X/64-bit FPR-from-GPR move); treat
			// it the same as F32 so a future caller gets a plausible
			// lowering rather than a silent drop, accepting the
			// truncation to 32 bits of mantissa/exponent.
			bits := int64(int32(math.Float32bits(float32(src.ImmF64()))))
			scratch := IntVReg(IntScratch[0])
			out = append(out,
				&machine.MInstruction{Kind: LI, Defs: []machine.VReg{scratch}, Operands: []machine.MOperand{machine.ImmI64Operand(bits)}},
				&machine.MInstruction{Kind: FMV_W_X, Defs: []machine.VReg{dst}, Uses: []machine.VReg{scratch}},
			)
		}
	}
	return out
}
