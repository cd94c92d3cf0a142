package riscv64

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"

// IsCondBranch/IsUncondBranch/IsReturn/BranchTarget are the narrow,
// target-specific queries the lowering passes need to reason about
// control flow without switching on every opcode themselves — the
// RISC-V64 instance of the generic-pass/target-adapter split.
func IsCondBranch(inst *machine.MInstruction) bool {
	switch inst.Kind {
	case BEQ, BNE, BLT, BGE, BLTU, BGEU:
		return true
	default:
		return false
	}
}

func IsUncondBranch(inst *machine.MInstruction) bool { return inst.Kind == JAL }

func IsReturn(inst *machine.MInstruction) bool { return inst.Kind == RET }

// BranchTarget returns the block a conditional or unconditional branch
// targets, and false for anything else (including CALL, which also
// carries a Symbol operand but targets a callee, not a block).
func BranchTarget(inst *machine.MInstruction) (uint32, bool) {
	if !IsCondBranch(inst) && !IsUncondBranch(inst) {
		return 0, false
	}
	for _, op := range inst.Operands {
		if op.Kind() == machine.OperandBlock {
			return op.Block(), true
		}
	}
	return 0, false
}
