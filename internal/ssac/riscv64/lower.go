package riscv64

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"

// Lower runs every RISC-V64-specific lowering pass a function needs
// between register allocation and emission, in the order their data
// dependencies require: phi elimination consumes the register
// allocator's Assignments map and must run before anything expands
// the Move/FILoad/FIStore pseudo-ops it emits; frame lowering must
// finalize the stack layout before stack lowering resolves any
// FILoad/FIStore offset against it.
func Lower(mf *machine.MFunction) {
	PhiEliminationPass(mf)
	FrameLoweringPass(mf)
	StackLoweringPass(mf)
}
