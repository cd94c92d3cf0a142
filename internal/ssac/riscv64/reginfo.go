package riscv64

import (
	"math/bits"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
)

// RegSet is a bitset over RealReg, one bit per register — RISC-V64 has
// 32 registers per class, comfortably within a uint64.
type RegSet uint64

func NewRegSet(regs ...machine.RealReg) RegSet {
	var s RegSet
	for _, r := range regs {
		s |= 1 << uint(r)
	}
	return s
}

func (s RegSet) Has(r machine.RealReg) bool { return s&(1<<uint(r)) != 0 }

func (s RegSet) Count() int { return bits.OnesCount64(uint64(s)) }

func (s RegSet) Range(f func(machine.RealReg)) {
	for i := 0; i < 64; i++ {
		if s&(1<<uint(i)) != 0 {
			f(machine.RealReg(i))
		}
	}
}

// IntScratch/FloatScratch are reserved for the register allocator's own
// use when rewriting a use/def that didn't get a physical register
// (reload-before/spill-after a FILoad/FIStore): never part of
// AllocatableInt/AllocatableFloat, so the scan never hands them to a
// live interval. Two of each class are reserved, since one instruction
// can have up to two spilled source operands live at once (a third,
// spilled result operand is safe to store through the first scratch
// once the instruction has executed and the sources are dead).
var IntScratch = [2]machine.RealReg{RegT0, RegT1}
var FloatScratch = [2]machine.RealReg{RegFT0, RegFT1}

// CalleeSavedInt/CalleeSavedFloat are preserved across calls (s-regs);
// linear scan prefers these for intervals that cross a call point.
var CalleeSavedInt = NewRegSet(RegS1, RegS2, RegS3, RegS4, RegS5, RegS6, RegS7, RegS8, RegS9, RegS10, RegS11)
var CalleeSavedFloat = NewRegSet(RegFS0, RegFS1, RegFS2, RegFS3, RegFS4, RegFS5, RegFS6, RegFS7, RegFS8, RegFS9, RegFS10, RegFS11)

// callerSavedInt/callerSavedFloat are the temporary registers minus the
// two reserved as scratch. The argument registers (a0-a7/fa0-fa7) are
// deliberately NOT included here: isel moves values into and out of
// them directly, as literal physical registers, for parameter setup,
// call-argument passing, and return values, all within a window of one
// or two instructions. Keeping them out of the linear-scan pool entirely
// means the allocator can never assign an unrelated live interval to a0
// while isel's own a0 traffic is in flight — sidestepping the
// fixed-register-interference bookkeeping a fuller allocator would need,
// at the cost of a slightly smaller allocatable set.
var callerSavedInt = NewRegSet(RegT2, RegT3, RegT4, RegT5, RegT6)
var callerSavedFloat = NewRegSet(RegFT2, RegFT3, RegFT4, RegFT5, RegFT6, RegFT7, RegFT8, RegFT9, RegFT10, RegFT11)

// AllocatableInt/AllocatableFloat exclude the permanently-reserved
// registers (zero, ra, sp, gp, tp, the s0 frame pointer), the argument
// registers (reserved for isel's direct ABI moves, see above), and each
// class's two scratch registers, leaving exactly the set linear scan
// may hand out to a live interval.
var AllocatableInt = callerSavedInt | CalleeSavedInt
var AllocatableFloat = callerSavedFloat | CalleeSavedFloat

// CrossesCallPreferred orders a class's allocatable registers with the
// callee-saved ones first — linear scan walks registers in this order
// when assigning an interval that crosses a call, so it reaches for a
// register the callee's own prologue/epilogue already preserves instead
// of one the call would clobber.
func CrossesCallPreferred(rt machine.RegType) []machine.RealReg {
	return orderedRegs(rt, true)
}

// DefaultOrder orders a class's allocatable registers caller-saved
// first, since most intervals don't cross a call and caller-saved
// registers need no prologue/epilogue save/restore at all.
func DefaultOrder(rt machine.RegType) []machine.RealReg {
	return orderedRegs(rt, false)
}

func orderedRegs(rt machine.RegType, calleeSavedFirst bool) []machine.RealReg {
	var callee, caller RegSet
	if rt == machine.RegTypeFloat {
		callee, caller = CalleeSavedFloat, callerSavedFloat
	} else {
		callee, caller = CalleeSavedInt, callerSavedInt
	}
	var out []machine.RealReg
	add := func(s RegSet) { s.Range(func(r machine.RealReg) { out = append(out, r) }) }
	if calleeSavedFirst {
		add(callee)
		add(caller)
	} else {
		add(caller)
		add(callee)
	}
	return out
}
