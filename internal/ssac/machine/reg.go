// Package machine implements the target-independent Machine IR (MIR)
// that instruction selection lowers a SelectionDAG into: MInstruction,
// MBlock, MFunction, and the MFrameInfo stack-layout tracker. Target-
// specific instructions (the RISC-V64 opcode set) are defined in the
// riscv64 package as InstKind values starting at KindTarget.
package machine

import "fmt"

// RegType classifies a register's register-file class — linear-scan
// allocates int and float registers independently, as SPEC_FULL.md's
// register allocator section requires.
type RegType byte

const (
	RegTypeInvalid RegType = iota
	RegTypeInt
	RegTypeFloat
)

func (t RegType) String() string {
	switch t {
	case RegTypeInt:
		return "int"
	case RegTypeFloat:
		return "float"
	default:
		return "invalid"
	}
}

// VReg packs a register id, its class, and (once allocated) a real
// register number into one 64-bit value: bits [0:32) hold the id, bits
// [32:40) hold RegType, bits [40:48) hold the RealReg. A VReg with a
// nonzero RealReg is a physical register; one without is still
// virtual and awaiting allocation.
type VReg uint64

type VRegID uint32
type RealReg byte

const (
	RealRegInvalid RealReg   = 0
	vRegIDInvalid  VRegID    = 1<<32 - 1
	VRegInvalid    VReg      = VReg(vRegIDInvalid)
)

func NewVReg(id VRegID, t RegType) VReg {
	return VReg(id) | VReg(t)<<32
}

func (v VReg) ID() VRegID          { return VRegID(v & 0xffffffff) }
func (v VReg) RegType() RegType    { return RegType((v >> 32) & 0xff) }
func (v VReg) RealReg() RealReg    { return RealReg(v >> 40) }
func (v VReg) IsRealReg() bool     { return v.RealReg() != RealRegInvalid }
func (v VReg) Valid() bool         { return v.ID() != vRegIDInvalid && v.RegType() != RegTypeInvalid }

// WithRealReg returns v with its RealReg field set to r — the step
// the register allocator performs once it assigns v a physical slot.
func (v VReg) WithRealReg(r RealReg) VReg {
	return VReg(r)<<40 | (v & 0xff_ffffffff)
}

func FromRealReg(r RealReg, t RegType) VReg {
	return NewVReg(VRegID(r), t).WithRealReg(r)
}

func (v VReg) String() string {
	if v.IsRealReg() {
		return fmt.Sprintf("r%d", v.RealReg())
	}
	return fmt.Sprintf("v%d", v.ID())
}

// VRegAllocator hands out fresh virtual register ids for a single
// function's instruction-selection pass.
type VRegAllocator struct{ next VRegID }

func (a *VRegAllocator) New(t RegType) VReg {
	id := a.next
	a.next++
	return NewVReg(id, t)
}
