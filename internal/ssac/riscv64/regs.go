// Package riscv64 supplies the RISC-V64-specific pieces of the
// backend: the physical register set, the concrete instruction
// opcodes instruction selection targets, and the lowering passes
// (Phi elimination, stack lowering, frame lowering) that turn
// selected-but-abstract Machine IR into a form ready for emission.
package riscv64

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"

// Physical integer registers, by RISC-V calling-convention name.
const (
	RegZero = machine.RealReg(iota)
	RegRA
	RegSP
	RegGP
	RegTP
	RegT0
	RegT1
	RegT2
	RegS0 // also the frame pointer
	RegS1
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegS8
	RegS9
	RegS10
	RegS11
	RegT3
	RegT4
	RegT5
	RegT6
)

// Physical float registers, numbered in a separate namespace from the
// integer registers (RegType distinguishes the two, so the same raw
// RealReg byte value is reused for fa0 and a0 — VReg.RegType tells
// them apart, matching how linear-scan allocates the two classes
// independently).
const (
	RegFT0 = machine.RealReg(iota)
	RegFT1
	RegFT2
	RegFT3
	RegFT4
	RegFT5
	RegFT6
	RegFT7
	RegFS0
	RegFS1
	RegFA0
	RegFA1
	RegFA2
	RegFA3
	RegFA4
	RegFA5
	RegFA6
	RegFA7
	RegFS2
	RegFS3
	RegFS4
	RegFS5
	RegFS6
	RegFS7
	RegFS8
	RegFS9
	RegFS10
	RegFS11
	RegFT8
	RegFT9
	RegFT10
	RegFT11
)

// IntArgRegs/FloatArgRegs are the first eight argument registers of
// each class, per the standard RISC-V calling convention.
var IntArgRegs = [8]machine.RealReg{RegA0, RegA1, RegA2, RegA3, RegA4, RegA5, RegA6, RegA7}
var FloatArgRegs = [8]machine.RealReg{RegFA0, RegFA1, RegFA2, RegFA3, RegFA4, RegFA5, RegFA6, RegFA7}

func IntVReg(r machine.RealReg) machine.VReg   { return machine.FromRealReg(r, machine.RegTypeInt) }
func FloatVReg(r machine.RealReg) machine.VReg { return machine.FromRealReg(r, machine.RegTypeFloat) }

// Imm12InRange reports whether v fits a RISC-V I-type/S-type/B-type
// 12-bit signed immediate field — the threshold selectLoad/selectStore
// use to decide between folding an offset directly into the access
// and materializing it through a temporary register first.
func Imm12InRange(v int64) bool { return v >= -2048 && v <= 2047 }
