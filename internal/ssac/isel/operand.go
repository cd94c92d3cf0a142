package isel

import (
	"math"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/dag"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
)

func spReg() machine.VReg { return riscv64.IntVReg(riscv64.RegSP) }
func zeroReg() machine.VReg { return riscv64.IntVReg(riscv64.RegZero) }

// dtypeOf returns the Machine IR data type n's (only, non-chain)
// result is lowered as.
func dtypeOf(n *dag.SDNode) machine.DataType { return machine.DataTypeOf(n.ValueType(0)) }

// getOperandReg is the single entry point every select* method uses
// to turn a DAG value into a concrete register: it caches the result
// per (node, result-number) so re-reading the same SSA value never
// re-emits its materialization, and lazily expands constants/
// addresses into the instructions that produce them.
func (s *Selector) getOperandReg(v dag.SDValue) machine.VReg {
	if vr, ok := s.nodeVReg[v]; ok {
		return vr
	}
	n := v.Node
	var vr machine.VReg

	switch n.Opcode() {
	case dag.OpRegister:
		vr = s.getOrCreateVReg(n.IRReg(), n.ValueType(0))

	case dag.OpConstI32:
		vr = s.freshVReg(dtypeOf(n))
		s.emit(machine.NewMove(vr, machine.ImmI32Operand(n.ImmI32())))

	case dag.OpConstF32:
		bits := int32(math.Float32bits(n.ImmF32()))
		itmp := s.freshVReg(machine.I32)
		s.emit(machine.NewMove(itmp, machine.ImmI32Operand(bits)))
		vr = s.freshVReg(machine.F32)
		s.emit(&machine.MInstruction{Kind: riscv64.FMV_W_X, Defs: []machine.VReg{vr}, Uses: []machine.VReg{itmp}})

	case dag.OpFrameIndex, dag.OpSymbol:
		vr = s.materializeAddress(n)

	default:
		s.selectNode(n)
		vr, _ = s.nodeVReg[v]
	}

	s.nodeVReg[v] = vr
	return vr
}

// materializeAddress turns a FrameIndex or Symbol leaf into a register
// holding its runtime address: FrameIndex becomes an ADDI off of sp
// (the FrameIndexOperand is an abstract stack-slot reference, resolved
// to a concrete offset only once frame lowering runs after register
// allocation); Symbol becomes a load-address pseudo-instruction.
func (s *Selector) materializeAddress(n *dag.SDNode) machine.VReg {
	vr := s.freshVReg(machine.PTR)
	switch n.Opcode() {
	case dag.OpFrameIndex:
		s.emit(&machine.MInstruction{
			Kind: riscv64.ADDI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{spReg()},
			Operands: []machine.MOperand{machine.FrameIndexOperand(n.FrameIndex())},
		})
	case dag.OpSymbol:
		s.emit(&machine.MInstruction{
			Kind: riscv64.LA, Defs: []machine.VReg{vr},
			Operands: []machine.MOperand{machine.SymbolOperand(n.Symbol())},
		})
	default:
		panic("isel: materializeAddress on non-address node")
	}
	return vr
}

// addrMode is the result of selectAddress: a base register plus a
// folded constant byte offset, ready to drop straight into a load or
// store's immediate field.
type addrMode struct {
	base   machine.VReg
	offset int32
}

// selectAddress recursively folds an Add(base, const) pattern into one
// (base register, offset) pair so selectLoad/selectStore can encode
// small, in-range offsets directly in the access instead of emitting
// a separate address-add first. Anything else (register-valued index
// arithmetic, an unfoldable chain of adds) falls back to fully
// materializing the pointer expression with offset 0.
func (s *Selector) selectAddress(ptr dag.SDValue) addrMode {
	n := ptr.Node
	if n.Opcode() == dag.OpAdd {
		lhs, rhs := n.Operand(0), n.Operand(1)
		if imm, ok := constOffset(rhs); ok {
			inner := s.selectAddress(lhs)
			if riscv64.Imm12InRange(int64(inner.offset) + int64(imm)) {
				return addrMode{base: inner.base, offset: inner.offset + imm}
			}
		}
		if imm, ok := constOffset(lhs); ok {
			inner := s.selectAddress(rhs)
			if riscv64.Imm12InRange(int64(inner.offset) + int64(imm)) {
				return addrMode{base: inner.base, offset: inner.offset + imm}
			}
		}
	}
	return addrMode{base: s.getOperandReg(ptr), offset: 0}
}

func constOffset(v dag.SDValue) (int32, bool) {
	if v.Node.Opcode() == dag.OpConstI32 {
		return v.Node.ImmI32(), true
	}
	return 0, false
}
