package isel

import (
	"fmt"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/dag"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
)

func (s *Selector) def(n *dag.SDNode, vr machine.VReg) {
	s.nodeVReg[dag.SDValue{Node: n, ResNo: 0}] = vr
}

// selectLoad folds the pointer operand's address mode and emits one
// RISC-V load into a fresh vreg of the load's result type.
func (s *Selector) selectLoad(n *dag.SDNode) {
	ptr := n.Operand(1)
	mode := s.selectAddress(ptr)
	dt := dtypeOf(n)
	vr := s.freshVReg(dt)
	s.emit(&machine.MInstruction{
		Kind: riscv64.LoadOpFor(dt), Defs: []machine.VReg{vr}, Uses: []machine.VReg{mode.base},
		Operands: []machine.MOperand{machine.ImmI32Operand(mode.offset)},
	})
	s.def(n, vr)
}

// selectStore folds the pointer operand's address mode and emits one
// RISC-V store of the value operand.
func (s *Selector) selectStore(n *dag.SDNode) {
	val, ptr := n.Operand(1), n.Operand(2)
	mode := s.selectAddress(ptr)
	valReg := s.getOperandReg(val)
	s.emit(&machine.MInstruction{
		Kind: riscv64.StoreOpFor(machine.DataTypeOf(val.Node.ValueType(val.ResNo))),
		Uses: []machine.VReg{valReg, mode.base},
		Operands: []machine.MOperand{machine.ImmI32Operand(mode.offset)},
	})
}

var intBinop = map[dag.Opcode][2]riscv64.Op{ // [32-bit, 64-bit]
	dag.OpAdd: {riscv64.ADDW, riscv64.ADD},
	dag.OpSub: {riscv64.SUBW, riscv64.SUB},
	dag.OpMul: {riscv64.MULW, riscv64.MUL},
	dag.OpDiv: {riscv64.DIVW, riscv64.DIV},
	dag.OpMod: {riscv64.REMW, riscv64.REM},
	dag.OpAnd: {riscv64.AND, riscv64.AND},
	dag.OpOr:  {riscv64.OR, riscv64.OR},
	dag.OpXor: {riscv64.XOR, riscv64.XOR},
}

var floatBinop = map[dag.Opcode]riscv64.Op{
	dag.OpFAdd: riscv64.FADD_S,
	dag.OpFSub: riscv64.FSUB_S,
	dag.OpFMul: riscv64.FMUL_S,
	dag.OpFDiv: riscv64.FDIV_S,
}

// selectBinary lowers one arithmetic DAG node, dispatching on
// float-vs-int and (for integers) 32-vs-64-bit width to pick the
// matching R-type instruction.
func (s *Selector) selectBinary(n *dag.SDNode) {
	dt := dtypeOf(n)
	lhs, rhs := s.getOperandReg(n.Operand(0)), s.getOperandReg(n.Operand(1))
	vr := s.freshVReg(dt)

	if dt.Float {
		op, ok := floatBinop[n.Opcode()]
		if !ok {
			panic(fmt.Sprintf("isel: %v has no float form", n.Opcode()))
		}
		s.emit(&machine.MInstruction{Kind: op, Defs: []machine.VReg{vr}, Uses: []machine.VReg{lhs, rhs}})
		s.def(n, vr)
		return
	}

	var op riscv64.Op
	switch n.Opcode() {
	// Shl/AShr/LShr only ever apply to i32 operands in this source
	// language, so the plain (64-bit-register) shift form is always
	// correct without a separate 32-bit variant.
	case dag.OpShl:
		op = riscv64.SLL
	case dag.OpAShr:
		op = riscv64.SRA
	case dag.OpLShr:
		op = riscv64.SRL
	default:
		pair, ok := intBinop[n.Opcode()]
		if !ok {
			panic(fmt.Sprintf("isel: %v has no integer form", n.Opcode()))
		}
		op = pick(dt, pair[0], pair[1])
	}
	s.emit(&machine.MInstruction{Kind: op, Defs: []machine.VReg{vr}, Uses: []machine.VReg{lhs, rhs}})
	s.def(n, vr)
}

func pick(dt machine.DataType, narrow, wide riscv64.Op) riscv64.Op {
	if dt.Wide {
		return wide
	}
	return narrow
}

// selectICmp expands one integer comparison predicate into the 1-2
// RISC-V instructions needed to materialize a 0/1 boolean, since
// RISC-V has no general compare-to-register instruction.
func (s *Selector) selectICmp(n *dag.SDNode) {
	lhs, rhs := s.getOperandReg(n.Operand(0)), s.getOperandReg(n.Operand(1))
	vr := s.freshVReg(machine.I32)

	switch n.IntCond() {
	case ir.IntEQ:
		tmp := s.freshVReg(machine.I32)
		s.emit(&machine.MInstruction{Kind: riscv64.XOR, Defs: []machine.VReg{tmp}, Uses: []machine.VReg{lhs, rhs}})
		s.emit(&machine.MInstruction{Kind: riscv64.SLTIU, Defs: []machine.VReg{vr}, Uses: []machine.VReg{tmp}, Operands: []machine.MOperand{machine.ImmI32Operand(1)}})
	case ir.IntNE:
		tmp := s.freshVReg(machine.I32)
		s.emit(&machine.MInstruction{Kind: riscv64.XOR, Defs: []machine.VReg{tmp}, Uses: []machine.VReg{lhs, rhs}})
		s.emit(&machine.MInstruction{Kind: riscv64.SLTU, Defs: []machine.VReg{vr}, Uses: []machine.VReg{zeroReg(), tmp}})
	case ir.IntSLT:
		s.emit(&machine.MInstruction{Kind: riscv64.SLT, Defs: []machine.VReg{vr}, Uses: []machine.VReg{lhs, rhs}})
	case ir.IntSGT:
		s.emit(&machine.MInstruction{Kind: riscv64.SLT, Defs: []machine.VReg{vr}, Uses: []machine.VReg{rhs, lhs}})
	case ir.IntSLE:
		tmp := s.freshVReg(machine.I32)
		s.emit(&machine.MInstruction{Kind: riscv64.SLT, Defs: []machine.VReg{tmp}, Uses: []machine.VReg{rhs, lhs}})
		s.emit(&machine.MInstruction{Kind: riscv64.XORI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{tmp}, Operands: []machine.MOperand{machine.ImmI32Operand(1)}})
	case ir.IntSGE:
		tmp := s.freshVReg(machine.I32)
		s.emit(&machine.MInstruction{Kind: riscv64.SLT, Defs: []machine.VReg{tmp}, Uses: []machine.VReg{lhs, rhs}})
		s.emit(&machine.MInstruction{Kind: riscv64.XORI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{tmp}, Operands: []machine.MOperand{machine.ImmI32Operand(1)}})
	case ir.IntULT:
		s.emit(&machine.MInstruction{Kind: riscv64.SLTU, Defs: []machine.VReg{vr}, Uses: []machine.VReg{lhs, rhs}})
	case ir.IntUGT:
		s.emit(&machine.MInstruction{Kind: riscv64.SLTU, Defs: []machine.VReg{vr}, Uses: []machine.VReg{rhs, lhs}})
	case ir.IntULE:
		tmp := s.freshVReg(machine.I32)
		s.emit(&machine.MInstruction{Kind: riscv64.SLTU, Defs: []machine.VReg{tmp}, Uses: []machine.VReg{rhs, lhs}})
		s.emit(&machine.MInstruction{Kind: riscv64.XORI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{tmp}, Operands: []machine.MOperand{machine.ImmI32Operand(1)}})
	case ir.IntUGE:
		tmp := s.freshVReg(machine.I32)
		s.emit(&machine.MInstruction{Kind: riscv64.SLTU, Defs: []machine.VReg{tmp}, Uses: []machine.VReg{lhs, rhs}})
		s.emit(&machine.MInstruction{Kind: riscv64.XORI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{tmp}, Operands: []machine.MOperand{machine.ImmI32Operand(1)}})
	default:
		panic(fmt.Sprintf("isel: unhandled icmp predicate %v", n.IntCond()))
	}
	s.def(n, vr)
}

// selectFCmp expands one float comparison predicate via FEQ.S/FLT.S/
// FLE.S, negating with XORI when the predicate is the logical inverse
// of one RISC-V already provides.
func (s *Selector) selectFCmp(n *dag.SDNode) {
	lhs, rhs := s.getOperandReg(n.Operand(0)), s.getOperandReg(n.Operand(1))
	vr := s.freshVReg(machine.I32)

	emitDirect := func(op riscv64.Op, a, b machine.VReg) {
		s.emit(&machine.MInstruction{Kind: op, Defs: []machine.VReg{vr}, Uses: []machine.VReg{a, b}})
	}
	emitNegated := func(op riscv64.Op, a, b machine.VReg) {
		tmp := s.freshVReg(machine.I32)
		s.emit(&machine.MInstruction{Kind: op, Defs: []machine.VReg{tmp}, Uses: []machine.VReg{a, b}})
		s.emit(&machine.MInstruction{Kind: riscv64.XORI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{tmp}, Operands: []machine.MOperand{machine.ImmI32Operand(1)}})
	}

	switch n.FloatCond() {
	case ir.FloatOEQ, ir.FloatUEQ:
		emitDirect(riscv64.FEQ_S, lhs, rhs)
	case ir.FloatONE, ir.FloatUNE:
		emitNegated(riscv64.FEQ_S, lhs, rhs)
	case ir.FloatOLT, ir.FloatULT:
		emitDirect(riscv64.FLT_S, lhs, rhs)
	case ir.FloatOGT, ir.FloatUGT:
		emitDirect(riscv64.FLT_S, rhs, lhs)
	case ir.FloatOLE, ir.FloatULE:
		emitDirect(riscv64.FLE_S, lhs, rhs)
	case ir.FloatOGE, ir.FloatUGE:
		emitDirect(riscv64.FLE_S, rhs, lhs)
	default:
		panic(fmt.Sprintf("isel: unhandled fcmp predicate %v", n.FloatCond()))
	}
	s.def(n, vr)
}

// selectCast lowers ZExt/SIToFP/FPToSI.
func (s *Selector) selectCast(n *dag.SDNode) {
	src := s.getOperandReg(n.Operand(0))
	dt := dtypeOf(n)
	vr := s.freshVReg(dt)

	switch n.Opcode() {
	case dag.OpZExt:
		// the source language's only sub-word type is i1; widening it
		// to i32 is already its runtime representation (0/1), so ZExt
		// lowers to a plain register move.
		s.emit(machine.NewMove(vr, machine.RegOperand(src, dt)))
	case dag.OpSIToFP:
		s.emit(&machine.MInstruction{Kind: riscv64.FCVT_S_W, Defs: []machine.VReg{vr}, Uses: []machine.VReg{src}})
	case dag.OpFPToSI:
		s.emit(&machine.MInstruction{Kind: riscv64.FCVT_W_S, Defs: []machine.VReg{vr}, Uses: []machine.VReg{src}})
	default:
		panic(fmt.Sprintf("isel: unhandled cast opcode %v", n.Opcode()))
	}
	s.def(n, vr)
}

// selectBr lowers an unconditional branch to JAL x0, target.
func (s *Selector) selectBr(n *dag.SDNode) {
	target := n.Operand(0).Node.ImmI32()
	s.emit(&machine.MInstruction{Kind: riscv64.JAL, Operands: []machine.MOperand{machine.BlockOperand(uint32(target))}})
}

// selectBrCond lowers a conditional branch to BNE cond,x0,trueLabel
// followed by an unconditional JAL to the false label, since RISC-V's
// branch instructions have no natural "else" fallthrough the way the
// DAG's two-target BrCond does.
func (s *Selector) selectBrCond(n *dag.SDNode) {
	cond := s.getOperandReg(n.Operand(0))
	trueLabel := n.Operand(1).Node.ImmI32()
	falseLabel := n.Operand(2).Node.ImmI32()

	s.emit(&machine.MInstruction{
		Kind: riscv64.BNE, Uses: []machine.VReg{cond, zeroReg()},
		Operands: []machine.MOperand{machine.BlockOperand(uint32(trueLabel))},
	})
	s.emit(&machine.MInstruction{Kind: riscv64.JAL, Operands: []machine.MOperand{machine.BlockOperand(uint32(falseLabel))}})
}

// selectRet moves the optional return value into a0/fa0 and emits the
// return jump (JALR x0, ra, 0). No later pass inserts a stack-teardown
// sequence before it: frame lowering computes the layout only.
func (s *Selector) selectRet(n *dag.SDNode) {
	ops := n.Operands()
	if len(ops) > 1 {
		v := ops[1]
		dt := machine.DataTypeOf(v.Node.ValueType(v.ResNo))
		src := s.getOperandReg(v)
		dst := riscv64.IntVReg(riscv64.RegA0)
		if dt.Float {
			dst = riscv64.FloatVReg(riscv64.RegFA0)
		}
		s.emit(machine.NewMove(dst, machine.RegOperand(src, dt)))
	}
	s.emit(&machine.MInstruction{Kind: riscv64.RET, Uses: []machine.VReg{riscv64.IntVReg(riscv64.RegRA)}})
}

// selectCall stages every argument into a fresh stack slot before
// loading register-class arguments back out into a0-a7/fa0-fa7 (and
// overflow arguments into this function's outgoing-arg area): staging
// through memory first, rather than moving straight into the argument
// registers as each is computed, avoids clobbering an earlier
// argument that happened to need the same physical register a later
// argument's value is computed through.
func (s *Selector) selectCall(n *dag.SDNode) {
	symNode := n.Operand(1).Node
	args := n.Operands()[2:]

	type staged struct {
		fi int
		dt machine.DataType
	}
	stage := make([]staged, len(args))
	for i, a := range args {
		dt := machine.DataTypeOf(a.Node.ValueType(a.ResNo))
		reg := s.getOperandReg(a)
		fi := s.mf.Frame.CreateSpillSlot(8, 8)
		s.emit(machine.NewFIStore(reg, fi))
		stage[i] = staged{fi: fi, dt: dt}
	}

	intIdx, floatIdx, stackIdx := 0, 0, 0
	for _, st := range stage {
		tmp := s.freshVReg(st.dt)
		s.emit(machine.NewFILoad(tmp, st.fi))

		switch {
		case !st.dt.Float && intIdx < len(riscv64.IntArgRegs):
			dst := riscv64.IntVReg(riscv64.IntArgRegs[intIdx])
			intIdx++
			s.emit(machine.NewMove(dst, machine.RegOperand(tmp, st.dt)))
		case st.dt.Float && floatIdx < len(riscv64.FloatArgRegs):
			dst := riscv64.FloatVReg(riscv64.FloatArgRegs[floatIdx])
			floatIdx++
			s.emit(machine.NewMove(dst, machine.RegOperand(tmp, st.dt)))
		default:
			argFi := s.mf.Frame.OutgoingArgSlot(stackIdx)
			stackIdx++
			s.emit(machine.NewFIStore(tmp, argFi))
		}
	}
	if stackIdx > s.maxOutgoingArgs {
		s.maxOutgoingArgs = stackIdx
	}

	callee := specialCallee(symNode.Symbol())
	s.emit(&machine.MInstruction{Kind: riscv64.CALL, Operands: []machine.MOperand{machine.SymbolOperand(callee)}})

	if n.NumValues() > 1 { // has a non-void, non-chain result
		dt := dtypeOf(n)
		vr := s.freshVReg(dt)
		src := riscv64.IntVReg(riscv64.RegA0)
		if dt.Float {
			src = riscv64.FloatVReg(riscv64.RegFA0)
		}
		s.emit(machine.NewMove(vr, machine.RegOperand(src, dt)))
		s.def(n, vr)
	}
}

// specialCallee renames the two builtins the front end lowers under
// their LLVM intrinsic spelling to the libc names the RISC-V runtime
// actually links against.
func specialCallee(name string) string {
	switch name {
	case "llvm.memset":
		return "memset"
	case "llvm.memcpy":
		return "memcpy"
	default:
		return name
	}
}

// selectPhi copies a Phi DAG node straight into a Machine IR Phi
// pseudo-instruction; Phi elimination (run after register allocation)
// rewrites each into copies in the corresponding predecessor blocks.
func (s *Selector) selectPhi(n *dag.SDNode) {
	dt := dtypeOf(n)
	vr := s.freshVReg(dt)
	inst := machine.NewPhi(vr)
	ops := n.Operands()
	for i := 0; i+1 < len(ops); i += 2 {
		val, label := ops[i], ops[i+1]
		pred := uint32(label.Node.ImmI32())
		inst.PhiIncoming[pred] = s.operandFor(val)
	}
	s.emit(inst)
	s.def(n, vr)
}

// operandFor renders a constant or register DAG value directly as an
// MOperand, without forcing it through a register first — used by
// selectPhi so an incoming constant doesn't need its own Move in a
// predecessor block that may not dominate where it's consumed.
func (s *Selector) operandFor(v dag.SDValue) machine.MOperand {
	switch v.Node.Opcode() {
	case dag.OpConstI32:
		return machine.ImmI32Operand(v.Node.ImmI32())
	case dag.OpConstF32:
		return machine.ImmF32Operand(v.Node.ImmF32())
	default:
		return machine.RegOperand(s.getOperandReg(v), dtypeOf(v.Node))
	}
}
