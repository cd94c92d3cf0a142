// Package isel lowers a SelectionDAG, one basic block at a time, into
// a populated Machine IR function: the DAGIsel-equivalent stage
// sitting between the target-independent dag package and the RISC-V64
// target. Values materialize into virtual registers, stack addressing
// goes through MOperand's FrameIndex/Symbol forms, and control flow
// is expressed directly in RISC-V branch/jump opcodes.
package isel

import (
	"fmt"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/dag"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
)

// Selector carries all per-function state across the sequence of
// per-block DAG builds and selections that make up one SelectFunction
// call.
type Selector struct {
	mf    *machine.MFunction
	vregs map[ir.RegisterID]machine.VReg // IR register -> vreg, shared across the whole function

	nodeVReg map[dag.SDValue]machine.VReg // per-block (node,result) -> vreg cache
	blk      *machine.MBlock

	maxOutgoingArgs int // widest register-class call-arg overflow seen, in slots
}

// SelectModule lowers every defined function of m into Machine IR.
func SelectModule(m *ir.Module) []*machine.MFunction {
	fns := m.Functions()
	out := make([]*machine.MFunction, 0, len(fns))
	for _, f := range fns {
		out = append(out, SelectFunction(f))
	}
	return out
}

// SelectFunction lowers f's SSA body into a Machine IR function: every
// Alloca becomes a frame object up front, every block's SelectionDAG
// is built and selected in layout order, and incoming parameters are
// materialized into fresh virtual registers in the entry block.
func SelectFunction(f *ir.Function) *machine.MFunction {
	mf := machine.NewMFunction(f.Name)
	mf.RetType = machine.DataTypeOf(f.RetType)
	mf.EntryBlockID = uint32(f.EntryBlock().ID())

	sel := &Selector{mf: mf, vregs: map[ir.RegisterID]machine.VReg{}}

	sel.collectAllocas(f)
	for _, b := range f.Blocks() {
		mf.AddBlock(uint32(b.ID()))
		mf.Block(uint32(b.ID())).Preds = blockIDs(b.Preds())
		mf.Block(uint32(b.ID())).Succs = blockIDs(b.Succs())
	}

	sel.setupParameters(f)

	bd := dag.NewBuilder()
	for _, b := range f.Blocks() {
		d := bd.Build(b)
		sel.selectBlock(b, d)
	}
	if sel.maxOutgoingArgs > 0 {
		mf.Frame.SetParamAreaSize(sel.maxOutgoingArgs * 8)
	}
	return mf
}

func blockIDs(ids []ir.BlockID) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

// elemBytes reports the storage size of one scalar of type t.
func elemBytes(t ir.Type) int { return machine.DataTypeOf(t).Bytes() }

// collectAllocas registers a frame object for every Alloca in f,
// ahead of instruction selection, so every block's GetFrameIndexNode
// resolves to a stable slot identity regardless of visitation order.
func (s *Selector) collectAllocas(f *ir.Function) {
	for _, inst := range f.AllInstructions() {
		if inst.Opcode() != ir.OpAlloca {
			continue
		}
		size := elemBytes(inst.Type())
		for _, d := range inst.Dims() {
			size *= d
		}
		reg := int(inst.Dst().Register())
		s.mf.Frame.CreateLocalObject(reg, size, elemBytes(inst.Type()))
	}
}

// getOrCreateVReg returns the vreg standing in for irReg, allocating
// one of the right register class on first use. Every later reference
// to the same IR register resolves to the same vreg, which is how SSA
// def-use survives the lowering to Machine IR.
func (s *Selector) getOrCreateVReg(irReg ir.RegisterID, t ir.Type) machine.VReg {
	if v, ok := s.vregs[irReg]; ok {
		return v
	}
	v := s.mf.VRegs.New(machine.DataTypeOf(t).RegType())
	s.vregs[irReg] = v
	return v
}

func (s *Selector) freshVReg(t machine.DataType) machine.VReg {
	return s.mf.VRegs.New(t.RegType())
}

func (s *Selector) emit(inst *machine.MInstruction) {
	s.blk.Append(inst)
}

// setupParameters assigns every parameter a vreg and, in the entry
// block, emits the moves that materialize the first eight
// integer/pointer and eight float parameters out of their ABI
// registers; any parameter beyond that rides in on the stack and is
// pulled in with an FILoad from its incoming-parameter slot.
func (s *Selector) setupParameters(f *ir.Function) {
	entry := s.mf.Block(s.mf.EntryBlockID)
	s.blk = entry

	intIdx, floatIdx, stackIdx := 0, 0, 0
	for _, p := range f.Params {
		dt := machine.DataTypeOf(p.Type)
		vr := s.getOrCreateVReg(p.Reg.Register(), p.Type)
		s.mf.Params = append(s.mf.Params, vr)

		switch {
		case dt.RegType() == machine.RegTypeInt && intIdx < len(riscv64.IntArgRegs):
			s.emit(machine.NewMove(vr, machine.RegOperand(riscv64.IntVReg(riscv64.IntArgRegs[intIdx]), dt)))
			intIdx++
		case dt.RegType() == machine.RegTypeFloat && floatIdx < len(riscv64.FloatArgRegs):
			s.emit(machine.NewMove(vr, machine.RegOperand(riscv64.FloatVReg(riscv64.FloatArgRegs[floatIdx]), dt)))
			floatIdx++
		default:
			fi := s.mf.Frame.CreateIncomingStackParam(stackIdx)
			stackIdx++
			s.emit(machine.NewFILoad(vr, fi))
		}
	}
	s.blk = nil
}

// selectBlock lowers one block's already-built SelectionDAG into the
// Machine IR block of the same id. Because the dag package's folding
// set only ever returns a node once every one of its operands already
// exists, d.Nodes() is already in a valid topological (dependency)
// order — no separate postorder scheduling pass is needed the way
// original_source's scheduleDAG rebuilds one from scratch.
func (s *Selector) selectBlock(b *ir.BasicBlock, d *dag.SelectionDAG) {
	s.blk = s.mf.Block(uint32(b.ID()))
	s.nodeVReg = map[dag.SDValue]machine.VReg{}

	for _, n := range d.Nodes() {
		s.selectNode(n)
	}
}

// selectNode dispatches one DAG node to its opcode-specific lowering.
// Leaf/address nodes (labels, constants, registers, frame indices,
// symbols) never themselves emit an instruction — they are
// materialized lazily, on demand, by whichever consumer asks for their
// value via getOperandReg.
func (s *Selector) selectNode(n *dag.SDNode) {
	switch n.Opcode() {
	case dag.OpEntryToken, dag.OpLabel, dag.OpRegister, dag.OpConstI32, dag.OpConstF32, dag.OpFrameIndex, dag.OpSymbol:
		// materialized on demand
	case dag.OpLoad:
		s.selectLoad(n)
	case dag.OpStore:
		s.selectStore(n)
	case dag.OpAdd, dag.OpSub, dag.OpMul, dag.OpDiv, dag.OpMod, dag.OpShl, dag.OpAShr, dag.OpLShr,
		dag.OpAnd, dag.OpOr, dag.OpXor, dag.OpFAdd, dag.OpFSub, dag.OpFMul, dag.OpFDiv:
		s.selectBinary(n)
	case dag.OpICmp:
		s.selectICmp(n)
	case dag.OpFCmp:
		s.selectFCmp(n)
	case dag.OpZExt, dag.OpSIToFP, dag.OpFPToSI:
		s.selectCast(n)
	case dag.OpBrCond:
		s.selectBrCond(n)
	case dag.OpBr:
		s.selectBr(n)
	case dag.OpRet:
		s.selectRet(n)
	case dag.OpCall:
		s.selectCall(n)
	case dag.OpPhi:
		s.selectPhi(n)
	default:
		panic(fmt.Sprintf("isel: unhandled DAG opcode %v", n.Opcode()))
	}
}
