package riscv64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
)

func newFunc(name string) *machine.MFunction {
	mf := machine.NewMFunction(name)
	mf.AddBlock(0)
	mf.EntryBlockID = 0
	return mf
}

func TestPhiEliminationInsertsMoveInPredecessorAndDropsPhi(t *testing.T) {
	mf := newFunc("f")
	pred := mf.Block(0)
	join := mf.AddBlock(1)
	pred.Succs = []uint32{1}
	join.Preds = []uint32{0}
	pred.Append(&machine.MInstruction{Kind: JAL, Operands: []machine.MOperand{machine.BlockOperand(1)}})

	src := mf.VRegs.New(machine.RegTypeInt)
	res := mf.VRegs.New(machine.RegTypeInt)
	mf.RecordAssignment(src, machine.RegAssignment{PhysReg: RegT2})
	mf.RecordAssignment(res, machine.RegAssignment{PhysReg: RegT3})

	phi := machine.NewPhi(res)
	phi.PhiIncoming[0] = machine.RegOperand(src, machine.I64)
	join.Append(phi)

	PhiEliminationPass(mf)

	require.Empty(t, join.Phis())
	require.Len(t, pred.Insts, 2)
	move := pred.Insts[0]
	require.Equal(t, machine.KindMove, move.Kind)
	require.Equal(t, res.WithRealReg(RegT3), move.Defs[0])
	require.Equal(t, src.WithRealReg(RegT2), move.Operands[0].Reg())
	require.Equal(t, JAL, pred.Insts[1].Kind)
}

func TestPhiEliminationBreaksSwapCycle(t *testing.T) {
	mf := newFunc("f")
	pred := mf.Block(0)
	join := mf.AddBlock(1)
	pred.Succs = []uint32{1}
	join.Preds = []uint32{0}

	a := mf.VRegs.New(machine.RegTypeInt)
	b := mf.VRegs.New(machine.RegTypeInt)
	mf.RecordAssignment(a, machine.RegAssignment{PhysReg: RegT2})
	mf.RecordAssignment(b, machine.RegAssignment{PhysReg: RegT3})

	resA := mf.VRegs.New(machine.RegTypeInt)
	resB := mf.VRegs.New(machine.RegTypeInt)
	mf.RecordAssignment(resA, machine.RegAssignment{PhysReg: RegT3})
	mf.RecordAssignment(resB, machine.RegAssignment{PhysReg: RegT2})

	phiA := machine.NewPhi(resA)
	phiA.PhiIncoming[0] = machine.RegOperand(a, machine.I64)
	phiB := machine.NewPhi(resB)
	phiB.PhiIncoming[0] = machine.RegOperand(b, machine.I64)
	join.Append(phiA)
	join.Append(phiB)

	PhiEliminationPass(mf)

	require.Empty(t, join.Phis())
	require.Len(t, pred.Insts, 3)
	for _, inst := range pred.Insts {
		require.Equal(t, machine.KindMove, inst.Kind)
	}
}

func TestPhiEliminationSpilledDestinationUsesFIStore(t *testing.T) {
	mf := newFunc("f")
	pred := mf.Block(0)
	join := mf.AddBlock(1)
	pred.Succs = []uint32{1}
	join.Preds = []uint32{0}

	src := mf.VRegs.New(machine.RegTypeInt)
	res := mf.VRegs.New(machine.RegTypeInt)
	mf.RecordAssignment(src, machine.RegAssignment{PhysReg: RegT2})
	mf.RecordAssignment(res, machine.RegAssignment{Spilled: true, SpillFI: 3})

	phi := machine.NewPhi(res)
	phi.PhiIncoming[0] = machine.RegOperand(src, machine.I64)
	join.Append(phi)

	PhiEliminationPass(mf)

	require.Len(t, pred.Insts, 1)
	require.Equal(t, machine.KindFIStore, pred.Insts[0].Kind)
	require.Equal(t, 3, pred.Insts[0].FrameIndex)
	require.Equal(t, src.WithRealReg(RegT2), pred.Insts[0].Uses[0])
}
