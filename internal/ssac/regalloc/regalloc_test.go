package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
)

func newTestFunction(name string) *machine.MFunction {
	mf := machine.NewMFunction(name)
	mf.AddBlock(0)
	mf.EntryBlockID = 0
	return mf
}

func TestAllocateSpillsWhenLiveSetExceedsAllocatablePool(t *testing.T) {
	mf := newTestFunction("spill")
	b := mf.Block(0)

	const n = 20 // more than AllocatableInt's 16 registers
	vregs := make([]machine.VReg, n)
	for i := range vregs {
		v := mf.VRegs.New(machine.RegTypeInt)
		vregs[i] = v
		b.Append(machine.NewMove(v, machine.ImmI64Operand(int64(i))))
	}
	// One instruction uses all of them at once, forcing every vreg live
	// simultaneously at that point.
	b.Append(&machine.MInstruction{Kind: machine.KindNop, Uses: append([]machine.VReg{}, vregs...)})

	Allocate(mf)

	spilled := 0
	for _, v := range vregs {
		a, ok := mf.Assignments[v]
		require.True(t, ok, "every vreg should have a recorded assignment")
		if a.Spilled {
			spilled++
		}
	}
	require.GreaterOrEqual(t, spilled, n-len(riscv64.DefaultOrder(machine.RegTypeInt)),
		"more live vregs than allocatable registers must force spills")
}

func TestAllocatePrefersCalleeSavedForIntervalsCrossingACall(t *testing.T) {
	mf := newTestFunction("crosscall")
	b := mf.Block(0)

	v := mf.VRegs.New(machine.RegTypeInt)
	b.Append(machine.NewMove(v, machine.ImmI64Operand(42)))
	b.Append(&machine.MInstruction{Kind: riscv64.CALL, Operands: []machine.MOperand{machine.SymbolOperand("helper")}})
	b.Append(&machine.MInstruction{Kind: machine.KindNop, Uses: []machine.VReg{v}})

	Allocate(mf)

	a, ok := mf.Assignments[v]
	require.True(t, ok)
	require.False(t, a.Spilled)
	require.True(t, riscv64.CalleeSavedInt.Has(a.PhysReg),
		"a vreg live across a call should land in a callee-saved register")
}

func TestAllocateRewritesSpilledPhiIncomingThroughAssignments(t *testing.T) {
	mf := newTestFunction("phi")
	pred := mf.Block(0)
	join := mf.AddBlock(1)
	pred.Succs = []uint32{1}
	join.Preds = []uint32{0}

	v := mf.VRegs.New(machine.RegTypeInt)
	pred.Append(machine.NewMove(v, machine.ImmI64Operand(7)))

	res := mf.VRegs.New(machine.RegTypeInt)
	phi := machine.NewPhi(res)
	phi.PhiIncoming[0] = machine.RegOperand(v, machine.I64)
	join.Append(phi)
	join.Append(&machine.MInstruction{Kind: machine.KindNop, Uses: []machine.VReg{res}})

	Allocate(mf)

	a, ok := mf.Assignments[v]
	require.True(t, ok)

	incoming := phi.PhiIncoming[0]
	require.Equal(t, machine.OperandReg, incoming.Kind())
	if a.Spilled {
		// Left virtual for phi elimination to resolve via Assignments.
		require.Equal(t, v, incoming.Reg())
	} else {
		require.Equal(t, v.WithRealReg(a.PhysReg), incoming.Reg())
	}
}
