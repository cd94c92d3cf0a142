package riscv64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
)

func TestFrameLoweringResolvesFrameIndexOperand(t *testing.T) {
	mf := newFunc("f")
	b := mf.Block(0)

	local := mf.Frame.CreateLocalObject(1, 16, 16)
	vr := mf.VRegs.New(machine.RegTypeInt)
	b.Append(&machine.MInstruction{
		Kind: ADDI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{IntVReg(RegSP)},
		Operands: []machine.MOperand{machine.FrameIndexOperand(local)},
	})

	FrameLoweringPass(mf)

	require.Greater(t, mf.StackSize, 0)
	require.Equal(t, 0, mf.StackSize%16)
	inst := b.Insts[0]
	require.Equal(t, machine.OperandImmI64, inst.Operands[0].Kind())
	require.Equal(t, mf.Frame.Offset(local), int(inst.Operands[0].ImmI64()))
}

func TestFrameLoweringMaterializesOutOfRangeOffsetThroughScratch(t *testing.T) {
	mf := newFunc("f")
	b := mf.Block(0)

	mf.Frame.CreateLocalObject(1, 1<<16, 16) // decoy, pushes the next local's offset out past 2047
	local := mf.Frame.CreateLocalObject(2, 16, 16)
	vr := mf.VRegs.New(machine.RegTypeInt)
	b.Append(&machine.MInstruction{
		Kind: ADDI, Defs: []machine.VReg{vr}, Uses: []machine.VReg{IntVReg(RegSP)},
		Operands: []machine.MOperand{machine.FrameIndexOperand(local)},
	})

	FrameLoweringPass(mf)

	require.Len(t, b.Insts, 3)
	require.Equal(t, LI, b.Insts[0].Kind)
	require.Equal(t, ADD, b.Insts[1].Kind)
	require.Equal(t, ADDI, b.Insts[2].Kind)
	require.Equal(t, int64(0), b.Insts[2].Operands[0].ImmI64())
}

func TestStackLoweringExpandsFILoadAndFIStore(t *testing.T) {
	mf := newFunc("f")
	b := mf.Block(0)

	dst := mf.VRegs.New(machine.RegTypeInt)
	src := mf.VRegs.New(machine.RegTypeFloat)
	mf.Frame.SetBaseOffset(16)
	fi := mf.Frame.CreateSpillSlot(8, 8)
	mf.Frame.CalculateOffsets()

	b.Append(machine.NewFILoad(dst, fi))
	b.Append(machine.NewFIStore(src, fi))

	StackLoweringPass(mf)

	require.Len(t, b.Insts, 2)
	require.Equal(t, LD, b.Insts[0].Kind)
	require.Equal(t, FSD, b.Insts[1].Kind)
}

func TestStackLoweringExpandsMoveVariants(t *testing.T) {
	mf := newFunc("f")
	b := mf.Block(0)

	r1 := mf.VRegs.New(machine.RegTypeInt)
	r2 := mf.VRegs.New(machine.RegTypeInt)
	fr1 := mf.VRegs.New(machine.RegTypeFloat)
	fr2 := mf.VRegs.New(machine.RegTypeFloat)

	b.Append(machine.NewMove(r1, machine.RegOperand(r2, machine.I64)))
	b.Append(machine.NewMove(fr1, machine.RegOperand(fr2, machine.F32)))
	b.Append(machine.NewMove(r1, machine.ImmI64Operand(42)))
	b.Append(machine.NewMove(fr1, machine.ImmF32Operand(1.5)))

	StackLoweringPass(mf)

	require.Len(t, b.Insts, 5) // the F32 immediate move expands to 2 instructions
	require.Equal(t, ADDI, b.Insts[0].Kind)
	require.Equal(t, FMV_S, b.Insts[1].Kind)
	require.Equal(t, LI, b.Insts[2].Kind)
	require.Equal(t, LI, b.Insts[3].Kind)
	require.Equal(t, FMV_W_X, b.Insts[4].Kind)
}
