package isel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
)

func kinds(b *machine.MBlock) []machine.InstKind {
	out := make([]machine.InstKind, len(b.Insts))
	for i, inst := range b.Insts {
		out[i] = inst.Kind
	}
	return out
}

func countKind(b *machine.MBlock, k machine.InstKind) int {
	n := 0
	for _, inst := range b.Insts {
		if inst.Kind == k {
			n++
		}
	}
	return n
}

func TestSelectFunctionMovesParamsThenLowersAddToADDW(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("add2", ir.TypeI32, []ir.Type{ir.TypeI32, ir.TypeI32})
	entry := f.AddBlock()
	v := f.Binary(entry, ir.OpAdd, f.Params[0].Reg, f.Params[1].Reg, ir.TypeI32)
	f.Ret(entry, v)

	mf := SelectFunction(f)
	require.Len(t, mf.Params, 2)

	blk := mf.Block(mf.EntryBlockID)
	ks := kinds(blk)
	require.Equal(t, machine.KindMove, ks[0], "a0 moved into its vreg first")
	require.Equal(t, machine.KindMove, ks[1], "a1 moved into its vreg second")
	require.Contains(t, ks, riscv64.ADDW, "32-bit add lowers to ADDW")
	require.Equal(t, riscv64.RET, ks[len(ks)-1], "function ends with RET")
}

func TestSelectFunctionLowersFloatAddToFADD_S(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("faddf", ir.TypeF32, []ir.Type{ir.TypeF32, ir.TypeF32})
	entry := f.AddBlock()
	v := f.Binary(entry, ir.OpFAdd, f.Params[0].Reg, f.Params[1].Reg, ir.TypeF32)
	f.Ret(entry, v)

	mf := SelectFunction(f)
	blk := mf.Block(mf.EntryBlockID)
	require.Contains(t, kinds(blk), riscv64.FADD_S)
}

// storeLoadRoundTrip builds: alloca x; store 7 -> x; v = load x; ret v.
func storeLoadRoundTrip(t *testing.T) *ir.Function {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("roundtrip", ir.TypeI32, nil)
	entry := f.AddBlock()
	x := f.Alloca(entry, ir.TypeI32, nil)
	f.Store(entry, m.Operands.ImmI32(7), x)
	v := f.Load(entry, x, ir.TypeI32)
	f.Ret(entry, v)
	return f
}

func TestSelectFunctionLowersAllocaStoreLoadAndSharesOneAddress(t *testing.T) {
	f := storeLoadRoundTrip(t)
	mf := SelectFunction(f)
	blk := mf.Block(mf.EntryBlockID)

	require.Equal(t, 1, countKind(blk, riscv64.ADDI), "store and load reuse the same materialized frame address")
	require.Equal(t, 1, countKind(blk, riscv64.SW))
	require.Equal(t, 1, countKind(blk, riscv64.LW))
}

func TestSelectFunctionLowersCallWithStagedArguments(t *testing.T) {
	m := ir.NewModule()
	m.DeclareExtern("helper", ir.TypeI32, []ir.Type{ir.TypeI32, ir.TypeI32})
	f := m.DeclareFunction("caller", ir.TypeI32, nil)
	entry := f.AddBlock()
	v := f.Call(entry, "helper", ir.TypeI32, []ir.CallArg{
		{Type: ir.TypeI32, Val: m.Operands.ImmI32(1)},
		{Type: ir.TypeI32, Val: m.Operands.ImmI32(2)},
	})
	f.Ret(entry, v)

	mf := SelectFunction(f)
	blk := mf.Block(mf.EntryBlockID)
	ks := kinds(blk)
	require.Contains(t, ks, riscv64.CALL)
	require.Equal(t, 2, countKind(blk, machine.KindFIStore), "each argument staged to its own slot")
	require.Equal(t, 2, countKind(blk, machine.KindFILoad), "each staged argument reloaded before the call")
}

func TestSelectFunctionLowersConditionalBranchToBNEThenJAL(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("pick", ir.TypeI32, []ir.Type{ir.TypeI1})
	cond := f.Params[0].Reg

	entry := f.AddBlock()
	onTrue := f.AddBlock()
	onFalse := f.AddBlock()
	join := f.AddBlock()

	f.BrCond(entry, cond, onTrue.ID(), onFalse.ID())
	f.BrUncond(onTrue, join.ID())
	f.BrUncond(onFalse, join.ID())

	phi := f.Phi(join, ir.TypeI32)
	phi.AddIncoming(onTrue.ID(), m.Operands.ImmI32(1))
	phi.AddIncoming(onFalse.ID(), m.Operands.ImmI32(0))
	f.Ret(join, phi.Dst())

	mf := SelectFunction(f)

	entryBlk := mf.Block(uint32(entry.ID()))
	ks := kinds(entryBlk)
	require.Equal(t, riscv64.BNE, ks[len(ks)-2])
	require.Equal(t, riscv64.JAL, ks[len(ks)-1])

	joinBlk := mf.Block(uint32(join.ID()))
	require.Equal(t, machine.KindPhi, joinBlk.Insts[0].Kind)
	require.Len(t, joinBlk.Insts[0].PhiIncoming, 2)
}
