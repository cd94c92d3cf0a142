package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildDiamond builds:
//
//	blk0: entry, br_cond %cond, blk1, blk2
//	blk1: x = add p0, 1
//	      br blk3
//	blk2: y = add p0, 2
//	      br blk3
//	blk3: r = phi [blk1: x, blk2: y]
//	      ret r
func buildDiamond(t *testing.T) (*Module, *Function) {
	t.Helper()
	m := NewModule()
	f := m.DeclareFunction("diamond", TypeI32, []Type{TypeI1, TypeI32})
	cond, p0 := f.Params[0].Reg, f.Params[1].Reg

	entry := f.AddBlock()
	b1 := f.AddBlock()
	b2 := f.AddBlock()
	b3 := f.AddBlock()

	f.BrCond(entry, cond, b1.ID(), b2.ID())

	x := f.Binary(b1, OpAdd, p0, m.Operands.ImmI32(1), TypeI32)
	f.BrUncond(b1, b3.ID())

	y := f.Binary(b2, OpAdd, p0, m.Operands.ImmI32(2), TypeI32)
	f.BrUncond(b2, b3.ID())

	phi := f.Phi(b3, TypeI32)
	phi.AddIncoming(b1.ID(), x)
	phi.AddIncoming(b2.ID(), y)
	f.Ret(b3, phi.Dst())

	return m, f
}

func TestDiamondValidates(t *testing.T) {
	m, _ := buildDiamond(t)
	require.NoError(t, Validate(m))
}

func TestBlockPredsSuccs(t *testing.T) {
	_, f := buildDiamond(t)
	entry := f.Block(0)
	require.ElementsMatch(t, []BlockID{1, 2}, entry.Succs())

	b3 := f.Block(3)
	require.ElementsMatch(t, []BlockID{1, 2}, b3.Preds())
}

func TestOperandFactoryInterns(t *testing.T) {
	of := NewOperandFactory()
	a := of.ImmI32(42)
	b := of.ImmI32(42)
	require.True(t, a == b, "identical immediates must be interned to the same pointer")

	g1 := of.Global("n")
	g2 := of.Global("n")
	require.True(t, g1 == g2)
}

func TestRegisterAllocationIsUniquePerFunction(t *testing.T) {
	m := NewModule()
	f := m.DeclareFunction("f", TypeVoid, nil)
	r1 := f.AllocateRegister(TypeI32)
	r2 := f.AllocateRegister(TypeI32)
	require.NotEqual(t, r1.Register(), r2.Register())
}

func TestValidateRejectsMissingTerminator(t *testing.T) {
	m := NewModule()
	f := m.DeclareFunction("bad", TypeVoid, nil)
	f.AddBlock() // never terminated
	err := Validate(m)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestValidateRejectsPhiMissingPredecessor(t *testing.T) {
	m := NewModule()
	f := m.DeclareFunction("bad", TypeI32, nil)
	entry := f.AddBlock()
	target := f.AddBlock()
	f.BrUncond(entry, target.ID())

	phi := f.Phi(target, TypeI32)
	// Deliberately omit AddIncoming for entry, target's only predecessor.
	f.Ret(target, phi.Dst())

	require.Error(t, Validate(m))
}

func TestCallMustResolve(t *testing.T) {
	m := NewModule()
	f := m.DeclareFunction("caller", TypeVoid, nil)
	entry := f.AddBlock()
	f.Call(entry, "undeclared", TypeVoid, nil)
	f.Ret(entry, nil)
	require.Error(t, Validate(m))

	m2 := NewModule()
	m2.DeclareExtern("putint", TypeVoid, []Type{TypeI32})
	f2 := m2.DeclareFunction("caller", TypeVoid, nil)
	e2 := f2.AddBlock()
	f2.Call(e2, "putint", TypeVoid, []CallArg{{Type: TypeI32, Val: m2.Operands.ImmI32(1)}})
	f2.Ret(e2, nil)
	require.NoError(t, Validate(m2))
}

func TestPromote(t *testing.T) {
	require.Equal(t, TypeI64, Promote(TypeI32, TypeI64))
	require.Equal(t, TypeF32, Promote(TypeI64, TypeF32))
	require.Equal(t, TypeI32, Promote(TypeI1, TypeI32))
	require.Equal(t, TypeI32, Promote(TypeI1, TypeI1))
}
