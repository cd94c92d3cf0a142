package pass

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

func TestUnifyReturnCollapsesMultipleRets(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("pick", ir.TypeI32, []ir.Type{ir.TypeI1})
	cond := f.Params[0].Reg

	entry := f.AddBlock()
	onTrue := f.AddBlock()
	onFalse := f.AddBlock()

	f.BrCond(entry, cond, onTrue.ID(), onFalse.ID())
	f.Ret(onTrue, m.Operands.ImmI32(1))
	f.Ret(onFalse, m.Operands.ImmI32(0))

	require.True(t, UnifyReturn(f))

	rets := 0
	for _, b := range f.Blocks() {
		if b.Valid() && b.Tail().Opcode() == ir.OpRet {
			rets++
		}
	}
	require.Equal(t, 1, rets, "exactly one Ret remains after unification")
	require.False(t, UnifyReturn(f), "re-running once unified reports no change")
}

// straightLineAlloca builds: alloca x; store 1 -> x; v = load x; ret v.
func straightLineAlloca(t *testing.T) (*ir.Function, *ir.BasicBlock) {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("id_one", ir.TypeI32, nil)
	entry := f.AddBlock()

	x := f.Alloca(entry, ir.TypeI32, nil)
	f.Store(entry, m.Operands.ImmI32(1), x)
	v := f.Load(entry, x, ir.TypeI32)
	f.Ret(entry, v)
	return f, entry
}

func TestMem2RegPromotesSingleBlockAlloca(t *testing.T) {
	f, entry := straightLineAlloca(t)
	require.True(t, Mem2Reg(f))

	for cur := entry.Root(); cur != nil; cur = cur.Next() {
		require.NotEqual(t, ir.OpAlloca, cur.Opcode(), "alloca removed once promoted")
		require.NotEqual(t, ir.OpLoad, cur.Opcode(), "load removed once promoted")
		require.NotEqual(t, ir.OpStore, cur.Opcode(), "store removed once promoted")
	}
	ret := entry.Tail()
	require.Equal(t, ir.OpRet, ret.Opcode())
	val, _ := ret.Args()
	require.Equal(t, ir.OperandImmI32, val.Kind())
	require.EqualValues(t, 1, val.ImmI32())
}

func TestSCCPFoldsConstantArithmeticAndPrunesDeadBranch(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("folds", ir.TypeI32, nil)
	entry := f.AddBlock()
	live := f.AddBlock()
	dead := f.AddBlock()

	sum := f.Binary(entry, ir.OpAdd, m.Operands.ImmI32(2), m.Operands.ImmI32(3), ir.TypeI32)
	cond := f.ICmp(entry, ir.IntEQ, sum, m.Operands.ImmI32(5))
	f.BrCond(entry, cond, live.ID(), dead.ID())
	f.Ret(live, m.Operands.ImmI32(100))
	f.Ret(dead, m.Operands.ImmI32(200))

	require.True(t, SCCP(f))

	term := entry.Tail()
	require.Equal(t, ir.OpBrUncond, term.Opcode(), "the always-true branch collapses to an unconditional jump")
	target, _ := term.BrTargets()
	require.Equal(t, live.ID(), target.Label())
}

func TestCSEDeduplicatesDominatedComputation(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("cse", ir.TypeI32, []ir.Type{ir.TypeI32, ir.TypeI32})
	a, b := f.Params[0].Reg, f.Params[1].Reg
	entry := f.AddBlock()

	x := f.Binary(entry, ir.OpAdd, a, b, ir.TypeI32)
	y := f.Binary(entry, ir.OpAdd, a, b, ir.TypeI32)
	sum := f.Binary(entry, ir.OpAdd, x, y, ir.TypeI32)
	f.Ret(entry, sum)

	require.True(t, CSE(f))

	adds := 0
	for cur := entry.Root(); cur != nil; cur = cur.Next() {
		if cur.Opcode() == ir.OpAdd {
			adds++
		}
	}
	require.Equal(t, 2, adds, "the redundant a+b collapses, leaving the first add and the final sum")
}

func TestADCEDropsUnusedPureComputation(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("dead_compute", ir.TypeI32, []ir.Type{ir.TypeI32})
	p := f.Params[0].Reg
	entry := f.AddBlock()

	f.Binary(entry, ir.OpMul, p, p, ir.TypeI32) // never used
	f.Ret(entry, p)

	require.True(t, ADCE(f))
	for cur := entry.Root(); cur != nil; cur = cur.Next() {
		require.NotEqual(t, ir.OpMul, cur.Opcode())
	}
}

// buildFactorialAccumulator builds a self-tail-recursive accumulator:
//
//	fact_acc(n, acc):
//	  entry: cond = icmp sle n, 1
//	         brcond cond, base, rec
//	  base:  ret acc
//	  rec:   acc2 = mul acc, n
//	         n2 = sub n, 1
//	         r = call fact_acc(n2, acc2)
//	         ret r
func buildFactorialAccumulator(t *testing.T) *ir.Function {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("fact_acc", ir.TypeI32, []ir.Type{ir.TypeI32, ir.TypeI32})
	n, acc := f.Params[0].Reg, f.Params[1].Reg

	entry := f.AddBlock()
	base := f.AddBlock()
	rec := f.AddBlock()

	cond := f.ICmp(entry, ir.IntSLE, n, m.Operands.ImmI32(1))
	f.BrCond(entry, cond, base.ID(), rec.ID())

	f.Ret(base, acc)

	acc2 := f.Binary(rec, ir.OpMul, acc, n, ir.TypeI32)
	n2 := f.Binary(rec, ir.OpSub, n, m.Operands.ImmI32(1), ir.TypeI32)
	r := f.Call(rec, f.Name, ir.TypeI32, []ir.CallArg{
		{Type: ir.TypeI32, Val: n2},
		{Type: ir.TypeI32, Val: acc2},
	})
	f.Ret(rec, r)

	return f
}

func TestTCORewritesSelfTailCallIntoLoop(t *testing.T) {
	f := buildFactorialAccumulator(t)
	require.True(t, TCO(f))

	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			require.NotEqual(t, ir.OpCall, cur.Opcode(), "the self-recursive call is gone")
		}
	}
	require.False(t, TCO(f), "no tail call remains to rewrite")
}

func TestPipelineRunConverges(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("main", ir.TypeI32, nil)
	entry := f.AddBlock()
	sum := f.Binary(entry, ir.OpAdd, m.Operands.ImmI32(1), m.Operands.ImmI32(2), ir.TypeI32)
	f.Ret(entry, sum)

	require.NoError(t, Run(m, DefaultPipelineConfig))
	require.NoError(t, ir.Validate(m))
}
