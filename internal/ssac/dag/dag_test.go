package dag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

func TestGetNodeInternsStructurallyIdenticalNodes(t *testing.T) {
	d := NewSelectionDAG()
	reg := d.GetRegNode(1, ir.TypeI32)

	a := d.GetNode(OpAdd, []ir.Type{ir.TypeI32}, []SDValue{reg, reg})
	b := d.GetNode(OpAdd, []ir.Type{ir.TypeI32}, []SDValue{reg, reg})
	require.Same(t, a.Node, b.Node, "two requests for the same opcode+operands collapse to one node")

	c := d.GetNode(OpSub, []ir.Type{ir.TypeI32}, []SDValue{reg, reg})
	require.NotSame(t, a.Node, c.Node, "a different opcode must not intern to the same node")
}

func TestGetConstantI32InternsAcrossCalls(t *testing.T) {
	d := NewSelectionDAG()
	x := d.GetConstantI32(7, ir.TypeI32)
	y := d.GetConstantI32(7, ir.TypeI32)
	z := d.GetConstantI32(8, ir.TypeI32)

	require.Same(t, x.Node, y.Node)
	require.NotSame(t, x.Node, z.Node)
}

// straightLineAlloca builds: alloca x; store 1 -> x; v = load x; ret v.
func straightLineAlloca(t *testing.T) *ir.BasicBlock {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("id_one", ir.TypeI32, nil)
	entry := f.AddBlock()

	x := f.Alloca(entry, ir.TypeI32, nil)
	f.Store(entry, m.Operands.ImmI32(1), x)
	v := f.Load(entry, x, ir.TypeI32)
	f.Ret(entry, v)
	return entry
}

func TestBuilderThreadsChainThroughStoreThenLoad(t *testing.T) {
	entry := straightLineAlloca(t)
	bd := NewBuilder()
	d := bd.Build(entry)

	var store, load *SDNode
	for _, n := range d.Nodes() {
		switch n.Opcode() {
		case OpStore:
			store = n
		case OpLoad:
			load = n
		}
	}
	require.NotNil(t, store, "store node present")
	require.NotNil(t, load, "load node present")

	// the load's chain operand (operand 0) must be the store's chain
	// result, proving the two side-effecting ops stay ordered.
	require.Same(t, store, load.Operand(0).Node, "load's chain input is the store node")
}

func TestBuilderLowersGEPToMulAddWithRowMajorStrides(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("index2d", ir.TypeI32, []ir.Type{ir.TypePtr, ir.TypeI64, ir.TypeI64})
	base, i, j := f.Params[0].Reg, f.Params[1].Reg, f.Params[2].Reg
	entry := f.AddBlock()

	ptr := f.GEP(entry, base, []ir.Value{i, j}, []int{4, 4})
	v := f.Load(entry, ptr, ir.TypeI32)
	f.Ret(entry, v)

	bd := NewBuilder()
	d := bd.Build(entry)

	muls := 0
	for _, n := range d.Nodes() {
		if n.Opcode() == OpMul {
			muls++
		}
	}
	require.Equal(t, 2, muls, "one stride multiply per index dimension")
}

func TestBuilderSharesFrameIndexAcrossBlocksOfSameFunction(t *testing.T) {
	m := ir.NewModule()
	f := m.DeclareFunction("branchy", ir.TypeI32, nil)
	entry := f.AddBlock()
	next := f.AddBlock()

	x := f.Alloca(entry, ir.TypeI32, nil)
	f.Store(entry, m.Operands.ImmI32(1), x)
	f.BrUncond(entry, next.ID())

	v := f.Load(next, x, ir.TypeI32)
	f.Ret(next, v)

	bd := NewBuilder()
	d1 := bd.Build(entry)
	d2 := bd.Build(next)

	var fi1, fi2 *SDNode
	for _, n := range d1.Nodes() {
		if n.Opcode() == OpFrameIndex {
			fi1 = n
		}
	}
	for _, n := range d2.Nodes() {
		if n.Opcode() == OpFrameIndex {
			fi2 = n
		}
	}
	require.NotNil(t, fi1)
	require.NotNil(t, fi2)
	require.Equal(t, fi1.FrameIndex(), fi2.FrameIndex(), "the same alloca resolves to the same frame slot across blocks")
}

func TestBuilderLowersPhiWithPairedValueLabelOperands(t *testing.T) {
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

	bd := NewBuilder()
	d := bd.Build(join)

	var phiNode *SDNode
	for _, n := range d.Nodes() {
		if n.Opcode() == OpPhi {
			phiNode = n
		}
	}
	require.NotNil(t, phiNode)
	require.Len(t, phiNode.Operands(), 4, "two (value, label) pairs for two incoming edges")
}
