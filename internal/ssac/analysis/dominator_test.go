package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// diamond: blk0 -> {blk1, blk2} -> blk3.
func buildDiamond(t *testing.T) *ir.Function {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("diamond", ir.TypeI32, []ir.Type{ir.TypeI1})
	cond := f.Params[0].Reg

	entry := f.AddBlock()
	b1 := f.AddBlock()
	b2 := f.AddBlock()
	b3 := f.AddBlock()

	f.BrCond(entry, cond, b1.ID(), b2.ID())
	f.BrUncond(b1, b3.ID())
	f.BrUncond(b2, b3.ID())
	f.Ret(b3, m.Operands.ImmI32(0))

	return f
}

// loopy: blk0 -> blk1 (header) -> blk2 -> blk1 (back edge), blk1 -> blk3 (exit).
func buildLoop(t *testing.T) *ir.Function {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("loopy", ir.TypeI32, []ir.Type{ir.TypeI1})
	cond := f.Params[0].Reg

	entry := f.AddBlock()
	header := f.AddBlock()
	body := f.AddBlock()
	exit := f.AddBlock()

	f.BrUncond(entry, header.ID())
	f.BrCond(header, cond, body.ID(), exit.ID())
	f.BrUncond(body, header.ID())
	f.Ret(exit, m.Operands.ImmI32(0))

	return f
}

func TestDominatorTreeDiamond(t *testing.T) {
	f := buildDiamond(t)
	dom := BuildDominatorTree(f)

	entry, b1, b2, b3 := ir.BlockID(0), ir.BlockID(1), ir.BlockID(2), ir.BlockID(3)

	idom, ok := dom.IDom(b1)
	require.True(t, ok)
	require.Equal(t, entry, idom)

	idom, ok = dom.IDom(b3)
	require.True(t, ok)
	require.Equal(t, entry, idom, "blk3's idom is the join point's common ancestor, blk0")

	require.True(t, dom.Dominates(entry, b3))
	require.False(t, dom.Dominates(b1, b3))

	require.ElementsMatch(t, []ir.BlockID{b3}, dom.Frontier(b1))
	require.ElementsMatch(t, []ir.BlockID{b3}, dom.Frontier(b2))
}

func TestDetectLoops(t *testing.T) {
	f := buildLoop(t)
	dom := BuildDominatorTree(f)
	loops := DetectLoops(f, dom)

	header := ir.BlockID(1)
	require.True(t, loops.IsHeader(header))
	require.ElementsMatch(t, []ir.BlockID{1, 2}, loops.Body(header))

	require.False(t, loops.IsHeader(ir.BlockID(0)))
	require.False(t, loops.IsHeader(ir.BlockID(2)))
}

func TestPostDominatorTree(t *testing.T) {
	f := buildDiamond(t)
	pdom := BuildPostDominatorTree(f)

	entry, b1, b2, b3 := ir.BlockID(0), ir.BlockID(1), ir.BlockID(2), ir.BlockID(3)

	idom, ok := pdom.IDom(entry)
	require.True(t, ok)
	require.Equal(t, b3, idom, "blk3 post-dominates the entry in a single-exit diamond")

	idom, ok = pdom.IDom(b1)
	require.True(t, ok)
	require.Equal(t, b3, idom)
	_ = b2
}

func TestReversePostOrderRespectsEdges(t *testing.T) {
	f := buildDiamond(t)
	rpo := ReversePostOrder(f)
	pos := make(map[ir.BlockID]int, len(rpo))
	for i, b := range rpo {
		pos[b] = i
	}
	require.Less(t, pos[ir.BlockID(0)], pos[ir.BlockID(1)])
	require.Less(t, pos[ir.BlockID(0)], pos[ir.BlockID(2)])
	require.Less(t, pos[ir.BlockID(1)], pos[ir.BlockID(3)])
	require.Less(t, pos[ir.BlockID(2)], pos[ir.BlockID(3)])
}
