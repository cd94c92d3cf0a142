package pipeline

import (
	"errors"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// buildDiamond mirrors ir's own diamond fixture: a two-way branch that
// rejoins through a Phi, enough to exercise Mem2Reg/SCCP/CSE finding
// nothing to do, isel selecting a conditional branch and a Phi, and
// regalloc/lowering actually materializing the join.
func buildDiamond(t *testing.T) *ir.Module {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("diamond", ir.TypeI32, []ir.Type{ir.TypeI1, ir.TypeI32})
	cond, p0 := f.Params[0].Reg, f.Params[1].Reg

	entry := f.AddBlock()
	b1 := f.AddBlock()
	b2 := f.AddBlock()
	b3 := f.AddBlock()

	f.BrCond(entry, cond, b1.ID(), b2.ID())

	x := f.Binary(b1, ir.OpAdd, p0, m.Operands.ImmI32(1), ir.TypeI32)
	f.BrUncond(b1, b3.ID())

	y := f.Binary(b2, ir.OpAdd, p0, m.Operands.ImmI32(2), ir.TypeI32)
	f.BrUncond(b2, b3.ID())

	phi := f.Phi(b3, ir.TypeI32)
	phi.AddIncoming(b1.ID(), x)
	phi.AddIncoming(b2.ID(), y)
	f.Ret(b3, phi.Dst())

	return m
}

func TestPipelineRunLowersModuleToMachineFunctions(t *testing.T) {
	m := buildDiamond(t)
	require.NotEqual(t, m.BuildID.String(), "00000000-0000-0000-0000-000000000000")

	p := New(DefaultConfig)
	funcs, err := p.Run(m)
	require.NoError(t, err)
	require.Len(t, funcs, 1)

	mf := funcs[0]
	require.Equal(t, "diamond", mf.Name)
	require.Greater(t, mf.StackSize, 0)
	require.Equal(t, 0, mf.StackSize%16)

	for _, b := range mf.Blocks {
		require.Empty(t, b.Phis(), "phi elimination should have removed every phi:\n%s", pretty.Sprint(b.Insts))
	}
}

func TestPipelineRunRejectsNonPositiveMaxIterations(t *testing.T) {
	m := buildDiamond(t)
	cfg := DefaultConfig
	cfg.Pass.MaxIterations = 0

	p := New(cfg)
	_, err := p.Run(m)
	require.Error(t, err)
}

func TestPipelineBuildAndRunPropagatesBuilderError(t *testing.T) {
	wantErr := errors.New("builder exploded")
	boom := BuilderFunc(func() (*ir.Module, error) { return nil, wantErr })

	p := New(DefaultConfig)
	_, err := p.BuildAndRun(boom)
	require.ErrorIs(t, err, wantErr)
}
