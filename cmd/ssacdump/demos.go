package main

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// demos holds the canned modules ssacdump can print: since lexing,
// parsing, and semantic analysis of the source language are out of
// scope (see SPEC_FULL.md's Non-goals), this tool has no frontend to
// read a real source file with — a caller integrating a real frontend
// would construct its own *ir.Module and call pipeline.Pipeline.Run
// directly rather than going through this binary. These demos exist
// so the lowering pipeline has something to run end to end.
var demos = map[string]func() *ir.Module{
	"diamond": buildDiamondDemo,
	"loop":    buildLoopDemo,
}

// buildDiamondDemo mirrors the diamond fixture used across this
// module's own tests: a two-way branch rejoining through a Phi.
func buildDiamondDemo() *ir.Module {
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

// buildLoopDemo builds a counting loop with one loop-invariant
// computation (t = n + 1, hoistable by LICM since it depends only on
// the parameter, not the induction variable) and one variant one
// (s = i + t), so a pipeline dump shows LICM, the hand-built phi
// threading of i, and the backend lowering the resulting back-edge.
//
//	entry: br header
//	header: i = phi [entry: 0, body: i2]
//	        c = icmp slt i, n
//	        br_cond c, body, exit
//	body:   t = add n, 1
//	        s = add i, t
//	        i2 = add i, 1
//	        br header
//	exit:   ret i
func buildLoopDemo() *ir.Module {
	m := ir.NewModule()
	f := m.DeclareFunction("loop", ir.TypeI32, []ir.Type{ir.TypeI32})
	n := f.Params[0].Reg

	entry := f.AddBlock()
	header := f.AddBlock()
	body := f.AddBlock()
	exit := f.AddBlock()

	f.BrUncond(entry, header.ID())

	phi := f.Phi(header, ir.TypeI32)
	phi.AddIncoming(entry.ID(), m.Operands.ImmI32(0))
	i := phi.Dst()
	c := f.ICmp(header, ir.IntSLT, i, n)
	f.BrCond(header, c, body.ID(), exit.ID())

	t := f.Binary(body, ir.OpAdd, n, m.Operands.ImmI32(1), ir.TypeI32)
	_ = f.Binary(body, ir.OpAdd, i, t, ir.TypeI32)
	i2 := f.Binary(body, ir.OpAdd, i, m.Operands.ImmI32(1), ir.TypeI32)
	f.BrUncond(body, header.ID())
	phi.AddIncoming(body.ID(), i2)

	f.Ret(exit, i)

	return m
}
