package pass

import (
	"math"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

type latticeState uint8

const (
	latticeUndef latticeState = iota
	latticeConst
	latticeOverdefined
)

type latticeValue struct {
	state latticeState
	i     int32
	f     float32
	isF   bool
}

// SCCP runs sparse conditional constant propagation: a worklist-based
// forward dataflow fixpoint over a {Undef < Const < Overdefined}
// lattice, folding arithmetic/comparison instructions whose operands
// converge to a constant and pruning the unreachable side of a BrCond
// whose condition converges to a constant.
//
// Unlike a plain constant-folding peephole, SCCP propagates through
// Phis and is conservative about blocks not yet proven reachable: a
// Phi incoming edge from a still-unreached predecessor does not
// pollute the lattice meet with Overdefined.
func SCCP(f *ir.Function) bool {
	values := map[ir.RegisterID]latticeValue{}
	// Function arguments are unknown at every call site this pipeline
	// sees, so they start Overdefined rather than Undef: otherwise
	// meet(Const, Undef) == Const would let a constant from one arm of
	// a branch leak into a Phi whose other incoming value is really an
	// unconstrained parameter.
	for _, p := range f.Params {
		values[p.Reg.Register()] = latticeValue{state: latticeOverdefined}
	}
	reachable := map[ir.BlockID]bool{f.EntryBlock().ID(): true}

	type edge struct {
		from, to ir.BlockID
	}
	execEdges := map[edge]bool{}

	var blockWL []ir.BlockID
	var instrWL []*ir.Instruction
	blockWL = append(blockWL, f.EntryBlock().ID())

	markEdge := func(from, to ir.BlockID) {
		e := edge{from, to}
		if execEdges[e] {
			return
		}
		execEdges[e] = true
		if !reachable[to] {
			reachable[to] = true
			blockWL = append(blockWL, to)
		} else {
			instrWL = append(instrWL, phisOf(f, to)...)
		}
	}

	push := func(insts ...*ir.Instruction) { instrWL = append(instrWL, insts...) }

	visitBlockInstrs := func(blk ir.BlockID) {
		b := f.Block(blk)
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			push(cur)
		}
	}

	refine := func(inst *ir.Instruction, next latticeValue) {
		reg := inst.Dst().Register()
		cur, ok := values[reg]
		if ok && cur.state == next.state && cur.i == next.i && cur.f == next.f {
			return
		}
		values[reg] = next
		push(userInstrs(f, inst.Dst())...)
	}

	for len(blockWL) > 0 || len(instrWL) > 0 {
		for len(blockWL) > 0 {
			blk := blockWL[len(blockWL)-1]
			blockWL = blockWL[:len(blockWL)-1]
			visitBlockInstrs(blk)
		}
		for len(instrWL) > 0 {
			inst := instrWL[len(instrWL)-1]
			instrWL = instrWL[:len(instrWL)-1]
			if inst.Block() == nil || !reachable[inst.Block().ID()] {
				continue
			}
			switch inst.Opcode() {
			case ir.OpBrCond:
				cond, _ := inst.Args()
				lv := valueOf(values, cond)
				t, fa := inst.BrTargets()
				if lv.state == latticeConst {
					if lv.i != 0 {
						markEdge(inst.Block().ID(), t.Label())
					} else {
						markEdge(inst.Block().ID(), fa.Label())
					}
				} else {
					markEdge(inst.Block().ID(), t.Label())
					markEdge(inst.Block().ID(), fa.Label())
				}
			case ir.OpBrUncond:
				target, _ := inst.BrTargets()
				markEdge(inst.Block().ID(), target.Label())
			case ir.OpPhi:
				refine(inst, evalPhi(f, values, reachable, inst))
			case ir.OpRet, ir.OpCall, ir.OpStore:
				// No SSA def to refine (Call's dst, if any, is
				// conservatively Overdefined — calls may have
				// unmodeled effects on returned values).
				if inst.Dst() != nil {
					refine(inst, latticeValue{state: latticeOverdefined})
				}
			default:
				if inst.Dst() != nil {
					refine(inst, evalInst(values, inst))
				}
			}
		}
	}

	return rewriteConstants(f, values, reachable)
}

func phisOf(f *ir.Function, blk ir.BlockID) []*ir.Instruction {
	return f.Block(blk).Phis()
}

func valueOf(values map[ir.RegisterID]latticeValue, v ir.Value) latticeValue {
	if v == nil {
		return latticeValue{state: latticeOverdefined}
	}
	switch v.Kind() {
	case ir.OperandImmI32:
		return latticeValue{state: latticeConst, i: v.ImmI32()}
	case ir.OperandImmF32:
		return latticeValue{state: latticeConst, f: v.ImmF32(), isF: true}
	case ir.OperandRegister:
		if lv, ok := values[v.Register()]; ok {
			return lv
		}
		return latticeValue{state: latticeUndef}
	default:
		return latticeValue{state: latticeOverdefined}
	}
}

func meet(a, b latticeValue) latticeValue {
	if a.state == latticeUndef {
		return b
	}
	if b.state == latticeUndef {
		return a
	}
	if a.state == latticeOverdefined || b.state == latticeOverdefined {
		return latticeValue{state: latticeOverdefined}
	}
	if a.isF != b.isF || a.i != b.i || a.f != b.f {
		return latticeValue{state: latticeOverdefined}
	}
	return a
}

func evalPhi(f *ir.Function, values map[ir.RegisterID]latticeValue, reachable map[ir.BlockID]bool, phi *ir.Instruction) latticeValue {
	incoming, order := phi.PhiIncoming()
	result := latticeValue{state: latticeUndef}
	for _, pred := range order {
		if !reachable[pred] {
			continue
		}
		result = meet(result, valueOf(values, incoming[pred]))
	}
	return result
}

// isZeroInt reports whether lv is the constant integer 0 — the
// absorbing identity for Mul/And: x*0 and x&0 stay Const(0) even when
// x is Overdefined or Undef.
func isZeroInt(lv latticeValue) bool {
	return lv.state == latticeConst && !lv.isF && lv.i == 0
}

func evalInst(values map[ir.RegisterID]latticeValue, inst *ir.Instruction) latticeValue {
	a, b := inst.Args()
	av, bv := valueOf(values, a), valueOf(values, b)

	switch inst.Opcode() {
	case ir.OpMul, ir.OpAnd:
		if isZeroInt(av) || isZeroInt(bv) {
			return latticeValue{state: latticeConst, i: 0}
		}
	}

	if av.state == latticeOverdefined || bv.state == latticeOverdefined {
		return latticeValue{state: latticeOverdefined}
	}
	if av.state == latticeUndef || bv.state == latticeUndef {
		return latticeValue{state: latticeUndef}
	}
	switch inst.Opcode() {
	case ir.OpAdd:
		return latticeValue{state: latticeConst, i: av.i + bv.i}
	case ir.OpSub:
		return latticeValue{state: latticeConst, i: av.i - bv.i}
	case ir.OpMul:
		return latticeValue{state: latticeConst, i: av.i * bv.i}
	case ir.OpDiv:
		if bv.i == 0 {
			return latticeValue{state: latticeOverdefined}
		}
		return latticeValue{state: latticeConst, i: av.i / bv.i}
	case ir.OpMod:
		if bv.i == 0 {
			return latticeValue{state: latticeOverdefined}
		}
		return latticeValue{state: latticeConst, i: av.i % bv.i}
	case ir.OpAnd:
		return latticeValue{state: latticeConst, i: av.i & bv.i}
	case ir.OpOr:
		return latticeValue{state: latticeConst, i: av.i | bv.i}
	case ir.OpXor:
		return latticeValue{state: latticeConst, i: av.i ^ bv.i}
	case ir.OpShl:
		return latticeValue{state: latticeConst, i: av.i << uint32(bv.i)}
	case ir.OpAShr:
		return latticeValue{state: latticeConst, i: av.i >> uint32(bv.i)}
	case ir.OpFAdd:
		return latticeValue{state: latticeConst, isF: true, f: av.f + bv.f}
	case ir.OpFSub:
		return latticeValue{state: latticeConst, isF: true, f: av.f - bv.f}
	case ir.OpFMul:
		return latticeValue{state: latticeConst, isF: true, f: av.f * bv.f}
	case ir.OpFDiv:
		return latticeValue{state: latticeConst, isF: true, f: av.f / bv.f}
	case ir.OpICmp:
		return latticeValue{state: latticeConst, i: boolToI32(evalICmp(inst.IntCond(), av.i, bv.i))}
	case ir.OpFCmp:
		return latticeValue{state: latticeConst, i: boolToI32(evalFCmp(inst.FloatCond(), av.f, bv.f))}
	case ir.OpZExt:
		return latticeValue{state: latticeConst, i: av.i}
	case ir.OpSIToFP:
		return latticeValue{state: latticeConst, isF: true, f: float32(av.i)}
	case ir.OpFPToSI:
		return latticeValue{state: latticeConst, i: int32(math.Trunc(float64(av.f)))}
	default:
		return latticeValue{state: latticeOverdefined}
	}
}

func evalICmp(c ir.IntCond, a, b int32) bool {
	switch c {
	case ir.IntEQ:
		return a == b
	case ir.IntNE:
		return a != b
	case ir.IntSLT:
		return a < b
	case ir.IntSLE:
		return a <= b
	case ir.IntSGT:
		return a > b
	case ir.IntSGE:
		return a >= b
	case ir.IntULT:
		return uint32(a) < uint32(b)
	case ir.IntULE:
		return uint32(a) <= uint32(b)
	case ir.IntUGT:
		return uint32(a) > uint32(b)
	case ir.IntUGE:
		return uint32(a) >= uint32(b)
	default:
		return false
	}
}

func evalFCmp(c ir.FloatCond, a, b float32) bool {
	switch c {
	case ir.FloatOEQ, ir.FloatUEQ:
		return a == b
	case ir.FloatONE, ir.FloatUNE:
		return a != b
	case ir.FloatOGT, ir.FloatUGT:
		return a > b
	case ir.FloatOGE, ir.FloatUGE:
		return a >= b
	case ir.FloatOLT, ir.FloatULT:
		return a < b
	case ir.FloatOLE, ir.FloatULE:
		return a <= b
	default:
		return false
	}
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func userInstrs(f *ir.Function, v ir.Value) []*ir.Instruction {
	var out []*ir.Instruction
	for _, inst := range f.AllInstructions() {
		if inst.UsesRegister(v) {
			out = append(out, inst)
		}
	}
	return out
}

// rewriteConstants replaces every register whose lattice value
// converged on Const with the equivalent immediate operand, and
// deletes blocks that never became reachable.
func rewriteConstants(f *ir.Function, values map[ir.RegisterID]latticeValue, reachable map[ir.BlockID]bool) bool {
	changed := false
	of := f.Module().Operands

	// Collapse any BrCond whose condition converged to a known constant
	// into an unconditional branch before substituting register uses
	// (so the collapse still sees the original condition register) and
	// before the unreachable-block sweep below (so a dropped edge's
	// target can become unreachable and get deleted).
	for _, b := range f.Blocks() {
		if !reachable[b.ID()] {
			continue
		}
		term := b.Tail()
		if term == nil || term.Opcode() != ir.OpBrCond {
			continue
		}
		cond, _ := term.Args()
		lv := valueOf(values, cond)
		if lv.state != latticeConst {
			continue
		}
		t, fa := term.BrTargets()
		if lv.i != 0 {
			f.CollapseBranch(term, t.Label(), fa.Label())
		} else {
			f.CollapseBranch(term, fa.Label(), t.Label())
		}
		changed = true
	}

	for reg, lv := range values {
		if lv.state != latticeConst {
			continue
		}
		var imm ir.Value
		if lv.isF {
			imm = of.ImmF32(lv.f)
		} else {
			imm = of.ImmI32(lv.i)
		}
		for _, inst := range f.AllInstructions() {
			if inst.ReplaceUses(f.RegisterByID(reg), imm) {
				changed = true
			}
		}
	}

	for _, b := range f.Blocks() {
		if !reachable[b.ID()] {
			f.DeleteBlock(b.ID())
			changed = true
		}
	}
	return changed
}
