package pass

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// InlineConfig gates which call sites Inline will splice, following
// the size/recursion heuristics of a typical AoT pipeline: a callee
// larger than SizeThreshold is assumed to cost more to duplicate than
// the call it removes, and a self-recursive callee is never inlined
// (that transform belongs to TCO, not Inline).
type InlineConfig struct {
	SizeThreshold int
}

// DefaultInlineConfig matches the thresholds carried by PipelineConfig.
var DefaultInlineConfig = InlineConfig{SizeThreshold: 30}

// Inline splices the body of small, non-recursive callees directly
// into their call sites: the call site's block is split at the Call,
// the callee's blocks are cloned with fresh registers/labels and
// spliced between the two halves, parameters are replaced by the
// actual arguments, and a Phi in the continuation block collects the
// callee's (unified, thanks to UnifyReturn having already run) return
// value.
func Inline(m *ir.Module, cfg InlineConfig) bool {
	changed := false
	for _, f := range m.Functions() {
		for {
			site := findInlineCandidate(m, f, cfg)
			if site == nil {
				break
			}
			inlineCall(m, f, site)
			changed = true
		}
	}
	return changed
}

func findInlineCandidate(m *ir.Module, f *ir.Function, cfg InlineConfig) *ir.Instruction {
	for _, inst := range f.AllInstructions() {
		if inst.Opcode() != ir.OpCall {
			continue
		}
		callee, ok := m.Function(inst.CallName())
		if !ok || callee == f {
			continue // extern, or direct self-recursion (left for TCO)
		}
		if functionSize(callee) > cfg.SizeThreshold {
			continue
		}
		selfRecursive := false
		for _, ci := range callee.AllInstructions() {
			if ci.Opcode() == ir.OpCall && ci.CallName() == callee.Name {
				selfRecursive = true
				break
			}
		}
		if selfRecursive {
			continue // a callee that calls itself is left for TCO
		}
		return inst
	}
	return nil
}

func functionSize(f *ir.Function) int {
	n := 0
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			n++
		}
	}
	return n
}

// inlineCall splices one call site. The caller block is split
// immediately after the Call into a continuation block; the callee's
// blocks are cloned into the caller with fresh registers so the two
// functions' numbering never collides, parameter registers are
// replaced by the actual arguments, every callee Ret becomes a branch
// to the continuation (feeding a Phi, if the call had a result), and
// the call site block falls through into the cloned entry.
func inlineCall(m *ir.Module, caller *ir.Function, call *ir.Instruction) {
	callee, _ := m.Function(call.CallName())
	callerBlk := call.Block()

	continuation := caller.AddBlock()
	splitAfter(callerBlk, call, continuation)

	regMap := map[ir.RegisterID]ir.Value{}
	for i, p := range callee.Params {
		regMap[p.Reg.Register()] = call.CallArgs()[i].Val
	}

	blockMap := map[ir.BlockID]ir.BlockID{}
	for _, b := range callee.Blocks() {
		if b.Valid() {
			blockMap[b.ID()] = caller.AddBlock().ID()
		}
	}

	var retPhi *ir.Instruction
	if call.Dst() != nil {
		retPhi = caller.Phi(continuation, call.Type())
	}

	for _, b := range callee.Blocks() {
		if !b.Valid() {
			continue
		}
		dst := caller.Block(blockMap[b.ID()])
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			cloneInto(caller, dst, cur, regMap, blockMap, continuation.ID(), retPhi)
		}
	}

	caller.BrUncond(callerBlk, blockMap[callee.EntryBlock().ID()])

	callerBlk.Remove(call)
}

// splitAfter moves every instruction following at (including the
// block's terminator) into tail, leaving at as the new last
// instruction of its original block.
func splitAfter(blk *ir.BasicBlock, at *ir.Instruction, tail *ir.BasicBlock) {
	var moving []*ir.Instruction
	for cur := at.Next(); cur != nil; cur = cur.Next() {
		moving = append(moving, cur)
	}
	for _, inst := range moving {
		blk.Remove(inst)
		tail.Insert(inst)
	}
}

// cloneInto appends a translated copy of src into dst: Ret becomes a
// branch to continuation (feeding retPhi, if present), Phi/branch
// labels and register operands are remapped through blockMap/regMap,
// and any freshly-defined register is added to regMap so later
// clones of instructions that use it pick up the translation.
func cloneInto(f *ir.Function, dst *ir.BasicBlock, src *ir.Instruction, regMap map[ir.RegisterID]ir.Value, blockMap map[ir.BlockID]ir.BlockID, continuation ir.BlockID, retPhi *ir.Instruction) {
	translate := func(v ir.Value) ir.Value {
		if v == nil || v.Kind() != ir.OperandRegister {
			return v
		}
		if mapped, ok := regMap[v.Register()]; ok {
			return mapped
		}
		return v
	}

	if src.Opcode() == ir.OpRet {
		val, _ := src.Args()
		f.BrUncond(dst, continuation)
		if retPhi != nil {
			retPhi.AddIncoming(dst.ID(), translate(val))
		}
		return
	}

	var fresh ir.Value
	switch src.Opcode() {
	case ir.OpBrCond:
		a, _ := src.Args()
		t, fa := src.BrTargets()
		f.BrCond(dst, translate(a), blockMap[t.Label()], blockMap[fa.Label()])
	case ir.OpBrUncond:
		t, _ := src.BrTargets()
		f.BrUncond(dst, blockMap[t.Label()])
	case ir.OpPhi:
		phi := f.Phi(dst, src.Type())
		incoming, order := src.PhiIncoming()
		for _, pred := range order {
			phi.AddIncoming(blockMap[pred], translate(incoming[pred]))
		}
		fresh = phi.Dst()
	case ir.OpCall:
		args := make([]ir.CallArg, len(src.CallArgs()))
		for i, a := range src.CallArgs() {
			args[i] = ir.CallArg{Type: a.Type, Val: translate(a.Val)}
		}
		fresh = f.Call(dst, src.CallName(), src.FuncRetType(), args)
	case ir.OpLoad:
		a, _ := src.Args()
		fresh = f.Load(dst, translate(a), src.Type())
	case ir.OpStore:
		a, b := src.Args()
		f.Store(dst, translate(a), translate(b))
	case ir.OpAlloca:
		fresh = f.Alloca(dst, src.Type(), src.Dims())
	case ir.OpGEP:
		a, _ := src.Args()
		idx := make([]ir.Value, len(src.Indices()))
		for i, v := range src.Indices() {
			idx[i] = translate(v)
		}
		fresh = f.GEP(dst, translate(a), idx, src.Dims())
	case ir.OpICmp:
		a, b := src.Args()
		fresh = f.ICmp(dst, src.IntCond(), translate(a), translate(b))
	case ir.OpFCmp:
		a, b := src.Args()
		fresh = f.FCmp(dst, src.FloatCond(), translate(a), translate(b))
	case ir.OpZExt, ir.OpSIToFP, ir.OpFPToSI:
		a, _ := src.Args()
		fresh = f.Convert(dst, src.Opcode(), translate(a), src.Type())
	default: // binary arithmetic
		a, b := src.Args()
		fresh = f.Binary(dst, src.Opcode(), translate(a), translate(b), src.Type())
	}

	if fresh != nil && src.Dst() != nil {
		regMap[src.Dst().Register()] = fresh
	}
}
