package pass

import (
	"fmt"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/analysis"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// CSE eliminates redundant pure computations. Two instructions with
// the same opcode, the same (canonicalized, so that commutative ops
// sort their operands) operand list, and the same condition code
// compute the same value; the later one is replaced by the earlier
// one's result wherever the earlier one dominates the later.
//
// The search is scoped to the dominator tree rather than a single
// block: a preorder walk keeps one scope per currently-open ancestor
// chain, so an expression computed in a loop preheader is recognized
// as available inside the loop body without re-running the whole
// function for every block.
func CSE(f *ir.Function) bool {
	if !hasCSECandidate(f) {
		return false
	}
	dom := analysis.BuildDominatorTree(f)
	changed := false

	var walk func(blk ir.BlockID, scope map[string]ir.Value)
	walk = func(blk ir.BlockID, parentScope map[string]ir.Value) {
		scope := make(map[string]ir.Value, len(parentScope))
		for k, v := range parentScope {
			scope[k] = v
		}

		b := f.Block(blk)
		var toRemove []*ir.Instruction
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			if !isCSEEligible(cur) {
				continue
			}
			key := fingerprint(cur)
			if existing, ok := scope[key]; ok {
				replaceAllUses(f, cur.Dst(), existing)
				toRemove = append(toRemove, cur)
				changed = true
				continue
			}
			scope[key] = cur.Dst()
		}
		for _, i := range toRemove {
			i.Block().Remove(i)
		}

		for _, child := range dom.Children(blk) {
			walk(child, scope)
		}
	}
	walk(f.EntryBlock().ID(), nil)
	return changed
}

func hasCSECandidate(f *ir.Function) bool {
	for _, inst := range f.AllInstructions() {
		if isCSEEligible(inst) {
			return true
		}
	}
	return false
}

// isCSEEligible reports whether inst is pure: its result depends only
// on its operands, with no observable side effect and no dependence
// on anything but its immediate inputs (excludes Load, which depends
// on the current contents of memory, and Alloca, which is
// identity-sensitive).
func isCSEEligible(inst *ir.Instruction) bool {
	if inst.Dst() == nil {
		return false
	}
	switch inst.Opcode() {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpShl, ir.OpAShr, ir.OpLShr, ir.OpAnd, ir.OpOr, ir.OpXor,
		ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv,
		ir.OpICmp, ir.OpFCmp, ir.OpZExt, ir.OpSIToFP, ir.OpFPToSI, ir.OpGEP:
		return true
	default:
		return false
	}
}

var commutative = map[ir.Opcode]bool{
	ir.OpAdd: true, ir.OpMul: true, ir.OpAnd: true, ir.OpOr: true, ir.OpXor: true,
	ir.OpFAdd: true, ir.OpFMul: true,
}

// fingerprint builds a string key such that two instructions
// computing the provably identical value (up to commutative-operand
// reordering and icmp operand-swap-with-condition-flip) map to the
// same key.
func fingerprint(inst *ir.Instruction) string {
	op := inst.Opcode()
	a, b := inst.Args()

	if op == ir.OpICmp && operandKey(a) > operandKey(b) {
		return fmt.Sprintf("icmp:%s:%s:%s", inst.IntCond().Swapped(), operandKey(b), operandKey(a))
	}
	if commutative[op] {
		ka, kb := operandKey(a), operandKey(b)
		if ka > kb {
			ka, kb = kb, ka
		}
		return fmt.Sprintf("%s:%s:%s", op, ka, kb)
	}

	switch op {
	case ir.OpGEP:
		s := fmt.Sprintf("gep:%s:%v:", operandKey(a), inst.Dims())
		for _, idx := range inst.Indices() {
			s += operandKey(idx) + ","
		}
		return s
	case ir.OpICmp:
		return fmt.Sprintf("icmp:%s:%s:%s", inst.IntCond(), operandKey(a), operandKey(b))
	case ir.OpFCmp:
		return fmt.Sprintf("fcmp:%s:%s:%s", inst.FloatCond(), operandKey(a), operandKey(b))
	default:
		return fmt.Sprintf("%s:%s:%s:%s", op, operandKey(a), operandKey(b), inst.Type())
	}
}

func operandKey(v ir.Value) string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind() {
	case ir.OperandRegister:
		return fmt.Sprintf("r%d", v.Register())
	case ir.OperandImmI32:
		return fmt.Sprintf("i%d", v.ImmI32())
	case ir.OperandImmF32:
		return fmt.Sprintf("f%g", v.ImmF32())
	case ir.OperandGlobal:
		return "g" + v.Global()
	default:
		return v.String()
	}
}
