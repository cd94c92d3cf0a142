// Package pass implements the function-local optimizer passes that run
// between IR construction and instruction selection.
package pass

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// UnifyReturn rewrites a function with multiple Ret instructions into
// one with exactly one: a fresh exit block holding a single Ret of a
// Phi merging every original return value, with every original Ret
// replaced by a branch to the exit block. Functions that already have
// a single Ret are left untouched.
//
// Downstream passes (Inline's call-site splicing, ADCE's
// control-dependence walk) assume a function has one well-known exit,
// so this pass runs first in the pipeline.
func UnifyReturn(f *ir.Function) bool {
	var rets []*ir.Instruction
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		if t := b.Tail(); t != nil && t.Opcode() == ir.OpRet {
			rets = append(rets, t)
		}
	}
	if len(rets) <= 1 {
		return false
	}

	exit := f.AddBlock()
	retVal, _ := rets[0].Args()
	var phi *ir.Instruction
	if retVal != nil {
		phi = f.Phi(exit, f.RetType)
	}

	for _, r := range rets {
		blk := r.Block()
		v, _ := r.Args()
		blk.Remove(r)
		f.BrUncond(blk, exit.ID())
		if phi != nil {
			phi.AddIncoming(blk.ID(), v)
		}
	}

	if phi != nil {
		f.Ret(exit, phi.Dst())
	} else {
		f.Ret(exit, nil)
	}
	return true
}
