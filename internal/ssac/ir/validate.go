package ir

import "fmt"

// ValidationError reports one broken structural invariant found by
// Validate.
type ValidationError struct {
	Func    string
	Block   BlockID
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ir: %s/blk%d: %s", e.Func, e.Block, e.Message)
}

// Validate checks the structural invariants every pass is expected to
// preserve on exit: every reachable block ends in exactly one
// terminator, Phi instructions occupy a contiguous prefix with one
// incoming value per CFG predecessor, and every Call resolves to a
// known function or extern. It does not check dominance-based SSA
// def-before-use, which belongs to the dominator analysis built on
// top of this package.
func Validate(m *Module) error {
	for _, f := range m.Functions() {
		if err := validateFunction(m, f); err != nil {
			return err
		}
	}
	return nil
}

func validateFunction(m *Module, f *Function) error {
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		if b.tail == nil || !b.tail.opcode.IsTerminator() {
			return &ValidationError{f.Name, b.id, "block has no terminator"}
		}
		for cur := b.root; cur != b.tail; cur = cur.next {
			if cur.opcode.IsTerminator() {
				return &ValidationError{f.Name, b.id, "instructions follow the terminator"}
			}
		}

		seenPhi := true
		for cur := b.root; cur != nil; cur = cur.next {
			if cur.opcode == OpPhi {
				if !seenPhi {
					return &ValidationError{f.Name, b.id, "phi follows a non-phi instruction"}
				}
				if err := validatePhi(f, b, cur); err != nil {
					return err
				}
			} else {
				seenPhi = false
			}
			if cur.opcode == OpCall && !m.Resolves(cur.callName) {
				return &ValidationError{f.Name, b.id, fmt.Sprintf("call to unresolved function %q", cur.callName)}
			}
		}
	}
	return nil
}

func validatePhi(f *Function, b *BasicBlock, phi *Instruction) error {
	want := make(map[BlockID]bool, len(b.preds))
	for _, p := range b.preds {
		want[p] = true
	}
	for _, p := range phi.phiOrder {
		if !want[p] {
			return &ValidationError{f.Name, b.id, fmt.Sprintf("phi has incoming edge from non-predecessor blk%d", p)}
		}
		delete(want, p)
	}
	for p := range want {
		return &ValidationError{f.Name, b.id, fmt.Sprintf("phi is missing incoming edge from predecessor blk%d", p)}
	}
	return nil
}
