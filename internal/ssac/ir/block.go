package ir

import "fmt"

// BasicBlock is a maximal, single-entry, single-terminator sequence of
// instructions. Any Phis occupy a contiguous prefix.
type BasicBlock struct {
	id    BlockID
	fn    *Function
	root  *Instruction
	tail  *Instruction
	phis  int // count of Phi instructions at the block's prefix.
	preds []BlockID
	succs []BlockID

	sealed  bool // mem2reg/CFG-construction bookkeeping.
	invalid bool // set by passes that delete unreachable blocks.
}

// ID returns the block's id, unique within its Function.
func (b *BasicBlock) ID() BlockID { return b.id }

// Valid reports whether the block still belongs to its function's
// reachable set.
func (b *BasicBlock) Valid() bool { return !b.invalid }

// Preds returns the ids of this block's CFG predecessors.
func (b *BasicBlock) Preds() []BlockID { return b.preds }

// Succs returns the ids of this block's CFG successors.
func (b *BasicBlock) Succs() []BlockID { return b.succs }

// Root returns the first instruction of the block (nil if empty).
func (b *BasicBlock) Root() *Instruction { return b.root }

// Tail returns the last instruction (the terminator, once the block
// is well-formed).
func (b *BasicBlock) Tail() *Instruction { return b.tail }

// Terminator returns the block's terminating instruction, panicking if
// the block doesn't yet end with exactly one terminator (e.g.
// mid-construction).
func (b *BasicBlock) Terminator() *Instruction {
	if b.tail == nil || !b.tail.opcode.IsTerminator() {
		panic(fmt.Sprintf("ir: blk%d has no terminator", b.id))
	}
	return b.tail
}

// Phis returns the leading Phi instructions of the block, in order.
func (b *BasicBlock) Phis() []*Instruction {
	out := make([]*Instruction, 0, b.phis)
	cur := b.root
	for n := 0; n < b.phis && cur != nil; n++ {
		out = append(out, cur)
		cur = cur.next
	}
	return out
}

// Insert appends inst to the tail of the block. Phi instructions must
// be inserted before any non-Phi instruction (the block's contiguous
// Phi-prefix invariant); Insert panics if that ordering is violated.
func (b *BasicBlock) Insert(inst *Instruction) {
	if inst.opcode == OpPhi {
		if b.phis != countLeading(b) {
			panic("ir: Phi inserted after non-Phi instructions")
		}
	}
	inst.block = b
	if b.tail == nil {
		b.root = inst
	} else {
		b.tail.next = inst
		inst.prev = b.tail
	}
	b.tail = inst
	if inst.opcode == OpPhi {
		b.phis++
	}
}

func countLeading(b *BasicBlock) int {
	n := 0
	for cur := b.root; cur != nil && cur.opcode == OpPhi; cur = cur.next {
		n++
	}
	return n
}

// InsertFront inserts inst immediately before the first non-Phi
// instruction (used by mem2reg to add a Phi to a block that already
// has non-Phi contents, and by LICM's preheader Phi insertion).
func (b *BasicBlock) InsertFront(inst *Instruction) {
	inst.block = b
	afterPhis := b.root
	for n := 0; n < b.phis && afterPhis != nil; n++ {
		afterPhis = afterPhis.next
	}
	if afterPhis == nil {
		b.Insert(inst)
		return
	}
	prev := afterPhis.prev
	inst.next = afterPhis
	afterPhis.prev = inst
	if prev == nil {
		b.root = inst
	} else {
		prev.next = inst
		inst.prev = prev
	}
	if inst.opcode == OpPhi {
		b.phis++
	}
}

// Remove unlinks inst from the block's instruction list.
func (b *BasicBlock) Remove(inst *Instruction) {
	if inst.prev != nil {
		inst.prev.next = inst.next
	} else {
		b.root = inst.next
	}
	if inst.next != nil {
		inst.next.prev = inst.prev
	} else {
		b.tail = inst.prev
	}
	if inst.opcode == OpPhi {
		b.phis--
	}
	inst.prev, inst.next, inst.block = nil, nil, nil
}

// EntryBlock reports whether this is the function's entry block (id 0
// by convention).
func (b *BasicBlock) EntryBlock() bool { return b.id == 0 }

// String implements fmt.Stringer.
func (b *BasicBlock) String() string { return fmt.Sprintf("blk%d", b.id) }
