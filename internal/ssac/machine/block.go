package machine

// MBlock is a Machine IR basic block: a flat, mutable instruction
// sequence (unlike ir.BasicBlock's intrusive linked list, nothing
// downstream of instruction selection needs O(1) mid-list removal —
// the regalloc rewrite pass and stack lowering both only ever append
// or do a single full-slice rebuild), keyed by the same block id its
// originating ir.BasicBlock had so later passes can still correlate
// the two representations.
type MBlock struct {
	ID    uint32
	Insts []*MInstruction

	Preds []uint32
	Succs []uint32
}

func NewMBlock(id uint32) *MBlock {
	return &MBlock{ID: id}
}

func (b *MBlock) Append(inst *MInstruction) {
	b.Insts = append(b.Insts, inst)
}

// Prepend inserts inst at the front of the block, after any existing
// Phis — matching ir.BasicBlock.InsertFront's Phi-cluster convention.
func (b *MBlock) Prepend(inst *MInstruction) {
	i := 0
	for i < len(b.Insts) && b.Insts[i].Kind == KindPhi {
		i++
	}
	b.Insts = append(b.Insts, nil)
	copy(b.Insts[i+1:], b.Insts[i:])
	b.Insts[i] = inst
}

// InsertAt splices insts into the block starting at idx, shifting
// everything from idx onward back — used by phi elimination to drop
// the copies materializing a Phi's incoming values right before a
// predecessor block's terminator.
func (b *MBlock) InsertAt(idx int, insts ...*MInstruction) {
	if len(insts) == 0 {
		return
	}
	grown := make([]*MInstruction, 0, len(b.Insts)+len(insts))
	grown = append(grown, b.Insts[:idx]...)
	grown = append(grown, insts...)
	grown = append(grown, b.Insts[idx:]...)
	b.Insts = grown
}

func (b *MBlock) Phis() []*MInstruction {
	var phis []*MInstruction
	for _, inst := range b.Insts {
		if inst.Kind != KindPhi {
			break
		}
		phis = append(phis, inst)
	}
	return phis
}
