package machine

// MFunction is the Machine IR form of one function: its blocks (in
// layout order), the virtual-register allocator used while building
// it, and its frame info (populated incrementally by instruction
// selection's Alloca lowering, finalized by frame lowering once
// register allocation has settled every spill slot).
type MFunction struct {
	Name    string
	Blocks  []*MBlock
	Params  []VReg
	RetType DataType

	VRegs VRegAllocator
	Frame MFrameInfo

	EntryBlockID uint32

	// StackSize is this function's total frame size in bytes, set by
	// frame lowering once register allocation has finished deciding
	// spill-slot counts: baseOffset (the callee-saved/ra save area)
	// plus FrameInfo.CalculateOffsets's result, 16-byte aligned.
	StackSize int

	// Assignments records, for every virtual register the register
	// allocator processed, where it ended up — populated by
	// regalloc.Allocate, consumed by phi elimination for PhiIncoming
	// operands (which the allocator's Uses/Defs rewrite never reaches).
	Assignments map[VReg]RegAssignment
}

func NewMFunction(name string) *MFunction {
	return &MFunction{Name: name}
}

func (f *MFunction) AddBlock(id uint32) *MBlock {
	b := NewMBlock(id)
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *MFunction) Block(id uint32) *MBlock {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// AllInstructions returns every instruction across every block, in
// block-then-intra-block order.
func (f *MFunction) AllInstructions() []*MInstruction {
	var all []*MInstruction
	for _, b := range f.Blocks {
		all = append(all, b.Insts...)
	}
	return all
}
