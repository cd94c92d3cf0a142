package machine

// RegAssignment is what the register allocator decided for one virtual
// register: either a physical register, or a stack spill slot. Phi
// elimination consults this map (rather than re-deriving it) to know
// where a Phi's incoming value — recorded in PhiIncoming, which isn't
// itself an instruction operand the allocator rewrites in place — ended
// up, since an incoming value can be a vreg the allocator spilled.
type RegAssignment struct {
	PhysReg RealReg
	Spilled bool
	SpillFI int
}

// RecordAssignment is the register allocator's write-side of
// Assignments, exported so the regalloc package can record each
// interval's outcome as it assigns it.
func (f *MFunction) RecordAssignment(v VReg, a RegAssignment) {
	if f.Assignments == nil {
		f.Assignments = map[VReg]RegAssignment{}
	}
	f.Assignments[v] = a
}
