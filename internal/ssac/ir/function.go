package ir

import "fmt"

// Function owns its blocks and their instructions exclusively.
// Register ids are generated by a monotonic counter scoped to the
// Function; label ids are block ids, also function-scoped.
type Function struct {
	Name    string
	RetType Type
	Params  []Param

	mod *Module

	blocks     map[BlockID]*BasicBlock
	blockOrder []BlockID // insertion order; entry is always blockOrder[0], id 0.
	nextBlock  BlockID

	nextReg RegisterID
	// regs / labels intern Register/Label operands; unlike the
	// module-scoped OperandFactory, this cache is rebuilt per function.
	regs   map[RegisterID]*Operand
	labels map[BlockID]*Operand

	nextInstrID uint32
}

// NewFunction creates a Function owned by mod with the given
// signature. Parameter registers are pre-allocated immediately.
func NewFunction(mod *Module, name string, retType Type, paramTypes []Type) *Function {
	f := &Function{
		Name:    name,
		RetType: retType,
		mod:     mod,
		blocks:  make(map[BlockID]*BasicBlock),
		regs:    make(map[RegisterID]*Operand),
		labels:  make(map[BlockID]*Operand),
	}
	f.Params = make([]Param, len(paramTypes))
	for i, t := range paramTypes {
		f.Params[i] = Param{Type: t, Reg: f.AllocateRegister(t)}
	}
	return f
}

// Module returns the owning Module.
func (f *Function) Module() *Module { return f.mod }

// AllocateRegister returns a fresh, interned register operand of type
// t, unique within f.
func (f *Function) AllocateRegister(t Type) Value {
	id := f.nextReg
	f.nextReg++
	op := &Operand{kind: OperandRegister, reg: id, regType: t}
	f.regs[id] = op
	return op
}

// RegisterByID looks up a previously allocated register by id,
// panicking if unknown (an internal invariant violation).
func (f *Function) RegisterByID(id RegisterID) Value {
	op, ok := f.regs[id]
	if !ok {
		panic(fmt.Sprintf("ir: unknown register id %d in function %s", id, f.Name))
	}
	return op
}

// AddBlock allocates and registers a fresh, empty BasicBlock. The
// first block ever added to a Function is the entry block (id 0) by
// convention.
func (f *Function) AddBlock() *BasicBlock {
	id := f.nextBlock
	f.nextBlock++
	b := &BasicBlock{id: id, fn: f}
	f.blocks[id] = b
	f.blockOrder = append(f.blockOrder, id)
	f.labels[id] = &Operand{kind: OperandLabel, label: id}
	return b
}

// Block returns the block with the given id, or nil.
func (f *Function) Block(id BlockID) *BasicBlock { return f.blocks[id] }

// LabelOf returns the interned Label operand referencing blk.
func (f *Function) LabelOf(blk BlockID) Value { return f.labels[blk] }

// EntryBlock returns block 0.
func (f *Function) EntryBlock() *BasicBlock { return f.blocks[0] }

// Blocks returns the blocks in insertion order. Callers that need only
// the reachable set should use analysis.Reachable instead, which filters
// blocks marked invalid by earlier passes.
func (f *Function) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(f.blockOrder))
	for _, id := range f.blockOrder {
		if b := f.blocks[id]; b != nil {
			out = append(out, b)
		}
	}
	return out
}

// DeleteBlock removes blk from the function entirely. Its
// instructions, owned exclusively by the block, are dropped in
// reverse order of insertion.
func (f *Function) DeleteBlock(id BlockID) {
	b, ok := f.blocks[id]
	if !ok {
		return
	}
	for cur := b.tail; cur != nil; {
		prev := cur.prev
		cur.prev, cur.next, cur.block = nil, nil, nil
		cur = prev
	}
	delete(f.blocks, id)
	delete(f.labels, id)
	for i, bid := range f.blockOrder {
		if bid == id {
			f.blockOrder = append(f.blockOrder[:i], f.blockOrder[i+1:]...)
			break
		}
	}
}

func (f *Function) newInst(op Opcode) *Instruction {
	f.nextInstrID++
	return &Instruction{id: f.nextInstrID, opcode: op}
}

// --- Instruction constructors -------------------------------------------------
//
// These are the primitives the external AST-to-IR builder is expected
// to call, and are also used internally by the optimizer passes
// (LICM's guard regions, Inline's cloning, UnifyReturn, TCO) when they
// synthesize new instructions.

// Load emits `Load(ptr) -> reg` of type t into blk.
func (f *Function) Load(blk *BasicBlock, ptr Value, t Type) Value {
	inst := f.newInst(OpLoad)
	inst.a = ptr
	inst.dst = f.AllocateRegister(t)
	inst.typ = t
	blk.Insert(inst)
	return inst.dst
}

// Store emits `Store(val, ptr)` into blk.
func (f *Function) Store(blk *BasicBlock, val, ptr Value) {
	inst := f.newInst(OpStore)
	inst.a, inst.b = val, ptr
	blk.Insert(inst)
}

// Alloca emits `Alloca(type, dims) -> reg` into blk. dims is empty for
// a scalar.
func (f *Function) Alloca(blk *BasicBlock, elemType Type, dims []int) Value {
	inst := f.newInst(OpAlloca)
	inst.dst = f.AllocateRegister(TypePtr)
	inst.typ = elemType
	inst.dims = dims
	blk.Insert(inst)
	return inst.dst
}

// GEP emits `GEP(base, idx..., dims) -> reg` into blk, computing the
// address of an element of an array with the given dimensions.
func (f *Function) GEP(blk *BasicBlock, base Value, indices []Value, dims []int) Value {
	inst := f.newInst(OpGEP)
	inst.a = base
	inst.indices = indices
	inst.dims = dims
	inst.dst = f.AllocateRegister(TypePtr)
	inst.typ = TypePtr
	blk.Insert(inst)
	return inst.dst
}

// Binary emits a two-operand arithmetic/logical instruction (one of
// the Op{Add,Sub,Mul,Div,Mod,Shl,AShr,LShr,And,Or,Xor,FAdd,FSub,FMul,
// FDiv} opcodes) producing a value of type t.
func (f *Function) Binary(blk *BasicBlock, op Opcode, a, b Value, t Type) Value {
	inst := f.newInst(op)
	inst.a, inst.b = a, b
	inst.dst = f.AllocateRegister(t)
	inst.typ = t
	blk.Insert(inst)
	return inst.dst
}

// ICmp emits `icmp(cond, lhs, rhs) -> i1`.
func (f *Function) ICmp(blk *BasicBlock, cond IntCond, lhs, rhs Value) Value {
	inst := f.newInst(OpICmp)
	inst.a, inst.b = lhs, rhs
	inst.intCond = cond
	inst.dst = f.AllocateRegister(TypeI1)
	inst.typ = TypeI1
	blk.Insert(inst)
	return inst.dst
}

// FCmp emits `fcmp(cond, lhs, rhs) -> i1`.
func (f *Function) FCmp(blk *BasicBlock, cond FloatCond, lhs, rhs Value) Value {
	inst := f.newInst(OpFCmp)
	inst.a, inst.b = lhs, rhs
	inst.floatCond = cond
	inst.dst = f.AllocateRegister(TypeI1)
	inst.typ = TypeI1
	blk.Insert(inst)
	return inst.dst
}

// Convert emits one of ZExt/SIToFP/FPToSI.
func (f *Function) Convert(blk *BasicBlock, op Opcode, v Value, to Type) Value {
	inst := f.newInst(op)
	inst.a = v
	inst.dst = f.AllocateRegister(to)
	inst.typ = to
	blk.Insert(inst)
	return inst.dst
}

// BrCond emits `BrCond(cond, trueLabel, falseLabel)`, linking blk's
// CFG successor edges.
func (f *Function) BrCond(blk *BasicBlock, cond Value, trueBlk, falseBlk BlockID) {
	inst := f.newInst(OpBrCond)
	inst.a = cond
	inst.brTrue = f.LabelOf(trueBlk)
	inst.brFalse = f.LabelOf(falseBlk)
	blk.Insert(inst)
	f.linkEdge(blk.id, trueBlk)
	f.linkEdge(blk.id, falseBlk)
}

// BrUncond emits `BrUncond(label)`.
func (f *Function) BrUncond(blk *BasicBlock, target BlockID) {
	inst := f.newInst(OpBrUncond)
	inst.a = f.LabelOf(target)
	blk.Insert(inst)
	f.linkEdge(blk.id, target)
}

// Ret emits `Ret(value?)`.
func (f *Function) Ret(blk *BasicBlock, value Value) {
	inst := f.newInst(OpRet)
	inst.a = value
	blk.Insert(inst)
}

// Call emits `Call(funcName, returnType, args) -> reg?`.
func (f *Function) Call(blk *BasicBlock, name string, retType Type, args []CallArg) Value {
	inst := f.newInst(OpCall)
	inst.callName = name
	inst.callArgs = args
	inst.funcRetType = retType
	if retType != TypeVoid {
		inst.dst = f.AllocateRegister(retType)
		inst.typ = retType
	}
	blk.Insert(inst)
	return inst.dst
}

// Phi emits `Phi(type, incoming) -> reg` at the head of blk (after any
// existing Phis).
func (f *Function) Phi(blk *BasicBlock, t Type) *Instruction {
	inst := f.newInst(OpPhi)
	inst.typ = t
	inst.dst = f.AllocateRegister(t)
	inst.phiIncoming = make(map[BlockID]Value)
	blk.InsertFront(inst)
	return inst
}

// AddIncoming records one incoming edge of a Phi.
func (p *Instruction) AddIncoming(pred BlockID, val Value) {
	if p.opcode != OpPhi {
		panic("ir: AddIncoming on non-Phi instruction")
	}
	if _, seen := p.phiIncoming[pred]; !seen {
		p.phiOrder = append(p.phiOrder, pred)
	}
	p.phiIncoming[pred] = val
}

// RemoveIncoming drops pred's incoming edge from a Phi (used by
// SCCP/ADCE when an edge becomes provably unreachable).
func (p *Instruction) RemoveIncoming(pred BlockID) {
	if p.opcode != OpPhi {
		panic("ir: RemoveIncoming on non-Phi instruction")
	}
	delete(p.phiIncoming, pred)
	for i, b := range p.phiOrder {
		if b == pred {
			p.phiOrder = append(p.phiOrder[:i], p.phiOrder[i+1:]...)
			break
		}
	}
}

func (f *Function) linkEdge(from, to BlockID) {
	src, dst := f.blocks[from], f.blocks[to]
	src.succs = append(src.succs, to)
	dst.preds = append(dst.preds, from)
}

// Retarget rewrites term (a BrCond or BrUncond belonging to some
// block src) so that any edge to oldTarget instead points at
// newTarget, updating src/oldTarget/newTarget's preds/succs lists to
// match. Used by passes that synthesize new blocks on an existing
// edge (LICM's preheader insertion).
func (f *Function) Retarget(term *Instruction, oldTarget, newTarget BlockID) {
	src := term.block
	if !term.ReplaceUses(f.LabelOf(oldTarget), f.LabelOf(newTarget)) {
		return
	}
	for i, s := range src.succs {
		if s == oldTarget {
			src.succs[i] = newTarget
		}
	}
	old := f.blocks[oldTarget]
	for i, p := range old.preds {
		if p == src.id {
			old.preds = append(old.preds[:i], old.preds[i+1:]...)
			break
		}
	}
	nt := f.blocks[newTarget]
	nt.preds = append(nt.preds, src.id)
}

// CollapseBranch rewrites term (a BrCond belonging to some block src)
// into an unconditional branch to taken, dropping the edge to
// dropped. Used by SCCP once a branch's condition has converged to a
// known constant.
func (f *Function) CollapseBranch(term *Instruction, taken, dropped BlockID) {
	if term.opcode != OpBrCond {
		return
	}
	src := term.block
	term.opcode = OpBrUncond
	term.a = f.LabelOf(taken)
	term.b = nil
	term.brTrue, term.brFalse = nil, nil

	for i, s := range src.succs {
		if s == dropped {
			src.succs = append(src.succs[:i], src.succs[i+1:]...)
			break
		}
	}
	d := f.blocks[dropped]
	for i, p := range d.preds {
		if p == src.id {
			d.preds = append(d.preds[:i], d.preds[i+1:]...)
			break
		}
	}
	for _, phi := range d.Phis() {
		phi.RemoveIncoming(src.id)
	}
}

// AllInstructions returns every instruction in every valid block, in
// block-then-program order. Passes that need a def-use scan (mem2reg's
// use-replacement, SCCP's forwarding, CSE's canonicalization) walk this
// rather than maintaining an incrementally-updated use-list.
func (f *Function) AllInstructions() []*Instruction {
	var out []*Instruction
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			out = append(out, cur)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (f *Function) String() string { return f.Name }
