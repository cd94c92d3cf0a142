package ir

import "fmt"

// Opcode tags every member of the closed instruction union.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Memory.
	OpLoad
	OpStore
	OpAlloca
	OpGEP

	// Integer arithmetic/logical.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpAShr
	OpLShr
	OpAnd
	OpOr
	OpXor

	// Float arithmetic.
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv

	// Comparison.
	OpICmp
	OpFCmp

	// Conversion.
	OpZExt
	OpSIToFP
	OpFPToSI

	// Control flow (terminators).
	OpBrCond
	OpBrUncond
	OpRet

	// Call.
	OpCall

	// SSA merge.
	OpPhi

	// Global / function headers (carried on Module/Function, not in a
	// block's instruction list, but kept as members of the same closed
	// union so every opcode switch over Opcode stays exhaustive).
	OpGlbVarDecl
	OpFuncDecl
	OpFuncDef
)

// String implements fmt.Stringer.
func (op Opcode) String() string {
	switch op {
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpAlloca:
		return "alloca"
	case OpGEP:
		return "gep"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpShl:
		return "shl"
	case OpAShr:
		return "ashr"
	case OpLShr:
		return "lshr"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpFAdd:
		return "fadd"
	case OpFSub:
		return "fsub"
	case OpFMul:
		return "fmul"
	case OpFDiv:
		return "fdiv"
	case OpICmp:
		return "icmp"
	case OpFCmp:
		return "fcmp"
	case OpZExt:
		return "zext"
	case OpSIToFP:
		return "sitofp"
	case OpFPToSI:
		return "fptosi"
	case OpBrCond:
		return "br_cond"
	case OpBrUncond:
		return "br"
	case OpRet:
		return "ret"
	case OpCall:
		return "call"
	case OpPhi:
		return "phi"
	case OpGlbVarDecl:
		return "glb_decl"
	case OpFuncDecl:
		return "func_decl"
	case OpFuncDef:
		return "func_def"
	default:
		return "invalid"
	}
}

// IsTerminator reports whether op closes a basic block. Every block
// ends with exactly one terminator.
func (op Opcode) IsTerminator() bool {
	return op == OpBrCond || op == OpBrUncond || op == OpRet
}

// IntCond enumerates icmp condition codes.
type IntCond uint8

const (
	IntEQ IntCond = iota
	IntNE
	IntSLT
	IntSLE
	IntSGT
	IntSGE
	IntULT
	IntULE
	IntUGT
	IntUGE
)

func (c IntCond) String() string {
	return [...]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"}[c]
}

// Swapped returns the condition for swapped operands (a op b == b
// swapped(op) a); CSE uses it so that `a op b` and `b swapped(op) a`
// share one canonical key.
func (c IntCond) Swapped() IntCond {
	switch c {
	case IntSLT:
		return IntSGT
	case IntSLE:
		return IntSGE
	case IntSGT:
		return IntSLT
	case IntSGE:
		return IntSLE
	case IntULT:
		return IntUGT
	case IntULE:
		return IntUGE
	case IntUGT:
		return IntULT
	case IntUGE:
		return IntULE
	default:
		return c
	}
}

// FloatCond enumerates fcmp condition codes, ordered and unordered
// variants.
type FloatCond uint8

const (
	FloatOEQ FloatCond = iota
	FloatOGT
	FloatOGE
	FloatOLT
	FloatOLE
	FloatONE
	FloatORD
	FloatUEQ
	FloatUGT
	FloatUGE
	FloatULT
	FloatULE
	FloatUNE
	FloatUNO
)

func (c FloatCond) String() string {
	return [...]string{
		"oeq", "ogt", "oge", "olt", "ole", "one", "ord",
		"ueq", "ugt", "uge", "ult", "ule", "une", "uno",
	}[c]
}

// CallArg is one (type, operand) pair of a Call's argument list.
type CallArg struct {
	Type Type
	Val  Value
}

// Instruction is the flattened representation of every union member:
// since Go has no sum type, a single struct carries every field any
// opcode might need, and each field's meaning is determined by
// Opcode().
type Instruction struct {
	id     uint32
	opcode Opcode

	// Generic operand slots. Binary ops use a,b; Store uses (a=val,
	// b=ptr); unary ops (Load, ZExt, SIToFP, FPToSI, BrCond's
	// condition) use a; Ret's optional value uses a.
	a, b Value

	// dst is the register this instruction defines, or nil.
	dst Value
	typ Type // the type of dst, when dst != nil

	intCond   IntCond
	floatCond FloatCond

	// Alloca / GEP / global array dimensions, row-major.
	dims []int
	// GEP's index operands, one per dimension (plus the base in a).
	indices []Value

	// BrCond's two successor labels; BrUncond's single target is
	// stored in a (as a Label operand).
	brTrue, brFalse Value

	// Call.
	callName string
	callArgs []CallArg

	// Phi: incoming edges. order preserves a deterministic iteration
	// sequence (Go map iteration is randomized) matching the order
	// predecessors were added to the owning block.
	phiIncoming map[BlockID]Value
	phiOrder    []BlockID

	// GlbVarDecl.
	globalName string
	globalInit []VarValue

	// FuncDecl / FuncDef signature (body is the Function's block map).
	funcName    string
	funcRetType Type
	funcParams  []Param

	// block linkage: instructions form a doubly linked list within
	// their owning BasicBlock, in program order.
	prev, next *Instruction
	block      *BasicBlock
}

// VarValue is one scalar slot of a flattened global initializer: the
// product of the declared dimensions, in row-major order.
type VarValue struct {
	IsFloat bool
	I       int32
	F       float32
}

// Param is a (type, register) pair of a function's parameter list; the
// register is pre-allocated at function creation.
type Param struct {
	Type Type
	Reg  Value
}

// ID returns a unique, monotonically increasing id used only for
// debug ordering and CSE tie-breaking — not part of the SSA semantics.
func (i *Instruction) ID() uint32 { return i.id }

// Opcode returns the instruction's opcode.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Dst returns the Value this instruction defines, or nil.
func (i *Instruction) Dst() Value { return i.dst }

// Type returns the type of Dst.
func (i *Instruction) Type() Type { return i.typ }

// Args returns the up-to-two generic operand slots used by most
// opcodes (see the field doc on a, b above for the per-opcode
// meaning).
func (i *Instruction) Args() (Value, Value) { return i.a, i.b }

// IntCond returns the icmp condition code. Only meaningful for OpICmp.
func (i *Instruction) IntCond() IntCond { return i.intCond }

// FloatCond returns the fcmp condition code. Only meaningful for
// OpFCmp.
func (i *Instruction) FloatCond() FloatCond { return i.floatCond }

// Dims returns the array dimensions attached to Alloca/GEP/GlbVarDecl.
func (i *Instruction) Dims() []int { return i.dims }

// Indices returns GEP's per-dimension index operands.
func (i *Instruction) Indices() []Value { return i.indices }

// BrTargets returns BrCond's (true, false) successor labels, or for
// BrUncond returns (target, nil).
func (i *Instruction) BrTargets() (Value, Value) {
	if i.opcode == OpBrUncond {
		return i.a, nil
	}
	return i.brTrue, i.brFalse
}

// CallName returns the callee's symbol name. Only meaningful for
// OpCall.
func (i *Instruction) CallName() string { return i.callName }

// CallArgs returns the (type, operand) argument list. Only meaningful
// for OpCall.
func (i *Instruction) CallArgs() []CallArg { return i.callArgs }

// PhiIncoming returns the label -> value map of a Phi's incoming
// edges, plus phiOrder for deterministic iteration.
func (i *Instruction) PhiIncoming() (map[BlockID]Value, []BlockID) {
	return i.phiIncoming, i.phiOrder
}

// PhiValueFor returns the incoming value for pred, and whether pred
// is actually one of the Phi's incoming labels.
func (i *Instruction) PhiValueFor(pred BlockID) (Value, bool) {
	v, ok := i.phiIncoming[pred]
	return v, ok
}

// GlobalName / GlobalInit are only meaningful for OpGlbVarDecl.
func (i *Instruction) GlobalName() string     { return i.globalName }
func (i *Instruction) GlobalInit() []VarValue { return i.globalInit }

// FuncName / FuncRetType / FuncParams are only meaningful for
// OpFuncDecl / OpFuncDef.
func (i *Instruction) FuncName() string     { return i.funcName }
func (i *Instruction) FuncRetType() Type    { return i.funcRetType }
func (i *Instruction) FuncParams() []Param  { return i.funcParams }

// Next / Prev walk the instruction list of the owning block.
func (i *Instruction) Next() *Instruction { return i.next }
func (i *Instruction) Prev() *Instruction { return i.prev }

// Block returns the owning basic block.
func (i *Instruction) Block() *BasicBlock { return i.block }

// sideEffectKind classifies an instruction as strictly side-effecting
// (Store, Call, Ret and the branches) or free of side effects.
type sideEffectKind uint8

const (
	sideEffectNone sideEffectKind = iota
	sideEffectStrict
)

func (i *Instruction) sideEffect() sideEffectKind {
	switch i.opcode {
	case OpStore, OpCall, OpRet, OpBrCond, OpBrUncond:
		return sideEffectStrict
	default:
		return sideEffectNone
	}
}

// UsesRegister reports whether v appears among this instruction's
// register-typed operands (used by CSE/ADCE/SCCP def-use walks).
func (i *Instruction) UsesRegister(v Value) bool {
	if v == nil || v.kind != OperandRegister {
		return false
	}
	for _, use := range i.registerUses() {
		if use == v {
			return true
		}
	}
	return false
}

// ReplaceUses rewrites every occurrence of old among this
// instruction's register-typed operands to replacement, returning
// whether anything changed. Used by passes (mem2reg, SCCP, CSE) that
// fold, rename, or forward a value without rebuilding the instruction.
func (i *Instruction) ReplaceUses(old, replacement Value) bool {
	changed := false
	sub := func(v *Value) {
		if *v == old {
			*v = replacement
			changed = true
		}
	}
	sub(&i.a)
	sub(&i.b)
	for idx := range i.indices {
		sub(&i.indices[idx])
	}
	for idx := range i.callArgs {
		sub(&i.callArgs[idx].Val)
	}
	for pred, v := range i.phiIncoming {
		if v == old {
			i.phiIncoming[pred] = replacement
			changed = true
		}
	}
	return changed
}

// registerUses returns every Register-kind operand this instruction
// reads, across all of its opcode-specific fields.
func (i *Instruction) registerUses() []Value {
	var uses []Value
	add := func(v Value) {
		if v != nil && v.kind == OperandRegister {
			uses = append(uses, v)
		}
	}
	add(i.a)
	add(i.b)
	for _, idx := range i.indices {
		add(idx)
	}
	for _, arg := range i.callArgs {
		add(arg.Val)
	}
	for _, v := range i.phiIncoming {
		add(v)
	}
	return uses
}

// String implements fmt.Stringer for debugging. It exists only to
// make panics and cmd/ssacdump output legible, not as a stable textual
// IR grammar.
func (i *Instruction) String() string {
	if i.dst != nil {
		return fmt.Sprintf("%s = %s ...", i.dst, i.opcode)
	}
	return i.opcode.String()
}
