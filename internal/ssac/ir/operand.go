package ir

import "fmt"

// OperandKind tags the five immutable Operand variants.
type OperandKind uint8

const (
	OperandInvalid OperandKind = iota
	OperandRegister
	OperandImmI32
	OperandImmF32
	OperandGlobal
	OperandLabel
)

// RegisterID is a register id, unique within the owning Function.
type RegisterID uint32

// BlockID is a basic block id, unique within the owning Function.
type BlockID uint32

// Operand is one of {Register, ImmI32, ImmF32, Global, Label}. Every
// Operand reachable from IR is produced by a factory (OperandFactory
// for immediates/globals, Function for registers/labels) and is
// never constructed directly outside this package, so that
// pointer-equality of *Operand implies value-equality.
type Operand struct {
	kind OperandKind

	reg     RegisterID
	regType Type // the type the register was declared with

	immI32 int32
	immF32 float32

	global string

	label BlockID
}

// Value is the type used pervasively through the IR for "an operand
// that is read" — whatever an instruction's result stands for.
type Value = *Operand

// Kind returns which of the five variants this operand is.
func (o *Operand) Kind() OperandKind { return o.kind }

// Valid reports whether o is a real, non-nil operand.
func (o *Operand) Valid() bool { return o != nil && o.kind != OperandInvalid }

// Register returns the register id. Panics if o is not a Register.
func (o *Operand) Register() RegisterID {
	o.mustBe(OperandRegister)
	return o.reg
}

// Type returns the declared type of a Register operand.
func (o *Operand) Type() Type {
	o.mustBe(OperandRegister)
	return o.regType
}

// ImmI32 returns the literal value. Panics if o is not an ImmI32.
func (o *Operand) ImmI32() int32 {
	o.mustBe(OperandImmI32)
	return o.immI32
}

// ImmF32 returns the literal value. Panics if o is not an ImmF32.
func (o *Operand) ImmF32() float32 {
	o.mustBe(OperandImmF32)
	return o.immF32
}

// Global returns the symbolic name. Panics if o is not a Global.
func (o *Operand) Global() string {
	o.mustBe(OperandGlobal)
	return o.global
}

// Label returns the referenced block id. Panics if o is not a Label.
func (o *Operand) Label() BlockID {
	o.mustBe(OperandLabel)
	return o.label
}

func (o *Operand) mustBe(k OperandKind) {
	if o == nil || o.kind != k {
		panic(fmt.Sprintf("ir: operand kind mismatch: want %v, have %v", k, o.safeKind()))
	}
}

func (o *Operand) safeKind() OperandKind {
	if o == nil {
		return OperandInvalid
	}
	return o.kind
}

// String implements fmt.Stringer for debugging.
func (o *Operand) String() string {
	if o == nil {
		return "<invalid>"
	}
	switch o.kind {
	case OperandRegister:
		return fmt.Sprintf("%%r%d", o.reg)
	case OperandImmI32:
		return fmt.Sprintf("%d", o.immI32)
	case OperandImmF32:
		return fmt.Sprintf("%gf", o.immF32)
	case OperandGlobal:
		return "@" + o.global
	case OperandLabel:
		return fmt.Sprintf("blk%d", o.label)
	default:
		return "<invalid>"
	}
}

// OperandFactory interns the module-scoped Operand variants (ImmI32,
// ImmF32, Global) so that any two requests for the same immediate or
// global name return the identical pointer. It is owned by a Module
// and lives for the whole compilation unit.
type OperandFactory struct {
	imm32   map[int32]*Operand
	immF32  map[uint32]*Operand // keyed by bit pattern so NaN/±0 behave
	globals map[string]*Operand
}

// NewOperandFactory returns an empty, ready-to-use OperandFactory.
func NewOperandFactory() *OperandFactory {
	return &OperandFactory{
		imm32:   make(map[int32]*Operand),
		immF32:  make(map[uint32]*Operand),
		globals: make(map[string]*Operand),
	}
}

// ImmI32 returns the interned operand for v.
func (f *OperandFactory) ImmI32(v int32) Value {
	if op, ok := f.imm32[v]; ok {
		return op
	}
	op := &Operand{kind: OperandImmI32, immI32: v}
	f.imm32[v] = op
	return op
}

// ImmF32 returns the interned operand for v.
func (f *OperandFactory) ImmF32(v float32) Value {
	bits := f32bits(v)
	if op, ok := f.immF32[bits]; ok {
		return op
	}
	op := &Operand{kind: OperandImmF32, immF32: v}
	f.immF32[bits] = op
	return op
}

// Global returns the interned operand referencing the named global.
func (f *OperandFactory) Global(name string) Value {
	if op, ok := f.globals[name]; ok {
		return op
	}
	op := &Operand{kind: OperandGlobal, global: name}
	f.globals[name] = op
	return op
}
