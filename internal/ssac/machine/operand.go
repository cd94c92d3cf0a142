package machine

import "fmt"

// OperandKind distinguishes MOperand's payload, mirroring m_defs.h's
// Operand::Type enum.
type OperandKind uint8

const (
	OperandInvalid OperandKind = iota
	OperandReg
	OperandImmI32
	OperandImmI64
	OperandImmF32
	OperandImmF64
	OperandFrameIndex
	OperandSymbol
	OperandBlock
)

// MOperand is a flattened union over every operand an MInstruction can
// take: a register, an immediate of one of four widths/kinds, or a
// stack-frame-slot reference resolved to a concrete offset only once
// frame lowering runs.
type MOperand struct {
	kind OperandKind
	typ  DataType

	reg VReg

	immI64 int64
	immF64 float64

	frameIndex int
	symbol     string
	block      uint32
}

func RegOperand(r VReg, t DataType) MOperand {
	return MOperand{kind: OperandReg, typ: t, reg: r}
}

func ImmI32Operand(v int32) MOperand {
	return MOperand{kind: OperandImmI32, typ: I32, immI64: int64(v)}
}

func ImmI64Operand(v int64) MOperand {
	return MOperand{kind: OperandImmI64, typ: I64, immI64: v}
}

func ImmF32Operand(v float32) MOperand {
	return MOperand{kind: OperandImmF32, typ: F32, immF64: float64(v)}
}

func ImmF64Operand(v float64) MOperand {
	return MOperand{kind: OperandImmF64, typ: F64, immF64: v}
}

func FrameIndexOperand(fi int) MOperand {
	return MOperand{kind: OperandFrameIndex, typ: I64, frameIndex: fi}
}

// SymbolOperand names a callee or a global's address (JAL/CALL/LA
// targets).
func SymbolOperand(name string) MOperand {
	return MOperand{kind: OperandSymbol, typ: PTR, symbol: name}
}

// BlockOperand names a branch target by the MBlock id it targets.
func BlockOperand(id uint32) MOperand {
	return MOperand{kind: OperandBlock, block: id}
}

func (o MOperand) Kind() OperandKind { return o.kind }
func (o MOperand) Type() DataType    { return o.typ }

func (o MOperand) Reg() VReg {
	o.mustBe(OperandReg)
	return o.reg
}

func (o MOperand) ImmI32() int32 {
	o.mustBe(OperandImmI32)
	return int32(o.immI64)
}

func (o MOperand) ImmI64() int64 {
	o.mustBe(OperandImmI64)
	return o.immI64
}

func (o MOperand) ImmF32() float32 {
	o.mustBe(OperandImmF32)
	return float32(o.immF64)
}

func (o MOperand) ImmF64() float64 {
	o.mustBe(OperandImmF64)
	return o.immF64
}

func (o MOperand) FrameIndex() int {
	o.mustBe(OperandFrameIndex)
	return o.frameIndex
}

func (o MOperand) Symbol() string {
	o.mustBe(OperandSymbol)
	return o.symbol
}

func (o MOperand) Block() uint32 {
	o.mustBe(OperandBlock)
	return o.block
}

func (o MOperand) mustBe(k OperandKind) {
	if o.kind != k {
		panic(fmt.Sprintf("machine: operand kind %d is not %d", o.kind, k))
	}
}

func (o MOperand) String() string {
	switch o.kind {
	case OperandReg:
		return o.reg.String()
	case OperandImmI32:
		return fmt.Sprintf("%d", int32(o.immI64))
	case OperandImmI64:
		return fmt.Sprintf("%d", o.immI64)
	case OperandImmF32:
		return fmt.Sprintf("%g", float32(o.immF64))
	case OperandImmF64:
		return fmt.Sprintf("%g", o.immF64)
	case OperandFrameIndex:
		return fmt.Sprintf("fi%d", o.frameIndex)
	case OperandSymbol:
		return o.symbol
	case OperandBlock:
		return fmt.Sprintf("blk%d", o.block)
	default:
		return "<invalid>"
	}
}
