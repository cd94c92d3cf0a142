package dag

import (
	"fmt"
	"strings"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// SDValue is a reference to one result of an SDNode: a node may
// produce more than one result (Load yields a value and an updated
// chain), so a use names both the producing node and which result it
// reads.
type SDValue struct {
	Node  *SDNode
	ResNo int
}

// Valid reports whether v references a node (the zero SDValue does
// not, matching a nil IR operand).
func (v SDValue) Valid() bool { return v.Node != nil }

func (v SDValue) String() string {
	if v.Node == nil {
		return "<none>"
	}
	if v.ResNo == 0 {
		return v.Node.String()
	}
	return fmt.Sprintf("%s#%d", v.Node, v.ResNo)
}

// SDNode is one operation in a SelectionDAG. Like ir.Instruction, it
// is a flattened struct covering every opcode's payload rather than a
// tagged union, since Go has no sum types; which fields are meaningful
// is determined by Opcode.
type SDNode struct {
	id     uint32
	opcode Opcode

	operands   []SDValue
	valueTypes []ir.Type // one per result; HasChain() opcodes append an implicit trailing chain result of ir.TypeInvalid

	hasImmI32 bool
	immI32    int32
	hasImmF32 bool
	immF32    float32
	hasSymbol bool
	symbol    string

	hasIRReg bool
	irReg    ir.RegisterID

	hasFrameIndex bool
	frameIndex    int

	intCond   ir.IntCond
	floatCond ir.FloatCond
}

// ID returns the node's creation-order id, unique within its DAG.
func (n *SDNode) ID() uint32 { return n.id }

// Opcode returns the node's operation.
func (n *SDNode) Opcode() Opcode { return n.opcode }

// Operands returns the node's operand list.
func (n *SDNode) Operands() []SDValue { return n.operands }

// Operand returns the i'th operand.
func (n *SDNode) Operand(i int) SDValue { return n.operands[i] }

// ValueType returns the type of the i'th result.
func (n *SDNode) ValueType(i int) ir.Type { return n.valueTypes[i] }

// NumValues returns how many results n produces, including a trailing
// chain result for HasChain() opcodes.
func (n *SDNode) NumValues() int { return len(n.valueTypes) }

// ChainResult returns the SDValue for this node's chain result, valid
// only when Opcode().HasChain().
func (n *SDNode) ChainResult() SDValue { return SDValue{Node: n, ResNo: len(n.valueTypes) - 1} }

func (n *SDNode) ImmI32() int32        { return n.immI32 }
func (n *SDNode) HasImmI32() bool      { return n.hasImmI32 }
func (n *SDNode) ImmF32() float32      { return n.immF32 }
func (n *SDNode) HasImmF32() bool      { return n.hasImmF32 }
func (n *SDNode) Symbol() string       { return n.symbol }
func (n *SDNode) HasSymbol() bool      { return n.hasSymbol }
func (n *SDNode) IRReg() ir.RegisterID { return n.irReg }
func (n *SDNode) HasIRReg() bool       { return n.hasIRReg }
func (n *SDNode) FrameIndex() int      { return n.frameIndex }
func (n *SDNode) HasFrameIndex() bool  { return n.hasFrameIndex }
func (n *SDNode) IntCond() ir.IntCond  { return n.intCond }
func (n *SDNode) FloatCond() ir.FloatCond { return n.floatCond }

// String formats the node for debug dumps (cmd/ssacdump, test
// failures) — not a stable textual IR grammar.
func (n *SDNode) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "n%d:%s", n.id, n.opcode)
	switch {
	case n.hasImmI32:
		fmt.Fprintf(&b, "<%d>", n.immI32)
	case n.hasImmF32:
		fmt.Fprintf(&b, "<%g>", n.immF32)
	case n.hasSymbol:
		fmt.Fprintf(&b, "<%s>", n.symbol)
	case n.hasFrameIndex:
		fmt.Fprintf(&b, "<fi%d>", n.frameIndex)
	case n.hasIRReg:
		fmt.Fprintf(&b, "<r%d>", n.irReg)
	}
	return b.String()
}

// fingerprint builds the folding-set key used to intern structurally
// identical nodes: two nodes with the same opcode, operand list
// (by node identity + result number, matching pointer-equality
// interning upstream), result types, and payload collapse to one.
func fingerprint(opcode Opcode, valueTypes []ir.Type, operands []SDValue, payload func(*strings.Builder)) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|", opcode)
	for _, t := range valueTypes {
		fmt.Fprintf(&b, "%d,", t)
	}
	b.WriteByte('|')
	for _, op := range operands {
		fmt.Fprintf(&b, "%p#%d,", op.Node, op.ResNo)
	}
	b.WriteByte('|')
	if payload != nil {
		payload(&b)
	}
	return b.String()
}
