package dag

import (
	"fmt"
	"strings"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// SelectionDAG is the per-block graph of SDNodes built from one
// ir.BasicBlock. Every constructor method funnels through the same
// folding set: requesting a node with an opcode/operand/payload
// combination already present returns the existing node instead of
// allocating a duplicate, which is the DAG stage's own, independent
// CSE (on top of whatever the SSA-level CSE pass already did — this
// catches redundancy the earlier pass couldn't see, like address
// arithmetic synthesized fresh during DAG construction itself).
type SelectionDAG struct {
	nodes      []*SDNode
	nextID     uint32
	foldingSet map[string]*SDNode
}

// NewSelectionDAG returns an empty DAG ready for construction.
func NewSelectionDAG() *SelectionDAG {
	return &SelectionDAG{foldingSet: make(map[string]*SDNode)}
}

// Nodes returns every distinct node allocated into the DAG, in
// creation order.
func (d *SelectionDAG) Nodes() []*SDNode { return d.nodes }

func (d *SelectionDAG) intern(key string, build func() *SDNode) SDValue {
	if existing, ok := d.foldingSet[key]; ok {
		return SDValue{Node: existing, ResNo: 0}
	}
	n := build()
	n.id = d.nextID
	d.nextID++
	d.nodes = append(d.nodes, n)
	d.foldingSet[key] = n
	return SDValue{Node: n, ResNo: 0}
}

func withChain(valueTypes []ir.Type, opcode Opcode) []ir.Type {
	if !opcode.HasChain() {
		return valueTypes
	}
	out := make([]ir.Type, len(valueTypes)+1)
	copy(out, valueTypes)
	out[len(valueTypes)] = ir.TypeInvalid
	return out
}

// GetNode returns the (possibly shared) node for opcode applied to
// operands, producing results of valueTypes (a trailing chain result
// is appended automatically for opcodes with HasChain()).
func (d *SelectionDAG) GetNode(opcode Opcode, valueTypes []ir.Type, operands []SDValue) SDValue {
	vts := withChain(valueTypes, opcode)
	key := fingerprint(opcode, vts, operands, nil)
	return d.intern(key, func() *SDNode {
		return &SDNode{opcode: opcode, operands: operands, valueTypes: vts}
	})
}

// GetSymNode returns a Symbol-carrying node (callee names, global
// addresses).
func (d *SelectionDAG) GetSymNode(opcode Opcode, valueTypes []ir.Type, operands []SDValue, symbol string) SDValue {
	vts := withChain(valueTypes, opcode)
	key := fingerprint(opcode, vts, operands, func(b *strings.Builder) { fmt.Fprintf(b, "sym:%s", symbol) })
	return d.intern(key, func() *SDNode {
		return &SDNode{opcode: opcode, operands: operands, valueTypes: vts, hasSymbol: true, symbol: symbol}
	})
}

// GetImmI32Node returns an immediate-i32-carrying node (used for
// OpConstI32 and, per original_source, OpLabel's label-number
// payload).
func (d *SelectionDAG) GetImmI32Node(opcode Opcode, valueTypes []ir.Type, operands []SDValue, imm int32) SDValue {
	vts := withChain(valueTypes, opcode)
	key := fingerprint(opcode, vts, operands, func(b *strings.Builder) { fmt.Fprintf(b, "immi:%d", imm) })
	return d.intern(key, func() *SDNode {
		return &SDNode{opcode: opcode, operands: operands, valueTypes: vts, hasImmI32: true, immI32: imm}
	})
}

// GetFrameIndexNode returns the FrameIndex node for a given stack
// slot. Alloca lowers directly to one of these: the slot itself has
// no runtime value, only an identity the frame-lowering pass later
// resolves to a concrete offset.
func (d *SelectionDAG) GetFrameIndexNode(index int, ptrType ir.Type) SDValue {
	key := fingerprint(OpFrameIndex, []ir.Type{ptrType}, nil, func(b *strings.Builder) { fmt.Fprintf(b, "fi:%d", index) })
	return d.intern(key, func() *SDNode {
		return &SDNode{opcode: OpFrameIndex, valueTypes: []ir.Type{ptrType}, hasFrameIndex: true, frameIndex: index}
	})
}

// GetRegNode returns the Register node referencing an IR virtual
// register. Interning here means every use of the same IR register
// within a block resolves to the same DAG node, which is exactly how
// SSA def-use reconstructs itself inside the DAG.
func (d *SelectionDAG) GetRegNode(reg ir.RegisterID, t ir.Type) SDValue {
	key := fingerprint(OpRegister, []ir.Type{t}, nil, func(b *strings.Builder) { fmt.Fprintf(b, "reg:%d", reg) })
	return d.intern(key, func() *SDNode {
		return &SDNode{opcode: OpRegister, valueTypes: []ir.Type{t}, hasIRReg: true, irReg: reg}
	})
}

// GetConstantI32 returns the i32 constant node for v.
func (d *SelectionDAG) GetConstantI32(v int32, t ir.Type) SDValue {
	return d.GetImmI32Node(OpConstI32, []ir.Type{t}, nil, v)
}

// GetConstantF32 returns the f32 constant node for v.
func (d *SelectionDAG) GetConstantF32(v float32, t ir.Type) SDValue {
	key := fingerprint(OpConstF32, []ir.Type{t}, nil, func(b *strings.Builder) { fmt.Fprintf(b, "immf:%g", v) })
	return d.intern(key, func() *SDNode {
		return &SDNode{opcode: OpConstF32, valueTypes: []ir.Type{t}, hasImmF32: true, immF32: v}
	})
}

// GetCmpNode returns an ICmp/FCmp node, which additionally carries a
// condition code outside the generic operand list.
func (d *SelectionDAG) GetCmpNode(opcode Opcode, lhs, rhs SDValue, intCond ir.IntCond, floatCond ir.FloatCond) SDValue {
	key := fingerprint(opcode, []ir.Type{ir.TypeI32}, []SDValue{lhs, rhs}, func(b *strings.Builder) {
		fmt.Fprintf(b, "cond:%d:%d", intCond, floatCond)
	})
	return d.intern(key, func() *SDNode {
		return &SDNode{
			opcode: opcode, operands: []SDValue{lhs, rhs}, valueTypes: []ir.Type{ir.TypeI32},
			intCond: intCond, floatCond: floatCond,
		}
	})
}
