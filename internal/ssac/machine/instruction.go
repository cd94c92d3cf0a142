package machine

import (
	"fmt"
	"strings"
)

// InstKind identifies an MInstruction's operation. Values below
// KindTarget are the pseudo-instructions every target shares (Phi,
// Move, stack-slot load/store); the riscv64 package defines the
// concrete RISC-V opcodes starting at KindTarget.
type InstKind uint16

const (
	KindNop InstKind = iota
	KindPhi
	KindMove
	KindSelect
	KindFILoad
	KindFIStore
	KindTarget InstKind = 100
)

func (k InstKind) String() string {
	switch k {
	case KindNop:
		return "nop"
	case KindPhi:
		return "phi"
	case KindMove:
		return "move"
	case KindSelect:
		return "select"
	case KindFILoad:
		return "fiload"
	case KindFIStore:
		return "fistore"
	default:
		return fmt.Sprintf("target(%d)", k)
	}
}

// MInstruction is one Machine IR instruction. Like ir.Instruction and
// dag.SDNode, it is a flattened struct over every kind's payload: Kind
// determines which fields are meaningful. Target packages embed this
// type's Kind range (KindTarget and above) and add their own operand
// conventions on top (Operands/Defs/Uses cover every shape RISC-V
// lowering needs, so no riscv64-specific struct fields exist here).
type MInstruction struct {
	ID      uint32
	Kind    InstKind
	Comment string

	Defs []VReg
	Uses []VReg

	Operands []MOperand // immediates/frame indices/extra non-def-non-use operands, kind-dependent order

	// Phi-specific: predecessor block id -> incoming operand.
	PhiIncoming map[uint32]MOperand

	// FILoad/FIStore-specific.
	FrameIndex int
}

func NewNop(comment string) *MInstruction {
	return &MInstruction{Kind: KindNop, Comment: comment}
}

func NewPhi(res VReg) *MInstruction {
	return &MInstruction{Kind: KindPhi, Defs: []VReg{res}, PhiIncoming: map[uint32]MOperand{}}
}

func NewMove(dst VReg, src MOperand) *MInstruction {
	inst := &MInstruction{Kind: KindMove, Defs: []VReg{dst}, Operands: []MOperand{src}}
	if src.Kind() == OperandReg {
		inst.Uses = []VReg{src.Reg()}
	}
	return inst
}

// NewFILoad loads frameIndex's stack slot into dst — inserted by the
// register allocator on a spill reload, later expanded into a real
// Load instruction by stack lowering.
func NewFILoad(dst VReg, frameIndex int) *MInstruction {
	return &MInstruction{Kind: KindFILoad, Defs: []VReg{dst}, FrameIndex: frameIndex}
}

// NewFIStore spills src to frameIndex's stack slot.
func NewFIStore(src VReg, frameIndex int) *MInstruction {
	return &MInstruction{Kind: KindFIStore, Uses: []VReg{src}, FrameIndex: frameIndex}
}

func (i *MInstruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", i.Kind)
	for _, d := range i.Defs {
		fmt.Fprintf(&b, " %s=", d)
	}
	for _, u := range i.Uses {
		fmt.Fprintf(&b, " %s", u)
	}
	for _, o := range i.Operands {
		fmt.Fprintf(&b, " %s", o)
	}
	if i.Kind == KindFILoad || i.Kind == KindFIStore {
		fmt.Fprintf(&b, " fi%d", i.FrameIndex)
	}
	if i.Comment != "" {
		fmt.Fprintf(&b, " ; %s", i.Comment)
	}
	return b.String()
}
