package dag

import (
	"fmt"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// Builder lowers one ir.Function's blocks into a SelectionDAG apiece,
// threading a chain value through every side-effecting instruction
// (Load/Store/Call/Ret) so the instruction selector can later recover
// their program order. Pure (chain-free) instructions participate only
// in the ordinary data-dependence graph.
type Builder struct {
	regValues map[ir.RegisterID]SDValue // this block's register -> node cache
	allocas   map[ir.RegisterID]SDValue // alloca -> FrameIndex, reused across blocks of the same function
	chain     SDValue
}

// NewBuilder returns a Builder ready to lower every block of a single
// function (allocas are shared across the whole function, since a
// function-scoped stack slot is referenced from blocks other than the
// one holding its Alloca).
func NewBuilder() *Builder {
	return &Builder{allocas: map[ir.RegisterID]SDValue{}}
}

// Build lowers blk into a fresh SelectionDAG.
func (bd *Builder) Build(blk *ir.BasicBlock) *SelectionDAG {
	d := NewSelectionDAG()
	bd.regValues = make(map[ir.RegisterID]SDValue, len(bd.allocas))
	for r, v := range bd.allocas {
		bd.regValues[r] = d.GetFrameIndexNode(v.Node.FrameIndex(), v.Node.ValueType(0))
	}
	bd.chain = d.GetNode(OpEntryToken, nil, nil)

	for cur := blk.Root(); cur != nil; cur = cur.Next() {
		bd.lower(d, cur)
	}
	return d
}

func (bd *Builder) setDef(reg ir.Value, v SDValue) {
	if reg == nil {
		return
	}
	bd.regValues[reg.Register()] = v
}

// value resolves an ir.Value (register, immediate, global, or label)
// to its DAG node, creating Register/Const/Symbol/Label nodes on
// first use and caching registers so every later use of the same SSA
// value shares one node.
func (bd *Builder) value(d *SelectionDAG, v ir.Value, t ir.Type) SDValue {
	if v == nil {
		return SDValue{}
	}
	switch v.Kind() {
	case ir.OperandRegister:
		reg := v.Register()
		if existing, ok := bd.regValues[reg]; ok {
			return existing
		}
		node := d.GetRegNode(reg, t)
		bd.regValues[reg] = node
		return node
	case ir.OperandImmI32:
		return d.GetConstantI32(v.ImmI32(), ir.TypeI32)
	case ir.OperandImmF32:
		return d.GetConstantF32(v.ImmF32(), ir.TypeF32)
	case ir.OperandGlobal:
		return d.GetSymNode(OpSymbol, []ir.Type{ir.TypePtr}, nil, v.Global())
	case ir.OperandLabel:
		return d.GetImmI32Node(OpLabel, nil, nil, int32(v.Label()))
	default:
		panic(fmt.Sprintf("dag: unsupported operand kind %v", v.Kind()))
	}
}

func arithOpcode(op ir.Opcode) Opcode {
	switch op {
	case ir.OpAdd:
		return OpAdd
	case ir.OpSub:
		return OpSub
	case ir.OpMul:
		return OpMul
	case ir.OpDiv:
		return OpDiv
	case ir.OpMod:
		return OpMod
	case ir.OpShl:
		return OpShl
	case ir.OpAShr:
		return OpAShr
	case ir.OpLShr:
		return OpLShr
	case ir.OpAnd:
		return OpAnd
	case ir.OpOr:
		return OpOr
	case ir.OpXor:
		return OpXor
	case ir.OpFAdd:
		return OpFAdd
	case ir.OpFSub:
		return OpFSub
	case ir.OpFMul:
		return OpFMul
	case ir.OpFDiv:
		return OpFDiv
	default:
		panic(fmt.Sprintf("dag: %v is not an arithmetic opcode", op))
	}
}

func (bd *Builder) lower(d *SelectionDAG, inst *ir.Instruction) {
	switch inst.Opcode() {
	case ir.OpLoad:
		a, _ := inst.Args()
		ptr := bd.value(d, a, ir.TypePtr)
		node := d.GetNode(OpLoad, []ir.Type{inst.Type()}, []SDValue{bd.chain, ptr})
		bd.setDef(inst.Dst(), SDValue{Node: node.Node, ResNo: 0})
		bd.chain = node.Node.ChainResult()

	case ir.OpStore:
		val, ptr := inst.Args()
		valType := ir.TypeI32
		if v := bd.regValues[valIfReg(val)]; v.Valid() {
			valType = v.Node.ValueType(0)
		}
		valNode := bd.value(d, val, valType)
		ptrNode := bd.value(d, ptr, ir.TypePtr)
		node := d.GetNode(OpStore, nil, []SDValue{bd.chain, valNode, ptrNode})
		bd.chain = node

	case ir.OpAlloca:
		reg := inst.Dst().Register()
		fi := d.GetFrameIndexNode(int(reg), ir.TypePtr)
		bd.regValues[reg] = fi
		bd.allocas[reg] = fi

	case ir.OpGEP:
		bd.lowerGEP(d, inst)

	case ir.OpICmp:
		a, b := inst.Args()
		lhs, rhs := bd.value(d, a, ir.TypeI32), bd.value(d, b, ir.TypeI32)
		node := d.GetCmpNode(OpICmp, lhs, rhs, inst.IntCond(), 0)
		bd.setDef(inst.Dst(), node)

	case ir.OpFCmp:
		a, b := inst.Args()
		lhs, rhs := bd.value(d, a, ir.TypeF32), bd.value(d, b, ir.TypeF32)
		node := d.GetCmpNode(OpFCmp, lhs, rhs, 0, inst.FloatCond())
		bd.setDef(inst.Dst(), node)

	case ir.OpZExt, ir.OpSIToFP, ir.OpFPToSI:
		a, _ := inst.Args()
		srcType := ir.TypeI32
		if inst.Opcode() == ir.OpFPToSI {
			srcType = ir.TypeF32
		}
		src := bd.value(d, a, srcType)
		opc := map[ir.Opcode]Opcode{ir.OpZExt: OpZExt, ir.OpSIToFP: OpSIToFP, ir.OpFPToSI: OpFPToSI}[inst.Opcode()]
		node := d.GetNode(opc, []ir.Type{inst.Type()}, []SDValue{src})
		bd.setDef(inst.Dst(), node)

	case ir.OpBrCond:
		a, _ := inst.Args()
		cond := bd.value(d, a, ir.TypeI32)
		t, f := inst.BrTargets()
		tLabel, fLabel := bd.value(d, t, ir.TypeInvalid), bd.value(d, f, ir.TypeInvalid)
		d.GetNode(OpBrCond, nil, []SDValue{cond, tLabel, fLabel})

	case ir.OpBrUncond:
		target, _ := inst.BrTargets()
		tLabel := bd.value(d, target, ir.TypeInvalid)
		d.GetNode(OpBr, nil, []SDValue{tLabel})

	case ir.OpRet:
		val, _ := inst.Args()
		ops := []SDValue{bd.chain}
		if val != nil {
			t := ir.TypeI32
			if val.Kind() == ir.OperandRegister {
				if v := bd.regValues[val.Register()]; v.Valid() {
					t = v.Node.ValueType(0)
				}
			} else if val.Kind() == ir.OperandImmF32 {
				t = ir.TypeF32
			}
			ops = append(ops, bd.value(d, val, t))
		}
		d.GetNode(OpRet, nil, ops)

	case ir.OpCall:
		bd.lowerCall(d, inst)

	case ir.OpPhi:
		bd.lowerPhi(d, inst)

	default: // binary arithmetic
		bd.lowerArith(d, inst)
	}
}

func (bd *Builder) lowerArith(d *SelectionDAG, inst *ir.Instruction) {
	a, b := inst.Args()
	t := inst.Type()
	lhs, rhs := bd.value(d, a, t), bd.value(d, b, t)
	node := d.GetNode(arithOpcode(inst.Opcode()), []ir.Type{t}, []SDValue{lhs, rhs})
	bd.setDef(inst.Dst(), node)
}

// lowerGEP expands array-indexed addressing into an explicit sequence
// of Mul/Add nodes: for dims [d0, d1, ..., dn-1] and indices
// [i0, i1, ..., in-1], the byte offset is
// sum_k(i_k * suffixProduct(dims, k+1) * elemSize), matching a
// row-major C array layout.
func (bd *Builder) lowerGEP(d *SelectionDAG, inst *ir.Instruction) {
	a, _ := inst.Args()
	base := bd.value(d, a, ir.TypePtr)
	dims := inst.Dims()
	// every array element in this source language is a 4-byte i32 or
	// f32, so the stride computation below is independent of the
	// instruction's own (pointer) Type().
	const elemSize = 4

	suffix := make([]int, len(dims)+1)
	suffix[len(dims)] = 1
	for i := len(dims) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] * dims[i]
	}

	var offset SDValue
	for i, idxVal := range inst.Indices() {
		idx := bd.value(d, idxVal, ir.TypeI64)
		stride := elemSize
		if i < len(suffix)-1 {
			stride = suffix[i+1] * elemSize
		}
		strideNode := d.GetConstantI32(int32(stride), ir.TypeI64)
		mul := d.GetNode(OpMul, []ir.Type{ir.TypeI64}, []SDValue{idx, strideNode})
		if !offset.Valid() {
			offset = mul
		} else {
			offset = d.GetNode(OpAdd, []ir.Type{ir.TypeI64}, []SDValue{offset, mul})
		}
	}

	var result SDValue
	if offset.Valid() {
		result = d.GetNode(OpAdd, []ir.Type{ir.TypePtr}, []SDValue{base, offset})
	} else {
		result = base
	}
	bd.setDef(inst.Dst(), result)
}

func (bd *Builder) lowerCall(d *SelectionDAG, inst *ir.Instruction) {
	ops := []SDValue{bd.chain}
	ops = append(ops, d.GetSymNode(OpSymbol, []ir.Type{ir.TypePtr}, nil, inst.CallName()))
	for _, arg := range inst.CallArgs() {
		ops = append(ops, bd.value(d, arg.Val, arg.Type))
	}

	if inst.FuncRetType() != ir.TypeVoid && inst.Dst() != nil {
		node := d.GetNode(OpCall, []ir.Type{inst.FuncRetType()}, ops)
		bd.setDef(inst.Dst(), SDValue{Node: node.Node, ResNo: 0})
		bd.chain = node.Node.ChainResult()
		return
	}
	node := d.GetNode(OpCall, nil, ops)
	bd.chain = node
}

// lowerPhi carries a Phi's incoming (value, predecessor-label) pairs
// straight into a Phi DAG node; the instruction selector resolves
// these against the Machine IR block structure rather than the DAG
// stage attempting any control-flow reasoning of its own.
func (bd *Builder) lowerPhi(d *SelectionDAG, inst *ir.Instruction) {
	incoming, order := inst.PhiIncoming()
	t := inst.Type()
	var ops []SDValue
	for _, pred := range order {
		val := bd.value(d, incoming[pred], t)
		label := d.GetImmI32Node(OpLabel, nil, nil, int32(pred))
		ops = append(ops, val, label)
	}
	node := d.GetNode(OpPhi, []ir.Type{t}, ops)
	bd.setDef(inst.Dst(), node)
}

func valIfReg(v ir.Value) ir.RegisterID {
	if v != nil && v.Kind() == ir.OperandRegister {
		return v.Register()
	}
	return 0
}
