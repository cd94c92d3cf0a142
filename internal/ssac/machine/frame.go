package machine

// FrameObjectKind distinguishes the three reasons a stack slot exists
// (matching original_source's MFrameInfo::ObjectKind), purely for
// debug/introspection — layout treats them uniformly.
type FrameObjectKind uint8

const (
	FrameObjectLocal FrameObjectKind = iota
	FrameObjectSpill
	FrameObjectOutArg
)

type frameObject struct {
	size      int
	alignment int
	offset    int // -1 until calculateOffsets runs
	kind      FrameObjectKind
}

// MFrameInfo tracks a function's stack-frame layout: local variables
// (one per Alloca instruction selection lowers to a FrameIndex),
// spill slots the register allocator requests, and the outgoing
// argument area sized for the largest call this function makes. Frame
// lowering calls CalculateOffsets once, after register allocation, to
// turn every FrameIndex into a concrete SP-relative offset.
type MFrameInfo struct {
	locals     map[int]*frameObject // keyed by IR register id
	localOrder []int
	spills     []*frameObject
	// incoming holds stack-passed parameters (the 9th+ integer or
	// float argument): unlike locals/spills these sit ABOVE the whole
	// frame, at a fixed 8-byte stride starting right after the final
	// frame size, since the caller placed them there before the call.
	incoming   []*frameObject
	paramSize  int
	baseAlign  int
	baseOffset int
}

// incomingBase is the frameIndex of the first stack-passed parameter;
// chosen far below the spill range so the two id spaces never collide
// for any realistic function. outgoingBase is further below still, so
// the three negative ranges (spills, incoming params, outgoing call
// args) never overlap.
const incomingBase = -1_000_000
const outgoingBase = -2_000_000

// CreateIncomingStackParam registers the k'th (0-based) stack-passed
// parameter and returns its FrameIndex.
func (fi *MFrameInfo) CreateIncomingStackParam(k int) int {
	fi.init()
	for len(fi.incoming) <= k {
		fi.incoming = append(fi.incoming, &frameObject{size: 8, alignment: 8, offset: -1, kind: FrameObjectOutArg})
	}
	return incomingBase - k
}

// OutgoingArgSlot returns the FrameIndex of the k'th (0-based) stack
// slot in this function's own outgoing-call argument area — the 9th+
// register-class argument of a call this function makes. Unlike
// locals/spills, this area sits at the very bottom of the frame
// (offset baseOffset + k*8), so the callee can address the same bytes as its own
// incoming stack parameters. The caller must still grow the frame's
// param-area size (SetParamAreaSize) to cover every slot it uses.
func (fi *MFrameInfo) OutgoingArgSlot(k int) int {
	fi.init()
	return outgoingBase - k
}

func alignTo(v, a int) int { return (v + a - 1) &^ (a - 1) }

func (fi *MFrameInfo) init() {
	if fi.locals == nil {
		fi.locals = map[int]*frameObject{}
		fi.baseAlign = 16
	}
}

// CreateLocalObject registers irRegID's Alloca as a local variable of
// sizeBytes, returning its FrameIndex (the IR register id itself,
// matching original_source's irRegId-keyed map — reusing the IR
// register id as the FrameIndex means no separate counter is needed).
func (fi *MFrameInfo) CreateLocalObject(irRegID int, sizeBytes, alignment int) int {
	fi.init()
	if alignment < 16 {
		alignment = 16
	}
	if _, ok := fi.locals[irRegID]; !ok {
		fi.localOrder = append(fi.localOrder, irRegID)
	}
	fi.locals[irRegID] = &frameObject{size: sizeBytes, alignment: alignment, offset: -1, kind: FrameObjectLocal}
	return irRegID
}

// CreateSpillSlot allocates a new spill slot for the register
// allocator, returning a FrameIndex distinct from every local
// variable's (negative, to keep the two id spaces disjoint).
func (fi *MFrameInfo) CreateSpillSlot(sizeBytes, alignment int) int {
	fi.init()
	if alignment < 8 {
		alignment = 8
	}
	idx := len(fi.spills)
	fi.spills = append(fi.spills, &frameObject{size: sizeBytes, alignment: alignment, offset: -1, kind: FrameObjectSpill})
	return -(idx + 1)
}

func (fi *MFrameInfo) SetParamAreaSize(bytes int) {
	fi.init()
	aligned := alignTo(bytes, 16)
	if aligned > fi.paramSize {
		fi.paramSize = aligned
	}
}

func (fi *MFrameInfo) SetBaseOffset(off int) { fi.init(); fi.baseOffset = off }

// CalculateOffsets lays out the param area, then locals (in creation
// order), then spill slots, each aligned to its own requirement, and
// returns the frame's total size aligned to baseAlign.
func (fi *MFrameInfo) CalculateOffsets() int {
	fi.init()
	cur := fi.paramSize
	for _, id := range fi.localOrder {
		obj := fi.locals[id]
		cur = alignTo(cur, obj.alignment)
		obj.offset = cur
		cur += obj.size
	}
	for _, obj := range fi.spills {
		cur = alignTo(cur, obj.alignment)
		obj.offset = cur
		cur += obj.size
	}
	total := alignTo(cur, fi.baseAlign)
	for k, obj := range fi.incoming {
		obj.offset = total + k*8
	}
	return total
}

// SpillCount returns the number of spill slots the register allocator
// requested, for diagnostics (see ssacapi.DescribeFrame).
func (fi *MFrameInfo) SpillCount() int { fi.init(); return len(fi.spills) }

// Offset resolves a FrameIndex (as returned by CreateLocalObject or
// CreateSpillSlot) to its final SP-relative byte offset. Valid only
// after CalculateOffsets has run.
func (fi *MFrameInfo) Offset(frameIndex int) int {
	fi.init()
	switch {
	case frameIndex <= outgoingBase:
		return (outgoingBase-frameIndex)*8 + fi.baseOffset
	case frameIndex <= incomingBase:
		obj := fi.incoming[incomingBase-frameIndex]
		if obj.offset < 0 {
			return -1
		}
		return obj.offset + fi.baseOffset
	case frameIndex < 0:
		obj := fi.spills[-frameIndex-1]
		if obj.offset < 0 {
			return -1
		}
		return obj.offset + fi.baseOffset
	default:
		obj, ok := fi.locals[frameIndex]
		if !ok || obj.offset < 0 {
			return -1
		}
		return obj.offset + fi.baseOffset
	}
}
