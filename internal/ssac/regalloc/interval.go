// Package regalloc implements linear-scan register allocation over
// Machine IR: it assigns every virtual register a RISC-V64 physical
// register or, when registers run out, a stack spill slot, rewriting
// each MFunction's instructions in place.
package regalloc

import (
	"golang.org/x/exp/slices"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
)

// segment is one contiguous [start,end) range, in linearized
// instruction-position units, over which a register is live.
type segment struct {
	start, end int
}

// interval is one virtual register's complete liveness: the union of
// every segment it's live over, plus whatever the scan assigned it.
type interval struct {
	vreg machine.VReg

	segs        []segment
	crossesCall bool

	physReg machine.RealReg
	spilled bool
	spillFI int
}

func newInterval(v machine.VReg) *interval { return &interval{vreg: v} }

func (iv *interval) addSegment(s, e int) {
	if s >= e {
		return
	}
	iv.segs = append(iv.segs, segment{s, e})
}

// merge sorts and coalesces iv's segments, joining any that touch or
// overlap — the per-block backward construction produces one segment
// per block a vreg is live through, and two segments that abut exactly
// at a block boundary (this block's live-out end meets the successor's
// live-in start) represent one continuous interval, not two.
func (iv *interval) merge() {
	if len(iv.segs) == 0 {
		return
	}
	slices.SortFunc(iv.segs, func(a, b segment) int { return a.start - b.start })
	out := iv.segs[:1]
	for _, s := range iv.segs[1:] {
		last := &out[len(out)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	iv.segs = out
}

func (iv *interval) start() int { return iv.segs[0].start }
func (iv *interval) end() int   { return iv.segs[len(iv.segs)-1].end }

// overlaps reports whether pos falls inside any of iv's segments.
func (iv *interval) overlaps(pos int) bool {
	// segs is sorted and disjoint after merge(); a linear scan is fine
	// since real functions have only a handful of segments per vreg.
	for _, s := range iv.segs {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

func (iv *interval) crosses(callPoints []int) bool {
	for _, c := range callPoints {
		if iv.overlaps(c) {
			return true
		}
	}
	return false
}
