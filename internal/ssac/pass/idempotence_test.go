package pass

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// instSnapshot captures one instruction's structural shape for the
// round-trip comparisons below: RawReg is the literal register id this
// particular build happened to assign its destination, which a
// renumbered build of "the same" function has no reason to share, so
// it is excluded via cmpopts.IgnoreFields where that's the point of
// the comparison. Canonical and ArgCanonical are first-appearance-order
// indices, stable across renumbering, and are what actually stands in
// for "structurally identical".
type instSnapshot struct {
	Block        ir.BlockID
	Opcode       ir.Opcode
	RawReg       ir.RegisterID
	Canonical    int
	ArgCanonical [2]int
}

func snapshotFunction(f *ir.Function) []instSnapshot {
	canon := map[ir.RegisterID]int{}
	canonOf := func(v ir.Value) int {
		if v == nil || v.Kind() != ir.OperandRegister {
			return -1
		}
		id := v.Register()
		if n, ok := canon[id]; ok {
			return n
		}
		n := len(canon)
		canon[id] = n
		return n
	}

	var out []instSnapshot
	for _, b := range f.Blocks() {
		if !b.Valid() {
			continue
		}
		for cur := b.Root(); cur != nil; cur = cur.Next() {
			a, bArg := cur.Args()
			snap := instSnapshot{
				Block:        b.ID(),
				Opcode:       cur.Opcode(),
				ArgCanonical: [2]int{canonOf(a), canonOf(bArg)},
			}
			if d := cur.Dst(); d != nil {
				snap.RawReg = d.Register()
				snap.Canonical = canonOf(d)
			} else {
				snap.Canonical = -1
			}
			out = append(out, snap)
		}
	}
	return out
}

// buildConstFoldFixture builds:
//
//	f(n i32) -> i32 { t = 2 + 3; u = t + n; ret u }
//
// t folds to a compile-time constant, but u stays Overdefined because
// n is a parameter — exercising both "SCCP folds a constant" and
// "SCCP seeds parameters Overdefined" in one fixture. When
// shiftRegisters is true, one throwaway register is allocated
// before t and u so their raw ids differ from the unshifted build
// while the function remains structurally identical.
func buildConstFoldFixture(t *testing.T, shiftRegisters bool) (*ir.Module, *ir.Function) {
	t.Helper()
	m := ir.NewModule()
	f := m.DeclareFunction("constfold", ir.TypeI32, []ir.Type{ir.TypeI32})
	n := f.Params[0].Reg

	entry := f.AddBlock()
	if shiftRegisters {
		f.AllocateRegister(ir.TypeI32)
	}

	c := f.Binary(entry, ir.OpAdd, m.Operands.ImmI32(2), m.Operands.ImmI32(3), ir.TypeI32)
	u := f.Binary(entry, ir.OpAdd, c, n, ir.TypeI32)
	f.Ret(entry, u)

	return m, f
}

func TestSCCPIsIdempotent(t *testing.T) {
	_, f := buildConstFoldFixture(t, false)

	require.True(t, SCCP(f), "first SCCP run should fold the constant add and rewrite its use")
	snap1 := snapshotFunction(f)

	require.False(t, SCCP(f), "a second SCCP run over already-converged IR must find nothing left to do")
	snap2 := snapshotFunction(f)

	if diff := cmp.Diff(snap1, snap2); diff != "" {
		t.Fatalf("SCCP was not idempotent (-first run, +second run):\n%s", diff)
	}
}

// TestSCCPOutputStructurallyIdenticalModuloRenumbering builds the same
// program twice, once with its internal registers shifted up by one
// id, runs SCCP on both, and asserts the results are identical once
// raw register identity is ignored: two builds of "the same" program
// should converge to structurally identical IR regardless of which
// raw register ids they happened to assign internally. Applied to
// SCCP's output directly since textual IR emission/parsing is out of
// scope (see SPEC_FULL.md Non-goals) and so isn't itself a round trip
// this module can drive.
func TestSCCPOutputStructurallyIdenticalModuloRenumbering(t *testing.T) {
	_, fA := buildConstFoldFixture(t, false)
	_, fB := buildConstFoldFixture(t, true)

	SCCP(fA)
	SCCP(fB)

	snapA := snapshotFunction(fA)
	snapB := snapshotFunction(fB)

	require.NotEqual(t, snapA[0].RawReg, snapB[0].RawReg,
		"fixture setup bug: the shifted build should actually assign different raw ids")

	opts := cmpopts.IgnoreFields(instSnapshot{}, "RawReg")
	if diff := cmp.Diff(snapA, snapB, opts); diff != "" {
		t.Fatalf("structurally identical programs diverged after renumbering (-unshifted +shifted):\n%s", diff)
	}
}
