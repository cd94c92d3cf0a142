package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameLayoutOrdersParamsLocalsThenSpills(t *testing.T) {
	var fi MFrameInfo
	fi.SetBaseOffset(0)
	fi.SetParamAreaSize(16)

	local := fi.CreateLocalObject(1, 8, 16)
	spill := fi.CreateSpillSlot(8, 8)

	total := fi.CalculateOffsets()

	require.Equal(t, 16, fi.Offset(local), "local must start right after the param area")
	require.Equal(t, 24, fi.Offset(spill), "spill slot follows the local")
	require.Equal(t, 0, total%16, "frame size must stay 16-byte aligned")
}

func TestFrameDistinctIndexSpacesNeverCollide(t *testing.T) {
	var fi MFrameInfo
	local := fi.CreateLocalObject(5, 8, 8)
	spill := fi.CreateSpillSlot(8, 8)
	incoming := fi.CreateIncomingStackParam(0)
	outgoing := fi.OutgoingArgSlot(0)

	require.NotEqual(t, local, spill)
	require.NotEqual(t, spill, incoming)
	require.NotEqual(t, incoming, outgoing)
}

func TestFrameOutgoingArgSlotStartsAtBaseOffset(t *testing.T) {
	var fi MFrameInfo
	fi.SetBaseOffset(112)
	slot0 := fi.OutgoingArgSlot(0)
	slot1 := fi.OutgoingArgSlot(1)
	fi.CalculateOffsets()

	require.Equal(t, 112, fi.Offset(slot0))
	require.Equal(t, 120, fi.Offset(slot1))
}

func TestFrameIncomingStackParamSitsAboveFrameTotal(t *testing.T) {
	var fi MFrameInfo
	fi.SetBaseOffset(0)
	p0 := fi.CreateIncomingStackParam(0)
	p1 := fi.CreateIncomingStackParam(1)

	local := fi.CreateLocalObject(1, 16, 16)
	total := fi.CalculateOffsets()

	require.Equal(t, total, fi.Offset(p0))
	require.Equal(t, total+8, fi.Offset(p1))
	require.Less(t, fi.Offset(local), fi.Offset(p0))
}

func TestSpillCountReflectsRequestedSlots(t *testing.T) {
	var fi MFrameInfo
	require.Equal(t, 0, fi.SpillCount())
	fi.CreateSpillSlot(8, 8)
	fi.CreateSpillSlot(8, 8)
	require.Equal(t, 2, fi.SpillCount())
}
