package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVRegPacksIDAndRegType(t *testing.T) {
	v := NewVReg(7, RegTypeFloat)
	require.Equal(t, VRegID(7), v.ID())
	require.Equal(t, RegTypeFloat, v.RegType())
	require.False(t, v.IsRealReg())
}

func TestWithRealRegPreservesIDAndRegType(t *testing.T) {
	v := NewVReg(42, RegTypeInt)
	assigned := v.WithRealReg(5)

	require.True(t, assigned.IsRealReg())
	require.Equal(t, RealReg(5), assigned.RealReg())
	require.Equal(t, VRegID(42), assigned.ID())
	require.Equal(t, RegTypeInt, assigned.RegType())
}

func TestFromRealRegRoundTrips(t *testing.T) {
	r := FromRealReg(10, RegTypeInt)
	require.True(t, r.IsRealReg())
	require.Equal(t, RealReg(10), r.RealReg())
}

func TestVRegAllocatorHandsOutDistinctIDs(t *testing.T) {
	var a VRegAllocator
	v1 := a.New(RegTypeInt)
	v2 := a.New(RegTypeInt)
	require.NotEqual(t, v1.ID(), v2.ID())
	require.Equal(t, VRegID(0), v1.ID())
	require.Equal(t, VRegID(1), v2.ID())
}

func TestVRegInvalidIsNotValid(t *testing.T) {
	require.False(t, VRegInvalid.Valid())
}
