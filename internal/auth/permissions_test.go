package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasCapabilityAllBitShortCircuits(t *testing.T) {
	// Any mask carrying the All bit grants everything, regardless of other bits.
	for _, mask := range []int{16, 17, 24, 31, 16 | 2} {
		require.True(t, HasCapability(mask, CapabilityView), "mask %d", mask)
		require.True(t, HasCapability(mask, CapabilityCreate), "mask %d", mask)
		require.True(t, HasCapability(mask, CapabilityUpdate), "mask %d", mask)
		require.True(t, HasCapability(mask, CapabilityDelete), "mask %d", mask)
	}
}

func TestHasCapabilityPerBit(t *testing.T) {
	caps := []Capability{CapabilityView, CapabilityCreate, CapabilityUpdate, CapabilityDelete}

	// Without the All bit the check is exact bit containment.
	for mask := 0; mask < 16; mask++ {
		for _, c := range caps {
			expected := mask&int(c) == int(c)
			require.Equal(t, expected, HasCapability(mask, c), "mask %d cap %d", mask, c)
		}
	}
}

func TestHasCapabilityZeroMask(t *testing.T) {
	require.False(t, HasCapability(0, CapabilityView))
	require.False(t, HasCapability(0, CapabilityDelete))
}

func TestMaskFromFlags(t *testing.T) {
	require.Equal(t, 0, MaskFromFlags(false, false, false, false))
	require.Equal(t, 1, MaskFromFlags(true, false, false, false))
	require.Equal(t, 5, MaskFromFlags(true, false, true, false))
	require.Equal(t, 15, MaskFromFlags(true, true, true, true))
}

func TestPermissionSetLookup(t *testing.T) {
	set := NewPermissionSet([]ResourcePermission{
		{ResourceKey: "Users", PermissionMask: 5}, // View + Update
	})

	require.Equal(t, 5, set.MaskFor("Users"))
	require.True(t, set.Has("Users", CapabilityView))
	require.True(t, set.Has("Users", CapabilityUpdate))
	require.False(t, set.Has("Users", CapabilityCreate))
	require.False(t, set.Has("Users", CapabilityDelete))
}

func TestPermissionSetFailClosed(t *testing.T) {
	set := NewPermissionSet(nil)
	require.Equal(t, 0, set.MaskFor("DailyDelivery"))
	require.False(t, set.Has("DailyDelivery", CapabilityView))

	var nilSet *PermissionSet
	require.Equal(t, 0, nilSet.MaskFor("anything"))
}

func TestPermissionSetClear(t *testing.T) {
	set := NewPermissionSet([]ResourcePermission{{ResourceKey: "Products", PermissionMask: 15}})
	require.True(t, set.Has("Products", CapabilityDelete))

	set.Clear()
	require.False(t, set.Has("Products", CapabilityView))
	require.Equal(t, 0, set.MaskFor("Products"))
}

func TestPermissionSetSerializationRoundTrip(t *testing.T) {
	set := NewPermissionSet([]ResourcePermission{
		{ResourceKey: "DailyDelivery", PermissionMask: 15},
		{ResourceKey: "Dashboard", PermissionMask: 1},
	})

	data, err := json.Marshal(set)
	require.NoError(t, err)

	restored := NewPermissionSet(nil)
	require.NoError(t, json.Unmarshal(data, restored))

	require.Equal(t, 15, restored.MaskFor("DailyDelivery"))
	require.Equal(t, 1, restored.MaskFor("Dashboard"))
	require.Equal(t, 0, restored.MaskFor("Users"))
}
