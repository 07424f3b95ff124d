package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputePendingQuantity(t *testing.T) {
	tests := []struct {
		name      string
		planned   int
		delivered int
		pending   int
	}{
		{"nothing delivered", 20, 0, 20},
		{"partially delivered", 20, 12, 8},
		{"fully delivered", 20, 20, 0},
		{"over-delivered clamps to zero", 20, 25, 0},
		{"zero planned", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.pending, ComputePendingQuantity(tt.planned, tt.delivered))
		})
	}
}

func TestDeriveItemStatus(t *testing.T) {
	tests := []struct {
		name      string
		delivered int
		pending   int
		status    ItemStatus
	}{
		{"untouched line", 0, 20, ItemStatusPending},
		{"partial line", 12, 8, ItemStatusPartial},
		{"completed line", 20, 0, ItemStatusCompleted},
		{"completed with zero planned", 0, 0, ItemStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.status, DeriveItemStatus(tt.delivered, tt.pending))
		})
	}
}

func TestDeriveItemStatusAgreesWithPendingDerivation(t *testing.T) {
	// Status derived from a freshly recomputed pending quantity matches the
	// documented table for representative planned/delivered pairs.
	item := DeliveryItemActual{PlannedQuantity: 20}

	item.DeliveredQuantity = 20
	item.PendingQuantity = ComputePendingQuantity(item.PlannedQuantity, item.DeliveredQuantity)
	require.Equal(t, 0, item.PendingQuantity)
	require.Equal(t, ItemStatusCompleted, DeriveItemStatus(item.DeliveredQuantity, item.PendingQuantity))

	item.DeliveredQuantity = 12
	item.PendingQuantity = ComputePendingQuantity(item.PlannedQuantity, item.DeliveredQuantity)
	require.Equal(t, 8, item.PendingQuantity)
	require.Equal(t, ItemStatusPartial, DeriveItemStatus(item.DeliveredQuantity, item.PendingQuantity))
}

func TestRemainingQuantity(t *testing.T) {
	require.Equal(t, 50, RemainingQuantity(50, 0))
	require.Equal(t, 15, RemainingQuantity(50, 35))
	require.Equal(t, 0, RemainingQuantity(50, 50))
}
