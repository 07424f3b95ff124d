package search

import (
	"testing"
	"time"

	"example.com/backstage/services/distribution/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSummaryDocument(t *testing.T) {
	closedAt := time.Date(2025, 6, 12, 18, 30, 0, 0, time.UTC)
	delivery := &models.DailyDelivery{
		ID:                     42,
		DeliveryDate:           time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		VehicleID:              7,
		DriverID:               3,
		Status:                 models.DeliveryStatusClosed,
		ClosedAt:               &closedAt,
		CompletedInvoices:      11,
		PendingInvoices:        2,
		CashCollected:          30600,
		EmptyCylindersReturned: 25,
		CylindersDelivered:     28,
	}
	items := []models.DeliveryItemActual{
		{ProductID: 1, PlannedQuantity: 20, DeliveredQuantity: 20, PendingQuantity: 0, ItemStatus: models.ItemStatusCompleted},
		{ProductID: 2, PlannedQuantity: 10, DeliveredQuantity: 8, PendingQuantity: 2, ItemStatus: models.ItemStatusPartial},
	}

	doc := summaryDocument(delivery, items)

	require.Equal(t, uint(42), doc["delivery_id"])
	require.Equal(t, models.DeliveryStatusClosed, doc["status"])
	require.Equal(t, 30, doc["total_planned_quantity"])
	require.Equal(t, 28, doc["total_delivered_quantity"])
	require.Equal(t, 2, doc["total_pending_quantity"])
	require.Equal(t, &closedAt, doc["closed_at"])

	itemDocs, ok := doc["items"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, itemDocs, 2)
	require.Equal(t, models.ItemStatusCompleted, itemDocs[0]["status"])
	require.Equal(t, models.ItemStatusPartial, itemDocs[1]["status"])
	require.Equal(t, uint(2), itemDocs[1]["product_id"])
	require.Equal(t, 8, itemDocs[1]["delivered_quantity"])
}
