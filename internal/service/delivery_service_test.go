package service

import (
	"context"
	"testing"
	"time"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock DeliveryRepository for testing
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) CreateWithItems(ctx context.Context, delivery *models.DailyDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockDeliveryRepository) GetByID(ctx context.Context, id uint) (*models.DailyDelivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyDelivery), args.Error(1)
}

func (m *MockDeliveryRepository) List(ctx context.Context, filter repository.DeliveryFilter) ([]models.DailyDelivery, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.DailyDelivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindOpen(ctx context.Context, olderThan *time.Time) ([]models.DailyDelivery, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).([]models.DailyDelivery), args.Error(1)
}

func (m *MockDeliveryRepository) InitializeActuals(ctx context.Context, deliveryID uint) (int, error) {
	args := m.Called(ctx, deliveryID)
	return args.Int(0), args.Error(1)
}

func (m *MockDeliveryRepository) GetActuals(ctx context.Context, deliveryID uint) ([]models.DeliveryItemActual, error) {
	args := m.Called(ctx, deliveryID)
	return args.Get(0).([]models.DeliveryItemActual), args.Error(1)
}

func (m *MockDeliveryRepository) SaveActuals(ctx context.Context, deliveryID uint, actuals []models.DeliveryItemActual) error {
	args := m.Called(ctx, deliveryID, actuals)
	return args.Error(0)
}

func (m *MockDeliveryRepository) CloseDelivery(ctx context.Context, delivery *models.DailyDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockDeliveryRepository) UpdateMetrics(ctx context.Context, delivery *models.DailyDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func validDelivery() *models.DailyDelivery {
	return &models.DailyDelivery{
		DeliveryDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		VehicleID:    7,
		DriverID:     3,
		StartTime:    "06:30",
		Items: []models.DeliveryItem{
			{ProductID: 1, NoOfCylinders: 20},
			{ProductID: 2, NoOfCylinders: 10},
		},
	}
}

func TestCreateDelivery(t *testing.T) {
	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.DailyDelivery")).Return(nil)

	service := &DeliveryService{deliveryRepo: mockRepo}

	delivery := validDelivery()
	err := service.CreateDelivery(context.Background(), delivery)

	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusOpen, delivery.Status)
	mockRepo.AssertExpectations(t)
}

func TestCreateDeliveryOpenConflict(t *testing.T) {
	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("CreateWithItems", mock.Anything, mock.Anything).Return(repository.ErrOpenDeliveryExists)

	service := &DeliveryService{deliveryRepo: mockRepo}

	err := service.CreateDelivery(context.Background(), validDelivery())

	require.ErrorIs(t, err, repository.ErrOpenDeliveryExists)
	mockRepo.AssertExpectations(t)
}

func TestCreateDeliveryValidation(t *testing.T) {
	mockRepo := new(MockDeliveryRepository)
	service := &DeliveryService{deliveryRepo: mockRepo}

	tests := []struct {
		name   string
		mutate func(*models.DailyDelivery)
	}{
		{"missing vehicle", func(d *models.DailyDelivery) { d.VehicleID = 0 }},
		{"missing driver", func(d *models.DailyDelivery) { d.DriverID = 0 }},
		{"missing date", func(d *models.DailyDelivery) { d.DeliveryDate = time.Time{} }},
		{"missing start time", func(d *models.DailyDelivery) { d.StartTime = "" }},
		{"no items", func(d *models.DailyDelivery) { d.Items = nil }},
		{"zero quantity item", func(d *models.DailyDelivery) { d.Items[0].NoOfCylinders = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			delivery := validDelivery()
			tc.mutate(delivery)

			err := service.CreateDelivery(context.Background(), delivery)

			require.Error(t, err)
			require.True(t, IsValidationError(err))
		})
	}

	// No repository calls on validation failures.
	mockRepo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
}

func TestUpdateItemActualsRecomputes(t *testing.T) {
	existing := []models.DeliveryItemActual{
		{DeliveryID: 5, ProductID: 1, PlannedQuantity: 20, PendingQuantity: 20, ItemStatus: models.ItemStatusPending, UnitPrice: 1200},
		{DeliveryID: 5, ProductID: 2, PlannedQuantity: 10, PendingQuantity: 10, ItemStatus: models.ItemStatusPending, UnitPrice: 900},
		{DeliveryID: 5, ProductID: 3, PlannedQuantity: 8, PendingQuantity: 8, ItemStatus: models.ItemStatusPending, UnitPrice: 450},
	}

	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("GetActuals", mock.Anything, uint(5)).Return(existing, nil)
	mockRepo.On("SaveActuals", mock.Anything, uint(5), mock.Anything).Return(nil)
	mockRepo.On("UpdateMetrics", mock.Anything, mock.Anything).Return(nil)

	service := &DeliveryService{deliveryRepo: mockRepo}

	updates := []ActualUpdate{
		{ProductID: 1, DeliveredQuantity: 12, CashCollected: 14400},
		{ProductID: 2, DeliveredQuantity: 10, CashCollected: 9000},
		{ProductID: 3, DeliveredQuantity: 9}, // over-delivered
	}

	recomputed, err := service.UpdateItemActuals(context.Background(), 5, updates)
	require.NoError(t, err)
	require.Len(t, recomputed, 3)

	byProduct := map[uint]models.DeliveryItemActual{}
	for _, row := range recomputed {
		byProduct[row.ProductID] = row
	}

	require.Equal(t, 8, byProduct[1].PendingQuantity)
	require.Equal(t, models.ItemStatusPartial, byProduct[1].ItemStatus)
	require.Equal(t, float64(12*1200), byProduct[1].TotalAmount)

	require.Equal(t, 0, byProduct[2].PendingQuantity)
	require.Equal(t, models.ItemStatusCompleted, byProduct[2].ItemStatus)

	// Over-delivery clamps pending at zero instead of going negative.
	require.Equal(t, 0, byProduct[3].PendingQuantity)
	require.Equal(t, models.ItemStatusCompleted, byProduct[3].ItemStatus)

	mockRepo.AssertExpectations(t)
}

func TestUpdateItemActualsRejectsNegative(t *testing.T) {
	existing := []models.DeliveryItemActual{
		{DeliveryID: 5, ProductID: 1, PlannedQuantity: 20, PendingQuantity: 20},
	}

	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("GetActuals", mock.Anything, uint(5)).Return(existing, nil)

	service := &DeliveryService{deliveryRepo: mockRepo}

	_, err := service.UpdateItemActuals(context.Background(), 5, []ActualUpdate{
		{ProductID: 1, DeliveredQuantity: -3},
	})

	require.Error(t, err)
	require.True(t, IsValidationError(err))
	mockRepo.AssertNotCalled(t, "SaveActuals", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateItemActualsUnknownProduct(t *testing.T) {
	existing := []models.DeliveryItemActual{
		{DeliveryID: 5, ProductID: 1, PlannedQuantity: 20, PendingQuantity: 20},
	}

	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("GetActuals", mock.Anything, uint(5)).Return(existing, nil)

	service := &DeliveryService{deliveryRepo: mockRepo}

	_, err := service.UpdateItemActuals(context.Background(), 5, []ActualUpdate{
		{ProductID: 42, DeliveredQuantity: 1},
	})

	require.Error(t, err)
	require.True(t, IsValidationError(err))
}

func TestUpdateItemActualsClosedDelivery(t *testing.T) {
	existing := []models.DeliveryItemActual{
		{DeliveryID: 5, ProductID: 1, PlannedQuantity: 20, PendingQuantity: 20},
	}

	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("GetActuals", mock.Anything, uint(5)).Return(existing, nil)
	mockRepo.On("SaveActuals", mock.Anything, uint(5), mock.Anything).Return(repository.ErrDeliveryClosed)

	service := &DeliveryService{deliveryRepo: mockRepo}

	_, err := service.UpdateItemActuals(context.Background(), 5, []ActualUpdate{
		{ProductID: 1, DeliveredQuantity: 4},
	})

	require.ErrorIs(t, err, repository.ErrDeliveryClosed)
}

func TestCloseDeliveryAggregates(t *testing.T) {
	existing := []models.DeliveryItemActual{
		{DeliveryID: 9, ProductID: 1, PlannedQuantity: 20, PendingQuantity: 20, UnitPrice: 1200},
		{DeliveryID: 9, ProductID: 2, PlannedQuantity: 10, PendingQuantity: 10, UnitPrice: 900},
	}

	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("GetActuals", mock.Anything, uint(9)).Return(existing, nil)
	mockRepo.On("SaveActuals", mock.Anything, uint(9), mock.Anything).Return(nil)

	var closed *models.DailyDelivery
	mockRepo.On("CloseDelivery", mock.Anything, mock.AnythingOfType("*models.DailyDelivery")).
		Run(func(args mock.Arguments) {
			closed = args.Get(1).(*models.DailyDelivery)
		}).
		Return(nil)
	mockRepo.On("GetByID", mock.Anything, uint(9)).Return(&models.DailyDelivery{
		ID:     9,
		Status: models.DeliveryStatusClosed,
	}, nil)

	service := &DeliveryService{deliveryRepo: mockRepo}

	result, err := service.CloseDelivery(context.Background(), 9, &CloseDeliveryRequest{
		ReturnTime:             "18:45",
		CompletedInvoices:      14,
		PendingInvoices:        2,
		EmptyCylindersReturned: 25,
		Items: []ActualUpdate{
			{ProductID: 1, DeliveredQuantity: 18, CashCollected: 21600},
			{ProductID: 2, DeliveredQuantity: 10, CashCollected: 9000},
		},
	})

	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusClosed, result.Status)

	require.NotNil(t, closed)
	require.Equal(t, 28, closed.CylindersDelivered)
	require.Equal(t, float64(30600), closed.CashCollected)
	require.Equal(t, 14, closed.CompletedInvoices)
	require.Equal(t, 2, closed.PendingInvoices)
	require.Equal(t, 25, closed.EmptyCylindersReturned)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ReturnTime)
	require.Equal(t, "18:45", *closed.ReturnTime)

	mockRepo.AssertExpectations(t)
}

func TestCloseDeliveryAlreadyClosed(t *testing.T) {
	existing := []models.DeliveryItemActual{
		{DeliveryID: 9, ProductID: 1, PlannedQuantity: 20},
	}

	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("GetActuals", mock.Anything, uint(9)).Return(existing, nil)
	mockRepo.On("CloseDelivery", mock.Anything, mock.Anything).Return(repository.ErrDeliveryClosed)

	service := &DeliveryService{deliveryRepo: mockRepo}

	_, err := service.CloseDelivery(context.Background(), 9, &CloseDeliveryRequest{})

	require.ErrorIs(t, err, repository.ErrDeliveryClosed)
}

func TestRecomputeOpenDeliveryMetrics(t *testing.T) {
	open := []models.DailyDelivery{{ID: 1}, {ID: 2}}
	actuals1 := []models.DeliveryItemActual{
		{DeliveryID: 1, ProductID: 1, PlannedQuantity: 10, DeliveredQuantity: 10, ItemStatus: models.ItemStatusCompleted, CashCollected: 5000},
	}

	mockRepo := new(MockDeliveryRepository)
	mockRepo.On("FindOpen", mock.Anything, (*time.Time)(nil)).Return(open, nil)
	mockRepo.On("GetActuals", mock.Anything, uint(1)).Return(actuals1, nil)
	mockRepo.On("GetActuals", mock.Anything, uint(2)).Return([]models.DeliveryItemActual{}, nil)

	var updated *models.DailyDelivery
	mockRepo.On("UpdateMetrics", mock.Anything, mock.AnythingOfType("*models.DailyDelivery")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*models.DailyDelivery)
		}).
		Return(nil)

	service := &DeliveryService{deliveryRepo: mockRepo}

	err := service.RecomputeOpenDeliveryMetrics(context.Background())
	require.NoError(t, err)

	// Delivery 2 has no actuals yet, so only delivery 1 is refreshed.
	require.NotNil(t, updated)
	require.Equal(t, uint(1), updated.ID)
	require.Equal(t, 1, updated.CompletedInvoices)
	require.Equal(t, float64(5000), updated.CashCollected)
	require.Equal(t, 10, updated.CylindersDelivered)

	mockRepo.AssertExpectations(t)
}
