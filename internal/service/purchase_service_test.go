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

// Mock PurchaseRepository for testing
type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Save(ctx context.Context, entry *models.PurchaseEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetByID(ctx context.Context, id uint) (*models.PurchaseEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseEntry), args.Error(1)
}

func (m *MockPurchaseRepository) List(ctx context.Context) ([]models.PurchaseEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.PurchaseEntry), args.Error(1)
}

func (m *MockPurchaseRepository) SetActive(ctx context.Context, id uint, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// Mock StockRepository for testing
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) Register(ctx context.Context, productID *uint) ([]models.StockRegister, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]models.StockRegister), args.Error(1)
}

func (m *MockStockRepository) Summary(ctx context.Context) (*repository.StockSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.StockSummary), args.Error(1)
}

func (m *MockStockRepository) Transactions(ctx context.Context, filter repository.StockTransactionFilter) ([]models.StockTransaction, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.StockTransaction), args.Error(1)
}

func (m *MockStockRepository) Apply(ctx context.Context, txn *models.StockTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func validPurchase() *models.PurchaseEntry {
	return &models.PurchaseEntry{
		VendorID:     3,
		InvoiceNo:    "INV-2025-0042",
		PurchaseDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		IsActive:     true,
		Items: []models.PurchaseEntryItem{
			{ProductID: 1, Quantity: 50, UnitPrice: 850},
			{ProductID: 2, Quantity: 20, UnitPrice: 1200},
		},
	}
}

func TestSavePurchaseComputesTotals(t *testing.T) {
	purchaseRepo := new(MockPurchaseRepository)
	stockRepo := new(MockStockRepository)
	svc := &PurchaseService{purchaseRepo: purchaseRepo, stockRepo: stockRepo}

	entry := validPurchase()
	purchaseRepo.On("Save", mock.Anything, entry).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PurchaseEntry).ID = 7
	}).Return(nil)
	stockRepo.On("Apply", mock.Anything, mock.Anything).Return(nil)

	err := svc.SavePurchase(context.Background(), entry)

	require.NoError(t, err)
	require.Equal(t, 42500.0, entry.Items[0].LineTotal)
	require.Equal(t, 24000.0, entry.Items[1].LineTotal)
	require.Equal(t, 66500.0, entry.TotalAmount)
	purchaseRepo.AssertExpectations(t)
}

func TestSavePurchasePostsStockReceiptsOnCreate(t *testing.T) {
	purchaseRepo := new(MockPurchaseRepository)
	stockRepo := new(MockStockRepository)
	svc := &PurchaseService{purchaseRepo: purchaseRepo, stockRepo: stockRepo}

	entry := validPurchase()
	purchaseRepo.On("Save", mock.Anything, entry).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PurchaseEntry).ID = 7
	}).Return(nil)

	var receipts []*models.StockTransaction
	stockRepo.On("Apply", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		receipts = append(receipts, args.Get(1).(*models.StockTransaction))
	}).Return(nil)

	err := svc.SavePurchase(context.Background(), entry)

	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.Equal(t, models.StockTransactionPurchase, receipts[0].TransactionType)
	require.Equal(t, uint(1), receipts[0].ProductID)
	require.Equal(t, 50, receipts[0].FilledChange)
	require.Equal(t, 0, receipts[0].EmptyChange)
	require.NotNil(t, receipts[0].ReferenceID)
	require.Equal(t, uint(7), *receipts[0].ReferenceID)
	require.Equal(t, 20, receipts[1].FilledChange)
}

func TestSavePurchaseUpdateSkipsStockReceipts(t *testing.T) {
	purchaseRepo := new(MockPurchaseRepository)
	stockRepo := new(MockStockRepository)
	svc := &PurchaseService{purchaseRepo: purchaseRepo, stockRepo: stockRepo}

	entry := validPurchase()
	entry.ID = 7
	purchaseRepo.On("Save", mock.Anything, entry).Return(nil)

	err := svc.SavePurchase(context.Background(), entry)

	require.NoError(t, err)
	stockRepo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestSavePurchaseValidation(t *testing.T) {
	svc := &PurchaseService{}

	cases := []struct {
		name   string
		mutate func(*models.PurchaseEntry)
	}{
		{"missing vendor", func(e *models.PurchaseEntry) { e.VendorID = 0 }},
		{"missing invoice", func(e *models.PurchaseEntry) { e.InvoiceNo = "" }},
		{"missing date", func(e *models.PurchaseEntry) { e.PurchaseDate = time.Time{} }},
		{"no items", func(e *models.PurchaseEntry) { e.Items = nil }},
		{"zero quantity", func(e *models.PurchaseEntry) { e.Items[0].Quantity = 0 }},
		{"negative price", func(e *models.PurchaseEntry) { e.Items[1].UnitPrice = -1 }},
		{"missing product", func(e *models.PurchaseEntry) { e.Items[0].ProductID = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := validPurchase()
			tc.mutate(entry)

			err := svc.SavePurchase(context.Background(), entry)

			require.Error(t, err)
			require.True(t, IsValidationError(err))
		})
	}
}

func TestSetPurchaseActive(t *testing.T) {
	purchaseRepo := new(MockPurchaseRepository)
	svc := &PurchaseService{purchaseRepo: purchaseRepo}

	purchaseRepo.On("SetActive", mock.Anything, uint(7), false).Return(nil)

	err := svc.SetPurchaseActive(context.Background(), 7, false)

	require.NoError(t, err)
	purchaseRepo.AssertExpectations(t)
}
