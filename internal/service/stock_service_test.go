package service

import (
	"context"
	"testing"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdjustStockBuildsAdjustmentTransaction(t *testing.T) {
	stockRepo := new(MockStockRepository)
	svc := &StockService{stockRepo: stockRepo}

	var applied *models.StockTransaction
	stockRepo.On("Apply", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		applied = args.Get(1).(*models.StockTransaction)
	}).Return(nil)

	txn, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		ProductID:     4,
		FilledChange:  -2,
		DamagedChange: 2,
		Remarks:       "two leaking valves",
		AdjustedBy:    "operator1",
	})

	require.NoError(t, err)
	require.Equal(t, applied, txn)
	require.Equal(t, models.StockTransactionAdjustment, txn.TransactionType)
	require.Equal(t, uint(4), txn.ProductID)
	require.Equal(t, -2, txn.FilledChange)
	require.Equal(t, 2, txn.DamagedChange)
	require.Equal(t, "operator1", txn.CreatedBy)
}

func TestAdjustStockValidation(t *testing.T) {
	svc := &StockService{}

	cases := []struct {
		name string
		req  AdjustStockRequest
	}{
		{"missing product", AdjustStockRequest{FilledChange: 1}},
		{"all changes zero", AdjustStockRequest{ProductID: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AdjustStock(context.Background(), tc.req)

			require.Error(t, err)
			require.True(t, IsValidationError(err))
		})
	}
}

func TestAdjustStockInsufficientStock(t *testing.T) {
	stockRepo := new(MockStockRepository)
	svc := &StockService{stockRepo: stockRepo}

	stockRepo.On("Apply", mock.Anything, mock.Anything).Return(repository.ErrInsufficientStock)

	_, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		ProductID:    4,
		FilledChange: -100,
	})

	require.ErrorIs(t, err, repository.ErrInsufficientStock)
}

func TestGetTransactionsPassesFilter(t *testing.T) {
	stockRepo := new(MockStockRepository)
	svc := &StockService{stockRepo: stockRepo}

	productID := uint(4)
	txnType := models.StockTransactionPurchase
	filter := repository.StockTransactionFilter{ProductID: &productID, TransactionType: &txnType}
	stockRepo.On("Transactions", mock.Anything, filter).Return([]models.StockTransaction{
		{ID: 1, ProductID: 4, TransactionType: txnType, FilledChange: 50},
	}, nil)

	txns, err := svc.GetTransactions(context.Background(), filter)

	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.Equal(t, 50, txns[0].FilledChange)
	stockRepo.AssertExpectations(t)
}

func TestStockRegisterTotal(t *testing.T) {
	row := models.StockRegister{FilledStock: 120, EmptyStock: 45, DamagedStock: 3}

	require.Equal(t, 168, row.TotalStock())
}
