package service

import (
	"context"

	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdjustStockRequest is a manual correction to one product's stock levels
type AdjustStockRequest struct {
	ProductID     uint   `json:"productId" binding:"required"`
	FilledChange  int    `json:"filledChange"`
	EmptyChange   int    `json:"emptyChange"`
	DamagedChange int    `json:"damagedChange"`
	Remarks       string `json:"remarks"`
	AdjustedBy    string `json:"adjustedBy"`
}

// StockService maintains the cylinder stock register and its transaction
// ledger
type StockService struct {
	stockRepo repository.StockRepository
	metrics   *metrics.Metrics
}

// NewStockService creates a new stock service
func NewStockService(db, readOnlyDB *gorm.DB, m *metrics.Metrics) *StockService {
	return &StockService{
		stockRepo: repository.NewStockRepository(db, readOnlyDB),
		metrics:   m,
	}
}

// GetRegister lists the stock register, optionally for a single product
func (s *StockService) GetRegister(ctx context.Context, productID *uint) ([]models.StockRegister, error) {
	return s.stockRepo.Register(ctx, productID)
}

// GetSummary aggregates the register into plant-wide totals
func (s *StockService) GetSummary(ctx context.Context) (*repository.StockSummary, error) {
	return s.stockRepo.Summary(ctx)
}

// GetTransactions lists stock movements matching the filter
func (s *StockService) GetTransactions(ctx context.Context, filter repository.StockTransactionFilter) ([]models.StockTransaction, error) {
	return s.stockRepo.Transactions(ctx, filter)
}

// AdjustStock applies a manual stock correction. At least one level change
// must be non-zero, and a change that would drive any level negative is
// rejected without mutating the register.
func (s *StockService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*models.StockTransaction, error) {
	if req.ProductID == 0 {
		return nil, NewValidationError("productId is required")
	}
	if req.FilledChange == 0 && req.EmptyChange == 0 && req.DamagedChange == 0 {
		return nil, NewValidationError("at least one stock change must be non-zero")
	}

	txn := &models.StockTransaction{
		ProductID:       req.ProductID,
		TransactionType: models.StockTransactionAdjustment,
		FilledChange:    req.FilledChange,
		EmptyChange:     req.EmptyChange,
		DamagedChange:   req.DamagedChange,
		Remarks:         req.Remarks,
		CreatedBy:       req.AdjustedBy,
	}

	if err := s.stockRepo.Apply(ctx, txn); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			s.count(metrics.CounterStockRejected)
			return nil, err
		}
		return nil, err
	}

	s.count(metrics.CounterStockAdjustments)
	log.Info().
		Uint("product_id", req.ProductID).
		Int("filled_change", req.FilledChange).
		Int("empty_change", req.EmptyChange).
		Int("damaged_change", req.DamagedChange).
		Msg("stock adjusted")
	return txn, nil
}

func (s *StockService) count(name string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(name)
	}
}
