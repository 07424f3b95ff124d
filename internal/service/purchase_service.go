package service

import (
	"context"
	"fmt"

	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PurchaseService records vendor purchase invoices and posts the received
// cylinders into the stock register
type PurchaseService struct {
	purchaseRepo repository.PurchaseRepository
	stockRepo    repository.StockRepository
	metrics      *metrics.Metrics
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(db, readOnlyDB *gorm.DB, m *metrics.Metrics) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: repository.NewPurchaseRepository(db, readOnlyDB),
		stockRepo:    repository.NewStockRepository(db, readOnlyDB),
		metrics:      m,
	}
}

// SavePurchase validates and persists a purchase entry. Line totals and the
// header total are always recomputed server-side. A newly created entry posts
// one Purchase stock receipt per item line; edits leave the stock ledger
// untouched so corrections go through explicit adjustments.
func (s *PurchaseService) SavePurchase(ctx context.Context, entry *models.PurchaseEntry) error {
	if entry.VendorID == 0 {
		return NewValidationError("vendorId is required")
	}
	if entry.InvoiceNo == "" {
		return NewValidationError("invoiceNo is required")
	}
	if entry.PurchaseDate.IsZero() {
		return NewValidationError("purchaseDate is required")
	}
	if len(entry.Items) == 0 {
		return NewValidationError("at least one item is required")
	}
	for i := range entry.Items {
		if entry.Items[i].ProductID == 0 {
			return NewValidationError("items[%d].productId is required", i)
		}
		if entry.Items[i].Quantity <= 0 {
			return NewValidationError("items[%d].qty must be positive", i)
		}
		if entry.Items[i].UnitPrice < 0 {
			return NewValidationError("items[%d].unitPrice must not be negative", i)
		}
	}

	total := 0.0
	for i := range entry.Items {
		entry.Items[i].LineTotal = float64(entry.Items[i].Quantity) * entry.Items[i].UnitPrice
		total += entry.Items[i].LineTotal
	}
	entry.TotalAmount = total

	isNew := entry.ID == 0
	if err := s.purchaseRepo.Save(ctx, entry); err != nil {
		return err
	}

	if isNew {
		for i := range entry.Items {
			receipt := models.StockTransaction{
				ProductID:       entry.Items[i].ProductID,
				TransactionType: models.StockTransactionPurchase,
				FilledChange:    entry.Items[i].Quantity,
				ReferenceID:     &entry.ID,
				ReferenceType:   models.StockTransactionPurchase,
				Remarks:         fmt.Sprintf("Purchase invoice %s", entry.InvoiceNo),
			}
			if err := s.stockRepo.Apply(ctx, &receipt); err != nil {
				log.Error().Err(err).
					Uint("purchase_id", entry.ID).
					Uint("product_id", entry.Items[i].ProductID).
					Msg("failed to post purchase stock receipt")
				return err
			}
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter(metrics.CounterPurchasesSaved)
	}
	log.Info().
		Uint("purchase_id", entry.ID).
		Str("invoice_no", entry.InvoiceNo).
		Float64("total_amount", entry.TotalAmount).
		Bool("created", isNew).
		Msg("purchase entry saved")
	return nil
}

// GetPurchase gets a purchase entry with its item lines
func (s *PurchaseService) GetPurchase(ctx context.Context, id uint) (*models.PurchaseEntry, error) {
	return s.purchaseRepo.GetByID(ctx, id)
}

// ListPurchases lists purchase entry headers, newest first
func (s *PurchaseService) ListPurchases(ctx context.Context) ([]models.PurchaseEntry, error) {
	return s.purchaseRepo.List(ctx)
}

// SetPurchaseActive toggles a purchase entry active or inactive
func (s *PurchaseService) SetPurchaseActive(ctx context.Context, id uint, active bool) error {
	if err := s.purchaseRepo.SetActive(ctx, id, active); err != nil {
		return err
	}
	log.Info().Uint("purchase_id", id).Bool("is_active", active).Msg("purchase entry toggled")
	return nil
}
