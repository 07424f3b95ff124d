package service

import (
	"context"
	"time"

	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MappingService allocates delivered commercial stock to customer sales
type MappingService struct {
	mappingRepo repository.MappingRepository
	metrics     *metrics.Metrics
}

// NewMappingService creates a new mapping service
func NewMappingService(db, readOnlyDB *gorm.DB, m *metrics.Metrics) *MappingService {
	return &MappingService{
		mappingRepo: repository.NewMappingRepository(db, readOnlyDB),
		metrics:     m,
	}
}

// CreateMapping validates and records a customer allocation against a
// delivery's delivered stock. Allocations beyond the item's remaining
// quantity fail with repository.ErrInsufficientRemaining and leave nothing
// behind. Credit sales always settle in Credit mode and post a ledger debit.
func (s *MappingService) CreateMapping(ctx context.Context, mapping *models.CustomerCylinderMapping) error {
	start := time.Now()

	if mapping.DeliveryID == 0 {
		return NewValidationError("deliveryId is required")
	}
	if mapping.ProductID == 0 {
		return NewValidationError("productId is required")
	}
	if mapping.CustomerID == 0 {
		return NewValidationError("customerId is required")
	}
	if mapping.Quantity <= 0 {
		return NewValidationError("quantity must be positive")
	}
	if mapping.SellingPrice < 0 {
		return NewValidationError("sellingPrice must not be negative")
	}

	if mapping.IsCreditSale {
		mapping.PaymentMode = models.PaymentModeCredit
	} else if mapping.PaymentMode == "" {
		mapping.PaymentMode = models.PaymentModeCash
	}
	mapping.TotalAmount = float64(mapping.Quantity) * mapping.SellingPrice

	err := s.mappingRepo.Allocate(ctx, mapping)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientRemaining) {
			s.count(metrics.CounterMappingsRejected)
			return err
		}
		return err
	}

	s.count(metrics.CounterMappingsCreated)
	if s.metrics != nil {
		s.metrics.RecordTimer(metrics.TimerMappingAllocate, time.Since(start).Milliseconds())
	}
	log.Info().
		Uint("mapping_id", mapping.ID).
		Uint("delivery_id", mapping.DeliveryID).
		Uint("customer_id", mapping.CustomerID).
		Int("quantity", mapping.Quantity).
		Msg("customer mapping created")
	return nil
}

// DeleteMapping removes a mapping. The freed quantity becomes available to
// subsequent allocations, and credit sales get a compensating ledger entry.
func (s *MappingService) DeleteMapping(ctx context.Context, mappingID uint) (*models.CustomerCylinderMapping, error) {
	removed, err := s.mappingRepo.Delete(ctx, mappingID)
	if err != nil {
		return nil, err
	}

	s.count(metrics.CounterMappingsDeleted)
	log.Info().
		Uint("mapping_id", mappingID).
		Uint("delivery_id", removed.DeliveryID).
		Msg("customer mapping deleted")
	return removed, nil
}

// GetMappings gets all mappings recorded against a delivery
func (s *MappingService) GetMappings(ctx context.Context, deliveryID uint) ([]models.CustomerCylinderMapping, error) {
	return s.mappingRepo.GetByDelivery(ctx, deliveryID)
}

// GetCommercialItems lists a delivery's commercial product lines with their
// delivered, mapped and remaining quantities.
func (s *MappingService) GetCommercialItems(ctx context.Context, deliveryID uint) ([]repository.CommercialItem, error) {
	return s.mappingRepo.CommercialItems(ctx, deliveryID)
}

func (s *MappingService) count(name string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(name)
	}
}
