package service

import (
	"context"
	"time"

	"example.com/backstage/services/distribution/internal/cache"
	"example.com/backstage/services/distribution/internal/messaging"
	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"
	"example.com/backstage/services/distribution/internal/tracing"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SummaryIndexer indexes closed delivery summaries for reporting.
// *search.ElasticClient satisfies it.
type SummaryIndexer interface {
	IndexDeliverySummary(ctx context.Context, delivery *models.DailyDelivery, items []models.DeliveryItemActual) error
}

// ActualUpdate is one product line's progress report from the field
type ActualUpdate struct {
	ProductID         uint    `json:"productId" binding:"required"`
	DeliveredQuantity int     `json:"deliveredQuantity"`
	CashCollected     float64 `json:"cashCollected"`
	Remarks           string  `json:"remarks"`
}

// CloseDeliveryRequest carries the final item figures and run totals
// submitted when a vehicle returns.
type CloseDeliveryRequest struct {
	ReturnTime             string         `json:"returnTime"`
	Remarks                string         `json:"remarks"`
	EmptyCylindersReturned int            `json:"emptyCylindersReturned"`
	CompletedInvoices      int            `json:"completedInvoices"`
	PendingInvoices        int            `json:"pendingInvoices"`
	Items                  []ActualUpdate `json:"items"`
}

// DeliveryService handles the daily delivery lifecycle
type DeliveryService struct {
	deliveryRepo repository.DeliveryRepository
	cache        *cache.RedisCache
	publisher    messaging.ServiceBusClient
	indexer      SummaryIndexer
	tracer       tracing.Tracer
	metrics      *metrics.Metrics
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(
	db *gorm.DB,
	readOnlyDB *gorm.DB,
	redisCache *cache.RedisCache,
	publisher messaging.ServiceBusClient,
	indexer SummaryIndexer,
	tracer tracing.Tracer,
	m *metrics.Metrics,
) *DeliveryService {
	return &DeliveryService{
		deliveryRepo: repository.NewDeliveryRepository(db, readOnlyDB),
		cache:        redisCache,
		publisher:    publisher,
		indexer:      indexer,
		tracer:       tracer,
		metrics:      m,
	}
}

// CreateDelivery opens a new delivery run for a vehicle and date with its
// planned items. At most one Open run may exist per (vehicle, date);
// violating submissions get repository.ErrOpenDeliveryExists.
func (s *DeliveryService) CreateDelivery(ctx context.Context, delivery *models.DailyDelivery) error {
	txn := s.startTransaction("create-delivery")
	defer s.endTransaction(txn)

	if delivery.VehicleID == 0 {
		return NewValidationError("vehicleId is required")
	}
	if delivery.DriverID == 0 {
		return NewValidationError("driverId is required")
	}
	if delivery.DeliveryDate.IsZero() {
		return NewValidationError("deliveryDate is required")
	}
	if delivery.StartTime == "" {
		return NewValidationError("startTime is required")
	}
	if len(delivery.Items) == 0 {
		return NewValidationError("at least one delivery item is required")
	}
	for i, item := range delivery.Items {
		if item.ProductID == 0 {
			return NewValidationError("items[%d].productId is required", i)
		}
		if item.NoOfCylinders <= 0 {
			return NewValidationError("items[%d].noOfCylinders must be positive", i)
		}
	}

	delivery.Status = models.DeliveryStatusOpen
	err := s.deliveryRepo.CreateWithItems(ctx, delivery)
	if err != nil {
		if errors.Is(err, repository.ErrOpenDeliveryExists) {
			s.count(metrics.CounterDeliveryConflicts)
			return err
		}
		s.recordError(txn, err)
		return errors.Wrap(err, "failed to create delivery")
	}

	s.count(metrics.CounterDeliveriesCreated)
	log.Info().
		Uint("delivery_id", delivery.ID).
		Uint("vehicle_id", delivery.VehicleID).
		Msg("delivery created")
	return nil
}

// GetDelivery gets a delivery with its planned items
func (s *DeliveryService) GetDelivery(ctx context.Context, id uint) (*models.DailyDelivery, error) {
	return s.deliveryRepo.GetByID(ctx, id)
}

// ListDeliveries finds deliveries matching the filter
func (s *DeliveryService) ListDeliveries(ctx context.Context, filter repository.DeliveryFilter) ([]models.DailyDelivery, error) {
	return s.deliveryRepo.List(ctx, filter)
}

// InitializeItemActuals seeds the actual-tracking rows of a delivery from its
// planned items. Safe to call more than once; already-seeded rows are left
// untouched. Returns the number of rows seeded by this call.
func (s *DeliveryService) InitializeItemActuals(ctx context.Context, deliveryID uint) (int, error) {
	seeded, err := s.deliveryRepo.InitializeActuals(ctx, deliveryID)
	if err != nil {
		return 0, err
	}
	log.Info().Uint("delivery_id", deliveryID).Int("seeded", seeded).Msg("item actuals initialized")
	return seeded, nil
}

// GetItemActuals gets the actual-tracking rows of a delivery
func (s *DeliveryService) GetItemActuals(ctx context.Context, deliveryID uint) ([]models.DeliveryItemActual, error) {
	return s.deliveryRepo.GetActuals(ctx, deliveryID)
}

// UpdateItemActuals records delivered quantities for a delivery's product
// lines and recomputes each line's pending quantity and status, plus the
// delivery-level rollups. Closed deliveries reject updates.
func (s *DeliveryService) UpdateItemActuals(ctx context.Context, deliveryID uint, updates []ActualUpdate) ([]models.DeliveryItemActual, error) {
	txn := s.startTransaction("update-item-actuals")
	defer s.endTransaction(txn)

	if len(updates) == 0 {
		return nil, NewValidationError("no item updates provided")
	}

	recomputed, err := s.applyActualUpdates(ctx, deliveryID, updates)
	if err != nil {
		return nil, err
	}

	if err := s.deliveryRepo.SaveActuals(ctx, deliveryID, recomputed); err != nil {
		s.recordError(txn, err)
		return nil, err
	}

	if err := s.refreshDeliveryRollups(ctx, deliveryID, recomputed); err != nil {
		log.Warn().Err(err).Uint("delivery_id", deliveryID).Msg("failed to refresh delivery rollups")
	}

	s.count(metrics.CounterActualsUpdated)
	return recomputed, nil
}

// applyActualUpdates merges the submitted updates into the current actual
// rows and rederives pending quantity, status and line total for each.
func (s *DeliveryService) applyActualUpdates(ctx context.Context, deliveryID uint, updates []ActualUpdate) ([]models.DeliveryItemActual, error) {
	actuals, err := s.deliveryRepo.GetActuals(ctx, deliveryID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load item actuals")
	}
	if len(actuals) == 0 {
		return nil, NewValidationError("item actuals have not been initialized for delivery %d", deliveryID)
	}

	byProduct := make(map[uint]*models.DeliveryItemActual, len(actuals))
	for i := range actuals {
		byProduct[actuals[i].ProductID] = &actuals[i]
	}

	for _, update := range updates {
		row, ok := byProduct[update.ProductID]
		if !ok {
			return nil, NewValidationError("product %d is not part of delivery %d", update.ProductID, deliveryID)
		}
		if update.DeliveredQuantity < 0 {
			return nil, NewValidationError("deliveredQuantity must not be negative for product %d", update.ProductID)
		}
		if update.CashCollected < 0 {
			return nil, NewValidationError("cashCollected must not be negative for product %d", update.ProductID)
		}

		row.DeliveredQuantity = update.DeliveredQuantity
		row.PendingQuantity = models.ComputePendingQuantity(row.PlannedQuantity, update.DeliveredQuantity)
		row.ItemStatus = models.DeriveItemStatus(row.DeliveredQuantity, row.PendingQuantity)
		row.CashCollected = update.CashCollected
		row.TotalAmount = float64(update.DeliveredQuantity) * row.UnitPrice
		if update.Remarks != "" {
			row.Remarks = update.Remarks
		}
	}

	return actuals, nil
}

// refreshDeliveryRollups recomputes the delivery-level aggregates from its
// actual rows and persists them while the delivery remains Open.
func (s *DeliveryService) refreshDeliveryRollups(ctx context.Context, deliveryID uint, actuals []models.DeliveryItemActual) error {
	delivery := &models.DailyDelivery{ID: deliveryID}
	delivery.CompletedInvoices, delivery.PendingInvoices,
		delivery.CashCollected, delivery.CylindersDelivered = rollupActuals(actuals)
	return s.deliveryRepo.UpdateMetrics(ctx, delivery)
}

func rollupActuals(actuals []models.DeliveryItemActual) (completed, pending int, cash float64, delivered int) {
	for _, a := range actuals {
		switch a.ItemStatus {
		case models.ItemStatusCompleted:
			completed++
		default:
			pending++
		}
		cash += a.CashCollected
		delivered += a.DeliveredQuantity
	}
	return completed, pending, cash, delivered
}

// CloseDelivery records the final item figures, freezes the run totals and
// transitions the delivery to Closed. Closing twice fails with
// repository.ErrDeliveryClosed. The closed summary is published and indexed
// best-effort; failures there do not undo the close.
func (s *DeliveryService) CloseDelivery(ctx context.Context, deliveryID uint, req *CloseDeliveryRequest) (*models.DailyDelivery, error) {
	txn := s.startTransaction("close-delivery")
	defer s.endTransaction(txn)
	start := time.Now()

	var actuals []models.DeliveryItemActual
	var err error
	if len(req.Items) > 0 {
		actuals, err = s.applyActualUpdates(ctx, deliveryID, req.Items)
		if err != nil {
			return nil, err
		}
		if err := s.deliveryRepo.SaveActuals(ctx, deliveryID, actuals); err != nil {
			s.recordError(txn, err)
			return nil, err
		}
	} else {
		actuals, err = s.deliveryRepo.GetActuals(ctx, deliveryID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load item actuals")
		}
	}

	now := time.Now()
	delivery := &models.DailyDelivery{
		ID:                     deliveryID,
		ClosedAt:               &now,
		Remarks:                req.Remarks,
		EmptyCylindersReturned: req.EmptyCylindersReturned,
		CompletedInvoices:      req.CompletedInvoices,
		PendingInvoices:        req.PendingInvoices,
	}
	if req.ReturnTime != "" {
		delivery.ReturnTime = &req.ReturnTime
	}

	_, _, delivery.CashCollected, delivery.CylindersDelivered = rollupActuals(actuals)
	if req.CompletedInvoices == 0 && req.PendingInvoices == 0 {
		delivery.CompletedInvoices, delivery.PendingInvoices, _, _ = rollupActuals(actuals)
	}

	if err := s.deliveryRepo.CloseDelivery(ctx, delivery); err != nil {
		s.recordError(txn, err)
		return nil, err
	}

	closed, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload closed delivery")
	}

	s.count(metrics.CounterDeliveriesClosed)
	if s.metrics != nil {
		s.metrics.RecordTimer(metrics.TimerDeliveryClose, time.Since(start).Milliseconds())
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.GetDeliverySummaryCacheKey(deliveryID)); err != nil {
			log.Warn().Err(err).Uint("delivery_id", deliveryID).Msg("failed to drop delivery summary cache")
		}
	}

	s.publishClosed(ctx, closed)
	s.indexClosed(ctx, closed, actuals)

	log.Info().Uint("delivery_id", deliveryID).Msg("delivery closed")
	return closed, nil
}

func (s *DeliveryService) publishClosed(ctx context.Context, delivery *models.DailyDelivery) {
	if s.publisher == nil {
		return
	}

	event := messaging.DeliveryClosedEvent{
		DeliveryID:        delivery.ID,
		DeliveryDate:      delivery.DeliveryDate.Format("2006-01-02"),
		VehicleID:         delivery.VehicleID,
		CompletedInvoices: delivery.CompletedInvoices,
		PendingInvoices:   delivery.PendingInvoices,
		CashCollected:     delivery.CashCollected,
		ClosedAt:          time.Now(),
	}
	if delivery.ClosedAt != nil {
		event.ClosedAt = *delivery.ClosedAt
	}

	if err := s.publisher.SendMessage(ctx, messaging.EventTypeDeliveryClosed, event); err != nil {
		log.Error().Err(err).Uint("delivery_id", delivery.ID).Msg("failed to publish delivery closed event")
	}
}

func (s *DeliveryService) indexClosed(ctx context.Context, delivery *models.DailyDelivery, actuals []models.DeliveryItemActual) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexDeliverySummary(ctx, delivery, actuals); err != nil {
		log.Error().Err(err).Uint("delivery_id", delivery.ID).Msg("failed to index delivery summary")
	}
}

// RecomputeOpenDeliveryMetrics refreshes the rollups of every Open delivery.
// Run periodically so dashboards stay accurate even when updates bypass the
// rollup path.
func (s *DeliveryService) RecomputeOpenDeliveryMetrics(ctx context.Context) error {
	open, err := s.deliveryRepo.FindOpen(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to list open deliveries")
	}

	if s.metrics != nil {
		s.metrics.SetGauge(metrics.GaugeOpenDeliveries, int64(len(open)))
	}

	for _, delivery := range open {
		actuals, err := s.deliveryRepo.GetActuals(ctx, delivery.ID)
		if err != nil {
			log.Error().Err(err).Uint("delivery_id", delivery.ID).Msg("failed to load actuals for recompute")
			continue
		}
		if len(actuals) == 0 {
			continue
		}
		if err := s.refreshDeliveryRollups(ctx, delivery.ID, actuals); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Error().Err(err).Uint("delivery_id", delivery.ID).Msg("failed to refresh rollups")
			}
		}
	}
	return nil
}

func (s *DeliveryService) startTransaction(name string) *newrelic.Transaction {
	if s.tracer == nil {
		return nil
	}
	return s.tracer.StartTransaction(name)
}

func (s *DeliveryService) endTransaction(txn *newrelic.Transaction) {
	if s.tracer != nil {
		s.tracer.EndTransaction(txn)
	}
}

func (s *DeliveryService) recordError(txn *newrelic.Transaction, err error) {
	if s.tracer != nil {
		s.tracer.RecordError(txn, err)
	}
}

func (s *DeliveryService) count(name string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(name)
	}
}
