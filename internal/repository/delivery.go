package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/distribution/internal/models"
)

// DeliveryFilter narrows delivery list queries
type DeliveryFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	VehicleID *uint
	Status    *models.DeliveryStatus
}

// DeliveryRepository defines data access for daily deliveries and their
// item actuals
type DeliveryRepository interface {
	CreateWithItems(ctx context.Context, delivery *models.DailyDelivery) error
	GetByID(ctx context.Context, id uint) (*models.DailyDelivery, error)
	List(ctx context.Context, filter DeliveryFilter) ([]models.DailyDelivery, error)
	FindOpen(ctx context.Context, olderThan *time.Time) ([]models.DailyDelivery, error)
	InitializeActuals(ctx context.Context, deliveryID uint) (int, error)
	GetActuals(ctx context.Context, deliveryID uint) ([]models.DeliveryItemActual, error)
	SaveActuals(ctx context.Context, deliveryID uint, actuals []models.DeliveryItemActual) error
	CloseDelivery(ctx context.Context, delivery *models.DailyDelivery) error
	UpdateMetrics(ctx context.Context, delivery *models.DailyDelivery) error
}

type deliveryRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db, readOnlyDB *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db, readOnlyDB: readOnlyDB}
}

// CreateWithItems creates a delivery and its planned item rows in one
// transaction. Returns ErrOpenDeliveryExists when an Open delivery is already
// recorded for the same vehicle and date; the partial unique index backs the
// check against concurrent submissions.
func (r *deliveryRepository) CreateWithItems(ctx context.Context, delivery *models.DailyDelivery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.DailyDelivery{}).
			Where("vehicle_id = ? AND delivery_date = ? AND status = ?",
				delivery.VehicleID, delivery.DeliveryDate, models.DeliveryStatusOpen).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrOpenDeliveryExists
		}

		if err := tx.Create(delivery).Error; err != nil {
			if IsDuplicateKeyError(err) {
				return ErrOpenDeliveryExists
			}
			return err
		}
		return nil
	})
}

// GetByID gets a delivery with its planned items
func (r *deliveryRepository) GetByID(ctx context.Context, id uint) (*models.DailyDelivery, error) {
	var delivery models.DailyDelivery
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Items").
		First(&delivery, id).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &delivery, nil
}

// List finds deliveries matching the filter, newest first
func (r *deliveryRepository) List(ctx context.Context, filter DeliveryFilter) ([]models.DailyDelivery, error) {
	query := r.readOnlyDB.WithContext(ctx).Model(&models.DailyDelivery{})

	if filter.FromDate != nil {
		query = query.Where("delivery_date >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("delivery_date <= ?", filter.ToDate)
	}
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var deliveries []models.DailyDelivery
	if err := query.Order("delivery_date DESC, id DESC").Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

// FindOpen finds Open deliveries, optionally only those created before a cutoff
func (r *deliveryRepository) FindOpen(ctx context.Context, olderThan *time.Time) ([]models.DailyDelivery, error) {
	query := r.readOnlyDB.WithContext(ctx).
		Where("status = ?", models.DeliveryStatusOpen)
	if olderThan != nil {
		query = query.Where("created_at < ?", olderThan)
	}

	var deliveries []models.DailyDelivery
	if err := query.Order("created_at").Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

// InitializeActuals seeds one actual-tracking row per planned item. Idempotent:
// rows that already exist for a (delivery, product) pair are left untouched, so
// concurrent double-initialization cannot duplicate rows. Returns the number of
// rows seeded by this call.
func (r *deliveryRepository) InitializeActuals(ctx context.Context, deliveryID uint) (int, error) {
	seeded := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var delivery models.DailyDelivery
		if err := tx.Preload("Items").Preload("Items.Product").First(&delivery, deliveryID).Error; err != nil {
			if IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return err
		}
		if delivery.Status == models.DeliveryStatusClosed {
			return ErrDeliveryClosed
		}

		for _, item := range delivery.Items {
			actual := models.DeliveryItemActual{
				DeliveryID:      deliveryID,
				ProductID:       item.ProductID,
				PlannedQuantity: item.NoOfCylinders,
				PendingQuantity: item.NoOfCylinders,
				ItemStatus:      models.DeriveItemStatus(0, item.NoOfCylinders),
				UnitPrice:       item.Product.UnitPrice,
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "delivery_id"}, {Name: "product_id"}},
				DoNothing: true,
			}).Create(&actual)
			if result.Error != nil {
				return result.Error
			}
			seeded += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seeded, nil
}

// GetActuals gets the actual-tracking rows of a delivery
func (r *deliveryRepository) GetActuals(ctx context.Context, deliveryID uint) ([]models.DeliveryItemActual, error) {
	var actuals []models.DeliveryItemActual
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Product").
		Where("delivery_id = ?", deliveryID).
		Order("product_id").
		Find(&actuals).Error
	if err != nil {
		return nil, err
	}
	return actuals, nil
}

// SaveActuals bulk-replaces the recomputed actual rows of a delivery. The
// delivery row is locked and its status re-checked inside the transaction so a
// concurrent close cannot race the update.
func (r *deliveryRepository) SaveActuals(ctx context.Context, deliveryID uint, actuals []models.DeliveryItemActual) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var delivery models.DailyDelivery
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&delivery, deliveryID).Error
		if err != nil {
			if IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return err
		}
		if delivery.Status == models.DeliveryStatusClosed {
			return ErrDeliveryClosed
		}

		for i := range actuals {
			err := tx.Model(&models.DeliveryItemActual{}).
				Where("delivery_id = ? AND product_id = ?", deliveryID, actuals[i].ProductID).
				Updates(map[string]interface{}{
					"delivered_quantity": actuals[i].DeliveredQuantity,
					"pending_quantity":   actuals[i].PendingQuantity,
					"cash_collected":     actuals[i].CashCollected,
					"item_status":        actuals[i].ItemStatus,
					"remarks":            actuals[i].Remarks,
					"total_amount":       actuals[i].TotalAmount,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CloseDelivery transitions a delivery to Closed and persists its frozen
// fields and recomputed aggregates. The Open check runs under a row lock so
// closing is race-free against concurrent updates and double closes.
func (r *deliveryRepository) CloseDelivery(ctx context.Context, delivery *models.DailyDelivery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.DailyDelivery
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, delivery.ID).Error
		if err != nil {
			if IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return err
		}
		if current.Status == models.DeliveryStatusClosed {
			return ErrDeliveryClosed
		}

		return tx.Model(&models.DailyDelivery{}).
			Where("id = ?", delivery.ID).
			Updates(map[string]interface{}{
				"status":                   models.DeliveryStatusClosed,
				"closed_at":                delivery.ClosedAt,
				"return_time":              delivery.ReturnTime,
				"remarks":                  delivery.Remarks,
				"completed_invoices":       delivery.CompletedInvoices,
				"pending_invoices":         delivery.PendingInvoices,
				"cash_collected":           delivery.CashCollected,
				"empty_cylinders_returned": delivery.EmptyCylindersReturned,
				"cylinders_delivered":      delivery.CylindersDelivered,
			}).Error
	})
}

// UpdateMetrics persists recomputed aggregate metrics on an Open delivery
func (r *deliveryRepository) UpdateMetrics(ctx context.Context, delivery *models.DailyDelivery) error {
	result := r.db.WithContext(ctx).Model(&models.DailyDelivery{}).
		Where("id = ? AND status = ?", delivery.ID, models.DeliveryStatusOpen).
		Updates(map[string]interface{}{
			"completed_invoices":  delivery.CompletedInvoices,
			"pending_invoices":    delivery.PendingInvoices,
			"cash_collected":      delivery.CashCollected,
			"cylinders_delivered": delivery.CylindersDelivered,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
