package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/backstage/services/distribution/internal/models"
)

// PurchaseRepository defines data access for purchase entries
type PurchaseRepository interface {
	Save(ctx context.Context, entry *models.PurchaseEntry) error
	GetByID(ctx context.Context, id uint) (*models.PurchaseEntry, error)
	List(ctx context.Context) ([]models.PurchaseEntry, error)
	SetActive(ctx context.Context, id uint, active bool) error
}

type purchaseRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db, readOnlyDB *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db, readOnlyDB: readOnlyDB}
}

// Save creates or updates a purchase entry with its item lines. Updates
// replace the item lines wholesale, keeping the rows consistent with the
// recomputed header total. A duplicate invoice number maps to ErrDuplicateKey.
func (r *purchaseRepository) Save(ctx context.Context, entry *models.PurchaseEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry.ID == 0 {
			if err := tx.Create(entry).Error; err != nil {
				if IsDuplicateKeyError(err) {
					return ErrDuplicateKey
				}
				return err
			}
			return nil
		}

		var current models.PurchaseEntry
		if err := tx.First(&current, entry.ID).Error; err != nil {
			if IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return err
		}

		err := tx.Model(&models.PurchaseEntry{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{
				"vendor_id":     entry.VendorID,
				"invoice_no":    entry.InvoiceNo,
				"purchase_date": entry.PurchaseDate,
				"remarks":       entry.Remarks,
				"is_active":     entry.IsActive,
				"total_amount":  entry.TotalAmount,
			}).Error
		if err != nil {
			if IsDuplicateKeyError(err) {
				return ErrDuplicateKey
			}
			return err
		}

		err = tx.Where("purchase_entry_id = ?", entry.ID).
			Delete(&models.PurchaseEntryItem{}).Error
		if err != nil {
			return err
		}
		for i := range entry.Items {
			entry.Items[i].ID = 0
			entry.Items[i].PurchaseEntryID = entry.ID
			if err := tx.Create(&entry.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID gets a purchase entry with its item lines
func (r *purchaseRepository) GetByID(ctx context.Context, id uint) (*models.PurchaseEntry, error) {
	var entry models.PurchaseEntry
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Vendor").
		First(&entry, id).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// List finds all purchase entries, newest first, headers only
func (r *purchaseRepository) List(ctx context.Context) ([]models.PurchaseEntry, error) {
	var entries []models.PurchaseEntry
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Vendor").
		Order("purchase_date DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SetActive toggles a purchase entry active or inactive
func (r *purchaseRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.PurchaseEntry{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
