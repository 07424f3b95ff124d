package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/distribution/internal/models"
)

// CommercialItem is one delivery product line with its allocation totals
type CommercialItem struct {
	DeliveryID        uint    `json:"deliveryId"`
	ProductID         uint    `json:"productId"`
	ProductName       string  `json:"productName"`
	CategoryName      string  `json:"categoryName"`
	DeliveredQuantity int     `json:"deliveredQuantity"`
	MappedQuantity    int     `json:"mappedQuantity"`
	RemainingQuantity int     `json:"remainingQuantity"`
	SellingPrice      float64 `json:"sellingPrice"`
}

// MappingRepository defines data access for customer cylinder mappings
type MappingRepository interface {
	Allocate(ctx context.Context, mapping *models.CustomerCylinderMapping) error
	Delete(ctx context.Context, mappingID uint) (*models.CustomerCylinderMapping, error)
	GetByDelivery(ctx context.Context, deliveryID uint) ([]models.CustomerCylinderMapping, error)
	CommercialItems(ctx context.Context, deliveryID uint) ([]CommercialItem, error)
}

type mappingRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewMappingRepository creates a new mapping repository
func NewMappingRepository(db, readOnlyDB *gorm.DB) MappingRepository {
	return &mappingRepository{db: db, readOnlyDB: readOnlyDB}
}

// Allocate records a mapping after verifying it fits into the item's remaining
// quantity. The item actual row is locked for the duration of the transaction,
// so two concurrent allocations cannot both pass the remaining-quantity check.
// A rejected allocation leaves no trace. Credit sales post a ledger debit in
// the same transaction.
func (r *mappingRepository) Allocate(ctx context.Context, mapping *models.CustomerCylinderMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var actual models.DeliveryItemActual
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("delivery_id = ? AND product_id = ?", mapping.DeliveryID, mapping.ProductID).
			First(&actual).Error
		if err != nil {
			if IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return err
		}

		var mapped int64
		err = tx.Model(&models.CustomerCylinderMapping{}).
			Where("delivery_id = ? AND product_id = ?", mapping.DeliveryID, mapping.ProductID).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&mapped).Error
		if err != nil {
			return err
		}

		remaining := models.RemainingQuantity(actual.DeliveredQuantity, int(mapped))
		if mapping.Quantity > remaining {
			return ErrInsufficientRemaining
		}

		if err := tx.Create(mapping).Error; err != nil {
			return err
		}

		if mapping.IsCreditSale {
			txn := models.CreditTransaction{
				CustomerID:      mapping.CustomerID,
				TransactionType: models.CreditTransactionDebit,
				Amount:          mapping.TotalAmount,
				ReferenceNumber: mapping.InvoiceNumber,
				Description:     fmt.Sprintf("Credit sale on delivery %d", mapping.DeliveryID),
				MappingID:       &mapping.ID,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a mapping and returns the removed row. The remaining
// quantity of its (delivery, product) pair is derived, so it recovers on the
// next read. A credit sale's deletion posts a compensating ledger credit.
func (r *mappingRepository) Delete(ctx context.Context, mappingID uint) (*models.CustomerCylinderMapping, error) {
	var mapping models.CustomerCylinderMapping
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&mapping, mappingID).Error
		if err != nil {
			if IsRecordNotFoundError(err) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Delete(&models.CustomerCylinderMapping{}, mappingID).Error; err != nil {
			return err
		}

		if mapping.IsCreditSale {
			txn := models.CreditTransaction{
				CustomerID:      mapping.CustomerID,
				TransactionType: models.CreditTransactionCredit,
				Amount:          mapping.TotalAmount,
				ReferenceNumber: mapping.InvoiceNumber,
				Description:     fmt.Sprintf("Reversal of mapping %d on delivery %d", mapping.ID, mapping.DeliveryID),
				MappingID:       &mapping.ID,
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// GetByDelivery gets all mappings recorded against a delivery
func (r *mappingRepository) GetByDelivery(ctx context.Context, deliveryID uint) ([]models.CustomerCylinderMapping, error) {
	var mappings []models.CustomerCylinderMapping
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Customer").
		Preload("Product").
		Where("delivery_id = ?", deliveryID).
		Order("created_at").
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

// CommercialItems lists a delivery's commercial-category item actuals with
// mapped and remaining quantities derived by read-time aggregation.
func (r *mappingRepository) CommercialItems(ctx context.Context, deliveryID uint) ([]CommercialItem, error) {
	var items []CommercialItem
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.DeliveryItemActual{}).
		Select(`delivery_item_actuals.delivery_id,
			delivery_item_actuals.product_id,
			products.name AS product_name,
			products.category_name,
			delivery_item_actuals.delivered_quantity,
			COALESCE(SUM(customer_cylinder_mappings.quantity), 0) AS mapped_quantity,
			delivery_item_actuals.delivered_quantity - COALESCE(SUM(customer_cylinder_mappings.quantity), 0) AS remaining_quantity,
			delivery_item_actuals.unit_price AS selling_price`).
		Joins("JOIN products ON products.id = delivery_item_actuals.product_id").
		Joins(`LEFT JOIN customer_cylinder_mappings
			ON customer_cylinder_mappings.delivery_id = delivery_item_actuals.delivery_id
			AND customer_cylinder_mappings.product_id = delivery_item_actuals.product_id`).
		Where("delivery_item_actuals.delivery_id = ?", deliveryID).
		Where("products.category_name = ?", "Commercial").
		Group("delivery_item_actuals.delivery_id, delivery_item_actuals.product_id, products.name, products.category_name, delivery_item_actuals.delivered_quantity, delivery_item_actuals.unit_price").
		Order("delivery_item_actuals.product_id").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
