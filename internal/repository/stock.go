package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/distribution/internal/models"
)

// StockSummary aggregates cylinder counts across the whole register
type StockSummary struct {
	FilledStock  int `json:"filledStock"`
	EmptyStock   int `json:"emptyStock"`
	DamagedStock int `json:"damagedStock"`
	TotalStock   int `json:"totalStock"`
	ProductCount int `json:"productCount"`
}

// StockTransactionFilter narrows stock transaction history queries
type StockTransactionFilter struct {
	ProductID       *uint
	FromDate        *time.Time
	ToDate          *time.Time
	TransactionType *string
}

// StockRepository defines data access for the stock register and its
// transaction ledger
type StockRepository interface {
	Register(ctx context.Context, productID *uint) ([]models.StockRegister, error)
	Summary(ctx context.Context) (*StockSummary, error)
	Transactions(ctx context.Context, filter StockTransactionFilter) ([]models.StockTransaction, error)
	Apply(ctx context.Context, txn *models.StockTransaction) error
}

type stockRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db, readOnlyDB *gorm.DB) StockRepository {
	return &stockRepository{db: db, readOnlyDB: readOnlyDB}
}

// Register lists the stock register, optionally for a single product
func (r *stockRepository) Register(ctx context.Context, productID *uint) ([]models.StockRegister, error) {
	query := r.readOnlyDB.WithContext(ctx).
		Preload("Product").
		Order("product_id")
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	var rows []models.StockRegister
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Summary aggregates the register into plant-wide totals
func (r *stockRepository) Summary(ctx context.Context) (*StockSummary, error) {
	var summary StockSummary
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.StockRegister{}).
		Select(`COALESCE(SUM(filled_stock), 0) AS filled_stock,
			COALESCE(SUM(empty_stock), 0) AS empty_stock,
			COALESCE(SUM(damaged_stock), 0) AS damaged_stock,
			COALESCE(SUM(filled_stock + empty_stock + damaged_stock), 0) AS total_stock,
			COUNT(*) AS product_count`).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Transactions finds stock movements matching the filter, newest first
func (r *stockRepository) Transactions(ctx context.Context, filter StockTransactionFilter) ([]models.StockTransaction, error) {
	query := r.readOnlyDB.WithContext(ctx).
		Model(&models.StockTransaction{}).
		Preload("Product")

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", filter.ToDate)
	}
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", *filter.TransactionType)
	}

	var txns []models.StockTransaction
	if err := query.Order("created_at DESC, id DESC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// Apply records a stock movement and folds it into the product's register row
// in one transaction. The row is created at zero on the product's first
// movement, then locked so concurrent movements serialize. A change that would
// drive any level negative is rejected with ErrInsufficientStock and leaves no
// trace.
func (r *stockRepository) Apply(ctx context.Context, txn *models.StockTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.StockRegister{ProductID: txn.ProductID, UpdatedBy: txn.CreatedBy}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).Create(&seed).Error
		if err != nil {
			return err
		}

		var register models.StockRegister
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", txn.ProductID).
			First(&register).Error
		if err != nil {
			return err
		}

		filled := register.FilledStock + txn.FilledChange
		empty := register.EmptyStock + txn.EmptyChange
		damaged := register.DamagedStock + txn.DamagedChange
		if filled < 0 || empty < 0 || damaged < 0 {
			return ErrInsufficientStock
		}

		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		return tx.Model(&models.StockRegister{}).
			Where("product_id = ?", txn.ProductID).
			Updates(map[string]interface{}{
				"filled_stock":  filled,
				"empty_stock":   empty,
				"damaged_stock": damaged,
				"updated_by":    txn.CreatedBy,
			}).Error
	})
}
