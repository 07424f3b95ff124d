package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/backstage/services/distribution/internal/models"
)

// CreditBalance summarizes a customer's credit position
type CreditBalance struct {
	CustomerID   uint    `json:"customerId"`
	CustomerName string  `json:"customerName"`
	CreditLimit  float64 `json:"creditLimit"`
	CreditUsed   float64 `json:"creditUsed"`
	TotalPaid    float64 `json:"totalPaid"`
	Outstanding  float64 `json:"outstandingAmount"`
}

// CreditRepository defines data access for the customer credit ledger
type CreditRepository interface {
	RecordPayment(ctx context.Context, txn *models.CreditTransaction) error
	GetTransactions(ctx context.Context, customerID uint) ([]models.CreditTransaction, error)
	GetBalance(ctx context.Context, customerID uint) (*CreditBalance, error)
}

type creditRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db, readOnlyDB *gorm.DB) CreditRepository {
	return &creditRepository{db: db, readOnlyDB: readOnlyDB}
}

// RecordPayment posts a payment entry to the ledger
func (r *creditRepository) RecordPayment(ctx context.Context, txn *models.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// GetTransactions lists a customer's ledger entries, newest first
func (r *creditRepository) GetTransactions(ctx context.Context, customerID uint) ([]models.CreditTransaction, error) {
	var txns []models.CreditTransaction
	err := r.readOnlyDB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// GetBalance derives the customer's credit position from the ledger. Debits
// raise the used amount; credits and payments reduce the outstanding balance.
func (r *creditRepository) GetBalance(ctx context.Context, customerID uint) (*CreditBalance, error) {
	var customer models.Customer
	err := r.readOnlyDB.WithContext(ctx).First(&customer, customerID).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sums struct {
		Debits   float64
		Credits  float64
		Payments float64
	}
	err = r.readOnlyDB.WithContext(ctx).
		Model(&models.CreditTransaction{}).
		Select(`COALESCE(SUM(CASE WHEN transaction_type = ? THEN amount ELSE 0 END), 0) AS debits,
			COALESCE(SUM(CASE WHEN transaction_type = ? THEN amount ELSE 0 END), 0) AS credits,
			COALESCE(SUM(CASE WHEN transaction_type = ? THEN amount ELSE 0 END), 0) AS payments`,
			models.CreditTransactionDebit, models.CreditTransactionCredit, models.CreditTransactionPayment).
		Where("customer_id = ?", customerID).
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	used := sums.Debits - sums.Credits
	return &CreditBalance{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		CreditLimit:  customer.CreditLimit,
		CreditUsed:   used,
		TotalPaid:    sums.Payments,
		Outstanding:  used - sums.Payments,
	}, nil
}
