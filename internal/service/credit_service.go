package service

import (
	"context"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PaymentRequest is a customer payment against outstanding credit
type PaymentRequest struct {
	CustomerID      uint    `json:"customerId" binding:"required"`
	Amount          float64 `json:"amount" binding:"required"`
	PaymentMode     string  `json:"paymentMode"`
	ReferenceNumber string  `json:"referenceNumber"`
	Description     string  `json:"description"`
}

// CreditStatement is a customer's balance plus their ledger history
type CreditStatement struct {
	Balance      *repository.CreditBalance  `json:"balance"`
	Transactions []models.CreditTransaction `json:"transactions"`
}

// CreditService manages the customer credit ledger
type CreditService struct {
	creditRepo repository.CreditRepository
}

// NewCreditService creates a new credit service
func NewCreditService(db, readOnlyDB *gorm.DB) *CreditService {
	return &CreditService{
		creditRepo: repository.NewCreditRepository(db, readOnlyDB),
	}
}

// RecordPayment posts a payment entry against a customer's outstanding credit
func (s *CreditService) RecordPayment(ctx context.Context, req *PaymentRequest) (*models.CreditTransaction, error) {
	if req.CustomerID == 0 {
		return nil, NewValidationError("customerId is required")
	}
	if req.Amount <= 0 {
		return nil, NewValidationError("amount must be positive")
	}

	mode := req.PaymentMode
	if mode == "" {
		mode = models.PaymentModeCash
	}
	switch mode {
	case models.PaymentModeCash, models.PaymentModeCard, models.PaymentModeUPI:
	default:
		return nil, NewValidationError("unsupported payment mode %q", mode)
	}

	txn := &models.CreditTransaction{
		CustomerID:      req.CustomerID,
		TransactionType: models.CreditTransactionPayment,
		Amount:          req.Amount,
		PaymentMode:     mode,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
	}
	if err := s.creditRepo.RecordPayment(ctx, txn); err != nil {
		return nil, err
	}

	log.Info().
		Uint("customer_id", req.CustomerID).
		Float64("amount", req.Amount).
		Msg("credit payment recorded")
	return txn, nil
}

// GetStatement returns a customer's credit balance with their full ledger
func (s *CreditService) GetStatement(ctx context.Context, customerID uint) (*CreditStatement, error) {
	balance, err := s.creditRepo.GetBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}

	txns, err := s.creditRepo.GetTransactions(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &CreditStatement{Balance: balance, Transactions: txns}, nil
}

// GetBalance returns just the customer's credit position
func (s *CreditService) GetBalance(ctx context.Context, customerID uint) (*repository.CreditBalance, error) {
	return s.creditRepo.GetBalance(ctx, customerID)
}
