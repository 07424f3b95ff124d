package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Common repository errors
var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateKey          = errors.New("duplicate key violation")
	ErrDeliveryClosed        = errors.New("delivery is closed")
	ErrOpenDeliveryExists    = errors.New("an open delivery already exists for this vehicle and date")
	ErrInsufficientRemaining = errors.New("quantity exceeds remaining unmapped quantity")
	ErrInsufficientStock     = errors.New("stock change would drive a level negative")
)

// IsRecordNotFoundError reports whether err is gorm's not-found error
func IsRecordNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
// Requires TranslateError on the gorm connection.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
