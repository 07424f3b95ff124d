package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/backstage/services/distribution/internal/models"
)

// UserRepository defines data access for user accounts
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db, readOnlyDB *gorm.DB) UserRepository {
	return &userRepository{db: db, readOnlyDB: readOnlyDB}
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.readOnlyDB.WithContext(ctx).Preload("Role").First(&user, id).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets an active user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Role").
		Where("email = ? AND is_active = ?", email, true).
		First(&user).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
