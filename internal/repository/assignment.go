package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/backstage/services/distribution/internal/models"
)

// AssignmentRepository defines data access for vehicle assignments
type AssignmentRepository interface {
	Save(ctx context.Context, assignment *models.VehicleAssignment) error
	GetByID(ctx context.Context, id uint) (*models.VehicleAssignment, error)
	List(ctx context.Context) ([]models.VehicleAssignment, error)
	SetActive(ctx context.Context, id uint, active bool) error
}

type assignmentRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db, readOnlyDB *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db, readOnlyDB: readOnlyDB}
}

// Save creates or updates a vehicle assignment
func (r *assignmentRepository) Save(ctx context.Context, assignment *models.VehicleAssignment) error {
	if assignment.ID == 0 {
		return r.db.WithContext(ctx).Create(assignment).Error
	}

	result := r.db.WithContext(ctx).Model(&models.VehicleAssignment{}).
		Where("id = ?", assignment.ID).
		Updates(map[string]interface{}{
			"vehicle_id":    assignment.VehicleID,
			"driver_id":     assignment.DriverID,
			"assigned_date": assignment.AssignedDate,
			"route_name":    assignment.RouteName,
			"shift":         assignment.Shift,
			"is_active":     assignment.IsActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID gets a vehicle assignment with its vehicle and driver
func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (*models.VehicleAssignment, error) {
	var assignment models.VehicleAssignment
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Vehicle").
		Preload("Driver").
		First(&assignment, id).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// List finds all assignments, newest first
func (r *assignmentRepository) List(ctx context.Context) ([]models.VehicleAssignment, error) {
	var assignments []models.VehicleAssignment
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Vehicle").
		Preload("Driver").
		Order("assigned_date DESC, id DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// SetActive toggles an assignment active or inactive
func (r *assignmentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.VehicleAssignment{}).
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
