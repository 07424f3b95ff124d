package service

import (
	"context"

	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AssignmentService manages vehicle/driver assignments for delivery runs
type AssignmentService struct {
	assignmentRepo repository.AssignmentRepository
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db, readOnlyDB *gorm.DB) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: repository.NewAssignmentRepository(db, readOnlyDB),
	}
}

// SaveAssignment validates and persists a vehicle assignment, creating or
// updating by ID
func (s *AssignmentService) SaveAssignment(ctx context.Context, assignment *models.VehicleAssignment) error {
	if assignment.VehicleID == 0 {
		return NewValidationError("vehicleId is required")
	}
	if assignment.DriverID == 0 {
		return NewValidationError("driverId is required")
	}
	if assignment.AssignedDate.IsZero() {
		return NewValidationError("assignedDate is required")
	}

	if err := s.assignmentRepo.Save(ctx, assignment); err != nil {
		return err
	}

	log.Info().
		Uint("assignment_id", assignment.ID).
		Uint("vehicle_id", assignment.VehicleID).
		Uint("driver_id", assignment.DriverID).
		Msg("vehicle assignment saved")
	return nil
}

// GetAssignment gets a vehicle assignment by ID
func (s *AssignmentService) GetAssignment(ctx context.Context, id uint) (*models.VehicleAssignment, error) {
	return s.assignmentRepo.GetByID(ctx, id)
}

// ListAssignments lists all vehicle assignments, newest first
func (s *AssignmentService) ListAssignments(ctx context.Context) ([]models.VehicleAssignment, error) {
	return s.assignmentRepo.List(ctx)
}

// DeactivateAssignment soft-deletes an assignment by flipping it inactive
func (s *AssignmentService) DeactivateAssignment(ctx context.Context, id uint) error {
	if err := s.assignmentRepo.SetActive(ctx, id, false); err != nil {
		return err
	}
	log.Info().Uint("assignment_id", id).Msg("vehicle assignment deactivated")
	return nil
}
