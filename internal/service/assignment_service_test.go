package service

import (
	"context"
	"testing"
	"time"

	"example.com/backstage/services/distribution/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock AssignmentRepository for testing
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Save(ctx context.Context, assignment *models.VehicleAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id uint) (*models.VehicleAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) List(ctx context.Context) ([]models.VehicleAssignment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.VehicleAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func TestSaveAssignment(t *testing.T) {
	assignmentRepo := new(MockAssignmentRepository)
	svc := &AssignmentService{assignmentRepo: assignmentRepo}

	assignment := &models.VehicleAssignment{
		VehicleID:    2,
		DriverID:     5,
		AssignedDate: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		RouteName:    "North Zone",
		Shift:        "Morning",
		IsActive:     true,
	}
	assignmentRepo.On("Save", mock.Anything, assignment).Return(nil)

	err := svc.SaveAssignment(context.Background(), assignment)

	require.NoError(t, err)
	assignmentRepo.AssertExpectations(t)
}

func TestSaveAssignmentValidation(t *testing.T) {
	svc := &AssignmentService{}

	cases := []struct {
		name   string
		mutate func(*models.VehicleAssignment)
	}{
		{"missing vehicle", func(a *models.VehicleAssignment) { a.VehicleID = 0 }},
		{"missing driver", func(a *models.VehicleAssignment) { a.DriverID = 0 }},
		{"missing date", func(a *models.VehicleAssignment) { a.AssignedDate = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assignment := &models.VehicleAssignment{
				VehicleID:    2,
				DriverID:     5,
				AssignedDate: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
			}
			tc.mutate(assignment)

			err := svc.SaveAssignment(context.Background(), assignment)

			require.Error(t, err)
			require.True(t, IsValidationError(err))
		})
	}
}

func TestDeactivateAssignment(t *testing.T) {
	assignmentRepo := new(MockAssignmentRepository)
	svc := &AssignmentService{assignmentRepo: assignmentRepo}

	assignmentRepo.On("SetActive", mock.Anything, uint(9), false).Return(nil)

	err := svc.DeactivateAssignment(context.Background(), 9)

	require.NoError(t, err)
	assignmentRepo.AssertExpectations(t)
}
