package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/cache"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock PermissionRepository for testing
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) GetUserPermissions(ctx context.Context, userID uint) ([]auth.ResourcePermission, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]auth.ResourcePermission), args.Error(1)
}

func (m *MockPermissionRepository) GetRolePermissions(ctx context.Context, roleID uint) ([]repository.RolePermissionRow, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]repository.RolePermissionRow), args.Error(1)
}

func (m *MockPermissionRepository) UpdateRolePermissions(ctx context.Context, roleID uint, rows []repository.RolePermissionRow) error {
	args := m.Called(ctx, roleID, rows)
	return args.Error(0)
}

func (m *MockPermissionRepository) GetUserIDsByRole(ctx context.Context, roleID uint) ([]uint, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]uint), args.Error(1)
}

// fakePermissionCache is an in-memory PermissionCache
type fakePermissionCache struct {
	store map[string][]byte
}

func newFakePermissionCache() *fakePermissionCache {
	return &fakePermissionCache{store: map[string][]byte{}}
}

func (f *fakePermissionCache) Get(_ context.Context, key string, value interface{}) error {
	data, ok := f.store[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, value)
}

func (f *fakePermissionCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = data
	return nil
}

func (f *fakePermissionCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.store, key)
	}
	return nil
}

func TestGetUserPermissionsCachesResult(t *testing.T) {
	perms := []auth.ResourcePermission{
		{ResourceKey: "DailyDelivery", PermissionMask: 5},
		{ResourceKey: "Users", PermissionMask: 1},
	}

	mockRepo := new(MockPermissionRepository)
	mockRepo.On("GetUserPermissions", mock.Anything, uint(42)).Return(perms, nil).Once()

	service := &PermissionService{
		permRepo: mockRepo,
		cache:    newFakePermissionCache(),
		cacheTTL: time.Minute,
	}

	ctx := context.Background()

	first, err := service.GetUserPermissions(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, perms, first)

	// Second call is served from cache; the repo expectation is Once().
	second, err := service.GetUserPermissions(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, perms, second)

	mockRepo.AssertExpectations(t)
}

func TestGetUserPermissionsWithoutCache(t *testing.T) {
	perms := []auth.ResourcePermission{{ResourceKey: "Users", PermissionMask: 1}}

	mockRepo := new(MockPermissionRepository)
	mockRepo.On("GetUserPermissions", mock.Anything, uint(7)).Return(perms, nil)

	service := &PermissionService{permRepo: mockRepo}

	got, err := service.GetUserPermissions(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, perms, got)
}

func TestPermissionSetForGuardsLookups(t *testing.T) {
	// View|Update on deliveries, nothing else.
	perms := []auth.ResourcePermission{
		{ResourceKey: "DailyDelivery", PermissionMask: 5},
	}

	mockRepo := new(MockPermissionRepository)
	mockRepo.On("GetUserPermissions", mock.Anything, uint(42)).Return(perms, nil)

	service := &PermissionService{permRepo: mockRepo}

	set, err := service.PermissionSetFor(context.Background(), 42)
	require.NoError(t, err)

	require.True(t, set.Has("DailyDelivery", auth.CapabilityView))
	require.True(t, set.Has("DailyDelivery", auth.CapabilityUpdate))
	require.False(t, set.Has("DailyDelivery", auth.CapabilityCreate))
	require.False(t, set.Has("DailyDelivery", auth.CapabilityDelete))

	// Unknown resources fail closed.
	require.False(t, set.Has("DeliveryMapping", auth.CapabilityView))
}

func TestUpdateRolePermissionsInvalidatesUserCaches(t *testing.T) {
	fakeCache := newFakePermissionCache()
	ctx := context.Background()

	// Seed cached permission sets for two users of the role.
	require.NoError(t, fakeCache.Set(ctx, cache.GetUserPermissionsCacheKey(1), []auth.ResourcePermission{}, time.Minute))
	require.NoError(t, fakeCache.Set(ctx, cache.GetUserPermissionsCacheKey(2), []auth.ResourcePermission{}, time.Minute))

	rows := []repository.RolePermissionRow{
		{ResourceID: 3, CanView: true, CanUpdate: true},
	}

	mockRepo := new(MockPermissionRepository)
	mockRepo.On("UpdateRolePermissions", mock.Anything, uint(9), rows).Return(nil)
	mockRepo.On("GetUserIDsByRole", mock.Anything, uint(9)).Return([]uint{1, 2}, nil)

	service := &PermissionService{
		permRepo: mockRepo,
		cache:    fakeCache,
		cacheTTL: time.Minute,
	}

	err := service.UpdateRolePermissions(ctx, 9, rows)
	require.NoError(t, err)

	var out []auth.ResourcePermission
	require.ErrorIs(t, fakeCache.Get(ctx, cache.GetUserPermissionsCacheKey(1), &out), cache.ErrCacheMiss)
	require.ErrorIs(t, fakeCache.Get(ctx, cache.GetUserPermissionsCacheKey(2), &out), cache.ErrCacheMiss)

	mockRepo.AssertExpectations(t)
}

func TestUpdateRolePermissionsValidation(t *testing.T) {
	mockRepo := new(MockPermissionRepository)
	service := &PermissionService{permRepo: mockRepo}

	err := service.UpdateRolePermissions(context.Background(), 9, []repository.RolePermissionRow{
		{ResourceID: 0, CanView: true},
	})

	require.Error(t, err)
	require.True(t, IsValidationError(err))
	mockRepo.AssertNotCalled(t, "UpdateRolePermissions", mock.Anything, mock.Anything, mock.Anything)
}
