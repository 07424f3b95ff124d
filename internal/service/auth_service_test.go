package service

import (
	"context"
	"testing"
	"time"

	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/models"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Mock UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           42,
		Username:     "ops.manager",
		Email:        "ops@example.com",
		PasswordHash: string(hash),
		RoleID:       2,
		Role:         models.Role{ID: 2, Name: "Operations"},
		IsActive:     true,
	}
}

func newTestAuthService(userRepo repository.UserRepository, permRepo repository.PermissionRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		permSvc:   &PermissionService{permRepo: permRepo},
		jwtSecret: []byte("test-secret"),
		tokenTTL:  time.Hour,
	}
}

func TestLoginIssuesToken(t *testing.T) {
	user := testUser(t, "s3cret")
	perms := []auth.ResourcePermission{{ResourceKey: "DailyDelivery", PermissionMask: 5}}

	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "ops@example.com").Return(user, nil)

	mockPerms := new(MockPermissionRepository)
	mockPerms.On("GetUserPermissions", mock.Anything, uint(42)).Return(perms, nil)

	service := newTestAuthService(mockUsers, mockPerms)

	result, err := service.Login(context.Background(), "ops@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, uint(42), result.UserID)
	require.Equal(t, "Operations", result.RoleName)
	require.Equal(t, perms, result.Permissions)

	claims, err := service.ParseToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, uint(2), claims.RoleID)
	require.Equal(t, "ops@example.com", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "s3cret")

	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "ops@example.com").Return(user, nil)

	service := newTestAuthService(mockUsers, new(MockPermissionRepository))

	_, err := service.Login(context.Background(), "ops@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)

	service := newTestAuthService(mockUsers, new(MockPermissionRepository))

	_, err := service.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	user := testUser(t, "s3cret")
	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "ops@example.com").Return(user, nil)

	mockPerms := new(MockPermissionRepository)
	mockPerms.On("GetUserPermissions", mock.Anything, uint(42)).Return([]auth.ResourcePermission{}, nil)

	service := newTestAuthService(mockUsers, mockPerms)

	result, err := service.Login(context.Background(), "ops@example.com", "s3cret")
	require.NoError(t, err)

	// A token signed with another secret does not parse.
	other := &AuthService{jwtSecret: []byte("different-secret")}
	_, err = other.ParseToken(result.Token)
	require.Error(t, err)

	_, err = service.ParseToken(result.Token + "x")
	require.Error(t, err)
}
