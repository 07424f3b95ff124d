package service

import (
	"context"
	"time"

	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/cache"
	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/repository"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PermissionCache is the subset of cache operations the permission service
// needs. *cache.RedisCache satisfies it.
type PermissionCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PermissionService resolves and administers per-resource permission masks
type PermissionService struct {
	permRepo repository.PermissionRepository
	cache    PermissionCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	db *gorm.DB,
	readOnlyDB *gorm.DB,
	permCache PermissionCache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
) *PermissionService {
	return &PermissionService{
		permRepo: repository.NewPermissionRepository(db, readOnlyDB),
		cache:    permCache,
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// GetUserPermissions returns the user's resource permission masks, serving
// from cache when possible. A cache failure falls through to the database so
// Redis outages degrade to slower lookups rather than denied requests.
func (s *PermissionService) GetUserPermissions(ctx context.Context, userID uint) ([]auth.ResourcePermission, error) {
	cacheKey := cache.GetUserPermissionsCacheKey(userID)

	if s.cache != nil {
		var cached []auth.ResourcePermission
		err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			s.count(metrics.CounterPermissionCacheHit)
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Uint("user_id", userID).Msg("permission cache read failed")
		}
	}
	s.count(metrics.CounterPermissionCacheMiss)

	perms, err := s.permRepo.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user permissions")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, perms, s.cacheTTL); err != nil {
			log.Warn().Err(err).Uint("user_id", userID).Msg("permission cache write failed")
		}
	}

	return perms, nil
}

// PermissionSetFor builds an in-memory permission set for fast route-guard
// lookups during a request.
func (s *PermissionService) PermissionSetFor(ctx context.Context, userID uint) (*auth.PermissionSet, error) {
	perms, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return auth.NewPermissionSet(perms), nil
}

// GetRolePermissions returns the full permission matrix of a role, including
// resources the role has no grants on.
func (s *PermissionService) GetRolePermissions(ctx context.Context, roleID uint) ([]repository.RolePermissionRow, error) {
	return s.permRepo.GetRolePermissions(ctx, roleID)
}

// UpdateRolePermissions replaces a role's permission grants and invalidates
// the cached permission sets of every user holding the role.
func (s *PermissionService) UpdateRolePermissions(ctx context.Context, roleID uint, rows []repository.RolePermissionRow) error {
	for _, row := range rows {
		if row.ResourceID == 0 {
			return NewValidationError("resourceId is required on every permission row")
		}
	}

	if err := s.permRepo.UpdateRolePermissions(ctx, roleID, rows); err != nil {
		return errors.Wrap(err, "failed to update role permissions")
	}

	s.invalidateRoleUsers(ctx, roleID)
	return nil
}

func (s *PermissionService) invalidateRoleUsers(ctx context.Context, roleID uint) {
	if s.cache == nil {
		return
	}

	userIDs, err := s.permRepo.GetUserIDsByRole(ctx, roleID)
	if err != nil {
		log.Error().Err(err).Uint("role_id", roleID).Msg("failed to list users for cache invalidation")
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cache.GetUserPermissionsCacheKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Error().Err(err).Uint("role_id", roleID).Msg("failed to invalidate permission cache")
	}
}

func (s *PermissionService) count(name string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(name)
	}
}
