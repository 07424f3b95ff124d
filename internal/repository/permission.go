package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/models"
)

// RolePermissionRow is one resource's capability flags for a role, the shape
// used by the role administration screens
type RolePermissionRow struct {
	ResourceID   uint   `json:"resourceId"`
	ResourceName string `json:"resourceName"`
	CanView      bool   `json:"canView"`
	CanCreate    bool   `json:"canCreate"`
	CanUpdate    bool   `json:"canUpdate"`
	CanDelete    bool   `json:"canDelete"`
}

// PermissionRepository defines data access for resource permissions
type PermissionRepository interface {
	GetUserPermissions(ctx context.Context, userID uint) ([]auth.ResourcePermission, error)
	GetRolePermissions(ctx context.Context, roleID uint) ([]RolePermissionRow, error)
	UpdateRolePermissions(ctx context.Context, roleID uint, rows []RolePermissionRow) error
	GetUserIDsByRole(ctx context.Context, roleID uint) ([]uint, error)
}

type permissionRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db, readOnlyDB *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db, readOnlyDB: readOnlyDB}
}

// GetUserPermissions resolves a user's permission list through their role,
// composing the stored capability flags into masks.
func (r *permissionRepository) GetUserPermissions(ctx context.Context, userID uint) ([]auth.ResourcePermission, error) {
	var user models.User
	err := r.readOnlyDB.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rows []struct {
		ResourceKey string
		CanView     bool
		CanCreate   bool
		CanUpdate   bool
		CanDelete   bool
	}
	err = r.readOnlyDB.WithContext(ctx).
		Model(&models.RolePermission{}).
		Select("resources.resource_key, role_permissions.can_view, role_permissions.can_create, role_permissions.can_update, role_permissions.can_delete").
		Joins("JOIN resources ON resources.id = role_permissions.resource_id").
		Where("role_permissions.role_id = ?", user.RoleID).
		Order("resources.resource_key").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	perms := make([]auth.ResourcePermission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, auth.ResourcePermission{
			ResourceKey:    row.ResourceKey,
			PermissionMask: auth.MaskFromFlags(row.CanView, row.CanCreate, row.CanUpdate, row.CanDelete),
		})
	}
	return perms, nil
}

// GetRolePermissions lists every resource with the role's flags, including
// resources the role has no grants on yet.
func (r *permissionRepository) GetRolePermissions(ctx context.Context, roleID uint) ([]RolePermissionRow, error) {
	var rows []RolePermissionRow
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Resource{}).
		Select(`resources.id AS resource_id,
			resources.display_name AS resource_name,
			COALESCE(role_permissions.can_view, false) AS can_view,
			COALESCE(role_permissions.can_create, false) AS can_create,
			COALESCE(role_permissions.can_update, false) AS can_update,
			COALESCE(role_permissions.can_delete, false) AS can_delete`).
		Joins("LEFT JOIN role_permissions ON role_permissions.resource_id = resources.id AND role_permissions.role_id = ?", roleID).
		Order("resources.resource_key").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateRolePermissions upserts the role's capability flags per resource
func (r *permissionRepository) UpdateRolePermissions(ctx context.Context, roleID uint, rows []RolePermissionRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			perm := models.RolePermission{
				RoleID:     roleID,
				ResourceID: row.ResourceID,
				CanView:    row.CanView,
				CanCreate:  row.CanCreate,
				CanUpdate:  row.CanUpdate,
				CanDelete:  row.CanDelete,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "role_id"}, {Name: "resource_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"can_view", "can_create", "can_update", "can_delete", "updated_at",
				}),
			}).Create(&perm).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUserIDsByRole lists the IDs of users holding a role, used for cache
// invalidation after a role's permissions change.
func (r *permissionRepository) GetUserIDsByRole(ctx context.Context, roleID uint) ([]uint, error) {
	var ids []uint
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.User{}).
		Where("role_id = ?", roleID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
