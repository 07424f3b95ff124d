package handlers

import (
	"net/http"
	"strconv"

	"example.com/backstage/services/distribution/internal/repository"
	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
)

// PermissionHandler handles role permission administration
type PermissionHandler struct {
	permService *service.PermissionService
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permService *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permService: permService}
}

// GetRolePermissions returns the full permission matrix of a role
func (h *PermissionHandler) GetRolePermissions(c *gin.Context) {
	roleID, err := strconv.ParseUint(c.Param("roleId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid role id", Code: "VALIDATION_ERROR"})
		return
	}

	rows, err := h.permService.GetRolePermissions(c.Request.Context(), uint(roleID))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// UpdateRolePermissionsRequest wraps the submitted permission rows
type UpdateRolePermissionsRequest struct {
	Permissions []repository.RolePermissionRow `json:"permissions" binding:"required"`
}

// UpdateRolePermissions replaces a role's permission grants. Cached
// permission sets of the role's users are invalidated so the change takes
// effect on their next request.
func (h *PermissionHandler) UpdateRolePermissions(c *gin.Context) {
	roleID, err := strconv.ParseUint(c.Param("roleId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid role id", Code: "VALIDATION_ERROR"})
		return
	}

	var req UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	if err := h.permService.UpdateRolePermissions(c.Request.Context(), uint(roleID), req.Permissions); err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": 1, "message": "Role permissions updated"})
}
