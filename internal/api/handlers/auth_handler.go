package handlers

import (
	"net/http"
	"strconv"

	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles login and permission lookup requests
type AuthHandler struct {
	authService *service.AuthService
	permService *service.PermissionService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, permService *service.PermissionService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		permService: permService,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and returns a token with their permissions
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(c, err)
		return
	}

	log.Info().Uint("user_id", result.UserID).Msg("user logged in")
	c.JSON(http.StatusOK, result)
}

// GetUserPermissions returns a user's resource permission masks
func (h *AuthHandler) GetUserPermissions(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid user id", Code: "VALIDATION_ERROR"})
		return
	}

	perms, err := h.permService.GetUserPermissions(c.Request.Context(), uint(userID))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, perms)
}
