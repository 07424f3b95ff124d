package middleware

import (
	"net/http"
	"strings"

	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Context keys set by the authentication middleware
const (
	ContextUserIDKey = "userId"
	ContextRoleIDKey = "roleId"
	ContextClaimsKey = "claims"
)

// TokenParser validates a bearer token and returns its claims.
// *service.AuthService satisfies it.
type TokenParser interface {
	ParseToken(tokenString string) (*service.Claims, error)
}

// Authenticate validates the Authorization bearer token and stores the
// caller's identity on the request context.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header is required",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header must be a bearer token",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		claims, err := parser.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleIDKey, claims.RoleID)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// UserID returns the authenticated user's id from the request context
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// RequireCapability authorizes the request against the caller's permission
// set for a resource. The check is the server-side source of truth; client
// side gating is advisory only. Missing capability aborts with 403.
func RequireCapability(permSvc *service.PermissionService, m *metrics.Metrics, resourceKey string, capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication required",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		set, err := permSvc.PermissionSetFor(c.Request.Context(), userID)
		if err != nil {
			log.Error().Err(err).Uint("user_id", userID).Msg("failed to resolve permission set")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "Could not resolve permissions",
				"code":    "INTERNAL_ERROR",
			})
			return
		}

		if !set.Has(resourceKey, capability) {
			if m != nil {
				m.IncrementCounter(metrics.CounterPermissionDenied)
			}
			log.Warn().
				Uint("user_id", userID).
				Str("resource", resourceKey).
				Int("capability", int(capability)).
				Msg("permission denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "You do not have permission to perform this action",
				"code":    "FORBIDDEN",
			})
			return
		}

		c.Next()
	}
}
