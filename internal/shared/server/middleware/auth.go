package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/shared/auth"
	"tradeportal-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userRoleKey  = "userRole"
	userNameKey  = "userName"
	linkTokenKey = "linkToken"
	isStaffKey   = "isStaff"
)

// Auth validates staff bearer tokens or captures the anonymous client's link
// token. The link token is a capability: handlers check it against the target
// application instead of a user identity.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(jwtSecret, token)
			if err != nil || !auth.IsStaffRole(claims.Role) {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(userIDKey, claims.Subject)
			c.Set(userRoleKey, claims.Role)
			if claims.Username != "" {
				c.Set(userNameKey, claims.Username)
			}
			c.Set(isStaffKey, true)
			c.Next()
			return
		}

		linkToken := strings.TrimSpace(c.GetHeader("X-Link-Token"))
		if linkToken == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(linkTokenKey, linkToken)
		c.Set(isStaffKey, false)
		c.Next()
	}
}

// RequireRole rejects requests whose staff role is not in the allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := RoleFromContext(c)
		if _, ok := allowed[role]; !ok {
			respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}

func isPublicPath(path string) bool {
	switch {
	case path == "/api/v1/health",
		path == "/metrics",
		path == "/api/v1/applications/verify-password",
		strings.HasPrefix(path, "/api/v1/applications/token/"):
		return true
	default:
		return false
	}
}

// UserIDFromContext fetches the staff user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// RoleFromContext fetches the staff role set by the auth middleware.
func RoleFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userRoleKey)
	if role, ok := val.(string); ok {
		return role
	}
	return ""
}

// LinkTokenFromContext fetches the anonymous client's link token, if any.
func LinkTokenFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(linkTokenKey)
	if token, ok := val.(string); ok {
		return token
	}
	return ""
}

// IsStaff reports whether the request carries a verified staff identity.
func IsStaff(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(isStaffKey)
	staff, _ := val.(bool)
	return staff
}
