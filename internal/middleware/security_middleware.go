package middleware

import (
	"net/http"
	"strings"

	"go-pos-ledger/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys under which the authenticated identity is stored for the
// handlers downstream.
const (
	CtxUserID = "userID"
	CtxRole   = "role"
)

// AuthMiddleware guards the /api tree. Every request must carry a
// "Bearer <token>" Authorization header that validates against the JWT
// secret; the token's claims become the request identity.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "A Bearer token is required"})
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole layers on top of AuthMiddleware for the admin-only routes.
// An absent role (route wired without AuthMiddleware) is rejected, not let
// through.
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}
