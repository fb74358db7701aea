package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/01moynul/taptosell-checkout/internal/auth"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/gin-gonic/gin"
)

// TokenValidator is satisfied by *auth.Manager.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// UserLookup resolves the caller's current role.
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
}

func abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}

// AuthMiddleware requires a valid Bearer token and puts the user ID in the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Unauthorized", "authorization header required")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "Unauthorized", "invalid token format (must be Bearer)")
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}

		// 3. --- Success ---
		c.Set(CtxUserID, claims.UserID)
		c.Next()
	}
}

// RequireRole runs after AuthMiddleware. The role is read from the store,
// not the token, so a demotion takes effect immediately.
func RequireRole(users UserLookup, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userID, ok := c.Get(CtxUserID)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}

		// 2. Look up the user's role
		user, err := users.GetUser(c.Request.Context(), userID.(int64))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthorized", "invalid user")
			return
		}

		// 3. Check permission
		for _, r := range roles {
			if user.Role == r {
				c.Set(CtxUserRole, user.Role)
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Forbidden", "access denied: "+strings.Join(roles, " or ")+" role required")
	}
}
