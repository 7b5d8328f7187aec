package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ActorResolver maps verified token claims to an application user. It is
// where the role and local user id come from.
type ActorResolver func(ctx context.Context, claims map[string]interface{}) (*models.User, error)

const (
	claimsKey = "claims"
	userKey   = "user"
)

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided verifier and resolves the claims to an actor.
func AuthMiddleware(ver Verifier, resolve ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		c.Set(claimsKey, claims)

		if resolve != nil {
			user, err := resolve(c.Request.Context(), claims)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to resolve user"})
				return
			}
			c.Set(userKey, user)
		}

		c.Next()
	}
}

// CurrentUser returns the actor resolved by AuthMiddleware, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// RequireRole rejects requests whose actor does not hold at least min.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !user.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("%s role required", min)})
			return
		}
		c.Next()
	}
}
