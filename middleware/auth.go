package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bistro-backend/common/auth"
	"github.com/yashrajoria/bistro-backend/models"
)

// ClaimsKey holds the verified claims on the gin context.
const ClaimsKey = "claims"

// Gate is the part of services.AccessGate the middleware chain needs.
type Gate interface {
	Authenticate(token string) (*auth.Claims, error)
	RequireRole(ctx context.Context, claims *auth.Claims, required models.Role) error
}

// Authenticated verifies the bearer token and stores its claims.
func Authenticated(gate Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := gate.Authenticate(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// IsAdmin must run after Authenticated. Without stored claims it answers 401.
func IsAdmin(gate Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.RequireRole(c.Request.Context(), ClaimsFrom(c), models.RoleAdmin); err != nil {
			Abort(c, err)
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Authenticated, or nil.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if val, exists := c.Get(ClaimsKey); exists {
		if claims, ok := val.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// Subject is the verified caller email, or "".
func Subject(c *gin.Context) string {
	if claims := ClaimsFrom(c); claims != nil {
		return claims.Email
	}
	return ""
}

// Abort ends the request with err rendered by the error middleware.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

