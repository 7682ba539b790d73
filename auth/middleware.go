package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// identityKey is the gin context key the middleware stores the caller under.
const identityKey = "auth.identity"

// TokenValidator is what the middleware needs from the JWT layer; split out
// so handler tests can stub authentication.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Identity, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved identity on the gin context.
func Middleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		identity, err := validator.ValidateToken(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the authenticated caller set by Middleware.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}

// SetIdentity injects an identity directly; used by handler tests.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(identityKey, id)
}
