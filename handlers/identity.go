package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relrag-api/auth"
)

// subjectFrom returns the authenticated caller's subject or answers 401.
func subjectFrom(c *gin.Context) (string, bool) {
	identity, ok := auth.IdentityFrom(c)
	if !ok || identity.Subject == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return "", false
	}
	return identity.Subject, true
}
