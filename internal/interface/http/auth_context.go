package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/kisanmitra/internal/infra/identity"
)

const authClaimsKey = "auth_claims"

func setClaims(c *gin.Context, claims identity.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (identity.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return identity.Claims{}, false
	}
	claims, ok := value.(identity.Claims)
	return claims, ok
}

// currentUserID returns the verified subject, or "" for anonymous callers.
func currentUserID(c *gin.Context) string {
	claims, ok := getClaims(c)
	if !ok {
		return ""
	}
	return claims.Subject
}
