package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/kisanmitra/internal/infra/identity"
)

// identityMiddleware attaches the caller's claims when a bearer token is present.
// Requests without a token continue anonymously; invalid tokens are rejected.
func identityMiddleware(verifier *identity.Verifier) gin.HandlerFunc {
	if !verifier.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, identity.CodeUnauthorized, "Invalid authorization header.", nil))
			return
		}
		claims, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, err)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}
