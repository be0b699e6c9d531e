package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var corsAllowedHeaders = []string{
	"authorization",
	"x-client-info",
	"apikey",
	"content-type",
	"x-supabase-client-platform",
	"x-supabase-client-platform-version",
	"x-supabase-client-runtime",
	"x-supabase-client-runtime-version",
	requestIDHeader,
}

// corsMiddleware lets the browser app call the API from any configured origin.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  corsAllowedHeaders,
		ExposeHeaders: []string{"Content-Length", requestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if allowAny(allowed) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowed
	}
	return cors.New(cfg)
}

// preflight answers OPTIONS requests that carry no Origin header, which the
// cors middleware leaves untouched.
func preflight(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

func allowAny(allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, origin := range allowed {
		if origin == "*" {
			return true
		}
	}
	return false
}
