package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yanqian/kisanmitra/internal/infra/config"
	"github.com/yanqian/kisanmitra/internal/infra/identity"
	"github.com/yanqian/kisanmitra/internal/infra/ratelimit"
	"github.com/yanqian/kisanmitra/pkg/tracing"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, limiter ratelimit.Limiter, verifier *identity.Verifier, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		requestIDMiddleware(),
		gin.CustomRecovery(recoveryHandler(logger)),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.CORS.AllowedOrigins),
		metricsMiddleware(),
		errorHandlingMiddleware(logger),
	)

	router.OPTIONS("/*path", preflight)
	router.GET("/healthz", handler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	guarded := router.Group("",
		bodyLimitMiddleware(cfg.HTTP.MaxBodyBytes),
		rateLimitMiddleware(limiter, logger),
		identityMiddleware(verifier),
	)
	guarded.POST("/functions/v1/farming-chat", handler.Chat)

	api := guarded.Group("/api/v1")
	{
		api.POST("/chat", handler.Chat)
		api.POST("/plants/identify", handler.IdentifyPlant)
		api.GET("/languages", handler.Languages)
		api.GET("/crops", handler.Crops)
		api.GET("/crops/:crop/recommendations", handler.CropRecommendations)
		api.GET("/profile", handler.GetProfile)
		api.PUT("/profile", handler.UpdateProfile)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(otelhttp.NewHandler(router, "kisanmitra", otelhttp.WithPropagators(tracing.Propagator())), cfg.HTTP.Retry, cfg.HTTP.MaxBodyBytes, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
