package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/kisanmitra/internal/domain/crops"
	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/plantid"
	"github.com/yanqian/kisanmitra/internal/domain/profile"
	"github.com/yanqian/kisanmitra/internal/infra/config"
	"github.com/yanqian/kisanmitra/internal/infra/identity"
	"github.com/yanqian/kisanmitra/internal/infra/llm/gemini"
	"github.com/yanqian/kisanmitra/internal/infra/llm/openai"
	"github.com/yanqian/kisanmitra/internal/infra/llm/stub"
	"github.com/yanqian/kisanmitra/internal/infra/plantnet"
	"github.com/yanqian/kisanmitra/internal/infra/profilerepo"
	"github.com/yanqian/kisanmitra/internal/infra/ratelimit"
	"github.com/yanqian/kisanmitra/internal/infra/tokens"
)

func provideGatewayConfig(cfg *config.Config) gateway.Config {
	return gateway.Config{
		Timeout:           cfg.LLM.Timeout,
		MaxMessageTokens:  cfg.Gateway.MaxMessageTokens,
		MaxImageBytes:     cfg.Gateway.MaxImageBytes,
		DefaultConfidence: cfg.Gateway.DefaultConfidence,
	}
}

func provideLLMProvider(cfg *config.Config, logger *slog.Logger) (gateway.Provider, func(), error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(context.Background(), gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("llm provider selected", "provider", client.Name(), "model", cfg.Gemini.Model)
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("close gemini client", "error", err)
			}
		}
		return client, cleanup, nil
	case config.ProviderStub:
		logger.Warn("llm provider selected", "provider", "stub", "note", "offline answers only")
		return stub.NewClient(), func() {}, nil
	default:
		client, err := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
			JSONMode:    cfg.LLM.JSONMode,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("llm provider selected", "provider", client.Name(), "model", cfg.LLM.Model, "base_url", cfg.LLM.BaseURL)
		return client, func() {}, nil
	}
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) *tokens.Counter {
	return tokens.NewCounter(cfg.Gateway.TokenEncoding, logger)
}

func provideLanguagePreferences(svc profile.Service) gateway.LanguagePreferences {
	return svc
}

func provideProfileRepository(cfg *config.Config, logger *slog.Logger) (profile.Repository, func()) {
	fallback := profilerepo.NewMemoryRepository()
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Profile.Postgres.DSN)
	if dsn == "" {
		logger.Info("profile postgres dsn not set, using memory repository")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback, noop
	}
	if cfg.Profile.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Profile.Postgres.MaxConns
	}
	if cfg.Profile.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Profile.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("profile postgres repository enabled")
	return profilerepo.NewPostgresRepository(pool), pool.Close
}

func providePlantIDConfig(cfg *config.Config) plantid.Config {
	return plantid.Config{
		MinConfidence: cfg.PlantNet.MinConfidence,
		DefaultOrgan:  cfg.PlantNet.Organ,
		MaxImageBytes: cfg.Gateway.MaxImageBytes,
		Timeout:       cfg.PlantNet.Timeout,
		AdviceTimeout: cfg.LLM.Timeout,
	}
}

// providePlantIDClient returns a nil interface when no key is configured so the
// identification endpoint reports itself as unavailable.
func providePlantIDClient(cfg *config.Config, logger *slog.Logger) plantid.Client {
	if strings.TrimSpace(cfg.PlantNet.APIKey) == "" {
		logger.Info("plantnet api key not set, plant identification disabled")
		return nil
	}
	client, err := plantnet.NewClient(cfg.PlantNet.APIKey, cfg.PlantNet.BaseURL, cfg.PlantNet.Timeout)
	if err != nil {
		logger.Error("failed to create plantnet client, plant identification disabled", "error", err)
		return nil
	}
	return client
}

func provideCropsConfig(cfg *config.Config) crops.Config {
	return crops.Config{CatalogPath: cfg.Crops.CatalogPath}
}

func provideRateLimiter(cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, func()) {
	noop := func() {}
	rl := cfg.HTTP.RateLimit
	if !rl.Enabled || rl.RequestsPerMinute <= 0 {
		logger.Info("rate limiting disabled")
		return nil, noop
	}
	limits := ratelimit.Config{RequestsPerMinute: rl.RequestsPerMinute, Burst: rl.Burst}
	if rl.Redis.Enabled {
		opt, err := buildValkeyOptions(rl.Redis.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory limiter", "error", err)
			return ratelimit.NewMemoryLimiter(limits), noop
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory limiter", "error", err)
			return ratelimit.NewMemoryLimiter(limits), noop
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory limiter", "error", err)
			client.Close()
		} else {
			logger.Info("valkey rate limiter enabled", "addr", rl.Redis.Addr)
			return ratelimit.NewValkeyLimiter(client, rl.Redis.Prefix, limits), client.Close
		}
	}
	return ratelimit.NewMemoryLimiter(limits), noop
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideIdentityVerifier(cfg *config.Config, logger *slog.Logger) *identity.Verifier {
	verifier := identity.NewVerifier(context.Background(), identity.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		JWKSURL:   cfg.Auth.JWKSURL,
		Issuer:    cfg.Auth.Issuer,
		Audience:  cfg.Auth.Audience,
	})
	if !verifier.Enabled() {
		logger.Info("auth not configured, all callers are anonymous")
	}
	return verifier
}
