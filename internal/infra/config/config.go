package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM providers understood by the gateway.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	PlantNet PlantNetConfig `yaml:"plantnet"`
	Crops    CropsConfig    `yaml:"crops"`
	Profile  ProfileConfig  `yaml:"profile"`
	Auth     AuthConfig     `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64           `yaml:"maxBodyBytes"`
	CORS            CORSConfig      `yaml:"cors"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is honoured
	// when resolving the client IP. Empty trusts none.
	TrustedProxies  []string        `yaml:"trustedProxies"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
	Retry           RetryConfig     `yaml:"retry"`
}

// CORSConfig lists allowed origins; empty or "*" allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool        `yaml:"enabled"`
	RequestsPerMinute int         `yaml:"requestsPerMinute"`
	Burst             int         `yaml:"burst"`
	Redis             RedisConfig `yaml:"redis"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig selects and configures the upstream chat provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
	// JSONMode sends response_format=json_object on the analysis route.
	JSONMode bool `yaml:"jsonMode"`
}

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// GatewayConfig bounds gateway inputs.
type GatewayConfig struct {
	MaxMessageTokens  int    `yaml:"maxMessageTokens"`
	MaxImageBytes     int    `yaml:"maxImageBytes"`
	DefaultConfidence int    `yaml:"defaultConfidence"`
	TokenEncoding     string `yaml:"tokenEncoding"`
}

// PlantNetConfig configures the Pl@ntNet identification client.
type PlantNetConfig struct {
	APIKey        string        `yaml:"apiKey"`
	BaseURL       string        `yaml:"baseUrl"`
	Organ         string        `yaml:"organ"`
	MinConfidence int           `yaml:"minConfidence"`
	Timeout       time.Duration `yaml:"timeout"`
}

// CropsConfig points at an optional crop catalog override.
type CropsConfig struct {
	CatalogPath string `yaml:"catalogPath"`
}

// ProfileConfig contains profile storage settings.
type ProfileConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	JWKSURL   string `yaml:"jwksUrl"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
}

// RedisConfig contains connection information for Valkey/Redis.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setDuration(&cfg.HTTP.ReadTimeout, "HTTP_READ_TIMEOUT")
	setDuration(&cfg.HTTP.WriteTimeout, "HTTP_WRITE_TIMEOUT")
	setDuration(&cfg.HTTP.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT")
	if v := os.Getenv("HTTP_MAX_BODY_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HTTP.MaxBodyBytes = parsed
		}
	}
	if v := os.Getenv("HTTP_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_TRUSTED_PROXIES"); v != "" {
		cfg.HTTP.TrustedProxies = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.RateLimit.Redis.Enabled, "HTTP_RATE_LIMIT_REDIS_ENABLED")
	setString(&cfg.HTTP.RateLimit.Redis.Addr, "HTTP_RATE_LIMIT_REDIS_ADDR")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	// LOVABLE_API_KEY is the credential name used by the original deployment.
	setString(&cfg.LLM.APIKey, "LOVABLE_API_KEY")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")
	setBool(&cfg.LLM.JSONMode, "LLM_JSON_MODE")

	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")

	setInt(&cfg.Gateway.MaxMessageTokens, "GATEWAY_MAX_MESSAGE_TOKENS")
	setInt(&cfg.Gateway.MaxImageBytes, "GATEWAY_MAX_IMAGE_BYTES")
	setInt(&cfg.Gateway.DefaultConfidence, "GATEWAY_DEFAULT_CONFIDENCE")

	setString(&cfg.PlantNet.APIKey, "PLANTNET_API_KEY")
	setString(&cfg.PlantNet.BaseURL, "PLANTNET_BASE_URL")
	setString(&cfg.PlantNet.Organ, "PLANTNET_ORGAN")
	setInt(&cfg.PlantNet.MinConfidence, "PLANTNET_MIN_CONFIDENCE")

	setString(&cfg.Crops.CatalogPath, "CROPS_CATALOG_PATH")

	setString(&cfg.Profile.Postgres.DSN, "PROFILE_POSTGRES_DSN")
	if v := os.Getenv("PROFILE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Profile.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("PROFILE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Profile.Postgres.MinConns = int32(parsed)
		}
	}

	setString(&cfg.Auth.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	setString(&cfg.Auth.JWKSURL, "AUTH_JWKS_URL")
	setString(&cfg.Auth.Issuer, "AUTH_ISSUER")
	setString(&cfg.Auth.Audience, "AUTH_AUDIENCE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    12 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
				Redis: RedisConfig{
					Prefix: "kisanmitra:ratelimit",
				},
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/metrics",
				},
			},
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			BaseURL:     "https://ai.gateway.lovable.dev/v1",
			Model:       "google/gemini-3-flash-preview",
			Temperature: 0.4,
			MaxTokens:   1024,
			Timeout:     60 * time.Second,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Gateway: GatewayConfig{
			MaxMessageTokens:  4000,
			MaxImageBytes:     8 << 20,
			DefaultConfidence: 60,
			TokenEncoding:     "cl100k_base",
		},
		PlantNet: PlantNetConfig{
			BaseURL:       "https://my-api.plantnet.org",
			Organ:         "leaf",
			MinConfidence: 30,
			Timeout:       30 * time.Second,
		},
		Profile: ProfileConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http.maxBodyBytes must be positive")
	}
	for _, proxy := range c.HTTP.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("http.trustedProxies entry %q is not an IP or CIDR", proxy)
		}
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("llm.apiKey is required for the openai provider (LLM_API_KEY or LOVABLE_API_KEY)")
		}
		if strings.TrimSpace(c.LLM.Model) == "" {
			return errors.New("llm.model cannot be empty")
		}
	case ProviderGemini:
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			return errors.New("gemini.apiKey is required for the gemini provider (GEMINI_API_KEY)")
		}
		if strings.TrimSpace(c.Gemini.Model) == "" {
			return errors.New("gemini.model cannot be empty")
		}
	case ProviderStub:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.Gateway.MaxMessageTokens < 0 {
		return errors.New("gateway.maxMessageTokens cannot be negative")
	}
	if c.Gateway.MaxImageBytes <= 0 {
		return errors.New("gateway.maxImageBytes must be positive")
	}
	if c.Gateway.DefaultConfidence < 0 || c.Gateway.DefaultConfidence > 100 {
		return errors.New("gateway.defaultConfidence must be within 0..100")
	}
	if c.PlantNet.MinConfidence < 0 || c.PlantNet.MinConfidence > 100 {
		return errors.New("plantnet.minConfidence must be within 0..100")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
		if c.HTTP.RateLimit.Redis.Enabled && strings.TrimSpace(c.HTTP.RateLimit.Redis.Addr) == "" {
			return errors.New("http.rateLimit.redis.addr cannot be empty when redis is enabled")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
