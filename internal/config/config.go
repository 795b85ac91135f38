package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	CORSAllowedOrigins []string

	PaystackSecretKey string
	PaystackBaseURL   string
	ResendAPIKey      string
	ResendBaseURL     string
	EmailFrom         string
	EmailEnabled      bool

	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	RefreshCookieName string
	CookieSecure      bool
	PublicBaseURL     string

	CartKeyPrefix string
	CartTTL       time.Duration

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	ContactRateWindow time.Duration
	ContactRateMax    int
	AuthRateWindow    time.Duration
	AuthRateMax       int
	MaxBodyBytes      int64

	TaxRateBPS          int
	CheckoutLockTTL     time.Duration
	CheckoutCallbackURL string

	OutboundTimeout  time.Duration
	RetryBase        time.Duration
	RetryMaxAttempts int
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "mose-api"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PaystackSecretKey: k.String("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   valueOrDefault(k.String("PAYSTACK_BASE_URL"), "https://api.paystack.co"),
		ResendAPIKey:      k.String("RESEND_API_KEY"),
		ResendBaseURL:     valueOrDefault(k.String("RESEND_BASE_URL"), "https://api.resend.com"),
		EmailFrom:         valueOrDefault(k.String("EMAIL_FROM"), "mose <no-reply@mose.shop>"),
		EmailEnabled:      parseBool(k.String("EMAIL_ENABLED")),

		AccessTokenTTL:    parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL:   parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		RefreshCookieName: valueOrDefault(k.String("REFRESH_COOKIE_NAME"), "mose_refresh"),
		CookieSecure:      parseBool(k.String("COOKIE_SECURE")),
		PublicBaseURL:     valueOrDefault(k.String("PUBLIC_BASE_URL"), "http://localhost:3000"),

		CartKeyPrefix: valueOrDefault(k.String("CART_KEY_PREFIX"), "mose-cart:"),
		CartTTL:       parseDuration(k.String("CART_TTL"), "720h"),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: intOrDefault(k.Int("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     intOrDefault(k.Int("CATALOG_MAX_LIMIT"), 100),

		ContactRateWindow: parseDuration(k.String("CONTACT_RATE_WINDOW"), "1m"),
		ContactRateMax:    intOrDefault(k.Int("CONTACT_RATE_MAX"), 5),
		AuthRateWindow:    parseDuration(k.String("AUTH_RATE_WINDOW"), "1m"),
		AuthRateMax:       intOrDefault(k.Int("AUTH_RATE_MAX"), 10),
		MaxBodyBytes:      int64OrDefault(k.Int64("MAX_BODY_BYTES"), 1<<20),

		TaxRateBPS:          intOrDefault(k.Int("PRICING_TAX_RATE_BPS"), 0),
		CheckoutLockTTL:     parseDuration(k.String("CHECKOUT_LOCK_TTL"), "30s"),
		CheckoutCallbackURL: k.String("CHECKOUT_CALLBACK_URL"),

		OutboundTimeout:  parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryBase:        parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryMaxAttempts: intOrDefault(k.Int("RETRY_MAX_ATTEMPTS"), 3),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func int64OrDefault(value, fallback int64) int64 {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
