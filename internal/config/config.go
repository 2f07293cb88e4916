package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
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
	RedisURL           string
	CORSAllowedOrigins []string

	BaseCurrency    string
	CurrencyFactors map[string]float64

	DiscountPercent  float64
	DiscountStartsAt time.Time
	DiscountEndsAt   time.Time

	SessionFormatMultipliers map[string]float64
	InstallmentMinSubtotal   float64

	CheckoutURL                string
	CheckoutTimeout            time.Duration
	CheckoutSettlementCurrency string
	CheckoutMinorUnits         bool

	CircuitCheckoutMinReq      int
	CircuitCheckoutFailureRate float64
	CircuitCheckoutOpenFor     time.Duration

	IdempotencyTTL       time.Duration
	RateLimitWindow      time.Duration
	RateLimitMax         int
	BodyLimitBytes       int64
	SecureHeadersEnabled bool
	HSTSEnabled          bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		BaseCurrency: strings.ToUpper(valueOrDefault(k.String("BASE_CURRENCY"), "USD")),

		DiscountPercent: parseFloat(k.String("DISCOUNT_PERCENT"), 0),

		InstallmentMinSubtotal: parseFloat(k.String("INSTALLMENT_MIN_SUBTOTAL"), 100),

		CheckoutURL:                strings.TrimSpace(k.String("CHECKOUT_URL")),
		CheckoutTimeout:            parseDuration(k.String("CHECKOUT_TIMEOUT"), "10s"),
		CheckoutSettlementCurrency: strings.ToUpper(valueOrDefault(k.String("CHECKOUT_SETTLEMENT_CURRENCY"), "NGN")),
		CheckoutMinorUnits:         parseBool(valueOrDefault(k.String("CHECKOUT_MINOR_UNITS"), "true")),

		CircuitCheckoutMinReq:      parseInt(k.String("CIRCUIT_CHECKOUT_MIN_REQ"), 5),
		CircuitCheckoutFailureRate: parseFloat(k.String("CIRCUIT_CHECKOUT_FAILURE_RATE"), 0.5),
		CircuitCheckoutOpenFor:     parseDuration(k.String("CIRCUIT_CHECKOUT_OPEN_FOR"), "30s"),

		IdempotencyTTL:       parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitWindow:      parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:         parseInt(k.String("RATE_LIMIT_MAX"), 10),
		BodyLimitBytes:       int64(parseInt(k.String("BODY_LIMIT_BYTES"), 64<<10)),
		SecureHeadersEnabled: parseBool(valueOrDefault(k.String("SECURE_HEADERS_ENABLED"), "true")),
		HSTSEnabled:          parseBool(k.String("SECURE_HSTS_ENABLED")),
	}

	var err error
	if cfg.CurrencyFactors, err = parseFloatMap(k.String("CURRENCY_FACTORS")); err != nil {
		return nil, fmt.Errorf("CURRENCY_FACTORS: %w", err)
	}
	if cfg.SessionFormatMultipliers, err = parseFloatMap(k.String("SESSION_FORMAT_MULTIPLIERS")); err != nil {
		return nil, fmt.Errorf("SESSION_FORMAT_MULTIPLIERS: %w", err)
	}
	if cfg.DiscountStartsAt, err = parseTime(k.String("DISCOUNT_STARTS_AT")); err != nil {
		return nil, fmt.Errorf("DISCOUNT_STARTS_AT: %w", err)
	}
	if cfg.DiscountEndsAt, err = parseTime(k.String("DISCOUNT_ENDS_AT")); err != nil {
		return nil, fmt.Errorf("DISCOUNT_ENDS_AT: %w", err)
	}

	if cfg.DiscountPercent < 0 || cfg.DiscountPercent > 100 {
		return nil, errors.New("DISCOUNT_PERCENT must be within [0,100]")
	}
	if !cfg.DiscountStartsAt.IsZero() && !cfg.DiscountEndsAt.IsZero() && cfg.DiscountEndsAt.Before(cfg.DiscountStartsAt) {
		return nil, errors.New("DISCOUNT_ENDS_AT must not precede DISCOUNT_STARTS_AT")
	}
	if cfg.InstallmentMinSubtotal < 0 {
		return nil, errors.New("INSTALLMENT_MIN_SUBTOTAL must not be negative")
	}
	if cfg.AppEnv == "production" && cfg.CheckoutURL == "" {
		return nil, errors.New("CHECKOUT_URL is required in production")
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

// parseFloatMap reads "KEY=1.5,OTHER=2" pairs.
func parseFloatMap(value string) (map[string]float64, error) {
	pairs := splitAndTrim(value)
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid value for %s: %q", key, raw)
		}
		out[key] = v
	}
	return out, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
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

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
