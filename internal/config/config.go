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

	GatewayURL         string
	GatewayToken       string
	GatewayTimeout     time.Duration
	GatewayMaxAttempts int
	GatewayBackoff     time.Duration
	GatewayCacheTTL    time.Duration

	CircuitGatewayMinReq      int
	CircuitGatewayFailureRate float64
	CircuitGatewayOpenFor     time.Duration

	SessionTTL     time.Duration
	SessionLockTTL time.Duration

	PricingDefaultVATPercent float64

	AuditEnabled      bool
	AuditSamplingRate float64
	AuditMaxEntries   int

	HealthGatewayTimeout time.Duration
	HealthRedisTimeout   time.Duration
	ShutdownTimeout      time.Duration

	RateLimitPerMinute     int
	BodyLimitBytes         int64
	SecurityHeadersEnabled bool
	EnableHSTS             bool

	LogFormat         string
	LogLevel          string
	MetricsNamespace  string
	MetricsEnabled    bool
	MetricsBucketsMS  string
	TracingEnabled    bool
	TracingExporter   string
	OTLPEndpoint      string
	TracingSampling   float64
	PprofEnabled      bool
	PprofBasicAuthUsr string
	PprofBasicAuthPwd string
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

		GatewayURL:         strings.TrimRight(strings.TrimSpace(k.String("GATEWAY_URL")), "/"),
		GatewayToken:       strings.TrimSpace(k.String("GATEWAY_TOKEN")),
		GatewayTimeout:     parseDuration(k.String("GATEWAY_TIMEOUT"), "5s"),
		GatewayMaxAttempts: parseInt(k.String("GATEWAY_MAX_ATTEMPTS"), 3),
		GatewayBackoff:     parseDuration(k.String("GATEWAY_BACKOFF"), "200ms"),
		GatewayCacheTTL:    parseDuration(k.String("GATEWAY_CACHE_TTL"), "30s"),

		CircuitGatewayMinReq:      parseInt(k.String("CIRCUIT_GATEWAY_MIN_REQ"), 10),
		CircuitGatewayFailureRate: parseFloat(k.String("CIRCUIT_GATEWAY_FAILURE_RATE"), 0.5),
		CircuitGatewayOpenFor:     parseDuration(k.String("CIRCUIT_GATEWAY_OPEN_FOR"), "30s"),

		SessionTTL:     parseDuration(k.String("SESSION_TTL"), "8h"),
		SessionLockTTL: parseDuration(k.String("SESSION_LOCK_TTL"), "5s"),

		PricingDefaultVATPercent: parseFloat(k.String("PRICING_DEFAULT_VAT_PERCENT"), 7),

		AuditEnabled:      parseBoolDefault(k.String("AUDIT_ENABLED"), true),
		AuditSamplingRate: parseFloat(k.String("AUDIT_SAMPLING_RATE"), 1.0),
		AuditMaxEntries:   parseInt(k.String("AUDIT_MAX_ENTRIES"), 200),

		HealthGatewayTimeout: parseDuration(k.String("HEALTH_READY_GATEWAY_TIMEOUT"), "1s"),
		HealthRedisTimeout:   parseDuration(k.String("HEALTH_READY_REDIS_TIMEOUT"), "300ms"),
		ShutdownTimeout:      parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),

		RateLimitPerMinute:     parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 600),
		BodyLimitBytes:         int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHeadersEnabled: parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),
		EnableHSTS:             parseBool(k.String("SECURITY_ENABLE_HSTS")),

		LogFormat:         valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:          valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:  valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "backoffice"),
		MetricsEnabled:    parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsBucketsMS:  k.String("OBS_METRICS_BUCKETS_MS"),
		TracingEnabled:    parseBool(k.String("OBS_ENABLE_TRACING")),
		TracingExporter:   valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		OTLPEndpoint:      strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampling:   parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		PprofEnabled:      parseBool(k.String("OBS_ENABLE_PPROF")),
		PprofBasicAuthUsr: strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
		PprofBasicAuthPwd: strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
	}

	if cfg.GatewayURL == "" {
		return nil, errors.New("GATEWAY_URL is required")
	}
	if cfg.GatewayMaxAttempts <= 0 {
		cfg.GatewayMaxAttempts = 1
	}
	if cfg.PricingDefaultVATPercent < 0 || cfg.PricingDefaultVATPercent > 100 {
		return nil, fmt.Errorf("PRICING_DEFAULT_VAT_PERCENT must be within 0..100, got %v", cfg.PricingDefaultVATPercent)
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

// RedisEnabled reports whether a Redis URL was configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisURL) != ""
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

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
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
