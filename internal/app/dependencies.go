package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/travel-backoffice/internal/audit"
	"github.com/noah-isme/travel-backoffice/internal/cache"
	"github.com/noah-isme/travel-backoffice/internal/calculator"
	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/config"
	"github.com/noah-isme/travel-backoffice/internal/gateway"
	"github.com/noah-isme/travel-backoffice/internal/health"
	"github.com/noah-isme/travel-backoffice/internal/obs"
	"github.com/noah-isme/travel-backoffice/internal/ratelimit"
	"github.com/noah-isme/travel-backoffice/internal/resilience"
	"github.com/noah-isme/travel-backoffice/internal/session"
)

// Dependencies enumerates the services shared by the HTTP layer.
type Dependencies struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Redis       redis.UniversalClient
	Validator   *validator.Validate
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
	HTTPMetrics *obs.HTTPMetrics
	Breaker     *resilience.Breaker
	Gateway     *gateway.Client
	Sessions    *session.Service
	Audit       *audit.Service
	Calculator  *calculator.Service
	Limiter     ratelimit.Limiter
	Tracing     bool
}

// Build wires every dependency from cfg. Without REDIS_URL sessions, record
// caching and rate limits stay in process. A nil reg uses the default
// Prometheus registry. The returned close function releases the Redis
// connection.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*Dependencies, func(), error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, registerer)
	resilience.MustRegisterMetrics(registerer)

	d := &Dependencies{
		Config:     cfg,
		Logger:     logger,
		Validator:  common.NewValidator(),
		Registerer: registerer,
		Gatherer:   gatherer,
		Calculator: &calculator.Service{StandardVAT: cfg.PricingDefaultVATPercent},
	}
	if cfg.MetricsEnabled {
		d.HTTPMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMS), registerer)
	}

	closeFn := func() {}
	if cfg.RedisEnabled() {
		client, err := NewRedis(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		d.Redis = client
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}
	}

	d.Breaker = resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "gateway",
		MinRequests:  cfg.CircuitGatewayMinReq,
		FailureRatio: cfg.CircuitGatewayFailureRate,
		OpenFor:      cfg.CircuitGatewayOpenFor,
		Logger:       logger,
	})
	d.Gateway = gateway.NewClient(gateway.Config{
		BaseURL:     cfg.GatewayURL,
		Token:       cfg.GatewayToken,
		Timeout:     cfg.GatewayTimeout,
		MaxAttempts: cfg.GatewayMaxAttempts,
		Backoff:     cfg.GatewayBackoff,
		Breaker:     d.Breaker,
		Cache:       cache.NewJSON(d.Redis, cfg.GatewayCacheTTL),
		Logger:      logger,
	})

	var (
		store      session.Store
		auditStore audit.Store
	)
	if d.Redis != nil {
		store = session.NewRedisStore(d.Redis, cfg.SessionTTL, cfg.SessionLockTTL)
		auditStore = audit.NewRedisStore(d.Redis, cfg.SessionTTL, cfg.AuditMaxEntries)
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		auditStore = audit.NewMemoryStore(cfg.AuditMaxEntries)
	}
	d.Sessions = session.NewService(session.ServiceConfig{
		Store:       store,
		Records:     d.Gateway,
		StandardVAT: cfg.PricingDefaultVATPercent,
		Logger:      logger,
	})
	d.Audit = &audit.Service{
		Store:        auditStore,
		Enabled:      cfg.AuditEnabled,
		SamplingRate: cfg.AuditSamplingRate,
	}

	if cfg.RateLimitPerMinute > 0 {
		perMinute := int64(cfg.RateLimitPerMinute)
		if d.Redis != nil {
			lim, err := ratelimit.NewRedis(d.Redis, perMinute, time.Minute, cache.RateLimitPrefix())
			if err != nil {
				closeFn()
				return nil, nil, err
			}
			d.Limiter = lim
		} else {
			d.Limiter = ratelimit.NewMemory(perMinute, time.Minute, cache.RateLimitPrefix())
		}
	}
	return d, closeFn, nil
}

// NewRedis connects to cfg.RedisURL with tracing and, when enabled, client metrics.
func NewRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ReadinessChecker pings the gateway and, when configured, Redis.
type ReadinessChecker struct {
	Gateway *gateway.Client
	Redis   redis.UniversalClient
}

func (c ReadinessChecker) PingGateway(ctx context.Context, timeout time.Duration) error {
	if c.Gateway == nil {
		return errors.New("gateway not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Gateway.Ping(ctx)
}

func (c ReadinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.Redis == nil {
		return health.ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Redis.Ping(ctx).Err()
}
