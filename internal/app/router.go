package app

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/travel-backoffice/internal/audit"
	"github.com/noah-isme/travel-backoffice/internal/calculator"
	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/health"
	"github.com/noah-isme/travel-backoffice/internal/obs"
	"github.com/noah-isme/travel-backoffice/internal/ratelimit"
	"github.com/noah-isme/travel-backoffice/internal/security"
	"github.com/noah-isme/travel-backoffice/internal/session"
)

// NewRouter assembles the HTTP surface: operational endpoints at the root
// and the pricing API under /api/v1.
func NewRouter(d *Dependencies) http.Handler {
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(common.OperatorMiddleware)
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", common.OperatorHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.EnableHSTS}.Middleware)

	if cfg.MetricsEnabled && d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofBasicAuthUsr, cfg.PprofBasicAuthPwd))
	}

	healthHandler := health.Handler{
		Checker:        ReadinessChecker{Gateway: d.Gateway, Redis: d.Redis},
		GatewayTimeout: cfg.HealthGatewayTimeout,
		RedisTimeout:   cfg.HealthRedisTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	sessions := session.NewHandler(session.HandlerConfig{Service: d.Sessions, Validator: d.Validator})
	helpers := calculator.NewHandler(d.Calculator, d.Validator)
	trail := audit.HTTPRecorder{
		Service: d.Audit,
		OnError: func(err error) { d.Logger.Warn().Err(err).Msg("audit_record_failed") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		if d.Limiter != nil {
			v.Use(ratelimit.Handler{
				Limiter: d.Limiter,
				Key:     ratelimit.OperatorOrIP,
				OnError: func(err error) { d.Logger.Warn().Err(err).Msg("rate_limit_unavailable") },
			}.Middleware)
		}
		v.Route("/sessions", func(s chi.Router) {
			s.Use(trail.Middleware)
			sessions.Routes(s)
		})
		v.Get("/audit/sessions/{id}", audit.Handler{Service: d.Audit}.List)
		helpers.Routes(v)
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorised", nil)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
