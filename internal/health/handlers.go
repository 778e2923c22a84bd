package health

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/travel-backoffice/internal/common"
)

// ErrDisabled marks an optional dependency that is not configured. It does
// not fail readiness.
var ErrDisabled = errors.New("disabled")

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the process readiness flag. The API clears it when shutdown
// starts so load balancers drain the instance before the listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker represents dependencies that can be pinged for readiness.
type Checker interface {
	PingGateway(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker        Checker
	GatewayTimeout time.Duration
	RedisTimeout   time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness by pinging each dependency.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "dependencies unavailable"})
		return
	}
	ctx := r.Context()
	gateway, gatewayOK := dependencyStatus(h.Checker.PingGateway(ctx, timeoutOr(h.GatewayTimeout, time.Second)))
	redis, redisOK := dependencyStatus(h.Checker.PingRedis(ctx, timeoutOr(h.RedisTimeout, 300*time.Millisecond)))

	status := http.StatusOK
	if !gatewayOK || !redisOK {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, map[string]string{
		"gateway": gateway,
		"redis":   redis,
	})
}

func dependencyStatus(err error) (string, bool) {
	switch {
	case err == nil:
		return "ok", true
	case errors.Is(err, ErrDisabled):
		return "disabled", true
	default:
		return err.Error(), false
	}
}

func timeoutOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
