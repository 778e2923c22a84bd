package obs_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/obs"
)

func TestHTTPMetricsUseRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("backoffice", []float64{10, 1}, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/sessions/{id}", "204")))
	require.Positive(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Zero(t, testutil.ToFloat64(metrics.InFlight))
}

func TestHTTPMetricsUnmatchedRoute(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("backoffice", nil, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.NotFoundHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "unknown", "404")))
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("backoffice", nil, registry)
	second := obs.NewHTTPMetrics("backoffice", nil, registry)
	require.Same(t, first.ReqTotal, second.ReqTotal)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, obs.ParseBucketsCSV("  "))
	require.Equal(t, []float64{5, 25.5}, obs.ParseBucketsCSV("5, x, -1, 0,25.5,"))
}

func TestRequestLoggerWritesStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "debug")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(common.OperatorMiddleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		obs.Logger(r.Context(), zerolog.Nop()).Debug().Msg("inside")
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/sessions/s-1", nil)
	req.Header.Set(common.OperatorHeader, "agent-7")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.Equal(t, "inside", inner["message"])
	require.NotEmpty(t, inner["request_id"])

	var event map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &event))
	require.Equal(t, "http_request", event["message"])
	require.Equal(t, "error", event["level"])
	require.Equal(t, "/sessions/{id}", event["route"])
	require.Equal(t, float64(http.StatusInternalServerError), event["status"])
	require.Equal(t, inner["request_id"], event["request_id"])
}

func TestLoggerFallback(t *testing.T) {
	var buf bytes.Buffer
	fallback := obs.NewLoggerTo(&buf, "json", "info")
	obs.Logger(httptest.NewRequest(http.MethodGet, "/", nil).Context(), fallback).Info().Msg("hello")
	require.Contains(t, buf.String(), `"message":"hello"`)
}

func TestLoggerUsesRequestScopedLogger(t *testing.T) {
	var scoped, fallback bytes.Buffer
	l := obs.NewLoggerTo(&scoped, "json", "info")
	ctx := l.WithContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())

	got := obs.Logger(ctx, obs.NewLoggerTo(&fallback, "json", "info"))
	got.Info().Str("session_id", "s-1").Msg("session_closed")
	require.Contains(t, scoped.String(), `"session_id":"s-1"`)
	require.Empty(t, fallback.String())
}

func TestDomainMetricsHelpersTolerateNilCollectors(t *testing.T) {
	require.NotPanics(t, func() {
		obs.ObserveSessionMutation("deposit", "update", errors.New("boom"))
		obs.ObserveGatewayCall("sale.get", 12, nil)
		obs.ObserveQuote(true)
	})
}
