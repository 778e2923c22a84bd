package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/travel-backoffice/internal/config"
)

func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string            `json:"id"`
			Method string            `json:"method"`
			Params map[string]string `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.Method == "system.ping":
			_, _ = io.WriteString(w, `{"id":"`+req.ID+`","result":{"ok":true}}`)
		case req.Method == "air_ticket.get" && req.Params["id"] == "A-1":
			_, _ = io.WriteString(w, `{"id":"`+req.ID+`","result":{
				"id":"A-1","status":"pending",
				"lines":{"adult":{"sale":"1000","pax":"2","total":"2000"}},
				"vat_percent":"7","grand_total":"2140"}}`)
		default:
			_, _ = io.WriteString(w, `{"id":"`+req.ID+`","error":{"code":"not_found","message":"no such record"}}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(gatewayURL string) *config.Config {
	return &config.Config{
		AppEnv:                    "test",
		GatewayURL:                gatewayURL,
		GatewayTimeout:            time.Second,
		GatewayMaxAttempts:        1,
		GatewayBackoff:            time.Millisecond,
		CircuitGatewayMinReq:      10,
		CircuitGatewayFailureRate: 0.5,
		CircuitGatewayOpenFor:     time.Second,
		SessionTTL:                time.Hour,
		SessionLockTTL:            time.Second,
		PricingDefaultVATPercent:  7,
		AuditEnabled:              true,
		AuditMaxEntries:           50,
		RateLimitPerMinute:        100,
		BodyLimitBytes:            1 << 16,
		SecurityHeadersEnabled:    true,
		MetricsNamespace:          "backoffice",
		MetricsEnabled:            true,
	}
}

func newTestApp(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := testConfig(fakeGateway(t).URL)
	if mutate != nil {
		mutate(cfg)
	}
	deps, closeFn, err := Build(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return NewRouter(deps)
}

func send(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator-ID", "agent-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestApp(t, nil)

	live := send(t, h, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, live.Code)

	ready := send(t, h, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, ready.Code, ready.Body.String())
	require.JSONEq(t, `{"gateway":"ok","redis":"disabled"}`, ready.Body.String())
}

func TestSessionFromGatewayRecord(t *testing.T) {
	h := newTestApp(t, nil)

	rec := send(t, h, http.MethodPost, "/api/v1/sessions", `{"kind":"air_ticket","record_id":"A-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var out struct {
		Data struct {
			ID    string `json:"id"`
			Quote struct {
				VATMode             string  `json:"vat_mode"`
				DisplayedGrandTotal float64 `json:"displayed_grand_total"`
			} `json:"quote"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "trusting_persisted", out.Data.Quote.VATMode)
	require.Equal(t, 2140.0, out.Data.Quote.DisplayedGrandTotal)

	rec = send(t, h, http.MethodPut, "/api/v1/sessions/"+out.Data.ID+"/vat", `{"vat_percent":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "recomputing", out.Data.Quote.VATMode)
	require.Equal(t, 2200.0, out.Data.Quote.DisplayedGrandTotal)

	trail := send(t, h, http.MethodGet, "/api/v1/audit/sessions/"+out.Data.ID, "")
	require.Equal(t, http.StatusOK, trail.Code)
	var entries struct {
		Data []struct {
			Operator string `json:"operator"`
			Action   string `json:"action"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(trail.Body.Bytes(), &entries))
	require.Len(t, entries.Data, 2)
	require.Equal(t, "agent-1", entries.Data[0].Operator)
	require.Equal(t, "PUT /api/v1/sessions/{id}/vat", entries.Data[0].Action)

	missing := send(t, h, http.MethodPost, "/api/v1/sessions", `{"kind":"air_ticket","record_id":"nope"}`)
	require.Equal(t, http.StatusNotFound, missing.Code)
	require.Contains(t, missing.Body.String(), "RECORD_NOT_FOUND")
}

func TestStatelessHelpersAreMounted(t *testing.T) {
	h := newTestApp(t, nil)

	rec := send(t, h, http.MethodPost, "/api/v1/format", `{"op":"display","value":"1234567"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"1,234,567"`)

	rec = send(t, h, http.MethodPost, "/api/v1/records/gates", `{"status":"issued"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"can_issue":false`)
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	h := newTestApp(t, func(cfg *config.Config) { cfg.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		rec := send(t, h, http.MethodPost, "/api/v1/format", `{"op":"strip","value":"1,000"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := send(t, h, http.MethodPost, "/api/v1/format", `{"op":"strip","value":"1,000"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	health := send(t, h, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, health.Code, "operational endpoints are not limited")
}

func TestBodyLimitApplies(t *testing.T) {
	h := newTestApp(t, func(cfg *config.Config) { cfg.BodyLimitBytes = 32 })
	rec := send(t, h, http.MethodPost, "/api/v1/format", `{"op":"display","value":"`+strings.Repeat("9", 64)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestApp(t, nil)
	_ = send(t, h, http.MethodPost, "/api/v1/format", `{"op":"blur","value":"12.50"}`)

	rec := send(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `backoffice_http_requests_total{method="POST",route="/api/v1/format",status="200"} 1`)
}

func TestPprofRequiresBasicAuth(t *testing.T) {
	h := newTestApp(t, func(cfg *config.Config) {
		cfg.PprofEnabled = true
		cfg.PprofBasicAuthUsr = "ops"
		cfg.PprofBasicAuthPwd = "secret"
	})

	rec := send(t, h, http.MethodGet, "/debug/pprof/", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("ops", "secret")
	authed := httptest.NewRecorder()
	h.ServeHTTP(authed, req)
	require.Equal(t, http.StatusOK, authed.Code)
}
