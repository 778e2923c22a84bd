package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/travel-backoffice/internal/cache"
	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/obs"
	"github.com/noah-isme/travel-backoffice/internal/resilience"
)

var (
	// ErrNotFound is returned when the gateway has no record with the requested id.
	ErrNotFound = errors.New("gateway: record not found")
	// ErrUnavailable is returned when the gateway cannot be reached or keeps failing.
	ErrUnavailable = errors.New("gateway: unavailable")
)

const maxResponseBytes = 4 << 20

// RPCError is an application error reported by the gateway.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("gateway: %s: %s", e.Code, e.Message)
}

// Config wires a Client.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	Breaker     *resilience.Breaker
	Cache       *cache.JSON
	Logger      zerolog.Logger
	// HTTPClient overrides the instrumented default, mainly for tests.
	HTTPClient *http.Client
}

// Client fetches persisted sales records from the back-office gateway.
type Client struct {
	endpoint string
	token    string
	http     resilience.HTTPClient
	pinger   resilience.HTTPClient
	cache    *cache.JSON
	logger   zerolog.Logger
}

// NewClient constructs a gateway client.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	retrying := resilience.HTTPClient{
		Client:      hc,
		Breaker:     cfg.Breaker,
		BaseBackoff: cfg.Backoff,
		MaxAttempts: cfg.MaxAttempts,
		Jitter:      0.2,
		Timeout:     cfg.Timeout,
	}
	pinger := retrying
	pinger.MaxAttempts = 1
	pinger.Breaker = nil
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/rpc",
		token:    cfg.Token,
		http:     retrying,
		pinger:   pinger,
		cache:    cfg.Cache,
		logger:   cfg.Logger,
	}
}

// FetchSale loads a non-deposit sales record of the given kind.
func (c *Client) FetchSale(ctx context.Context, kind Kind, id string) (SaleRecord, error) {
	var rec SaleRecord
	if err := c.fetch(ctx, kind, id, &rec); err != nil {
		return SaleRecord{}, err
	}
	if rec.Kind == "" {
		rec.Kind = kind
	}
	return rec, nil
}

// FetchDeposit loads a deposit record including installments and payments.
func (c *Client) FetchDeposit(ctx context.Context, id string) (DepositRecord, error) {
	var rec DepositRecord
	if err := c.fetch(ctx, KindDeposit, id, &rec); err != nil {
		return DepositRecord{}, err
	}
	if rec.Kind == "" {
		rec.Kind = KindDeposit
	}
	return rec, nil
}

// Invalidate drops a cached record so the next fetch goes to the gateway.
func (c *Client) Invalidate(ctx context.Context, kind Kind, id string) error {
	_, err := c.cache.Delete(ctx, cache.RecordKey(string(kind), id))
	return err
}

// Ping checks the gateway answers an RPC call. It bypasses retries and the
// breaker so readiness reflects the current state.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, c.pinger, "system.ping", struct{}{}, nil)
}

func (c *Client) fetch(ctx context.Context, kind Kind, id string, dst any) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrNotFound)
	}
	key := cache.RecordKey(string(kind), id)
	if found, err := c.cache.Get(ctx, key, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("gateway_cache_read_failed")
	} else if found {
		return nil
	}

	params := map[string]string{"id": id}
	if err := c.call(ctx, c.http, string(kind)+".get", params, dst); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, key, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("gateway_cache_write_failed")
	}
	return nil
}

type rpcRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, hc resilience.HTTPClient, method string, params, dst any) (err error) {
	ctx, span := otel.Tracer("gateway.Client").Start(ctx, "gateway."+method)
	start := time.Now()
	defer func() {
		obs.ObserveGatewayCall(method, obs.DurationMillis(time.Since(start)), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	reqID := uuid.NewString()
	span.SetAttributes(attribute.String("rpc.method", method), attribute.String("rpc.id", reqID))
	body, err := json.Marshal(rpcRequest{ID: reqID, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("gateway: encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: build %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if operator, ok := common.Operator(ctx); ok {
		req.Header.Set(common.OperatorHeader, operator)
	}

	resp, err := hc.Do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, method)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&envelope); err != nil {
		return fmt.Errorf("gateway: decode %s response: %w", method, err)
	}
	if envelope.ID != "" && envelope.ID != reqID {
		return fmt.Errorf("gateway: %s response id %q does not match request %q", method, envelope.ID, reqID)
	}
	if envelope.Error != nil {
		if strings.EqualFold(envelope.Error.Code, "not_found") {
			return fmt.Errorf("%w: %s", ErrNotFound, envelope.Error.Message)
		}
		return envelope.Error
	}
	if dst == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return fmt.Errorf("%w: %s returned no result", ErrNotFound, method)
	}
	if err := json.Unmarshal(envelope.Result, dst); err != nil {
		return fmt.Errorf("gateway: decode %s result: %w", method, err)
	}
	return nil
}
