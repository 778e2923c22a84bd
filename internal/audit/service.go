package audit

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/obs"
)

// AnonymousOperator is recorded when a request carries no operator header.
const AnonymousOperator = "anonymous"

// Entry is one audited session edit.
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Operator  string    `json:"operator"`
	Action    string    `json:"action"`
	Method    string    `json:"method"`
	Route     string    `json:"route"`
	Status    int       `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	At        time.Time `json:"at"`
}

// Store keeps the newest entries of each session first.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, sessionID string, limit int) ([]Entry, error)
}

// Service records operator edits against pricing sessions.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
	Now          func() time.Time
}

// Record stores an entry for the session edit carried by req. Disabled or
// sampled-out calls are no-ops.
func (s Service) Record(ctx context.Context, req *http.Request, sessionID, action string, status int) error {
	if !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 && rand.Float64() > s.SamplingRate {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return errors.New("audit: session id is required")
	}

	route := routeOf(req)
	operator, ok := common.Operator(req.Context())
	if !ok {
		operator = AnonymousOperator
	}
	requestID := middleware.GetReqID(req.Context())
	if requestID == "" {
		requestID = strings.TrimSpace(req.Header.Get(middleware.RequestIDHeader))
	}
	if status == 0 {
		status = http.StatusOK
	}

	return s.Store.Append(ctx, Entry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Operator:  operator,
		Action:    buildAction(action, req.Method, route),
		Method:    req.Method,
		Route:     route,
		Status:    status,
		RequestID: requestID,
		IP:        common.ClientIP(req),
		At:        s.now(),
	})
}

// List returns up to limit entries for a session, newest first.
func (s Service) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if s.Store == nil {
		return nil, errors.New("audit: store not configured")
	}
	return s.Store.List(ctx, sessionID, limit)
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func routeOf(req *http.Request) string {
	if route := obs.RoutePatternFromContext(req.Context()); route != "" {
		return route
	}
	if rc := chi.RouteContext(req.Context()); rc != nil {
		if route := rc.RoutePattern(); route != "" {
			return route
		}
	}
	return strings.TrimSpace(req.URL.Path)
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	target := strings.TrimSpace(route)
	if target == "" {
		target = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + target
}
