package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/gateway"
	"github.com/noah-isme/travel-backoffice/internal/lock"
	"github.com/noah-isme/travel-backoffice/internal/numfmt"
	"github.com/noah-isme/travel-backoffice/internal/pricing"
)

// Handler exposes the pricing session endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = common.NewValidator()
	}
	return &Handler{service: cfg.Service, validate: v}
}

type openRequest struct {
	Kind       string          `json:"kind" validate:"required,oneof=air_ticket deposit voucher other"`
	RecordID   string          `json:"record_id" validate:"omitempty,max=128"`
	VATPercent *numfmt.Lenient `json:"vat_percent"`
	Refresh    bool            `json:"refresh"`
}

type lineRequest struct {
	Category string          `json:"category" validate:"required,oneof=adult child infant"`
	Field    string          `json:"field" validate:"required,oneof=net sale pax"`
	Value    numfmt.Lenient  `json:"value"`
	Total    *numfmt.Lenient `json:"total"`
}

type vatRequest struct {
	VATPercent numfmt.Lenient `json:"vat_percent"`
}

type extrasRequest struct {
	Extras []pricing.Extra `json:"extras" validate:"max=100"`
}

type installmentRequest struct {
	Amount numfmt.Lenient `json:"amount"`
	Pax    numfmt.Lenient `json:"pax"`
}

// Open handles POST /api/v1/sessions.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := common.DecodeJSON(r, h.validate, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	kind, _ := gateway.ParseKind(req.Kind)
	in := OpenInput{Kind: kind, RecordID: req.RecordID, Refresh: req.Refresh}
	if req.VATPercent != nil {
		vat := string(*req.VATPercent)
		in.VATPercent = &vat
	}
	sess, err := h.service.Open(r.Context(), in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID)
	common.Data(w, http.StatusCreated, NewView(sess))
}

// Get handles GET /api/v1/sessions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, sess, err)
}

// UpdateLine handles PATCH /api/v1/sessions/{id}/lines.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := common.DecodeJSON(r, h.validate, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	category, _ := pricing.ParseCategory(req.Category)
	edit := LineEdit{
		Category: category,
		Field:    pricing.Field(req.Field),
		Value:    string(req.Value),
	}
	if req.Total != nil && strings.TrimSpace(string(*req.Total)) != "" {
		total := req.Total.Float()
		edit.Total = &total
	}
	sess, err := h.service.UpdateLine(r.Context(), chi.URLParam(r, "id"), edit)
	h.respond(w, sess, err)
}

// SetVAT handles PUT /api/v1/sessions/{id}/vat.
func (h *Handler) SetVAT(w http.ResponseWriter, r *http.Request) {
	var req vatRequest
	if err := common.DecodeJSON(r, h.validate, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	sess, err := h.service.SetVAT(r.Context(), chi.URLParam(r, "id"), string(req.VATPercent))
	h.respond(w, sess, err)
}

// SetExtras handles PUT /api/v1/sessions/{id}/extras.
func (h *Handler) SetExtras(w http.ResponseWriter, r *http.Request) {
	var req extrasRequest
	if err := common.DecodeJSON(r, h.validate, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	sess, err := h.service.SetExtras(r.Context(), chi.URLParam(r, "id"), req.Extras)
	h.respond(w, sess, err)
}

// SetInstallment handles PUT /api/v1/sessions/{id}/deposits/{n}.
func (h *Handler) SetInstallment(w http.ResponseWriter, r *http.Request) {
	var req installmentRequest
	if err := common.DecodeJSON(r, h.validate, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	n := common.AtoiDefault(chi.URLParam(r, "n"), 0)
	inst := pricing.Installment{Amount: string(req.Amount), Pax: req.Pax.Int()}
	sess, err := h.service.SetInstallment(r.Context(), chi.URLParam(r, "id"), n, inst)
	h.respond(w, sess, err)
}

// Reset handles POST /api/v1/sessions/{id}/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Reset(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, sess, err)
}

// Close handles DELETE /api/v1/sessions/{id}.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes mounts the session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Open)
	r.Route("/{id}", func(s chi.Router) {
		s.Get("/", h.Get)
		s.Delete("/", h.Close)
		s.Patch("/lines", h.UpdateLine)
		s.Put("/vat", h.SetVAT)
		s.Put("/extras", h.SetExtras)
		s.Put("/deposits/{n}", h.SetInstallment)
		s.Post("/reset", h.Reset)
	})
}

func (h *Handler) respond(w http.ResponseWriter, sess *Session, err error) {
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, NewView(sess))
}

func toAppError(err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var rpcErr *gateway.RPCError
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NewAppError("SESSION_NOT_FOUND", "session not found", http.StatusNotFound, err)
	case errors.Is(err, ErrInstallmentSlot):
		return common.NewAppError("INSTALLMENT_NOT_FOUND", "installment must be 1 or 2", http.StatusNotFound, err)
	case errors.Is(err, ErrNotDeposit):
		return common.NewAppError("NOT_DEPOSIT_SESSION", "installments are only available on deposit sessions", http.StatusConflict, err)
	case errors.Is(err, lock.ErrTimeout):
		return common.NewAppError("SESSION_BUSY", "session is being modified, retry", http.StatusConflict, err)
	case errors.Is(err, gateway.ErrNotFound):
		return common.NewAppError("RECORD_NOT_FOUND", "record not found", http.StatusNotFound, err)
	case errors.Is(err, gateway.ErrUnavailable):
		return common.NewAppError("GATEWAY_UNAVAILABLE", "record gateway unavailable", http.StatusServiceUnavailable, err)
	case errors.As(err, &rpcErr):
		return common.NewAppError("GATEWAY_ERROR", rpcErr.Message, http.StatusBadGateway, err)
	}
	return err
}
