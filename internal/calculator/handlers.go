package calculator

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/travel-backoffice/internal/common"
	"github.com/noah-isme/travel-backoffice/internal/numfmt"
	"github.com/noah-isme/travel-backoffice/internal/pricing"
	"github.com/noah-isme/travel-backoffice/internal/workflow"
)

// Handler exposes the stateless pricing helpers.
type Handler struct {
	Svc       *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler. A nil validator gets the shared defaults.
func NewHandler(svc *Service, v *validator.Validate) *Handler {
	if v == nil {
		v = common.NewValidator()
	}
	return &Handler{Svc: svc, Validator: v}
}

type lineInput struct {
	Net   numfmt.Lenient  `json:"net"`
	Sale  numfmt.Lenient  `json:"sale"`
	Pax   numfmt.Lenient  `json:"pax"`
	Total *numfmt.Lenient `json:"total"`
}

type installmentInput struct {
	Amount numfmt.Lenient `json:"amount"`
	Pax    numfmt.Lenient `json:"pax"`
}

type quoteRequest struct {
	Lines            map[string]lineInput `json:"lines" validate:"max=3,dive,keys,oneof=adult child infant,endkeys"`
	VATPercent       *numfmt.Lenient      `json:"vat_percent"`
	Extras           []pricing.Extra      `json:"extras" validate:"max=100"`
	Installments     []installmentInput   `json:"installments" validate:"omitempty,max=2"`
	ActualTotal      *numfmt.Lenient      `json:"actual_total"`
	ActualVATPercent *numfmt.Lenient      `json:"actual_vat_percent"`
	VATInput         *numfmt.Lenient      `json:"vat_input"`
}

type formatRequest struct {
	Op    string         `json:"op" validate:"required,oneof=display strip blur validate"`
	Value numfmt.Lenient `json:"value"`
}

type gatesRequest struct {
	Status      string `json:"status" validate:"max=64"`
	VoucherCode string `json:"voucher_code" validate:"max=128"`
}

type depositStatusRequest struct {
	FlightTicketReference string             `json:"flight_ticket_reference"`
	CustomerPayments      []workflow.Payment `json:"customer_payments" validate:"max=500"`
	GrandTotal            numfmt.Lenient     `json:"grand_total"`
}

// Quote handles POST /api/v1/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := common.DecodeJSON(r, h.Validator, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	in := QuoteRequest{
		Lines:            make(map[pricing.Category]LineInput, len(req.Lines)),
		VATPercent:       floatOrNil(req.VATPercent),
		Extras:           req.Extras,
		ActualTotal:      floatOrNil(req.ActualTotal),
		ActualVATPercent: floatOrNil(req.ActualVATPercent),
	}
	for name, line := range req.Lines {
		c, ok := pricing.ParseCategory(name)
		if !ok {
			continue
		}
		in.Lines[c] = LineInput{
			Net:   string(line.Net),
			Sale:  string(line.Sale),
			Pax:   string(line.Pax),
			Total: floatOrNil(line.Total),
		}
	}
	if req.Installments != nil {
		in.Installments = make([]pricing.Installment, 0, len(req.Installments))
		for _, inst := range req.Installments {
			in.Installments = append(in.Installments, pricing.Installment{Amount: string(inst.Amount), Pax: inst.Pax.Int()})
		}
	}
	if req.VATInput != nil {
		typed := string(*req.VATInput)
		in.VATInput = &typed
	}

	q := h.Svc.Quote(in)
	common.Data(w, http.StatusOK, map[string]any{
		"quote":     q,
		"formatted": q.Formatted(),
	})
}

// Format handles POST /api/v1/format.
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := common.DecodeJSON(r, h.Validator, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := Format(req.Op, string(req.Value))
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_OPERATION", err.Error(), nil)
		return
	}
	common.Data(w, http.StatusOK, res)
}

// Gates handles POST /api/v1/records/gates.
func (h *Handler) Gates(w http.ResponseWriter, r *http.Request) {
	var req gatesRequest
	if err := common.DecodeJSON(r, h.Validator, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	rec := workflow.Record{Status: workflow.Status(req.Status), VoucherCode: req.VoucherCode}
	common.Data(w, http.StatusOK, workflow.Gates(rec))
}

// DepositStatus handles POST /api/v1/deposits/status.
func (h *Handler) DepositStatus(w http.ResponseWriter, r *http.Request) {
	var req depositStatusRequest
	if err := common.DecodeJSON(r, h.Validator, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	rec := workflow.DepositRecord{
		FlightTicketReference: req.FlightTicketReference,
		CustomerPayments:      req.CustomerPayments,
		GrandTotal:            req.GrandTotal.Float(),
	}
	common.Data(w, http.StatusOK, DepositStatus(rec))
}

// Routes mounts the helper endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/quote", h.Quote)
	r.Post("/format", h.Format)
	r.Post("/records/gates", h.Gates)
	r.Post("/deposits/status", h.DepositStatus)
}

// floatOrNil treats an absent or blank value as not provided.
func floatOrNil(v *numfmt.Lenient) *float64 {
	if v == nil || strings.TrimSpace(string(*v)) == "" {
		return nil
	}
	f := v.Float()
	return &f
}
