package calculator

import (
	"errors"
	"strings"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
	"github.com/noah-isme/travel-backoffice/internal/obs"
	"github.com/noah-isme/travel-backoffice/internal/pricing"
	"github.com/noah-isme/travel-backoffice/internal/workflow"
)

// ErrUnknownOp is returned by Format for an operation it does not know.
var ErrUnknownOp = errors.New("calculator: unknown format operation")

// Format operations.
const (
	OpDisplay  = "display"
	OpStrip    = "strip"
	OpBlur     = "blur"
	OpValidate = "validate"
)

// LineInput is one passenger line of a one-shot quote.
type LineInput struct {
	Net   string
	Sale  string
	Pax   string
	Total *float64
}

// QuoteRequest carries everything a stateless quote needs. A nil VATPercent
// uses the standard rate. Installments switches on the deposit calculator.
// ActualTotal and ActualVATPercent describe a saved record; VATInput is the
// percent the user typed after loading it and also sets the rate when
// VATPercent is nil.
type QuoteRequest struct {
	Lines            map[pricing.Category]LineInput
	VATPercent       *float64
	Extras           []pricing.Extra
	Installments     []pricing.Installment
	ActualTotal      *float64
	ActualVATPercent *float64
	VATInput         *string
}

// Service prices forms that are not kept as sessions.
type Service struct {
	StandardVAT float64
}

// Quote runs the full pricing pipeline once.
func (s *Service) Quote(req QuoteRequest) pricing.Quote {
	vat := s.StandardVAT
	switch {
	case req.VATPercent != nil:
		vat = *req.VATPercent
	case req.VATInput != nil:
		vat = numfmt.ToFloat(*req.VATInput)
	}

	state := pricing.NewState(vat)
	for _, c := range pricing.Categories() {
		line, ok := req.Lines[c]
		if !ok {
			continue
		}
		state = state.Update(c, pricing.FieldNet, line.Net, nil)
		state = state.Update(c, pricing.FieldSale, line.Sale, nil)
		state = state.Update(c, pricing.FieldPax, line.Pax, line.Total)
	}

	tracker := pricing.NewVATTracker(req.ActualTotal, req.ActualVATPercent)
	if req.VATInput != nil {
		tracker = tracker.Edit(*req.VATInput)
	}

	in := pricing.QuoteInput{State: state, Tracker: tracker, Extras: req.Extras}
	if req.Installments != nil {
		var slots [pricing.InstallmentCount]pricing.Installment
		copy(slots[:], req.Installments)
		in.Installments = &slots
	}
	q := pricing.Evaluate(in)
	obs.ObserveQuote(q.Deposit != nil)
	return q
}

// FormatResult is the outcome of one formatting operation. Valid is only
// set by the validate operation.
type FormatResult struct {
	Op     string `json:"op"`
	Input  string `json:"input"`
	Output string `json:"output"`
	Valid  *bool  `json:"valid,omitempty"`
}

// Format applies one of the form field formatting rules to value.
func Format(op, value string) (FormatResult, error) {
	res := FormatResult{Op: op, Input: value}
	switch strings.ToLower(strings.TrimSpace(op)) {
	case OpDisplay:
		res.Output = numfmt.FormatForDisplay(value)
	case OpStrip:
		res.Output = numfmt.StripGrouping(value)
	case OpBlur:
		res.Output = numfmt.CleanupOnBlur(value)
	case OpValidate:
		valid := numfmt.IsValidNumericInput(value)
		res.Valid = &valid
		res.Output = value
	default:
		return FormatResult{}, ErrUnknownOp
	}
	return res, nil
}

// DepositResult is the derived state of a deposit record.
type DepositResult struct {
	Status     workflow.DepositState `json:"status"`
	PaidTotal  float64               `json:"paid_total"`
	GrandTotal float64               `json:"grand_total"`
	Formatted  map[string]string     `json:"formatted"`
}

// DepositStatus derives the status of rec along with its payment totals.
func DepositStatus(rec workflow.DepositRecord) DepositResult {
	paid := rec.PaidTotal()
	return DepositResult{
		Status:     workflow.DepositStatus(rec),
		PaidTotal:  paid,
		GrandTotal: rec.GrandTotal,
		Formatted: map[string]string{
			"paid_total":  numfmt.FormatFloat(paid),
			"grand_total": numfmt.FormatFloat(rec.GrandTotal),
		},
	}
}
