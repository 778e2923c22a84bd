package gateway

import (
	"strings"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
	"github.com/noah-isme/travel-backoffice/internal/pricing"
	"github.com/noah-isme/travel-backoffice/internal/workflow"
)

// Kind is the type of sales record the gateway serves.
type Kind string

const (
	KindAirTicket Kind = "air_ticket"
	KindDeposit   Kind = "deposit"
	KindVoucher   Kind = "voucher"
	KindOther     Kind = "other"
)

// Kinds lists every record kind.
func Kinds() []Kind {
	return []Kind{KindAirTicket, KindDeposit, KindVoucher, KindOther}
}

// ParseKind resolves a kind name, ignoring case and surrounding space.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// LineRecord is one persisted passenger line. Total is nil when the record
// never stored one.
type LineRecord struct {
	Net   numfmt.Lenient  `json:"net"`
	Sale  numfmt.Lenient  `json:"sale"`
	Pax   numfmt.Lenient  `json:"pax"`
	Total *numfmt.Lenient `json:"total,omitempty"`
}

// SaleRecord is the shape shared by every sales record kind.
type SaleRecord struct {
	ID          string                `json:"id"`
	Kind        Kind                  `json:"kind"`
	Status      workflow.Status       `json:"status"`
	VoucherCode string                `json:"voucher_code,omitempty"`
	Lines       map[string]LineRecord `json:"lines"`
	VATPercent  *numfmt.Lenient       `json:"vat_percent,omitempty"`
	GrandTotal  *numfmt.Lenient       `json:"grand_total,omitempty"`
	Extras      []pricing.Extra       `json:"extras,omitempty"`
}

// Workflow returns the fields the status gates read.
func (r SaleRecord) Workflow() workflow.Record {
	return workflow.Record{Status: r.Status, VoucherCode: r.VoucherCode}
}

// PersistedTotals returns the saved grand total and VAT percent, either of
// which is nil when the record lacks it.
func (r SaleRecord) PersistedTotals() (grandTotal, vatPercent *float64) {
	return optional(r.GrandTotal), optional(r.VATPercent)
}

// State rebuilds a pricing state from the saved lines. Saved totals are passed
// as explicit totals so they are shown as stored, not recomputed.
func (r SaleRecord) State(defaultVATPercent float64) pricing.State {
	vat := defaultVATPercent
	if v := optional(r.VATPercent); v != nil {
		vat = *v
	}
	state := pricing.NewState(vat)
	for name, line := range r.Lines {
		c, ok := pricing.ParseCategory(name)
		if !ok {
			continue
		}
		state = state.Update(c, pricing.FieldNet, string(line.Net), nil)
		state = state.Update(c, pricing.FieldSale, string(line.Sale), nil)
		state = state.Update(c, pricing.FieldPax, string(line.Pax), optional(line.Total))
	}
	return state
}

// InstallmentRecord is one persisted deposit installment.
type InstallmentRecord struct {
	Amount numfmt.Lenient `json:"amount"`
	Pax    numfmt.Lenient `json:"pax"`
}

// DepositRecord extends SaleRecord with the deposit workflow fields.
type DepositRecord struct {
	SaleRecord
	Installments          []InstallmentRecord `json:"installments,omitempty"`
	FlightTicketReference string              `json:"flight_ticket_reference,omitempty"`
	CustomerPayments      []workflow.Payment  `json:"customer_payments,omitempty"`
}

// InstallmentSlots returns the two installment slots. Missing slots are empty
// and extra entries are ignored.
func (d DepositRecord) InstallmentSlots() [pricing.InstallmentCount]pricing.Installment {
	var out [pricing.InstallmentCount]pricing.Installment
	for i := 0; i < len(out) && i < len(d.Installments); i++ {
		out[i] = pricing.Installment{
			Amount: string(d.Installments[i].Amount),
			Pax:    d.Installments[i].Pax.Int(),
		}
	}
	return out
}

// StatusRecord returns the fields the deposit status derivation reads.
func (d DepositRecord) StatusRecord() workflow.DepositRecord {
	var grand float64
	if d.GrandTotal != nil {
		grand = d.GrandTotal.Float()
	}
	return workflow.DepositRecord{
		FlightTicketReference: d.FlightTicketReference,
		CustomerPayments:      d.CustomerPayments,
		GrandTotal:            grand,
	}
}

func optional(v *numfmt.Lenient) *float64 {
	if v == nil || strings.TrimSpace(string(*v)) == "" {
		return nil
	}
	f := v.Float()
	return &f
}
