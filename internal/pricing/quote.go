package pricing

import "github.com/noah-isme/travel-backoffice/internal/numfmt"

// QuoteInput gathers everything one form needs priced. Installments is nil
// for forms that do not collect deposits.
type QuoteInput struct {
	State        State
	Tracker      VATTracker
	Extras       []Extra
	Installments *[InstallmentCount]Installment
}

// Quote is the full pricing picture of a form at one point in time.
type Quote struct {
	Summary             Summary         `json:"summary"`
	VATMode             string          `json:"vat_mode"`
	DisplayedGrandTotal float64         `json:"displayed_grand_total"`
	Deposit             *DepositSummary `json:"deposit,omitempty"`
}

// Evaluate runs the aggregate, staleness and deposit calculators in order.
func Evaluate(in QuoteInput) Quote {
	summary := Compute(in.State, in.Extras)
	displayed := in.Tracker.GrandTotal(summary)
	q := Quote{
		Summary:             summary,
		VATMode:             in.Tracker.Mode().String(),
		DisplayedGrandTotal: displayed,
	}
	if in.Installments != nil {
		deposit := ComputeDeposit(summary, displayed, *in.Installments)
		q.Deposit = &deposit
	}
	return q
}

// Formatted renders every amount of q the way forms display them.
func (q Quote) Formatted() map[string]string {
	out := map[string]string{
		"lines_subtotal":        numfmt.FormatFloat(q.Summary.LinesSubtotal),
		"extras_total":          numfmt.FormatFloat(q.Summary.ExtrasTotal),
		"subtotal":              numfmt.FormatFloat(q.Summary.Subtotal),
		"vat_percent":           numfmt.FormatFloat(q.Summary.VATPercent),
		"vat":                   numfmt.FormatFloat(q.Summary.VAT),
		"grand_total":           numfmt.FormatFloat(q.Summary.GrandTotal),
		"displayed_grand_total": numfmt.FormatFloat(q.DisplayedGrandTotal),
	}
	if q.Deposit != nil {
		out["installment_1"] = numfmt.FormatFloat(q.Deposit.Installments[0])
		out["installment_2"] = numfmt.FormatFloat(q.Deposit.Installments[1])
		out["total_deposit"] = numfmt.FormatFloat(q.Deposit.TotalDeposit)
		out["balance_due"] = numfmt.FormatFloat(q.Deposit.BalanceDue)
	}
	return out
}
