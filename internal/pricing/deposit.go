package pricing

import "github.com/noah-isme/travel-backoffice/internal/numfmt"

// InstallmentCount is the number of deposit installments a deposit form tracks.
const InstallmentCount = 2

// Installment is an advance payment collected toward the final invoice.
// Unlike passenger lines, an unset pax counts as a single payment.
type Installment struct {
	Amount string `json:"amount"`
	Pax    int    `json:"pax"`
}

// Total returns amount × pax. A zero or negative pax counts as 1.
func (i Installment) Total() float64 {
	pax := i.Pax
	if pax <= 0 {
		pax = 1
	}
	return numfmt.Finite(numfmt.ToFloat(i.Amount) * float64(pax))
}

// DepositSummary extends a pricing summary with installment totals.
type DepositSummary struct {
	Summary      Summary                   `json:"summary"`
	GrandTotal   float64                   `json:"grand_total"`
	Installments [InstallmentCount]float64 `json:"installments"`
	TotalDeposit float64                   `json:"total_deposit"`
	BalanceDue   float64                   `json:"balance_due"`

	// ShowBalance gates display only; BalanceDue is always computed.
	ShowBalance bool `json:"show_balance"`
}

// ComputeDeposit settles the installments against grandTotal. The balance
// may go negative when deposits exceed the grand total.
func ComputeDeposit(summary Summary, grandTotal float64, installments [InstallmentCount]Installment) DepositSummary {
	out := DepositSummary{
		Summary:    summary,
		GrandTotal: numfmt.Finite(grandTotal),
	}
	for i, inst := range installments {
		out.Installments[i] = inst.Total()
		out.TotalDeposit += out.Installments[i]
	}
	out.TotalDeposit = numfmt.Finite(out.TotalDeposit)
	out.BalanceDue = numfmt.Finite(out.GrandTotal - out.TotalDeposit)
	out.ShowBalance = out.TotalDeposit > 0
	return out
}
