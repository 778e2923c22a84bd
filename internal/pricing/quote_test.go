package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateDepositForm(t *testing.T) {
	state := NewState(7).Update(Adult, FieldSale, "5000", nil).Update(Adult, FieldPax, "1", nil)
	installments := [InstallmentCount]Installment{{Amount: "1000", Pax: 2}}

	q := Evaluate(QuoteInput{
		State:        state,
		Tracker:      NewVATTracker(nil, nil),
		Extras:       []Extra{{TotalAmount: "500"}},
		Installments: &installments,
	})
	require.Equal(t, "recomputing", q.VATMode)
	require.Equal(t, 5885.0, q.DisplayedGrandTotal)
	require.NotNil(t, q.Deposit)
	require.Equal(t, 3885.0, q.Deposit.BalanceDue)

	formatted := q.Formatted()
	require.Equal(t, "5,885", formatted["grand_total"])
	require.Equal(t, "3,885", formatted["balance_due"])
	require.Equal(t, "2,000", formatted["installment_1"])
	require.Equal(t, "0", formatted["installment_2"])
}

func TestEvaluateTrustsPersistedTotal(t *testing.T) {
	state := NewState(7).Update(Adult, FieldSale, "1000", nil).Update(Adult, FieldPax, "1", nil)
	q := Evaluate(QuoteInput{State: state, Tracker: NewVATTracker(ptr(1100), ptr(7))})

	require.Equal(t, "trusting_persisted", q.VATMode)
	require.Equal(t, 1070.0, q.Summary.GrandTotal)
	require.Equal(t, 1100.0, q.DisplayedGrandTotal)
	require.Nil(t, q.Deposit)
	require.NotContains(t, q.Formatted(), "balance_due")
}

func TestEvaluateDepositUsesDisplayedTotal(t *testing.T) {
	state := NewState(7).Update(Adult, FieldSale, "1000", nil).Update(Adult, FieldPax, "1", nil)
	var installments [InstallmentCount]Installment
	installments[0] = Installment{Amount: "100"}

	q := Evaluate(QuoteInput{
		State:        state,
		Tracker:      NewVATTracker(ptr(1100), ptr(7)),
		Installments: &installments,
	})
	require.Equal(t, 1000.0, q.Deposit.BalanceDue)
}
