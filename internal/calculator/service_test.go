package calculator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/travel-backoffice/internal/pricing"
	"github.com/noah-isme/travel-backoffice/internal/workflow"
)

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func sampleLines() map[pricing.Category]LineInput {
	return map[pricing.Category]LineInput{
		pricing.Adult: {Net: "800", Sale: "1,000", Pax: "2"},
		pricing.Child: {Sale: "500", Pax: "1"},
	}
}

func TestQuoteComputesTotals(t *testing.T) {
	svc := &Service{StandardVAT: 7}
	q := svc.Quote(QuoteRequest{Lines: sampleLines()})

	require.Equal(t, 2500.0, q.Summary.Subtotal)
	require.Equal(t, 175.0, q.Summary.VAT)
	require.Equal(t, 2675.0, q.Summary.GrandTotal)
	require.Equal(t, 2675.0, q.DisplayedGrandTotal)
	require.Equal(t, "recomputing", q.VATMode)
	require.Nil(t, q.Deposit)
	require.Equal(t, "2,675", q.Formatted()["grand_total"])
}

func TestQuoteKeepsExplicitLineTotal(t *testing.T) {
	svc := &Service{}
	lines := map[pricing.Category]LineInput{
		pricing.Infant: {Sale: "100", Pax: "3", Total: fptr(120)},
	}
	q := svc.Quote(QuoteRequest{Lines: lines, VATPercent: fptr(0)})
	require.Equal(t, 120.0, q.Summary.GrandTotal)
}

func TestQuoteHonoursZeroStandardVAT(t *testing.T) {
	svc := &Service{StandardVAT: 0}
	q := svc.Quote(QuoteRequest{Lines: sampleLines()})
	require.Zero(t, q.Summary.VAT)
	require.Equal(t, 2500.0, q.Summary.GrandTotal)
}

func TestQuoteTrustsPersistedTotalUntilVATChanges(t *testing.T) {
	svc := &Service{StandardVAT: 7}
	base := QuoteRequest{
		Lines:            sampleLines(),
		ActualTotal:      fptr(3000),
		ActualVATPercent: fptr(7),
	}

	trusted := svc.Quote(base)
	require.Equal(t, 3000.0, trusted.DisplayedGrandTotal)
	require.Equal(t, "trusting_persisted", trusted.VATMode)

	sameValue := base
	sameValue.VATInput = sptr("7.00")
	require.Equal(t, 3000.0, svc.Quote(sameValue).DisplayedGrandTotal)

	edited := base
	edited.VATInput = sptr("8")
	q := svc.Quote(edited)
	require.Equal(t, "recomputing", q.VATMode)
	require.Equal(t, 2700.0, q.DisplayedGrandTotal)
}

func TestQuoteWithInstallments(t *testing.T) {
	svc := &Service{StandardVAT: 7}
	q := svc.Quote(QuoteRequest{
		Lines:        sampleLines(),
		Installments: []pricing.Installment{{Amount: "1000", Pax: 2}},
	})
	require.NotNil(t, q.Deposit)
	require.Equal(t, [pricing.InstallmentCount]float64{2000, 0}, q.Deposit.Installments)
	require.Equal(t, 675.0, q.Deposit.BalanceDue)
	require.True(t, q.Deposit.ShowBalance)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		op, in, out string
	}{
		{OpDisplay, "1234567.50", "1,234,567.50"},
		{OpDisplay, "", ""},
		{OpStrip, "1,234,567", "1234567"},
		{OpBlur, "12.5000", "12.5"},
		{OpBlur, "1234.0", "1,234"},
		{OpBlur, "abc", ""},
	}
	for _, tc := range cases {
		res, err := Format(tc.op, tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.out, res.Output, "%s(%q)", tc.op, tc.in)
		require.Nil(t, res.Valid)
	}

	res, err := Format(OpValidate, "1.2.3")
	require.NoError(t, err)
	require.NotNil(t, res.Valid)
	require.False(t, *res.Valid)

	res, err = Format("VALIDATE", "-12.")
	require.NoError(t, err)
	require.True(t, *res.Valid)

	_, err = Format("round", "1")
	require.ErrorIs(t, err, ErrUnknownOp)
}

func TestDepositStatus(t *testing.T) {
	res := DepositStatus(workflow.DepositRecord{
		GrandTotal:       5000,
		CustomerPayments: []workflow.Payment{{Amount: "1,500"}, {Amount: "500"}},
	})
	require.Equal(t, workflow.DepositAwaitingPayment, res.Status)
	require.Equal(t, 2000.0, res.PaidTotal)
	require.Equal(t, "2,000", res.Formatted["paid_total"])
	require.Equal(t, "5,000", res.Formatted["grand_total"])

	issued := DepositStatus(workflow.DepositRecord{FlightTicketReference: "TK-1"})
	require.Equal(t, workflow.DepositIssuedTicket, issued.Status)
}
