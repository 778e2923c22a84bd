package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeWithExtras(t *testing.T) {
	s := NewState(7).Update(Adult, FieldSale, "5000", nil).Update(Adult, FieldPax, "1", nil)
	summary := Compute(s, []Extra{{TotalAmount: "300"}, {TotalAmount: "200"}, {TotalAmount: "n/a"}})

	require.Equal(t, 5000.0, summary.LinesSubtotal)
	require.Equal(t, 500.0, summary.ExtrasTotal)
	require.Equal(t, 5500.0, summary.Subtotal)
	require.Equal(t, 7.0, summary.VATPercent)
	require.Equal(t, 385.0, summary.VAT)
	require.Equal(t, 5885.0, summary.GrandTotal)
}

func TestComputeWithoutExtrasMatchesState(t *testing.T) {
	s := NewState(10).Update(Child, FieldSale, "250", nil).Update(Child, FieldPax, "3", nil)
	summary := Compute(s, nil)
	require.Equal(t, s.Subtotal(), summary.Subtotal)
	require.Equal(t, s.VAT(), summary.VAT)
	require.Equal(t, s.Total(), summary.GrandTotal)
}

func TestExtraJSONKeepsAttributes(t *testing.T) {
	var extras []Extra
	payload := `[{"total_amount": 250.5, "description": "Extra baggage", "qty": 1}, {"total_amount": "1,000"}, {"description": "no amount"}]`
	require.NoError(t, json.Unmarshal([]byte(payload), &extras))
	require.Len(t, extras, 3)

	require.Equal(t, "250.5", extras[0].TotalAmount)
	require.JSONEq(t, `"Extra baggage"`, string(extras[0].Attributes["description"]))
	require.Equal(t, 1000.0, extras[1].Amount())
	require.Equal(t, "", extras[2].TotalAmount)
	require.Equal(t, 0.0, extras[2].Amount())

	out, err := json.Marshal(extras[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"total_amount":"250.5","description":"Extra baggage","qty":1}`, string(out))
}
