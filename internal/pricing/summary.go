package pricing

import (
	"encoding/json"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
)

// Extra is an ancillary line item (transfer, baggage, seat...) supplied next
// to the passenger lines. Only TotalAmount takes part in pricing; every other
// attribute is carried through untouched.
type Extra struct {
	TotalAmount string
	Attributes  map[string]json.RawMessage
}

// Amount returns the coerced extra amount.
func (e Extra) Amount() float64 {
	return numfmt.ToFloat(e.TotalAmount)
}

// UnmarshalJSON accepts total_amount either as a JSON string or number.
func (e *Extra) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.TotalAmount = ""
	if amount, ok := raw["total_amount"]; ok {
		var v numfmt.Lenient
		if err := json.Unmarshal(amount, &v); err != nil {
			return err
		}
		e.TotalAmount = string(v)
		delete(raw, "total_amount")
	}
	if len(raw) == 0 {
		raw = nil
	}
	e.Attributes = raw
	return nil
}

// MarshalJSON writes the pass-through attributes back alongside total_amount.
func (e Extra) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		out[k] = v
	}
	amount, err := json.Marshal(e.TotalAmount)
	if err != nil {
		return nil, err
	}
	out["total_amount"] = amount
	return json.Marshal(out)
}

// Summary aggregates computed pricing components.
type Summary struct {
	LinesSubtotal float64 `json:"lines_subtotal"`
	ExtrasTotal   float64 `json:"extras_total"`
	Subtotal      float64 `json:"subtotal"`
	VATPercent    float64 `json:"vat_percent"`
	VAT           float64 `json:"vat"`
	GrandTotal    float64 `json:"grand_total"`
}

// Compute derives subtotal, VAT and grand total from the passenger lines and
// any extras. It keeps no state and is safe to call on every edit.
func Compute(s State, extras []Extra) Summary {
	var extrasTotal float64
	for _, extra := range extras {
		extrasTotal += extra.Amount()
	}
	extrasTotal = numfmt.Finite(extrasTotal)
	linesSubtotal := s.Subtotal()
	subtotal := numfmt.Finite(linesSubtotal + extrasTotal)
	vat := numfmt.Finite(subtotal * s.VATPercent() / 100)
	return Summary{
		LinesSubtotal: linesSubtotal,
		ExtrasTotal:   extrasTotal,
		Subtotal:      subtotal,
		VATPercent:    s.VATPercent(),
		VAT:           vat,
		GrandTotal:    numfmt.Finite(subtotal + vat),
	}
}
