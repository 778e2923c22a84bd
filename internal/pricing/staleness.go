package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
)

// VATMode says whether the displayed grand total still comes from a saved record.
type VATMode int

const (
	// TrustingPersisted shows the grand total stored with the record.
	TrustingPersisted VATMode = iota
	// Recomputing shows subtotal + freshly computed VAT. It is terminal.
	Recomputing
)

func (m VATMode) String() string {
	switch m {
	case TrustingPersisted:
		return "trusting_persisted"
	case Recomputing:
		return "recomputing"
	default:
		return "unknown"
	}
}

// VATTracker decides which grand total a form shows after loading a saved
// record. The saved total is trusted until the first VAT percent edit whose
// numeric value differs from the saved percent; from then on totals are
// always recomputed, even if the original percent is typed back. A new
// tracker must be built when fresh record data is loaded.
type VATTracker struct {
	mode             VATMode
	actualTotal      float64
	actualVATPercent float64
}

// NewVATTracker builds a tracker for a saved record. Without both a saved total
// and a saved percent there is nothing to trust and the tracker recomputes.
func NewVATTracker(actualTotal, actualVATPercent *float64) VATTracker {
	if actualTotal == nil || actualVATPercent == nil {
		return VATTracker{mode: Recomputing}
	}
	return VATTracker{
		mode:             TrustingPersisted,
		actualTotal:      numfmt.Finite(*actualTotal),
		actualVATPercent: numfmt.Finite(*actualVATPercent),
	}
}

// Mode reports the current tracker state.
func (t VATTracker) Mode() VATMode {
	return t.mode
}

// Edit records the VAT percent input as typed by the user.
func (t VATTracker) Edit(input string) VATTracker {
	return t.EditValue(numfmt.ToFloat(input))
}

// EditValue records an already parsed VAT percent edit.
func (t VATTracker) EditValue(percent float64) VATTracker {
	if t.mode == Recomputing {
		return t
	}
	if numfmt.Finite(percent) != t.actualVATPercent {
		t.mode = Recomputing
	}
	return t
}

// GrandTotal picks the total to display for the given computed summary.
func (t VATTracker) GrandTotal(summary Summary) float64 {
	if t.mode == TrustingPersisted {
		return t.actualTotal
	}
	return summary.GrandTotal
}

type trackerJSON struct {
	Mode             string  `json:"mode"`
	ActualTotal      float64 `json:"actual_total"`
	ActualVATPercent float64 `json:"actual_vat_percent"`
}

// MarshalJSON persists the tracker together with its session.
func (t VATTracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(trackerJSON{
		Mode:             t.mode.String(),
		ActualTotal:      t.actualTotal,
		ActualVATPercent: t.actualVATPercent,
	})
}

// UnmarshalJSON restores a tracker written by MarshalJSON.
func (t *VATTracker) UnmarshalJSON(data []byte) error {
	var raw trackerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Mode {
	case TrustingPersisted.String():
		t.mode = TrustingPersisted
	case Recomputing.String(), "":
		t.mode = Recomputing
	default:
		return fmt.Errorf("pricing: unknown vat tracker mode %q", raw.Mode)
	}
	t.actualTotal = raw.ActualTotal
	t.actualVATPercent = raw.ActualVATPercent
	return nil
}
