package session

import (
	"errors"
	"time"

	"github.com/noah-isme/travel-backoffice/internal/gateway"
	"github.com/noah-isme/travel-backoffice/internal/pricing"
	"github.com/noah-isme/travel-backoffice/internal/workflow"
)

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session: not found")
	// ErrNotDeposit is returned when installments are edited on a non-deposit session.
	ErrNotDeposit = errors.New("session: installments require a deposit session")
	// ErrInstallmentSlot is returned for an installment number outside 1..InstallmentCount.
	ErrInstallmentSlot = errors.New("session: installment slot out of range")
)

// Session is the server-side copy of one open pricing form.
type Session struct {
	ID       string       `json:"id"`
	Kind     gateway.Kind `json:"kind"`
	RecordID string       `json:"record_id,omitempty"`
	Operator string       `json:"operator,omitempty"`

	State        pricing.State                                 `json:"state"`
	VATInput     string                                        `json:"vat_input"`
	Tracker      pricing.VATTracker                            `json:"vat_tracker"`
	Extras       []pricing.Extra                               `json:"extras,omitempty"`
	Installments [pricing.InstallmentCount]pricing.Installment `json:"installments"`

	// Record and Deposit hold the workflow fields of the record the session
	// was hydrated from. Both are nil for new forms.
	Record  *workflow.Record        `json:"record,omitempty"`
	Deposit *workflow.DepositRecord `json:"deposit,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDeposit reports whether the session collects installments.
func (s *Session) IsDeposit() bool {
	return s.Kind == gateway.KindDeposit
}

// Quote prices the session in its current state.
func (s *Session) Quote() pricing.Quote {
	in := pricing.QuoteInput{
		State:   s.State,
		Tracker: s.Tracker,
		Extras:  s.Extras,
	}
	if s.IsDeposit() {
		installments := s.Installments
		in.Installments = &installments
	}
	return pricing.Evaluate(in)
}

func (s *Session) clone() *Session {
	out := *s
	if s.Extras != nil {
		out.Extras = append([]pricing.Extra(nil), s.Extras...)
	}
	if s.Record != nil {
		r := *s.Record
		out.Record = &r
	}
	if s.Deposit != nil {
		d := *s.Deposit
		d.CustomerPayments = append([]workflow.Payment(nil), s.Deposit.CustomerPayments...)
		out.Deposit = &d
	}
	return &out
}

// KindDefaults returns the VAT rate a new form of kind starts with. Air ticket
// and deposit forms charge the standard rate; voucher and other forms start
// without VAT.
func KindDefaults(kind gateway.Kind, standardVAT float64) float64 {
	switch kind {
	case gateway.KindAirTicket, gateway.KindDeposit:
		return standardVAT
	default:
		return 0
	}
}
