package session

import (
	"time"

	"github.com/noah-isme/travel-backoffice/internal/gateway"
	"github.com/noah-isme/travel-backoffice/internal/pricing"
	"github.com/noah-isme/travel-backoffice/internal/workflow"
)

// View is the response shape of every session endpoint.
type View struct {
	ID       string       `json:"id"`
	Kind     gateway.Kind `json:"kind"`
	RecordID string       `json:"record_id,omitempty"`
	Version  int64        `json:"version"`

	Lines        map[string]pricing.Line `json:"lines"`
	VATInput     string                  `json:"vat_input"`
	Extras       []pricing.Extra         `json:"extras"`
	Installments []pricing.Installment   `json:"installments,omitempty"`

	Quote     pricing.Quote     `json:"quote"`
	Formatted map[string]string `json:"formatted"`

	Gates         *workflow.GateSet      `json:"gates,omitempty"`
	DepositStatus *workflow.DepositState `json:"deposit_status,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewView prices sess and renders it for clients.
func NewView(sess *Session) View {
	lines := make(map[string]pricing.Line, len(pricing.Categories()))
	for _, c := range pricing.Categories() {
		lines[c.String()] = sess.State.Line(c)
	}
	extras := sess.Extras
	if extras == nil {
		extras = []pricing.Extra{}
	}
	q := sess.Quote()
	v := View{
		ID:        sess.ID,
		Kind:      sess.Kind,
		RecordID:  sess.RecordID,
		Version:   sess.Version,
		Lines:     lines,
		VATInput:  sess.VATInput,
		Extras:    extras,
		Quote:     q,
		Formatted: q.Formatted(),
		UpdatedAt: sess.UpdatedAt,
	}
	if sess.IsDeposit() {
		v.Installments = sess.Installments[:]
	}
	if sess.Record != nil {
		g := workflow.Gates(*sess.Record)
		v.Gates = &g
	}
	if sess.Deposit != nil {
		status := workflow.DepositStatus(*sess.Deposit)
		v.DepositStatus = &status
	}
	return v
}
