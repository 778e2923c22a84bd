package workflow

import (
	"strings"

	"github.com/noah-isme/travel-backoffice/internal/numfmt"
)

// DepositState is derived from a deposit record and never stored.
type DepositState string

const (
	DepositIssuedTicket    DepositState = "issued_ticket"
	DepositAwaitingTicket  DepositState = "awaiting_ticket"
	DepositAwaitingPayment DepositState = "awaiting_payment"
	DepositAwaitingDeposit DepositState = "awaiting_deposit"
)

// Payment is one customer payment recorded against a deposit.
type Payment struct {
	Amount numfmt.Lenient `json:"amount"`
}

// DepositRecord holds the deposit fields the status derivation reads.
type DepositRecord struct {
	FlightTicketReference string    `json:"flight_ticket_reference,omitempty"`
	CustomerPayments      []Payment `json:"customer_payments"`
	GrandTotal            float64   `json:"grand_total"`
}

// PaidTotal sums every customer payment.
func (r DepositRecord) PaidTotal() float64 {
	var sum float64
	for _, p := range r.CustomerPayments {
		sum += p.Amount.Float()
	}
	return sum
}

// DepositStatus derives the deposit state. The checks run in order and the
// first match wins: a ticket reference beats full payment, which beats a
// first payment.
func DepositStatus(r DepositRecord) DepositState {
	if strings.TrimSpace(r.FlightTicketReference) != "" {
		return DepositIssuedTicket
	}
	paid := r.PaidTotal()
	if paid >= r.GrandTotal && r.GrandTotal > 0 && paid > 0 {
		return DepositAwaitingTicket
	}
	if len(r.CustomerPayments) > 0 && r.CustomerPayments[0].Amount.Float() > 0 {
		return DepositAwaitingPayment
	}
	return DepositAwaitingDeposit
}
