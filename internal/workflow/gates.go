package workflow

import "strings"

// Status is the lifecycle state the gateway stores on a sales record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusIssued    Status = "issued"
	StatusCancelled Status = "cancelled"
)

// Normalize lowercases and trims the stored status.
func (s Status) Normalize() Status {
	return Status(strings.ToLower(strings.TrimSpace(string(s))))
}

// Record carries the fields of a saved sales record the gates look at.
type Record struct {
	Status      Status `json:"status"`
	VoucherCode string `json:"voucher_code,omitempty"`
}

// CanEdit reports whether the record may still be edited.
func CanEdit(r Record) bool {
	return r.Status.Normalize() != StatusCancelled
}

// CanCancel reports whether the record may be cancelled.
func CanCancel(r Record) bool {
	return CanEdit(r)
}

// CanIssue reports whether the record is waiting to be issued.
func CanIssue(r Record) bool {
	return r.Status.Normalize() == StatusPending
}

// CanGenerateVoucherCode reports whether a voucher code may be generated.
func CanGenerateVoucherCode(r Record) bool {
	if r.Status.Normalize() == StatusCancelled {
		return false
	}
	return strings.TrimSpace(r.VoucherCode) == ""
}

// GateSet bundles every gate for one record. These are UI hints only; the
// gateway enforces the real transitions.
type GateSet struct {
	CanEdit                bool `json:"can_edit"`
	CanCancel              bool `json:"can_cancel"`
	CanIssue               bool `json:"can_issue"`
	CanGenerateVoucherCode bool `json:"can_generate_voucher_code"`
}

// Gates evaluates every gate for the record.
func Gates(r Record) GateSet {
	return GateSet{
		CanEdit:                CanEdit(r),
		CanCancel:              CanCancel(r),
		CanIssue:               CanIssue(r),
		CanGenerateVoucherCode: CanGenerateVoucherCode(r),
	}
}
