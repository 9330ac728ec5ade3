package enums

import "fmt"

// CashoutStatus tracks a withdrawal request through settlement.
type CashoutStatus string

const (
	CashoutStatusPending     CashoutStatus = "pending"
	CashoutStatusApproved    CashoutStatus = "approved"
	CashoutStatusTransferred CashoutStatus = "transferred"
	CashoutStatusCompleted   CashoutStatus = "completed"
	CashoutStatusRejected    CashoutStatus = "rejected"
	CashoutStatusCancelled   CashoutStatus = "cancelled"
)

var validCashoutStatuses = []CashoutStatus{
	CashoutStatusPending,
	CashoutStatusApproved,
	CashoutStatusTransferred,
	CashoutStatusCompleted,
	CashoutStatusRejected,
	CashoutStatusCancelled,
}

// String implements fmt.Stringer.
func (v CashoutStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CashoutStatus.
func (v CashoutStatus) IsValid() bool {
	for _, candidate := range validCashoutStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCashoutStatus converts raw input into a CashoutStatus.
func ParseCashoutStatus(value string) (CashoutStatus, error) {
	for _, candidate := range validCashoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cashout status %q", value)
}

// IsTerminal reports whether the request can no longer change.
func (v CashoutStatus) IsTerminal() bool {
	return v == CashoutStatusCompleted || v == CashoutStatusRejected || v == CashoutStatusCancelled
}
