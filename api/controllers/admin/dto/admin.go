package admindto

import (
	"github.com/google/uuid"
)

// RejectCashoutRequest declines a cashout with a reason shown to the requester.
type RejectCashoutRequest struct {
	Reason string `json:"reason" validate:"required,max=280"`
}

// TransferCashoutRequest records the bank rail reference of a payout.
type TransferCashoutRequest struct {
	Reference string `json:"reference" validate:"required,max=128"`
}

// ReleasePendingRequest moves held earnings into the spendable bucket.
type ReleasePendingRequest struct {
	AmountPaise int64 `json:"amountPaise" validate:"required,paise"`
}

// ConfirmPaymentRequest resolves a pending online payment.
type ConfirmPaymentRequest struct {
	Status    string `json:"status" validate:"required,oneof=paid pending failed"`
	Reference string `json:"reference,omitempty" validate:"omitempty,max=128"`
	Reason    string `json:"reason,omitempty" validate:"omitempty,max=280"`
}

// Balances is one side of a reconciliation.
type Balances struct {
	AvailablePaise        int64 `json:"availablePaise"`
	PendingPaise          int64 `json:"pendingPaise"`
	LifetimeEarningsPaise int64 `json:"lifetimeEarningsPaise"`
}

// ReconcileResponse compares materialized balances with the ledger fold.
type ReconcileResponse struct {
	WalletID     uuid.UUID `json:"walletId"`
	Materialized Balances  `json:"materialized"`
	Folded       Balances  `json:"folded"`
	Drifted      bool      `json:"drifted"`
}
