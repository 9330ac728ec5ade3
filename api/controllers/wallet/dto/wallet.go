package walletdto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// Wallet is the materialized balance view of an earning party.
type Wallet struct {
	ID                    uuid.UUID             `json:"id"`
	OwnerID               uuid.UUID             `json:"ownerId"`
	OwnerType             enums.WalletOwnerType `json:"ownerType"`
	AvailableBalancePaise int64                 `json:"availableBalancePaise"`
	PendingBalancePaise   int64                 `json:"pendingBalancePaise"`
	LifetimeEarningsPaise int64                 `json:"lifetimeEarningsPaise"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

// Transaction is one immutable ledger posting.
type Transaction struct {
	ID          uuid.UUID           `json:"id"`
	Type        enums.WalletTxnType `json:"type"`
	Bucket      enums.WalletBucket  `json:"bucket"`
	Kind        enums.WalletTxnKind `json:"kind"`
	AmountPaise int64               `json:"amountPaise"`
	Description string              `json:"description"`
	OrderID     *uuid.UUID          `json:"orderId,omitempty"`
	CashoutID   *uuid.UUID          `json:"cashoutId,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// TransactionPage is a cursor page of postings, newest first.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	NextCursor   string        `json:"nextCursor,omitempty"`
}

// CreateCashoutRequest asks to withdraw available balance to a bank account.
type CreateCashoutRequest struct {
	BankAccountID uuid.UUID `json:"bankAccountId" validate:"required"`
	AmountPaise   int64     `json:"amountPaise" validate:"required,paise"`
}

// Cashout is a withdrawal request and its settlement progress.
type Cashout struct {
	ID                uuid.UUID           `json:"id"`
	WalletID          uuid.UUID           `json:"walletId"`
	BankAccountID     uuid.UUID           `json:"bankAccountId"`
	AmountPaise       int64               `json:"amountPaise"`
	Status            enums.CashoutStatus `json:"status"`
	RequestedBy       uuid.UUID           `json:"requestedBy"`
	RejectionReason   *string             `json:"rejectionReason,omitempty"`
	TransferReference *string             `json:"transferReference,omitempty"`
	RequestedAt       time.Time           `json:"requestedAt"`
	ApprovedAt        *time.Time          `json:"approvedAt,omitempty"`
	TransferredAt     *time.Time          `json:"transferredAt,omitempty"`
	CompletedAt       *time.Time          `json:"completedAt,omitempty"`
	RejectedAt        *time.Time          `json:"rejectedAt,omitempty"`
	CancelledAt       *time.Time          `json:"cancelledAt,omitempty"`
}

// CashoutPage is a cursor page of cashout requests, newest first.
type CashoutPage struct {
	Requests   []Cashout `json:"requests"`
	NextCursor string    `json:"nextCursor,omitempty"`
}
