package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// Wallet holds materialized balances. Rows change only through ledger postings.
type Wallet struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID               uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:ux_wallets_owner"`
	OwnerType             enums.WalletOwnerType `gorm:"column:owner_type;type:text;not null;uniqueIndex:ux_wallets_owner"`
	AvailableBalancePaise int64                 `gorm:"column:available_balance_paise;not null;default:0"`
	PendingBalancePaise   int64                 `gorm:"column:pending_balance_paise;not null;default:0"`
	LifetimeEarningsPaise int64                 `gorm:"column:lifetime_earnings_paise;not null;default:0"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// WalletTransaction is an append-only ledger posting.
type WalletTransaction struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	WalletID    uuid.UUID           `gorm:"column:wallet_id;type:uuid;not null;index"`
	Type        enums.WalletTxnType `gorm:"column:type;type:text;not null"`
	Bucket      enums.WalletBucket  `gorm:"column:bucket;type:text;not null"`
	Kind        enums.WalletTxnKind `gorm:"column:kind;type:text;not null"`
	AmountPaise int64               `gorm:"column:amount_paise;not null"`
	Description string              `gorm:"column:description;not null"`
	OrderID     *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	CashoutID   *uuid.UUID          `gorm:"column:cashout_id;type:uuid"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// CashoutRequest is a withdrawal held against a wallet until settled.
type CashoutRequest struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	WalletID          uuid.UUID           `gorm:"column:wallet_id;type:uuid;not null;index"`
	BankAccountID     uuid.UUID           `gorm:"column:bank_account_id;type:uuid;not null"`
	AmountPaise       int64               `gorm:"column:amount_paise;not null"`
	Status            enums.CashoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RequestedBy       uuid.UUID           `gorm:"column:requested_by;type:uuid;not null"`
	RejectionReason   *string             `gorm:"column:rejection_reason"`
	TransferReference *string             `gorm:"column:transfer_reference"`
	RequestedAt       time.Time           `gorm:"column:requested_at;not null"`
	ApprovedAt        *time.Time          `gorm:"column:approved_at"`
	TransferredAt     *time.Time          `gorm:"column:transferred_at"`
	CompletedAt       *time.Time          `gorm:"column:completed_at"`
	RejectedAt        *time.Time          `gorm:"column:rejected_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
