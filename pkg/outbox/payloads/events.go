package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// OrderGroupCreatedEvent signals a checkout split across vendors.
type OrderGroupCreatedEvent struct {
	OrderGroupID  uuid.UUID           `json:"order_group_id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	OrderIDs      []uuid.UUID         `json:"order_ids"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalPaise    int64               `json:"total_paise"`
	FallbackFees  int                 `json:"fallback_fees"`
}

// PaymentStatusChangedEvent reports a payment resolution for an order group.
type PaymentStatusChangedEvent struct {
	OrderGroupID uuid.UUID           `json:"order_group_id"`
	From         enums.PaymentStatus `json:"from"`
	To           enums.PaymentStatus `json:"to"`
	Reference    *string             `json:"reference,omitempty"`
	Reason       *string             `json:"reason,omitempty"`
}

// OrderStatusEvent covers courier-driven transitions of a single order.
type OrderStatusEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	OrderGroupID uuid.UUID         `json:"order_group_id"`
	OrderNumber  string            `json:"order_number"`
	VendorID     uuid.UUID         `json:"vendor_id"`
	CourierID    *uuid.UUID        `json:"courier_id,omitempty"`
	Status       enums.OrderStatus `json:"status"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// OrderDeliveredEvent carries the settlement postings made on delivery.
type OrderDeliveredEvent struct {
	OrderID            uuid.UUID `json:"order_id"`
	OrderGroupID       uuid.UUID `json:"order_group_id"`
	OrderNumber        string    `json:"order_number"`
	CourierID          uuid.UUID `json:"courier_id"`
	VendorID           uuid.UUID `json:"vendor_id"`
	CourierPayoutPaise int64     `json:"courier_payout_paise"`
	VendorEarningPaise int64     `json:"vendor_earning_paise"`
	DeliveredAt        time.Time `json:"delivered_at"`
}

// OrderCancelledEvent is emitted when an order leaves the pickup flow.
type OrderCancelledEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	OrderGroupID uuid.UUID         `json:"order_group_id"`
	OrderNumber  string            `json:"order_number"`
	From         enums.OrderStatus `json:"from"`
	Reason       string            `json:"reason,omitempty"`
}

// WalletPendingReleasedEvent reports an admin release of held earnings.
type WalletPendingReleasedEvent struct {
	WalletID    uuid.UUID `json:"wallet_id"`
	AmountPaise int64     `json:"amount_paise"`
}

// CashoutRequestedEvent is emitted when funds are placed on hold.
type CashoutRequestedEvent struct {
	CashoutID   uuid.UUID `json:"cashout_id"`
	WalletID    uuid.UUID `json:"wallet_id"`
	AmountPaise int64     `json:"amount_paise"`
}

// CashoutStatusChangedEvent covers every settlement transition after creation.
type CashoutStatusChangedEvent struct {
	CashoutID   uuid.UUID           `json:"cashout_id"`
	WalletID    uuid.UUID           `json:"wallet_id"`
	AmountPaise int64               `json:"amount_paise"`
	From        enums.CashoutStatus `json:"from"`
	To          enums.CashoutStatus `json:"to"`
	Reason      *string             `json:"reason,omitempty"`
}
