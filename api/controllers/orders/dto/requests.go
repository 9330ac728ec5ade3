package ordersdto

import (
	"time"

	"github.com/google/uuid"
)

// CancelRequest carries an optional free-text reason.
type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=280"`
}

// ItemCollectedRequest toggles the collected flag of one item.
type ItemCollectedRequest struct {
	Collected *bool `json:"collected" validate:"required"`
}

// DeliverRequest completes an order with the customer's handover code.
type DeliverRequest struct {
	OTP string `json:"otp" validate:"required,otp"`
}

// DeliveryResponse reports the order and the settlement postings it triggered.
type DeliveryResponse struct {
	Order              Order `json:"order"`
	CourierPayoutPaise int64 `json:"courierPayoutPaise"`
	VendorEarningPaise int64 `json:"vendorEarningPaise"`
}

// OTPResponse is shown to the customer once; only a hash is stored.
type OTPResponse struct {
	OrderID   uuid.UUID `json:"orderId"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}
