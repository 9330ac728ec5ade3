package checkoutdto

import (
	"github.com/google/uuid"

	ordersdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/orders/dto"
)

// CheckoutRequest converts the customer's cart into an order group.
type CheckoutRequest struct {
	AddressID     uuid.UUID `json:"addressId" validate:"required"`
	PaymentMethod string    `json:"paymentMethod" validate:"required,oneof=cod online"`
	CouponCode    string    `json:"couponCode,omitempty" validate:"omitempty,max=64"`
}

// CheckoutResponse is the created group plus pricing diagnostics.
type CheckoutResponse struct {
	Group          ordersdto.OrderGroup `json:"group"`
	FallbackOrders int                  `json:"fallbackOrders"`
}
