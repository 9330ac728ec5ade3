package cartdto

import (
	"time"

	"github.com/google/uuid"
)

// AddLineRequest adds a product to the cart, merging with an existing line.
type AddLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
}

// UpdateQuantityRequest sets a line's quantity. Zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=99"`
}

// CartLine is one product in the cart with the prices captured when it was added.
type CartLine struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"productId"`
	VendorID           uuid.UUID `json:"vendorId"`
	UnitPricePaise     int64     `json:"unitPricePaise"`
	DiscountPricePaise *int64    `json:"discountPricePaise,omitempty"`
	Quantity           int       `json:"quantity"`
	LineTotalPaise     int64     `json:"lineTotalPaise"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Cart is the customer's cart with derived totals.
type Cart struct {
	CustomerID    uuid.UUID  `json:"customerId"`
	Lines         []CartLine `json:"lines"`
	ItemCount     int        `json:"itemCount"`
	SubtotalPaise int64      `json:"subtotalPaise"`
	VendorCount   int        `json:"vendorCount"`
}
