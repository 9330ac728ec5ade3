package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// AcceptInput carries a courier's claim on an unassigned order.
type AcceptInput struct {
	OrderID   uuid.UUID
	CourierID uuid.UUID
}

// ItemCollectionInput toggles the collected flag of one order item.
type ItemCollectionInput struct {
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	CourierID uuid.UUID
	Collected bool
}

// PickupInput confirms that every item of one vendor leg is in the courier's hands.
type PickupInput struct {
	OrderID   uuid.UUID
	VendorID  uuid.UUID
	CourierID uuid.UUID
}

// CourierActionInput identifies an order-level courier action.
type CourierActionInput struct {
	OrderID   uuid.UUID
	CourierID uuid.UUID
}

// DeliveryInput completes an order with the customer's handover code.
type DeliveryInput struct {
	OrderID   uuid.UUID
	CourierID uuid.UUID
	OTP       string
}

// DeliveryResult reports the settlement postings made on delivery.
type DeliveryResult struct {
	Order              *models.Order
	CourierPayoutPaise int64
	VendorEarningPaise int64
}

// CancelInput cancels an order that no courier has picked up yet.
type CancelInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Reason      string
}

// OrderPage is a cursor-paginated list of orders, newest first.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}

// PendingLeg names a vendor whose items are not all confirmed.
type PendingLeg struct {
	VendorID         uuid.UUID   `json:"vendor_id"`
	UncollectedItems []uuid.UUID `json:"uncollected_item_ids,omitempty"`
}
