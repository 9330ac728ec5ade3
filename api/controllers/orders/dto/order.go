package ordersdto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// OrderItem is one product line of a vendor order.
type OrderItem struct {
	ID                 uuid.UUID  `json:"id"`
	ProductID          uuid.UUID  `json:"productId"`
	VendorID           uuid.UUID  `json:"vendorId"`
	UnitPricePaise     int64      `json:"unitPricePaise"`
	DiscountPricePaise *int64     `json:"discountPricePaise,omitempty"`
	Quantity           int        `json:"quantity"`
	LineTotalPaise     int64      `json:"lineTotalPaise"`
	Collected          bool       `json:"collected"`
	CollectedAt        *time.Time `json:"collectedAt,omitempty"`
}

// VendorPickup is the courier's confirmation state for one vendor leg.
type VendorPickup struct {
	VendorID    uuid.UUID  `json:"vendorId"`
	Collected   bool       `json:"collected"`
	CollectedAt *time.Time `json:"collectedAt,omitempty"`
}

// Order is a single deliverable unit.
type Order struct {
	ID               uuid.UUID         `json:"id"`
	GroupID          uuid.UUID         `json:"groupId"`
	VendorID         uuid.UUID         `json:"vendorId"`
	AddressID        uuid.UUID         `json:"addressId"`
	OrderNumber      string            `json:"orderNumber"`
	Status           enums.OrderStatus `json:"status"`
	CourierID        *uuid.UUID        `json:"courierId,omitempty"`
	SubtotalPaise    int64             `json:"subtotalPaise"`
	DeliveryFeePaise int64             `json:"deliveryFeePaise"`
	DistanceKm       float64           `json:"distanceKm"`
	TaxPaise         int64             `json:"taxPaise"`
	DiscountPaise    int64             `json:"discountPaise"`
	TotalPaise       int64             `json:"totalPaise"`
	ItemCount        int               `json:"itemCount"`
	PayoutPaise      int64             `json:"payoutPaise"`
	FeeFallback      bool              `json:"feeFallback"`
	AssignedAt       *time.Time        `json:"assignedAt,omitempty"`
	PickedUpAt       *time.Time        `json:"pickedUpAt,omitempty"`
	OutForDeliveryAt *time.Time        `json:"outForDeliveryAt,omitempty"`
	DeliveredAt      *time.Time        `json:"deliveredAt,omitempty"`
	CancelledAt      *time.Time        `json:"cancelledAt,omitempty"`
	Items            []OrderItem       `json:"items"`
	Pickups          []VendorPickup    `json:"pickups,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// OrderGroup is the checkout-level aggregate of vendor orders.
type OrderGroup struct {
	ID               uuid.UUID           `json:"id"`
	CustomerID       uuid.UUID           `json:"customerId"`
	AddressID        uuid.UUID           `json:"addressId"`
	PaymentMethod    enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus    enums.PaymentStatus `json:"paymentStatus"`
	PaymentReference *string             `json:"paymentReference,omitempty"`
	CouponCode       *string             `json:"couponCode,omitempty"`
	SubtotalPaise    int64               `json:"subtotalPaise"`
	DeliveryFeePaise int64               `json:"deliveryFeePaise"`
	TaxPaise         int64               `json:"taxPaise"`
	DiscountPaise    int64               `json:"discountPaise"`
	TotalPaise       int64               `json:"totalPaise"`
	Orders           []Order             `json:"orders"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// OrderPage is a cursor page of orders.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// FromOrder maps a persisted order to its response shape.
func FromOrder(order *models.Order) Order {
	if order == nil {
		return Order{Items: []OrderItem{}}
	}
	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItem{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			VendorID:           item.VendorID,
			UnitPricePaise:     item.UnitPricePaise,
			DiscountPricePaise: item.DiscountPricePaise,
			Quantity:           item.Quantity,
			LineTotalPaise:     item.LineTotalPaise,
			Collected:          item.Collected,
			CollectedAt:        item.CollectedAt,
		})
	}
	var pickups []VendorPickup
	for _, pickup := range order.Pickups {
		pickups = append(pickups, VendorPickup{
			VendorID:    pickup.VendorID,
			Collected:   pickup.Collected,
			CollectedAt: pickup.CollectedAt,
		})
	}

	return Order{
		ID:               order.ID,
		GroupID:          order.GroupID,
		VendorID:         order.VendorID,
		AddressID:        order.AddressID,
		OrderNumber:      order.OrderNumber,
		Status:           order.Status,
		CourierID:        order.CourierID,
		SubtotalPaise:    order.SubtotalPaise,
		DeliveryFeePaise: order.DeliveryFeePaise,
		DistanceKm:       order.DistanceKm,
		TaxPaise:         order.TaxPaise,
		DiscountPaise:    order.DiscountPaise,
		TotalPaise:       order.TotalPaise,
		ItemCount:        order.ItemCount,
		PayoutPaise:      order.PayoutPaise,
		FeeFallback:      order.FeeFallback,
		AssignedAt:       order.AssignedAt,
		PickedUpAt:       order.PickedUpAt,
		OutForDeliveryAt: order.OutForDeliveryAt,
		DeliveredAt:      order.DeliveredAt,
		CancelledAt:      order.CancelledAt,
		Items:            items,
		Pickups:          pickups,
		CreatedAt:        order.CreatedAt,
	}
}

// FromOrders maps a slice of persisted orders.
func FromOrders(orders []models.Order) []Order {
	out := make([]Order, 0, len(orders))
	for i := range orders {
		out = append(out, FromOrder(&orders[i]))
	}
	return out
}

// FromGroup maps a persisted order group and its orders.
func FromGroup(group *models.OrderGroup) OrderGroup {
	if group == nil {
		return OrderGroup{Orders: []Order{}}
	}
	return OrderGroup{
		ID:               group.ID,
		CustomerID:       group.CustomerID,
		AddressID:        group.AddressID,
		PaymentMethod:    group.PaymentMethod,
		PaymentStatus:    group.PaymentStatus,
		PaymentReference: group.PaymentReference,
		CouponCode:       group.CouponCode,
		SubtotalPaise:    group.SubtotalPaise,
		DeliveryFeePaise: group.DeliveryFeePaise,
		TaxPaise:         group.TaxPaise,
		DiscountPaise:    group.DiscountPaise,
		TotalPaise:       group.TotalPaise,
		Orders:           FromOrders(group.Orders),
		CreatedAt:        group.CreatedAt,
	}
}
