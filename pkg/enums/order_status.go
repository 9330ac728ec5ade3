package enums

import "fmt"

// OrderStatus tracks an order through courier pickup and delivery.
type OrderStatus string

const (
	OrderStatusUnassigned     OrderStatus = "unassigned"
	OrderStatusAssigned       OrderStatus = "assigned"
	OrderStatusPickedUp       OrderStatus = "picked_up"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusUnassigned,
	OrderStatusAssigned,
	OrderStatusPickedUp,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (v OrderStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OrderStatus.
func (v OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsTerminal reports whether no further transitions are possible.
func (v OrderStatus) IsTerminal() bool {
	return v == OrderStatusDelivered || v == OrderStatusCancelled
}

// IsCancellable reports whether the order may still be cancelled.
func (v OrderStatus) IsCancellable() bool {
	return v == OrderStatusUnassigned || v == OrderStatusAssigned
}
