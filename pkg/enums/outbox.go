package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column on outbox_events.
type OutboxAggregateType string

const (
	AggregateOrderGroup OutboxAggregateType = "order_group"
	AggregateOrder      OutboxAggregateType = "order"
	AggregateWallet     OutboxAggregateType = "wallet"
	AggregateCashout    OutboxAggregateType = "cashout"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrderGroup,
	AggregateOrder,
	AggregateWallet,
	AggregateCashout,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column on outbox_events.
type OutboxEventType string

const (
	EventOrderGroupCreated     OutboxEventType = "order_group_created"
	EventOrderAssigned         OutboxEventType = "order_assigned"
	EventOrderOutForDelivery   OutboxEventType = "order_out_for_delivery"
	EventOrderDelivered        OutboxEventType = "order_delivered"
	EventOrderCancelled        OutboxEventType = "order_cancelled"
	EventPaymentStatusChanged  OutboxEventType = "payment_status_changed"
	EventWalletPendingReleased OutboxEventType = "wallet_pending_released"
	EventCashoutRequested      OutboxEventType = "cashout_requested"
	EventCashoutStatusChanged  OutboxEventType = "cashout_status_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderGroupCreated,
	EventOrderAssigned,
	EventOrderOutForDelivery,
	EventOrderDelivered,
	EventOrderCancelled,
	EventPaymentStatusChanged,
	EventWalletPendingReleased,
	EventCashoutRequested,
	EventCashoutStatusChanged,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
