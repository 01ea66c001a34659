package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateTransaction OutboxAggregateType = "transaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateTransaction,
}

// IsValid reports whether the value is a known aggregate type.
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

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated     OutboxEventType = "order_created"
	EventOrderPaid        OutboxEventType = "order_paid"
	EventOrderStatus      OutboxEventType = "order_status_changed"
	EventOrderCancelled   OutboxEventType = "order_cancelled"
	EventOrderRefunded    OutboxEventType = "order_refunded"
	EventPaymentInitiated OutboxEventType = "payment_initiated"
	EventRefundInitiated  OutboxEventType = "refund_initiated"
)

var validEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderPaid,
	EventOrderStatus,
	EventOrderCancelled,
	EventOrderRefunded,
	EventPaymentInitiated,
	EventRefundInitiated,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// EventForOrderStatus picks the outbox event emitted when an order lands in status.
func EventForOrderStatus(status OrderStatus) OutboxEventType {
	switch status {
	case OrderStatusPaid:
		return EventOrderPaid
	case OrderStatusCancelled:
		return EventOrderCancelled
	case OrderStatusRefunded:
		return EventOrderRefunded
	default:
		return EventOrderStatus
	}
}
