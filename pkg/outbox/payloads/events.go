// Package payloads holds the data carried inside outbox envelopes.
package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout converts a cart into an order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID  `json:"order_id"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	GuestID       *uuid.UUID `json:"guest_id,omitempty"`
	TotalCents    int64      `json:"total_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	LineCount     int        `json:"line_count"`
}

// OrderStatusChangedEvent is emitted whenever an order moves between statuses.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	TransactionID *uuid.UUID        `json:"transaction_id,omitempty"`
	From          enums.OrderStatus `json:"from"`
	To            enums.OrderStatus `json:"to"`
	Source        string            `json:"source"`
}

// PaymentInitiatedEvent records a charge created at the provider.
type PaymentInitiatedEvent struct {
	OrderID              uuid.UUID             `json:"order_id"`
	TransactionID        uuid.UUID             `json:"transaction_id"`
	Method               enums.PaymentMethod   `json:"method"`
	AmountCents          int64                 `json:"amount_cents"`
	GatewayTransactionID string                `json:"gateway_transaction_id"`
	AntifraudStatus      enums.AntifraudStatus `json:"antifraud_status"`
}

// RefundInitiatedEvent records a refund accepted by the provider.
type RefundInitiatedEvent struct {
	RefundTransactionID   uuid.UUID  `json:"refund_transaction_id"`
	OriginalTransactionID uuid.UUID  `json:"original_transaction_id"`
	OrderID               *uuid.UUID `json:"order_id,omitempty"`
	AmountCents           int64      `json:"amount_cents"`
	Full                  bool       `json:"full"`
}

// Status change sources.
const (
	SourceWebhook    = "webhook"
	SourceCardCharge = "card_charge"
	SourceRefund     = "refund"
)
