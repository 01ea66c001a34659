package refunds

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// RefundInput carries an optional decimal amount such as "15.00". Omitting it
// refunds the full payment.
type RefundInput struct {
	Amount *string `json:"amount,omitempty" validate:"omitempty,max=20"`
}

type RefundDTO struct {
	RefundTransactionID   uuid.UUID               `json:"refund_transaction_id"`
	OriginalTransactionID uuid.UUID               `json:"original_transaction_id"`
	OrderID               *uuid.UUID              `json:"order_id,omitempty"`
	Amount                money.Amount            `json:"amount"`
	Status                enums.TransactionStatus `json:"status"`
	OriginalStatus        enums.TransactionStatus `json:"original_status"`
	OrderStatus           *enums.OrderStatus      `json:"order_status,omitempty"`
	GatewayRefundID       string                  `json:"gateway_refund_id"`
}
