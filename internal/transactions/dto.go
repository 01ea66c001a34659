package transactions

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type TransactionDTO struct {
	ID                   uuid.UUID               `json:"id"`
	OrderID              *uuid.UUID              `json:"order_id,omitempty"`
	ParentTransactionID  *uuid.UUID              `json:"parent_transaction_id,omitempty"`
	Amount               money.Amount            `json:"amount"`
	Type                 enums.TransactionType   `json:"type"`
	Status               enums.TransactionStatus `json:"status"`
	PaymentMethod        *enums.PaymentMethod    `json:"payment_method,omitempty"`
	GatewayTransactionID *string                 `json:"gateway_transaction_id,omitempty"`
	TransactionRef       *string                 `json:"transaction_ref,omitempty"`
	AntifraudStatus      *enums.AntifraudStatus  `json:"antifraud_status,omitempty"`
	AntifraudReason      *string                 `json:"antifraud_reason,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
}

func FromModel(t models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                   t.ID,
		OrderID:              t.OrderID,
		ParentTransactionID:  t.ParentTransactionID,
		Amount:               money.NewAmount(t.AmountCents),
		Type:                 t.Type,
		Status:               t.Status,
		PaymentMethod:        t.PaymentMethod,
		GatewayTransactionID: t.GatewayTransactionID,
		TransactionRef:       t.TransactionRef,
		AntifraudStatus:      t.AntifraudStatus,
		AntifraudReason:      t.AntifraudReason,
		CreatedAt:            t.CreatedAt,
	}
}

// AntifraudOverrideInput is the admin payload for correcting a verdict.
type AntifraudOverrideInput struct {
	Status string  `json:"status" validate:"required,oneof=ACCEPTED PENDING_REVIEW DENIED"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=255"`
}
