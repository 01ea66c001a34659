package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Transaction is an append-only payment ledger row. Refunds insert new rows
// pointing at the original through ParentTransactionID; the original only has
// its status updated.
type Transaction struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID               *uuid.UUID              `gorm:"column:user_id;type:uuid;index:transactions_user_id_idx"`
	GuestEmail           *string                 `gorm:"column:guest_email"`
	OrderID              *uuid.UUID              `gorm:"column:order_id;type:uuid;index:transactions_order_id_idx"`
	ParentTransactionID  *uuid.UUID              `gorm:"column:parent_transaction_id;type:uuid"`
	AmountCents          int64                   `gorm:"column:amount_cents;not null"`
	Type                 enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Status               enums.TransactionStatus `gorm:"column:status;type:text;not null"`
	PaymentMethod        *enums.PaymentMethod    `gorm:"column:payment_method;type:text"`
	GatewayTransactionID *string                 `gorm:"column:gateway_transaction_id;uniqueIndex:transactions_gateway_transaction_id_key"`
	TransactionRef       *string                 `gorm:"column:transaction_ref"`
	AntifraudStatus      *enums.AntifraudStatus  `gorm:"column:antifraud_status;type:text"`
	AntifraudReason      *string                 `gorm:"column:antifraud_reason"`
	Metadata             types.JSONMap           `gorm:"column:metadata;type:jsonb"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
