package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the financial record of a checkout. Exactly one of UserID and
// GuestID is set; guest orders carry the contact snapshot taken at checkout.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid;index:orders_user_id_idx"`
	GuestID         *uuid.UUID            `gorm:"column:guest_id;type:uuid;index:orders_guest_id_idx"`
	GuestName       *string               `gorm:"column:guest_name"`
	GuestEmail      *string               `gorm:"column:guest_email"`
	GuestCPF        *string               `gorm:"column:guest_cpf"`
	GuestPhone      *string               `gorm:"column:guest_phone"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'PENDING'"`
	SubtotalCents   int64                 `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int64                 `gorm:"column:shipping_cents;not null"`
	TotalCents      int64                 `gorm:"column:total_cents;not null"`
	ShippingService string                `gorm:"column:shipping_service;not null"`
	ShippingEtaDays int                   `gorm:"column:shipping_eta_days;not null;default:0"`
	ShippingAddress types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb;not null"`
	PaymentMethod   *enums.PaymentMethod  `gorm:"column:payment_method;type:text"`
	PaymentDetails  types.JSONMap         `gorm:"column:payment_details;type:jsonb"`
	Lines           []OrderLine           `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// IsGuest reports whether the order was placed without an account.
func (o Order) IsGuest() bool {
	return o.UserID == nil
}

// OrderLine freezes the catalog price at checkout time.
type OrderLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:order_lines_order_id_idx"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Size           string    `gorm:"column:size;not null;default:''"`
	Color          string    `gorm:"column:color;not null;default:''"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// TotalCents returns unit price times quantity.
func (l OrderLine) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}
