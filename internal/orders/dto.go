package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CreateOrderInput drives checkout. Registered users reference a saved
// address; guests send the address inline together with their contact.
type CreateOrderInput struct {
	AddressID       *uuid.UUID                  `json:"address_id,omitempty"`
	Address         *address.CreateAddressInput `json:"address,omitempty"`
	ShippingService string                      `json:"shipping_service" validate:"required,max=32"`
	Guest           *GuestContact               `json:"guest,omitempty"`
}

type GuestContact struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Email string  `json:"email" validate:"required,email"`
	CPF   *string `json:"cpf,omitempty" validate:"omitempty,min=11,max=14"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type OrderLineDTO struct {
	ID          uuid.UUID    `json:"id"`
	ProductID   uuid.UUID    `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
	LineTotal   money.Amount `json:"line_total"`
	Size        string       `json:"size,omitempty"`
	Color       string       `json:"color,omitempty"`
}

type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	Status          enums.OrderStatus     `json:"status"`
	Subtotal        money.Amount          `json:"subtotal"`
	Shipping        money.Amount          `json:"shipping"`
	Total           money.Amount          `json:"total"`
	ShippingService string                `json:"shipping_service"`
	ShippingEtaDays int                   `json:"shipping_eta_days"`
	ShippingAddress types.AddressSnapshot `json:"shipping_address"`
	PaymentMethod   *enums.PaymentMethod  `json:"payment_method,omitempty"`
	PaymentDetails  map[string]any        `json:"payment_details,omitempty"`
	Guest           *GuestContact         `json:"guest,omitempty"`
	Lines           []OrderLineDTO        `json:"lines"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type OrderSummaryDTO struct {
	ID        uuid.UUID         `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	Total     money.Amount      `json:"total"`
	ItemCount int               `json:"item_count"`
	CreatedAt time.Time         `json:"created_at"`
}

type OrderList = pagination.Page[OrderSummaryDTO]

func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		Status:          o.Status,
		Subtotal:        money.NewAmount(o.SubtotalCents),
		Shipping:        money.NewAmount(o.ShippingCents),
		Total:           money.NewAmount(o.TotalCents),
		ShippingService: o.ShippingService,
		ShippingEtaDays: o.ShippingEtaDays,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentDetails:  o.PaymentDetails,
		Lines:           make([]OrderLineDTO, 0, len(o.Lines)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.IsGuest() {
		dto.Guest = &GuestContact{
			Name:  deref(o.GuestName),
			Email: deref(o.GuestEmail),
			CPF:   o.GuestCPF,
			Phone: o.GuestPhone,
		}
	}
	for _, line := range o.Lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   money.NewAmount(line.UnitPriceCents),
			LineTotal:   money.NewAmount(line.TotalCents()),
			Size:        line.Size,
			Color:       line.Color,
		})
	}
	return dto
}

func summaryFromModel(o models.Order) OrderSummaryDTO {
	count := 0
	for _, line := range o.Lines {
		count += line.Quantity
	}
	return OrderSummaryDTO{
		ID:        o.ID,
		Status:    o.Status,
		Total:     money.NewAmount(o.TotalCents),
		ItemCount: count,
		CreatedAt: o.CreatedAt,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
