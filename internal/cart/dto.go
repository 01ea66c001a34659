package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type LineDTO struct {
	ID          uuid.UUID    `json:"id"`
	ProductID   uuid.UUID    `json:"product_id"`
	ProductName string       `json:"product_name"`
	Size        string       `json:"size"`
	Color       string       `json:"color"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
	LineTotal   money.Amount `json:"line_total"`
	// Available is false when the product was retired or no longer has
	// enough stock for this quantity.
	Available bool `json:"available"`
}

type CartDTO struct {
	ID        uuid.UUID    `json:"id"`
	Lines     []LineDTO    `json:"lines"`
	ItemCount int          `json:"item_count"`
	Subtotal  money.Amount `json:"subtotal"`
}

type AddLineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1,lte=99"`
	Size      string    `json:"size" validate:"max=32"`
	Color     string    `json:"color" validate:"max=32"`
}

type UpdateLineInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=99"`
}
