package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	CategoryID  *uuid.UUID   `json:"category_id,omitempty"`
	SKU         string       `json:"sku"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Price       money.Amount `json:"price"`
	Stock       int          `json:"stock"`
	Sizes       []string     `json:"sizes"`
	Colors      []string     `json:"colors"`
	WeightGrams int          `json:"weight_grams"`
	HeightCm    int          `json:"height_cm"`
	WidthCm     int          `json:"width_cm"`
	LengthCm    int          `json:"length_cm"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
}

func FromModel(p models.Product) ProductDTO {
	sizes := []string(p.Sizes)
	if sizes == nil {
		sizes = []string{}
	}
	colors := []string(p.Colors)
	if colors == nil {
		colors = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       money.NewAmount(p.PriceCents),
		Stock:       p.Stock,
		Sizes:       sizes,
		Colors:      colors,
		WeightGrams: p.WeightGrams,
		HeightCm:    p.HeightCm,
		WidthCm:     p.WidthCm,
		LengthCm:    p.LengthCm,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type ListInput struct {
	CategoryID *uuid.UUID
	Search     string
	Pagination pagination.Params
}

type ListResult = pagination.Page[ProductDTO]

// CreateProductInput is the admin payload for a new catalog entry.
type CreateProductInput struct {
	CategoryID  *uuid.UUID `json:"category_id"`
	SKU         string     `json:"sku" validate:"required,max=64"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description *string    `json:"description"`
	Price       string     `json:"price" validate:"required"`
	Stock       int        `json:"stock" validate:"gte=0"`
	Sizes       []string   `json:"sizes"`
	Colors      []string   `json:"colors"`
	WeightGrams int        `json:"weight_grams" validate:"gte=0"`
	HeightCm    int        `json:"height_cm" validate:"gte=0"`
	WidthCm     int        `json:"width_cm" validate:"gte=0"`
	LengthCm    int        `json:"length_cm" validate:"gte=0"`
}

// UpdateProductInput changes price, stock or visibility. Nil fields are left alone.
type UpdateProductInput struct {
	Price    *string `json:"price"`
	Stock    *int    `json:"stock" validate:"omitempty,gte=0"`
	IsActive *bool   `json:"is_active"`
}
