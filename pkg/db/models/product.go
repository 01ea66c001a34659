package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Product is a sellable catalog entry. Stock is the only counter mutated by
// checkout and is decremented conditionally so it never goes negative.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID  *uuid.UUID       `gorm:"column:category_id;type:uuid;index:products_category_id_idx"`
	SKU         string           `gorm:"column:sku;not null;uniqueIndex:products_sku_key"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	PriceCents  int64            `gorm:"column:price_cents;not null"`
	Stock       int              `gorm:"column:stock;not null;default:0"`
	Sizes       types.StringList `gorm:"column:sizes;type:jsonb;not null"`
	Colors      types.StringList `gorm:"column:colors;type:jsonb;not null"`
	WeightGrams int              `gorm:"column:weight_grams;not null;default:0"`
	HeightCm    int              `gorm:"column:height_cm;not null;default:0"`
	WidthCm     int              `gorm:"column:width_cm;not null;default:0"`
	LengthCm    int              `gorm:"column:length_cm;not null;default:0"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
