package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type catalogInventory struct{}

// NewInventory exposes the catalog-backed stock implementation.
func NewInventory() Inventory {
	return catalogInventory{}
}

func (catalogInventory) Products(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return product.NewRepository(tx).FindByIDs(ctx, ids)
}

// Decrement runs the conditional stock update; false means the row did not
// hold enough stock when the statement ran.
func (catalogInventory) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	return product.NewRepository(tx).DecrementStock(ctx, productID, qty)
}
