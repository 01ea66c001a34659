package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines persistence for carts and their lines.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByOwner(ctx context.Context, owner auth.Principal) (*models.Cart, error)
	FindOrCreate(ctx context.Context, owner auth.Principal) (*models.Cart, error)
	UpsertLine(ctx context.Context, line *models.CartLine) error
	UpdateLineQuantity(ctx context.Context, cartID, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) (int64, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}
