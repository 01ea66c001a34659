package wishlist

import (
	"time"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// WishlistItemDTO wraps the product summary included in a wishlist row.
type WishlistItemDTO struct {
	ProductID uuid.UUID           `json:"product_id"`
	Product   *product.ProductDTO `json:"product,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// WishlistPage is a cursor-paginated wishlist view.
type WishlistPage = pagination.Page[WishlistItemDTO]
