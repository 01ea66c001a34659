package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

var errOwnerRequired = errors.New("cart owner must be a user or a guest")

type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{Base: r.Base.Tx(tx)}
}

func ownerFilter(owner auth.Principal) (string, uuid.UUID, error) {
	switch {
	case owner.UserID != nil && owner.GuestID == nil:
		return "user_id = ?", *owner.UserID, nil
	case owner.GuestID != nil && owner.UserID == nil:
		return "guest_id = ?", *owner.GuestID, nil
	}
	return "", uuid.Nil, errOwnerRequired
}

func (r *Repository) FindByOwner(ctx context.Context, owner auth.Principal) (*models.Cart, error) {
	where, id, err := ownerFilter(owner)
	if err != nil {
		return nil, err
	}
	var cart models.Cart
	err = r.DB(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC").Order("id ASC") }).
		Where(where, id).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreate returns the owner's cart, creating it on first access. A
// concurrent creator losing the unique race re-reads the winner's row.
func (r *Repository) FindOrCreate(ctx context.Context, owner auth.Principal) (*models.Cart, error) {
	cart, err := r.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	created := &models.Cart{UserID: owner.UserID, GuestID: owner.GuestID}
	if err := r.DB(ctx).Create(created).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return r.FindByOwner(ctx, owner)
		}
		return nil, err
	}
	created.Lines = []models.CartLine{}
	return created, nil
}

// UpsertLine inserts the line or adds its quantity to the existing line for
// the same (cart, product, size, color). The unit price snapshot is refreshed.
func (r *Repository) UpsertLine(ctx context.Context, line *models.CartLine) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}, {Name: "size"}, {Name: "color"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":         gorm.Expr("cart_lines.quantity + excluded.quantity"),
			"unit_price_cents": gorm.Expr("excluded.unit_price_cents"),
			"updated_at":       gorm.Expr("excluded.updated_at"),
		}),
	}).Create(line).Error
}

func (r *Repository) UpdateLineQuantity(ctx context.Context, cartID, lineID uuid.UUID, quantity int) error {
	res := r.DB(ctx).Model(&models.CartLine{}).
		Where("id = ? AND cart_id = ?", lineID, cartID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	res := r.DB(ctx).Where("id = ? AND cart_id = ?", lineID, cartID).Delete(&models.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ClearLines(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteStaleGuestCarts removes guest carts, with their lines, whose cart row
// and every line are older than cutoff. User carts are kept.
func (r *Repository) DeleteStaleGuestCarts(tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	stale := tx.Model(&models.Cart{}).
		Select("id").
		Where("guest_id IS NOT NULL AND updated_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM cart_lines WHERE cart_lines.cart_id = carts.id AND cart_lines.updated_at >= ?)", cutoff)

	var ids []uuid.UUID
	if err := stale.Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := tx.Where("cart_id IN ?", ids).Delete(&models.CartLine{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id IN ?", ids).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
