package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// Service exposes cart operations for users and guests.
type Service interface {
	Get(ctx context.Context, owner auth.Principal) (*CartDTO, error)
	AddLine(ctx context.Context, owner auth.Principal, input AddLineInput) (*CartDTO, error)
	UpdateLine(ctx context.Context, owner auth.Principal, lineID uuid.UUID, input UpdateLineInput) (*CartDTO, error)
	RemoveLine(ctx context.Context, owner auth.Principal, lineID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, owner auth.Principal) error
}

type service struct {
	repo     CartRepository
	products productLoader
}

func NewService(repo CartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, owner auth.Principal) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner required")
	}
	cart, err := s.repo.FindOrCreate(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.present(ctx, cart)
}

func (s *service) AddLine(ctx context.Context, owner auth.Principal, input AddLineInput) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	size := strings.TrimSpace(input.Size)
	color := strings.TrimSpace(input.Color)
	if err := validateVariant("size", size, product.Sizes); err != nil {
		return nil, err
	}
	if err := validateVariant("color", color, product.Colors); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindOrCreate(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	already := 0
	for _, line := range cart.Lines {
		if line.ProductID == product.ID && line.Size == size && line.Color == color {
			already = line.Quantity
		}
	}
	if already+input.Quantity > product.Stock {
		return nil, insufficientStock(product, already+input.Quantity)
	}

	line := &models.CartLine{
		CartID:         cart.ID,
		ProductID:      product.ID,
		Size:           size,
		Color:          color,
		Quantity:       input.Quantity,
		UnitPriceCents: product.PriceCents,
	}
	if err := s.repo.UpsertLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart line")
	}
	return s.reload(ctx, owner)
}

func (s *service) UpdateLine(ctx context.Context, owner auth.Principal, lineID uuid.UUID, input UpdateLineInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.ownedCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	var target *models.CartLine
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			target = &cart.Lines[i]
		}
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	product, err := s.products.FindByID(ctx, target.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if input.Quantity > product.Stock {
		return nil, insufficientStock(product, input.Quantity)
	}
	if err := s.repo.UpdateLineQuantity(ctx, cart.ID, lineID, input.Quantity); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	return s.reload(ctx, owner)
}

func (s *service) RemoveLine(ctx context.Context, owner auth.Principal, lineID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ownedCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteLine(ctx, cart.ID, lineID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	return s.reload(ctx, owner)
}

func (s *service) Clear(ctx context.Context, owner auth.Principal) error {
	cart, err := s.ownedCart(ctx, owner)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if _, err := s.repo.ClearLines(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) ownedCart(ctx context.Context, owner auth.Principal) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner required")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, owner auth.Principal) (*CartDTO, error) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return s.present(ctx, cart)
}

// present prices every line at the current catalog price.
func (s *service) present(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	dto := &CartDTO{ID: cart.ID, Lines: make([]LineDTO, 0, len(cart.Lines))}
	var subtotal int64
	for _, line := range cart.Lines {
		product, ok := products[line.ProductID]
		unit := line.UnitPriceCents
		name := ""
		available := false
		if ok {
			unit = product.PriceCents
			name = product.Name
			available = product.IsActive && product.Stock >= line.Quantity
		}
		total := unit * int64(line.Quantity)
		subtotal += total
		dto.ItemCount += line.Quantity
		dto.Lines = append(dto.Lines, LineDTO{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: name,
			Size:        line.Size,
			Color:       line.Color,
			Quantity:    line.Quantity,
			UnitPrice:   money.NewAmount(unit),
			LineTotal:   money.NewAmount(total),
			Available:   available,
		})
	}
	dto.Subtotal = money.NewAmount(subtotal)
	return dto, nil
}

func validateVariant(field, value string, allowed []string) error {
	if len(allowed) == 0 {
		if value != "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product has no %s options", field)).
				WithDetails(map[string]any{"field": field})
		}
		return nil
	}
	for _, candidate := range allowed {
		if candidate == value {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s %q", field, value)).
		WithDetails(map[string]any{"field": field, "allowed": allowed})
}

func insufficientStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", product.Name)).
		WithReason(pkgerrors.ReasonInsufficientStock).
		WithDetails(map[string]any{
			"product_id":   product.ID,
			"product_name": product.Name,
			"requested":    requested,
			"available":    product.Stock,
		})
}
