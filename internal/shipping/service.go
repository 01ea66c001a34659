// Package shipping turns cart contents into a package profile and prices it
// with the configured rate provider.
package shipping

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
	"github.com/angelmondragon/storefront-backend/pkg/shippingquote"
)

// Minimum parcel profile accepted by the carriers.
const (
	minLengthCm        = 16
	minWidthCm         = 11
	minHeightCm        = 2
	defaultWeightGrams = 300
)

// Line is one product and quantity going into the parcel.
type Line struct {
	Product  models.Product
	Quantity int
}

// Choice is a resolved shipping option frozen onto an order.
type Choice struct {
	ServiceCode string
	Name        string
	PriceCents  int64
	EtaDays     int
}

type OptionDTO struct {
	ServiceCode string       `json:"service_code"`
	Name        string       `json:"name"`
	Price       money.Amount `json:"price"`
	EtaDays     int          `json:"eta_days"`
}

type QuoteInput struct {
	PostalCode string `json:"postal_code" validate:"required"`
}

type Service interface {
	QuoteCart(ctx context.Context, owner auth.Principal, input QuoteInput) ([]OptionDTO, error)
	Resolve(ctx context.Context, destinationZip string, lines []Line, serviceCode string) (Choice, error)
}

type cartLoader interface {
	FindByOwner(ctx context.Context, owner auth.Principal) (*models.Cart, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type service struct {
	quoter   shippingquote.Quoter
	carts    cartLoader
	products productLoader
}

func NewService(quoter shippingquote.Quoter, carts cartLoader, products productLoader) (Service, error) {
	if quoter == nil {
		return nil, fmt.Errorf("shipping quoter required")
	}
	if carts == nil || products == nil {
		return nil, fmt.Errorf("cart and product loaders required")
	}
	return &service{quoter: quoter, carts: carts, products: products}, nil
}

func (s *service) QuoteCart(ctx context.Context, owner auth.Principal, input QuoteInput) ([]OptionDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner required")
	}
	cart, err := s.carts.FindByOwner(ctx, owner)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart == nil || len(cart.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}
	lines := make([]Line, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if p, ok := products[line.ProductID]; ok {
			lines = append(lines, Line{Product: p, Quantity: line.Quantity})
		}
	}

	options, err := s.quote(ctx, input.PostalCode, lines)
	if err != nil {
		return nil, err
	}
	out := make([]OptionDTO, 0, len(options))
	for _, opt := range options {
		out = append(out, OptionDTO{
			ServiceCode: opt.ServiceCode,
			Name:        opt.Name,
			Price:       money.NewAmount(opt.PriceCents),
			EtaDays:     opt.EtaDays,
		})
	}
	return out, nil
}

// Resolve re-quotes the parcel and returns the option matching serviceCode,
// so a checkout never trusts a client-supplied shipping price.
func (s *service) Resolve(ctx context.Context, destinationZip string, lines []Line, serviceCode string) (Choice, error) {
	code := strings.ToUpper(strings.TrimSpace(serviceCode))
	if code == "" {
		return Choice{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping service is required")
	}
	options, err := s.quote(ctx, destinationZip, lines)
	if err != nil {
		return Choice{}, err
	}
	for _, opt := range options {
		if strings.EqualFold(opt.ServiceCode, code) {
			return Choice{
				ServiceCode: opt.ServiceCode,
				Name:        opt.Name,
				PriceCents:  opt.PriceCents,
				EtaDays:     opt.EtaDays,
			}, nil
		}
	}
	return Choice{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping service %s is not available for this destination", code))
}

func (s *service) quote(ctx context.Context, zip string, lines []Line) ([]shippingquote.Option, error) {
	options, err := s.quoter.Quote(ctx, zip, BuildPackage(lines))
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping quote failed")
	}
	return options, nil
}

// BuildPackage stacks items: weight and height add up, length and width take
// the largest item. Missing dimensions fall back to the carrier minimums.
func BuildPackage(lines []Line) shippingquote.Package {
	pkg := shippingquote.Package{}
	for _, line := range lines {
		qty := max(line.Quantity, 0)
		weight := line.Product.WeightGrams
		if weight <= 0 {
			weight = defaultWeightGrams
		}
		pkg.WeightGrams += weight * qty
		pkg.LengthCm = max(pkg.LengthCm, line.Product.LengthCm)
		pkg.WidthCm = max(pkg.WidthCm, line.Product.WidthCm)
		pkg.HeightCm += max(line.Product.HeightCm, 0) * qty
		pkg.DeclaredValueCents += line.Product.PriceCents * int64(qty)
	}
	pkg.LengthCm = max(pkg.LengthCm, minLengthCm)
	pkg.WidthCm = max(pkg.WidthCm, minWidthCm)
	pkg.HeightCm = max(pkg.HeightCm, minHeightCm)
	return pkg
}
