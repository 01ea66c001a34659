package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service exposes checkout and order reads for owners.
type Service interface {
	CreateOrder(ctx context.Context, principal auth.Principal, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, principal auth.Principal, params pagination.Params) (*OrderList, error)
}

// ServiceParams bundles the collaborators of checkout.
type ServiceParams struct {
	Repo      Repository
	Carts     cart.CartRepository
	Products  productLoader
	Addresses addressLoader
	Shipping  shippingResolver
	Inventory Inventory
	Tx        txRunner
	Outbox    outboxPublisher
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	carts     cart.CartRepository
	products  productLoader
	addresses addressLoader
	shipping  shippingResolver
	inventory Inventory
	tx        txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("product loader required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address loader required")
	case params.Shipping == nil:
		return nil, fmt.Errorf("shipping resolver required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Inventory == nil {
		params.Inventory = NewInventory()
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		repo:      params.Repo,
		carts:     params.Carts,
		products:  params.Products,
		addresses: params.Addresses,
		shipping:  params.Shipping,
		inventory: params.Inventory,
		tx:        params.Tx,
		outbox:    params.Outbox,
		logg:      params.Logger,
	}, nil
}

// CreateOrder converts the caller's cart into a PENDING order. Stock checks,
// order and line inserts, stock decrements and the cart wipe share one
// transaction; any failure rolls all of it back.
func (s *service) CreateOrder(ctx context.Context, principal auth.Principal, input CreateOrderInput) (*OrderDTO, error) {
	if !principal.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}

	current, err := s.carts.FindByOwner(ctx, principal)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if current == nil || len(current.Lines) == 0 {
		return nil, errEmptyCart()
	}

	shipTo, err := s.resolveAddress(ctx, principal, input)
	if err != nil {
		return nil, err
	}
	contact, err := guestContact(principal, input.Guest)
	if err != nil {
		return nil, err
	}

	quoteLines, err := s.quoteLines(ctx, current.Lines)
	if err != nil {
		return nil, err
	}
	choice, err := s.shipping.Resolve(ctx, shipTo.PostalCode, quoteLines, input.ShippingService)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.carts.WithTx(tx).FindByOwner(ctx, principal)
		if err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
		}
		if locked == nil || len(locked.Lines) == 0 {
			return errEmptyCart()
		}

		ids := make([]uuid.UUID, 0, len(locked.Lines))
		for _, line := range locked.Lines {
			ids = append(ids, line.ProductID)
		}
		products, err := s.inventory.Products(ctx, tx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
		}

		var shortages []StockShortage
		var subtotal int64
		lines := make([]models.OrderLine, 0, len(locked.Lines))
		for _, line := range locked.Lines {
			p, ok := products[line.ProductID]
			if !ok || !p.IsActive {
				return errProductUnavailable(line.ProductID)
			}
			if p.Stock < line.Quantity {
				shortages = append(shortages, StockShortage{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   line.Quantity,
					Available:   p.Stock,
				})
				continue
			}
			subtotal += p.PriceCents * int64(line.Quantity)
			lines = append(lines, models.OrderLine{
				ProductID:      p.ID,
				ProductName:    p.Name,
				Quantity:       line.Quantity,
				UnitPriceCents: p.PriceCents,
				Size:           line.Size,
				Color:          line.Color,
			})
		}
		if len(shortages) > 0 {
			return errInsufficientStock(shortages)
		}

		order := &models.Order{
			UserID:          principal.UserID,
			GuestID:         principal.GuestID,
			Status:          enums.OrderStatusPending,
			SubtotalCents:   subtotal,
			ShippingCents:   choice.PriceCents,
			TotalCents:      subtotal + choice.PriceCents,
			ShippingService: choice.ServiceCode,
			ShippingEtaDays: choice.EtaDays,
			ShippingAddress: shipTo,
		}
		if contact != nil {
			order.GuestName = &contact.Name
			order.GuestEmail = &contact.Email
			order.GuestCPF = contact.CPF
			order.GuestPhone = contact.Phone
		}

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order lines")
		}

		for _, line := range lines {
			ok, err := s.inventory.Decrement(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				return errInsufficientStock([]StockShortage{{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Requested:   line.Quantity,
					Available:   products[line.ProductID].Stock,
				}})
			}
		}

		if _, err := s.carts.WithTx(tx).ClearLines(ctx, locked.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		order.Lines = lines
		created = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorFor(principal),
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				GuestID:       order.GuestID,
				TotalCents:    order.TotalCents,
				ShippingCents: order.ShippingCents,
				LineCount:     len(lines),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "total_cents", created.TotalCents), "order created")
	dto := FromModel(*created)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrOrderNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if err := CheckAccess(principal, order); err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, params pagination.Params) (*OrderList, error) {
	if !principal.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListForOwner(ctx, principal, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := pagination.BuildPage(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := OrderList{Items: make([]OrderSummaryDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, order := range page.Items {
		out.Items = append(out.Items, summaryFromModel(order))
	}
	return &out, nil
}

func (s *service) resolveAddress(ctx context.Context, principal auth.Principal, input CreateOrderInput) (types.AddressSnapshot, error) {
	if principal.UserID != nil {
		if input.AddressID == nil {
			return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "address_id is required")
		}
		saved, err := s.addresses.FindOwned(ctx, *principal.UserID, *input.AddressID)
		if err != nil {
			if db.IsNotFound(err) {
				return types.AddressSnapshot{}, errAddressNotFound()
			}
			return types.AddressSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
		}
		return saved.Snapshot(), nil
	}
	if input.Address == nil {
		return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "address is required for guest checkout")
	}
	return address.Normalize(*input.Address)
}

func (s *service) quoteLines(ctx context.Context, lines []models.CartLine) ([]shipping.Line, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	out := make([]shipping.Line, 0, len(lines))
	for _, line := range lines {
		if p, ok := products[line.ProductID]; ok {
			out = append(out, shipping.Line{Product: p, Quantity: line.Quantity})
		}
	}
	return out, nil
}

// guestContact validates and normalizes the contact snapshot a guest must
// provide. Registered users return nil.
func guestContact(principal auth.Principal, input *GuestContact) (*GuestContact, error) {
	if principal.UserID != nil {
		return nil, nil
	}
	if input == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest contact is required")
	}
	contact := &GuestContact{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Phone: nonEmpty(input.Phone),
	}
	if input.CPF != nil {
		if digits := types.DigitsOnly(*input.CPF); digits != "" {
			contact.CPF = &digits
		}
	}
	if contact.Name == "" || !strings.Contains(contact.Email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name and email are required")
	}
	return contact, nil
}

func nonEmpty(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func actorFor(principal auth.Principal) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:  principal.UserID,
		GuestID: principal.GuestID,
		Role:    string(principal.Role),
	}
}
