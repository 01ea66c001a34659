package orders

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// StockShortage names one line that cannot be fulfilled.
type StockShortage struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

func errEmptyCart() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
		WithReason(pkgerrors.ReasonEmptyCart)
}

func errInsufficientStock(shortages []StockShortage) error {
	msg := "insufficient stock"
	if len(shortages) > 0 {
		msg = fmt.Sprintf("insufficient stock for %s", shortages[0].ProductName)
	}
	return pkgerrors.New(pkgerrors.CodeConflict, msg).
		WithReason(pkgerrors.ReasonInsufficientStock).
		WithDetails(map[string]any{"items": shortages})
}

func errProductUnavailable(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a product in the cart is no longer available").
		WithReason(pkgerrors.ReasonProductUnavailable).
		WithDetails(map[string]any{"product_id": productID})
}

func errAddressNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "address not found").
		WithReason(pkgerrors.ReasonAddressNotFound)
}

// ErrOrderNotFound is returned when the order id does not exist.
func ErrOrderNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithReason(pkgerrors.ReasonOrderNotFound)
}

// ErrOrderNotPending is returned when payment is attempted on a settled order.
func ErrOrderNotPending() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending payment").
		WithReason(pkgerrors.ReasonOrderNotPending)
}

// ErrUnauthorizedOrderAccess is returned when the caller does not own the order.
func ErrUnauthorizedOrderAccess() error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller").
		WithReason(pkgerrors.ReasonUnauthorizedOrderAccess)
}
