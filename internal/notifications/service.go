// Package notifications sends customer email for order status changes.
// Delivery is best-effort: failures are logged and never returned to the
// financial flow that triggered them.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Dispatcher renders and sends order emails.
type Dispatcher struct {
	mailer    mailer.Mailer
	users     userLookup
	logg      *logger.Logger
	publicURL string
}

func NewDispatcher(m mailer.Mailer, users userLookup, logg *logger.Logger, publicURL string) (*Dispatcher, error) {
	if m == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{
		mailer:    m,
		users:     users,
		logg:      logg,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// OrderStatusChanged emails the customer when order reached PAID or
// CANCELLED. Other statuses are ignored.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, order *models.Order) {
	if d == nil || order == nil {
		return
	}
	switch order.Status {
	case enums.OrderStatusPaid:
		d.PaymentConfirmed(ctx, order)
	case enums.OrderStatusCancelled:
		d.OrderCancelled(ctx, order)
	}
}

func (d *Dispatcher) PaymentConfirmed(ctx context.Context, order *models.Order) {
	d.send(ctx, order, "payment_confirmed", func(contact orders.Contact) mailer.Message {
		return mailer.Message{
			Subject: fmt.Sprintf("Pagamento confirmado - pedido %s", shortID(order.ID)),
			Body: fmt.Sprintf(
				"Olá %s,\n\nRecebemos o pagamento de R$ %s do seu pedido %s.\nAcompanhe em %s/orders/%s\n",
				greeting(contact), money.Format(order.TotalCents), shortID(order.ID), d.publicURL, order.ID,
			),
		}
	})
}

func (d *Dispatcher) OrderCancelled(ctx context.Context, order *models.Order) {
	d.send(ctx, order, "order_cancelled", func(contact orders.Contact) mailer.Message {
		return mailer.Message{
			Subject: fmt.Sprintf("Pedido %s cancelado", shortID(order.ID)),
			Body: fmt.Sprintf(
				"Olá %s,\n\nO pagamento do pedido %s não foi concluído e o pedido foi cancelado.\n",
				greeting(contact), shortID(order.ID),
			),
		}
	})
}

func (d *Dispatcher) send(ctx context.Context, order *models.Order, kind string, render func(orders.Contact) mailer.Message) {
	logCtx := d.logg.WithFields(d.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
		"notification": kind,
	})

	var user *models.User
	if order.UserID != nil {
		found, err := d.users.FindByID(ctx, *order.UserID)
		if err != nil {
			d.logg.Warn(d.logg.WithField(logCtx, "error", err.Error()), "notification user lookup failed")
		} else {
			user = found
		}
	}
	contact := orders.ResolveContact(order, user)
	if contact.Email == "" {
		d.logg.Warn(logCtx, "notification skipped: no recipient email")
		return
	}

	msg := render(contact)
	msg.To = contact.Email
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logg.Error(logCtx, "notification delivery failed", err)
		return
	}
	d.logg.Info(logCtx, "notification sent")
}

func greeting(contact orders.Contact) string {
	if name := strings.TrimSpace(contact.Name); name != "" {
		return strings.Fields(name)[0]
	}
	return "cliente"
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
