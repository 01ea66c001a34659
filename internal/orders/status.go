package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// StatusChange describes one move of an order through its state machine.
type StatusChange struct {
	To            enums.OrderStatus
	Source        string
	TransactionID *uuid.UUID
	Actor         *outbox.ActorRef
}

// StatusWriter applies order status changes inside a caller-owned
// transaction and queues the matching outbox event.
type StatusWriter struct {
	repo   Repository
	outbox outboxPublisher
}

func NewStatusWriter(repo Repository, outbox outboxPublisher) (*StatusWriter, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &StatusWriter{repo: repo, outbox: outbox}, nil
}

// Apply moves order to change.To. The update is guarded by the status the
// caller read, so a concurrent writer surfaces as a state conflict.
func (w *StatusWriter) Apply(ctx context.Context, tx *gorm.DB, order *models.Order, change StatusChange) error {
	from := order.Status
	if !from.CanAdvanceTo(change.To) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order cannot move from %s to %s", from, change.To)).
			WithDetails(map[string]any{"from": from, "to": change.To})
	}
	ok, err := w.repo.WithTx(tx).UpdateStatus(ctx, order.ID, from, change.To)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	order.Status = change.To

	return w.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventForOrderStatus(change.To),
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         change.Actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:       order.ID,
			TransactionID: change.TransactionID,
			From:          from,
			To:            change.To,
			Source:        change.Source,
		},
	})
}
