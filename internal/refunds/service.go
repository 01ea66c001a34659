package refunds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/gateway"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type Service interface {
	InitiateRefund(ctx context.Context, principal auth.Principal, transactionID uuid.UUID, input RefundInput) (*RefundDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Transactions transactions.Repository
	Orders       orders.Repository
	Status       *orders.StatusWriter
	Gateway      gateway.Provider
	Tx           txRunner
	Outbox       outboxPublisher
	Metrics      *metrics.PaymentMetrics
	Logger       *logger.Logger
}

type service struct {
	transactions transactions.Repository
	orders       orders.Repository
	status       *orders.StatusWriter
	gateway      gateway.Provider
	tx           txRunner
	outbox       outboxPublisher
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Transactions == nil:
		return nil, fmt.Errorf("transactions repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Status == nil:
		return nil, fmt.Errorf("status writer required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		transactions: params.Transactions,
		orders:       params.Orders,
		status:       params.Status,
		gateway:      params.Gateway,
		tx:           params.Tx,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// InitiateRefund reverses a paid payment in full or in part. Every check runs
// before the provider is called. The payment is then claimed by moving it from
// PAID to REFUNDING, so only one refund per payment can reach the provider;
// the claim is released if the provider refuses.
func (s *service) InitiateRefund(ctx context.Context, principal auth.Principal, transactionID uuid.UUID, input RefundInput) (*RefundDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	logCtx := s.logg.WithField(ctx, "transaction_id", transactionID.String())
	if principal.UserID != nil {
		logCtx = s.logg.WithUserID(logCtx, principal.UserID.String())
	}

	original, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		if db.IsNotFound(err) {
			s.metrics.IncRefund(metrics.OutcomeRejected)
			return nil, transactions.ErrTransactionNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
	}
	if original.Type != enums.TransactionTypePayment || original.Status != enums.TransactionStatusPaid {
		s.metrics.IncRefund(metrics.OutcomeRejected)
		return nil, errInvalidRefundState()
	}
	if original.GatewayTransactionID == nil || strings.TrimSpace(*original.GatewayTransactionID) == "" {
		s.metrics.IncRefund(metrics.OutcomeRejected)
		return nil, errMissingGatewayReference()
	}

	amount, err := requestedAmount(input, original.AmountCents)
	if err != nil {
		s.metrics.IncRefund(metrics.OutcomeRejected)
		return nil, err
	}
	full := amount == original.AmountCents
	var providerAmount *int64
	if !full {
		providerAmount = &amount
	}

	claimed, err := s.transactions.UpdateStatusFrom(ctx, original.ID, enums.TransactionStatusPaid, enums.TransactionStatusRefunding)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim transaction for refund")
	}
	if !claimed {
		s.metrics.IncRefund(metrics.OutcomeRejected)
		s.logg.Warn(logCtx, "refund lost the claim to a concurrent writer")
		return nil, errInvalidRefundState()
	}

	start := time.Now()
	refund, err := s.gateway.Refund(ctx, *original.GatewayTransactionID, providerAmount)
	s.metrics.ObserveProvider("gateway", "refund", time.Since(start))
	if err != nil {
		s.metrics.IncRefund(metrics.OutcomeError)
		s.logg.Error(logCtx, "refund provider call failed", err)
		s.releaseClaim(logCtx, original.ID)
		return nil, errRefundProvider(err)
	}

	originalStatus := enums.TransactionStatusPartiallyRefunded
	if full {
		originalStatus = enums.TransactionStatusRefunded
	}
	refundID := refund.RefundID
	row := &models.Transaction{
		UserID:               original.UserID,
		GuestEmail:           original.GuestEmail,
		OrderID:              original.OrderID,
		ParentTransactionID:  &original.ID,
		AmountCents:          amount,
		Type:                 enums.TransactionTypeRefund,
		Status:               enums.TransactionStatusProcessing,
		PaymentMethod:        original.PaymentMethod,
		GatewayTransactionID: &refundID,
		Metadata:             types.JSONMap{"provider_status": refund.Status, "full": full},
	}

	var orderStatus *enums.OrderStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record refund")
		}
		settled, err := repo.UpdateStatusFrom(ctx, original.ID, enums.TransactionStatusRefunding, originalStatus)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update refunded transaction")
		}
		if !settled {
			return pkgerrors.New(pkgerrors.CodeInternal, "refund claim was lost before settlement")
		}

		if full {
			status, err := s.refundOrder(ctx, tx, logCtx, original, row, principal)
			if err != nil {
				return err
			}
			orderStatus = status
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundInitiated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: string(principal.Role)},
			Data: payloads.RefundInitiatedEvent{
				RefundTransactionID:   row.ID,
				OriginalTransactionID: original.ID,
				OrderID:               original.OrderID,
				AmountCents:           amount,
				Full:                  full,
			},
		})
	})
	if err != nil {
		s.metrics.IncRefund(metrics.OutcomeError)
		// The payment stays REFUNDING so no second refund can be issued
		// before someone reconciles it against the provider.
		s.logg.Error(s.logg.WithField(logCtx, "gateway_refund_id", refundID), "refund accepted by provider but ledger write failed", err)
		return nil, err
	}

	s.metrics.IncRefund(metrics.OutcomeSuccess)
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"refund_transaction_id": row.ID.String(),
		"amount_cents":          amount,
		"full":                  full,
	}), "refund initiated")

	return &RefundDTO{
		RefundTransactionID:   row.ID,
		OriginalTransactionID: original.ID,
		OrderID:               original.OrderID,
		Amount:                money.NewAmount(amount),
		Status:                row.Status,
		OriginalStatus:        originalStatus,
		OrderStatus:           orderStatus,
		GatewayRefundID:       refundID,
	}, nil
}

func (s *service) releaseClaim(logCtx context.Context, id uuid.UUID) {
	ok, err := s.transactions.UpdateStatusFrom(context.WithoutCancel(logCtx), id, enums.TransactionStatusRefunding, enums.TransactionStatusPaid)
	if err != nil {
		s.logg.Error(logCtx, "release refund claim", err)
		return
	}
	if !ok {
		s.logg.Warn(logCtx, "refund claim already released")
	}
}

// refundOrder moves the order linked to a fully refunded payment to
// REFUNDED. Missing orders and orders past PAID are logged, not failed: the
// money has already left through the provider.
func (s *service) refundOrder(ctx context.Context, tx *gorm.DB, logCtx context.Context, original *models.Transaction, refund *models.Transaction, principal auth.Principal) (*enums.OrderStatus, error) {
	if original.OrderID == nil {
		s.logg.Warn(logCtx, "refunded transaction has no order")
		return nil, nil
	}
	order, err := s.orders.WithTx(tx).FindByID(ctx, *original.OrderID)
	if err != nil {
		if db.IsNotFound(err) {
			s.logg.Warn(s.logg.WithOrderID(logCtx, original.OrderID.String()), "refunded transaction points at a missing order")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	err = s.status.Apply(ctx, tx, order, orders.StatusChange{
		To:            enums.OrderStatusRefunded,
		Source:        payloads.SourceRefund,
		TransactionID: &refund.ID,
		Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: string(principal.Role)},
	})
	if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
			"order_id":     order.ID.String(),
			"order_status": order.Status.String(),
		}), "order status left unchanged by refund")
		status := order.Status
		return &status, nil
	}
	if err != nil {
		return nil, err
	}
	status := order.Status
	return &status, nil
}

func requestedAmount(input RefundInput, availableCents int64) (int64, error) {
	if input.Amount == nil || strings.TrimSpace(*input.Amount) == "" {
		return availableCents, nil
	}
	cents, err := money.Parse(*input.Amount)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund amount")
	}
	switch {
	case cents < 0:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	case cents == 0:
		return availableCents, nil
	case cents > availableCents:
		return 0, errRefundAmountExceeded(cents, availableCents)
	}
	return cents, nil
}
