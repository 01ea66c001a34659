// Package gatewaywebhook reconciles payment provider notifications with the
// local ledger. A notification is only a hint: the charge state is re-read
// from the provider before anything is written.
package gatewaywebhook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/gateway"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order)
}

type ServiceParams struct {
	Secret            string
	Gateway           gateway.Provider
	Transactions      transactions.Repository
	Orders            orders.Repository
	Status            *orders.StatusWriter
	TransactionRunner txRunner
	Guard             *DeliveryGuard
	Notifier          notifier
	Metrics           *metrics.PaymentMetrics
	Logger            *logger.Logger
}

type Service struct {
	secret       string
	gateway      gateway.Provider
	transactions transactions.Repository
	orders       orders.Repository
	status       *orders.StatusWriter
	txRunner     txRunner
	guard        *DeliveryGuard
	notifier     notifier
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transactions repository required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Status == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "status writer required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Service{
		secret:       params.Secret,
		gateway:      params.Gateway,
		transactions: params.Transactions,
		orders:       params.Orders,
		status:       params.Status,
		txRunner:     params.TransactionRunner,
		guard:        params.Guard,
		notifier:     params.Notifier,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Outcome describes what a delivery did to local state.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeStale     Outcome = "stale"
)

type Result struct {
	Outcome       Outcome           `json:"outcome"`
	TransactionID uuid.UUID         `json:"transaction_id,omitempty"`
	Status        enums.OrderStatus `json:"status,omitempty"`
}

// ErrInvalidSignature rejects a delivery whose HMAC does not match.
func ErrInvalidSignature() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature").
		WithReason(pkgerrors.ReasonInvalidSignature)
}

// Handle verifies, confirms and applies one provider delivery. rawBody must be
// the exact bytes received.
func (s *Service) Handle(ctx context.Context, rawBody []byte, signature string) (*Result, error) {
	if !gateway.VerifySignature(s.secret, rawBody, signature) {
		s.metrics.IncWebhook(metrics.OutcomeRejected)
		s.logg.Warn(s.logg.WithField(ctx, "body_bytes", len(rawBody)), "webhook signature mismatch")
		return nil, ErrInvalidSignature()
	}

	event, chargeID, err := gateway.ParseWebhook(rawBody)
	if err != nil {
		s.metrics.IncWebhook(metrics.OutcomeRejected)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"webhook_event":          event.Event,
		"webhook_delivery_id":    event.ID,
		"gateway_transaction_id": chargeID,
	})

	if s.guard != nil && event.ID != "" {
		seen, err := s.guard.CheckAndMark(ctx, event.ID)
		switch {
		case err != nil:
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "webhook delivery guard unavailable")
		case seen:
			s.metrics.IncWebhook(metrics.OutcomeDuplicate)
			s.logg.Info(logCtx, "webhook delivery already processed")
			return &Result{Outcome: OutcomeDuplicate}, nil
		}
	}

	result, err := s.reconcile(ctx, logCtx, chargeID)
	if err != nil {
		s.metrics.IncWebhook(metrics.OutcomeError)
		if s.guard != nil && event.ID != "" {
			if releaseErr := s.guard.Release(ctx, event.ID); releaseErr != nil {
				s.logg.Warn(s.logg.WithField(logCtx, "error", releaseErr.Error()), "release webhook delivery marker")
			}
		}
		return nil, err
	}
	s.metrics.IncWebhook(string(result.Outcome))
	return result, nil
}

func (s *Service) reconcile(ctx context.Context, logCtx context.Context, chargeID string) (*Result, error) {
	start := time.Now()
	details, err := s.gateway.GetChargeDetails(ctx, chargeID)
	s.metrics.ObserveProvider("gateway", "get_charge", time.Since(start))
	if err != nil {
		s.logg.Error(logCtx, "confirm charge with provider", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable").
			WithReason(pkgerrors.ReasonPaymentProvider)
	}
	mapped := gateway.MapStatus(details.Status)
	ledgerStatus := enums.TransactionStatusFor(mapped)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"provider_status": details.Status,
		"mapped_status":   mapped.String(),
	})

	txn, err := s.transactions.FindByGatewayID(ctx, chargeID)
	if err != nil {
		if db.IsNotFound(err) {
			s.logg.Error(logCtx, "webhook for unknown transaction", err)
			return nil, transactions.ErrTransactionNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
	}
	logCtx = s.logg.WithField(logCtx, "transaction_id", txn.ID.String())

	var order *models.Order
	if txn.OrderID != nil {
		order, err = s.orders.FindByID(ctx, *txn.OrderID)
		if err != nil && !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order != nil {
			logCtx = s.logg.WithOrderID(logCtx, order.ID.String())
		}
	}

	result := &Result{TransactionID: txn.ID, Status: mapped}
	orderMoves := order != nil && order.Status != mapped
	if txn.Status == ledgerStatus && !orderMoves {
		s.logg.Info(logCtx, "webhook already reconciled")
		result.Outcome = OutcomeDuplicate
		return result, nil
	}
	if ownedByRefund(txn.Status) || (orderMoves && !order.Status.CanAdvanceTo(mapped)) {
		fields := map[string]any{"transaction_status": txn.Status.String()}
		if order != nil {
			fields["order_status"] = order.Status.String()
		}
		s.logg.Warn(s.logg.WithFields(logCtx, fields), "ignoring webhook that would regress state")
		result.Outcome = OutcomeStale
		return result, nil
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if txn.Status != ledgerStatus {
			ok, err := s.transactions.WithTx(tx).UpdateStatusFrom(ctx, txn.ID, txn.Status, ledgerStatus)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update transaction status")
			}
			if !ok {
				return errLedgerMoved
			}
		}
		if !orderMoves {
			return nil
		}
		return s.status.Apply(ctx, tx, order, orders.StatusChange{
			To:            mapped,
			Source:        payloads.SourceWebhook,
			TransactionID: &txn.ID,
		})
	})
	if errors.Is(err, errLedgerMoved) {
		s.logg.Warn(logCtx, "transaction changed while reconciling, ignoring webhook")
		result.Outcome = OutcomeStale
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	s.logg.Info(logCtx, "webhook reconciled")
	if orderMoves && s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, order)
	}
	result.Outcome = OutcomeApplied
	return result, nil
}

// errLedgerMoved aborts the reconcile transaction when the ledger row no
// longer holds the status it was read with.
var errLedgerMoved = errors.New("transaction status changed concurrently")

// ownedByRefund reports ledger states owned by the refund flow, including a
// refund still in flight. Provider charge notifications must not overwrite them.
func ownedByRefund(status enums.TransactionStatus) bool {
	switch status {
	case enums.TransactionStatusRefunding, enums.TransactionStatusRefunded, enums.TransactionStatusPartiallyRefunded:
		return true
	}
	return false
}
