// Package payments starts provider charges for pending orders. Every attempt
// passes the antifraud gate first and is recorded as a PAYMENT row in the
// ledger only after the provider accepted it.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/pkg/antifraud"
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

const gatewayProvider = "gateway"

type Service interface {
	InitiatePix(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (*PixPaymentDTO, error)
	InitiateCard(ctx context.Context, principal auth.Principal, orderID uuid.UUID, input CardPaymentInput) (*CardPaymentDTO, error)
	InitiateRedirect(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (*RedirectPaymentDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order)
}

type ServiceParams struct {
	Orders       orders.Repository
	Transactions transactions.Repository
	Users        userLookup
	Gateway      gateway.Provider
	Antifraud    antifraud.Analyzer
	Status       *orders.StatusWriter
	Tx           txRunner
	Outbox       outboxPublisher
	Notifier     notifier
	Metrics      *metrics.PaymentMetrics
	Logger       *logger.Logger
}

type service struct {
	orders       orders.Repository
	transactions transactions.Repository
	users        userLookup
	gateway      gateway.Provider
	antifraud    antifraud.Analyzer
	status       *orders.StatusWriter
	tx           txRunner
	outbox       outboxPublisher
	notifier     notifier
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Transactions == nil:
		return nil, fmt.Errorf("transactions repository required")
	case params.Users == nil:
		return nil, fmt.Errorf("user lookup required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.Antifraud == nil:
		return nil, fmt.Errorf("antifraud analyzer required")
	case params.Status == nil:
		return nil, fmt.Errorf("status writer required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		orders:       params.Orders,
		transactions: params.Transactions,
		users:        params.Users,
		gateway:      params.Gateway,
		antifraud:    params.Antifraud,
		status:       params.Status,
		tx:           params.Tx,
		outbox:       params.Outbox,
		notifier:     params.Notifier,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// attempt is a pending order that passed the antifraud gate.
type attempt struct {
	principal auth.Principal
	order     *models.Order
	method    enums.PaymentMethod
	verdict   antifraud.Verdict
	charge    gateway.ChargeRequest
	logCtx    context.Context
}

// ledgerEntry is what a provider response contributes to the ledger row and
// the order's payment details.
type ledgerEntry struct {
	gatewayID string
	status    enums.TransactionStatus
	ref       string
	metadata  types.JSONMap
	details   types.JSONMap
	// paidNow flips the order to PAID in the same transaction.
	paidNow bool
}

func (s *service) InitiatePix(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (*PixPaymentDTO, error) {
	att, err := s.prepare(ctx, principal, orderID, enums.PaymentMethodPix, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	charge, err := s.gateway.CreatePixCharge(ctx, att.charge)
	s.metrics.ObserveProvider(gatewayProvider, "create_pix", time.Since(start))
	if err != nil {
		return nil, s.providerFailure(att, err)
	}

	txn, err := s.record(ctx, att, ledgerEntry{
		gatewayID: charge.ProviderTransactionID,
		status:    enums.TransactionStatusPending,
		ref:       charge.BRCode,
		metadata: types.JSONMap{
			"qr_code_image_url": charge.QRCodeImageURL,
			"expires_at":        charge.ExpiresAt.Format(time.RFC3339),
		},
		details: types.JSONMap{
			"gateway_transaction_id": charge.ProviderTransactionID,
			"br_code":                charge.BRCode,
			"qr_code_image_url":      charge.QRCodeImageURL,
			"expires_at":             charge.ExpiresAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}

	return &PixPaymentDTO{
		TransactionID:   txn.ID,
		OrderID:         att.order.ID,
		Status:          txn.Status,
		Amount:          money.NewAmount(txn.AmountCents),
		BRCode:          charge.BRCode,
		QRCodeImageURL:  charge.QRCodeImageURL,
		ExpiresAt:       charge.ExpiresAt,
		AntifraudStatus: att.verdict.Status,
	}, nil
}

// InitiateCard charges a tokenized card. The ledger row carries the mapped
// provider status; an immediately paid charge also settles the order.
func (s *service) InitiateCard(ctx context.Context, principal auth.Principal, orderID uuid.UUID, input CardPaymentInput) (*CardPaymentDTO, error) {
	installments := input.Installments
	if installments <= 0 {
		installments = 1
	}
	att, err := s.prepare(ctx, principal, orderID, enums.PaymentMethodCreditCard, &antifraud.CardDetails{
		HolderName:   input.HolderName,
		Installments: installments,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	charge, err := s.gateway.CreateCardCharge(ctx, gateway.CardChargeRequest{
		ChargeRequest: att.charge,
		CardToken:     input.CardToken,
		HolderName:    input.HolderName,
		HolderCPF:     types.DigitsOnly(input.HolderCPF),
		Installments:  installments,
	})
	s.metrics.ObserveProvider(gatewayProvider, "create_card", time.Since(start))
	if err != nil {
		return nil, s.providerFailure(att, err)
	}

	mapped := gateway.MapStatus(charge.Status)
	txn, err := s.record(ctx, att, ledgerEntry{
		gatewayID: charge.ProviderTransactionID,
		status:    enums.TransactionStatusFor(mapped),
		ref:       charge.TransactionRef,
		metadata: types.JSONMap{
			"provider_status": charge.Status,
			"installments":    installments,
		},
		details: types.JSONMap{
			"gateway_transaction_id": charge.ProviderTransactionID,
			"transaction_ref":        charge.TransactionRef,
			"provider_status":        charge.Status,
			"installments":           installments,
		},
		paidNow: mapped == enums.OrderStatusPaid,
	})
	if err != nil {
		return nil, err
	}

	return &CardPaymentDTO{
		TransactionID:   txn.ID,
		OrderID:         att.order.ID,
		Status:          txn.Status,
		OrderStatus:     att.order.Status,
		Amount:          money.NewAmount(txn.AmountCents),
		TransactionRef:  charge.TransactionRef,
		AntifraudStatus: att.verdict.Status,
	}, nil
}

func (s *service) InitiateRedirect(ctx context.Context, principal auth.Principal, orderID uuid.UUID) (*RedirectPaymentDTO, error) {
	att, err := s.prepare(ctx, principal, orderID, enums.PaymentMethodRedirect, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	checkout, err := s.gateway.CreateRedirectCheckout(ctx, att.charge)
	s.metrics.ObserveProvider(gatewayProvider, "create_checkout", time.Since(start))
	if err != nil {
		return nil, s.providerFailure(att, err)
	}

	txn, err := s.record(ctx, att, ledgerEntry{
		gatewayID: checkout.CheckoutID,
		status:    enums.TransactionStatusPending,
		ref:       checkout.RedirectURL,
		metadata:  types.JSONMap{"checkout_id": checkout.CheckoutID},
		details: types.JSONMap{
			"checkout_id":  checkout.CheckoutID,
			"redirect_url": checkout.RedirectURL,
		},
	})
	if err != nil {
		return nil, err
	}

	return &RedirectPaymentDTO{
		TransactionID:   txn.ID,
		OrderID:         att.order.ID,
		CheckoutID:      checkout.CheckoutID,
		RedirectURL:     checkout.RedirectURL,
		AntifraudStatus: att.verdict.Status,
	}, nil
}

// prepare loads and authorizes the order, resolves the customer contact and
// runs the antifraud gate. Nothing is written.
func (s *service) prepare(ctx context.Context, principal auth.Principal, orderID uuid.UUID, method enums.PaymentMethod, card *antifraud.CardDetails) (*attempt, error) {
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
		"payment_method": method.String(),
	})

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, orders.ErrOrderNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if err := orders.CheckAccess(principal, order); err != nil {
		s.metrics.IncInitiated(method.String(), metrics.OutcomeRejected)
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		s.metrics.IncInitiated(method.String(), metrics.OutcomeRejected)
		return nil, orders.ErrOrderNotPending()
	}

	var user *models.User
	if order.UserID != nil {
		user, err = s.users.FindByID(ctx, *order.UserID)
		if err != nil && !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order owner")
		}
	}
	contact := orders.ResolveContact(order, user)

	items := make([]gateway.Item, 0, len(order.Lines))
	fraudItems := make([]antifraud.Item, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, gateway.Item{
			ProductID:      line.ProductID,
			Name:           line.ProductName,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
		fraudItems = append(fraudItems, antifraud.Item{
			ProductID:      line.ProductID,
			Name:           line.ProductName,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	start := time.Now()
	verdict, err := s.antifraud.Analyze(ctx, antifraud.Request{
		OrderID:       order.ID,
		AmountCents:   order.TotalCents,
		CustomerEmail: contact.Email,
		CustomerCPF:   contact.CPF,
		PaymentMethod: method,
		Items:         fraudItems,
		Card:          card,
	})
	s.metrics.ObserveProvider("antifraud", "analyze", time.Since(start))
	if err != nil {
		s.metrics.IncInitiated(method.String(), metrics.OutcomeError)
		s.logg.Error(logCtx, "antifraud analysis failed", err)
		return nil, errAntifraudProvider(err)
	}
	logCtx = s.logg.WithField(logCtx, "antifraud_status", verdict.Status.String())
	if verdict.Status.Blocks() {
		s.metrics.IncInitiated(method.String(), metrics.OutcomeDeclined)
		s.logg.Warn(s.logg.WithField(logCtx, "antifraud_reason", verdict.Reason), "payment denied by antifraud")
		return nil, ErrFraudDenied()
	}
	if verdict.Status == enums.AntifraudPendingReview {
		s.logg.Info(logCtx, "payment flagged for manual review")
	}

	return &attempt{
		principal: principal,
		order:     order,
		method:    method,
		verdict:   *verdict,
		logCtx:    logCtx,
		charge: gateway.ChargeRequest{
			OrderID:     order.ID,
			AmountCents: order.TotalCents,
			Description: fmt.Sprintf("Pedido %s", order.ID),
			Customer: gateway.Customer{
				Name:  contact.Name,
				Email: contact.Email,
				CPF:   contact.CPF,
				Phone: contact.Phone,
			},
			ShippingAddress: order.ShippingAddress,
			Items:           items,
		},
	}, nil
}

func (s *service) providerFailure(att *attempt, err error) error {
	s.metrics.IncInitiated(att.method.String(), metrics.OutcomeError)
	s.logg.Error(att.logCtx, "payment provider call failed", err)
	return errPaymentProvider(err)
}

// record writes the ledger row, the order's payment details and the outbox
// event in one transaction. A paid card charge settles the order there too.
func (s *service) record(ctx context.Context, att *attempt, entry ledgerEntry) (*models.Transaction, error) {
	order := att.order
	method := att.method
	gatewayID := entry.gatewayID
	verdictStatus := att.verdict.Status
	txn := &models.Transaction{
		UserID:               order.UserID,
		GuestEmail:           order.GuestEmail,
		OrderID:              &order.ID,
		AmountCents:          order.TotalCents,
		Type:                 enums.TransactionTypePayment,
		Status:               entry.status,
		PaymentMethod:        &method,
		GatewayTransactionID: &gatewayID,
		AntifraudStatus:      &verdictStatus,
		Metadata:             entry.metadata,
	}
	if entry.ref != "" {
		ref := entry.ref
		txn.TransactionRef = &ref
	}
	if reason := att.verdict.Reason; reason != "" {
		txn.AntifraudReason = &reason
	}

	settled := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.transactions.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record transaction")
		}
		entry.details["transaction_id"] = txn.ID.String()
		if err := s.orders.WithTx(tx).UpdatePayment(ctx, order.ID, method, entry.details); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order payment")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentInitiated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         actorFor(att.principal),
			Data: payloads.PaymentInitiatedEvent{
				OrderID:              order.ID,
				TransactionID:        txn.ID,
				Method:               method,
				AmountCents:          txn.AmountCents,
				GatewayTransactionID: gatewayID,
				AntifraudStatus:      verdictStatus,
			},
		}); err != nil {
			return err
		}

		if !entry.paidNow {
			return nil
		}
		err := s.status.Apply(ctx, tx, order, orders.StatusChange{
			To:            enums.OrderStatusPaid,
			Source:        payloads.SourceCardCharge,
			TransactionID: &txn.ID,
			Actor:         actorFor(att.principal),
		})
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			// The charge exists upstream; keep the ledger row and let the
			// webhook reconcile the order.
			s.logg.Warn(s.logg.WithField(att.logCtx, "error", err.Error()), "order moved before card settlement")
			return nil
		}
		if err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		s.metrics.IncInitiated(method.String(), metrics.OutcomeError)
		s.logg.Error(s.logg.WithField(att.logCtx, "gateway_transaction_id", gatewayID), "charge created but ledger write failed", err)
		return nil, err
	}

	s.metrics.IncInitiated(method.String(), metrics.OutcomeSuccess)
	s.logg.Info(s.logg.WithFields(att.logCtx, map[string]any{
		"transaction_id":     txn.ID.String(),
		"transaction_status": txn.Status.String(),
	}), "payment initiated")

	if settled && s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, order)
	}
	return txn, nil
}

func actorFor(principal auth.Principal) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:  principal.UserID,
		GuestID: principal.GuestID,
		Role:    string(principal.Role),
	}
}
