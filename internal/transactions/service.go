package transactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// ErrTransactionNotFound is returned when no ledger row matches.
func ErrTransactionNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found").
		WithReason(pkgerrors.ReasonTransactionNotFound)
}

// Service is the admin view of the payment ledger.
type Service interface {
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*TransactionDTO, error)
	ListForOrder(ctx context.Context, principal auth.Principal, orderID uuid.UUID) ([]TransactionDTO, error)
	OverrideAntifraud(ctx context.Context, principal auth.Principal, id uuid.UUID, input AntifraudOverrideInput) (*TransactionDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*TransactionDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrTransactionNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
	}
	dto := FromModel(*txn)
	return &dto, nil
}

func (s *service) ListForOrder(ctx context.Context, principal auth.Principal, orderID uuid.UUID) ([]TransactionDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}
	out := make([]TransactionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// OverrideAntifraud replaces the recorded verdict. Order status is never
// touched here.
func (s *service) OverrideAntifraud(ctx context.Context, principal auth.Principal, id uuid.UUID, input AntifraudOverrideInput) (*TransactionDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	status, err := enums.ParseAntifraudStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid antifraud status")
	}
	var reason *string
	if input.Reason != nil {
		if trimmed := strings.TrimSpace(*input.Reason); trimmed != "" {
			reason = &trimmed
		}
	}

	if err := s.repo.UpdateAntifraud(ctx, id, status, reason); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrTransactionNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update antifraud status")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"transaction_id":   id.String(),
		"antifraud_status": status.String(),
	})
	if principal.UserID != nil {
		logCtx = s.logg.WithUserID(logCtx, principal.UserID.String())
	}
	s.logg.Info(logCtx, "antifraud status overridden")

	return s.Get(ctx, principal, id)
}
