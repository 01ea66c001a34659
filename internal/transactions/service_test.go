package transactions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func seedPayment(t *testing.T, repo Repository, orderID uuid.UUID, gatewayID string) models.Transaction {
	t.Helper()
	review := enums.AntifraudPendingReview
	txn := models.Transaction{
		OrderID:              &orderID,
		AmountCents:          1000,
		Type:                 enums.TransactionTypePayment,
		Status:               enums.TransactionStatusPending,
		GatewayTransactionID: &gatewayID,
		AntifraudStatus:      &review,
	}
	require.NoError(t, repo.Create(context.Background(), &txn))
	return txn
}

func TestRepositoryLookups(t *testing.T) {
	t.Parallel()

	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	orderID := uuid.New()
	seeded := seedPayment(t, repo, orderID, "gw_1")

	found, err := repo.FindByGatewayID(ctx, "gw_1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByGatewayID(ctx, "gw_missing")
	require.Error(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, seeded.ID, enums.TransactionStatusPaid))
	found, err = repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusPaid, found.Status)

	rows, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.Error(t, repo.UpdateStatus(ctx, uuid.New(), enums.TransactionStatusPaid))
}

func TestUpdateStatusFromOnlyWinsOnce(t *testing.T) {
	t.Parallel()

	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	seeded := seedPayment(t, repo, uuid.New(), "gw_cas")

	ok, err := repo.UpdateStatusFrom(ctx, seeded.ID, enums.TransactionStatusPending, enums.TransactionStatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatusFrom(ctx, seeded.ID, enums.TransactionStatusPending, enums.TransactionStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok, "stale expected status must not overwrite")

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusPaid, found.Status)

	ok, err = repo.UpdateStatusFrom(ctx, uuid.New(), enums.TransactionStatusPaid, enums.TransactionStatusRefunding)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryRejectsDuplicateGatewayID(t *testing.T) {
	t.Parallel()

	repo := NewRepository(dbtest.Open(t))
	seedPayment(t, repo, uuid.New(), "gw_dup")

	gatewayID := "gw_dup"
	dup := models.Transaction{
		AmountCents:          500,
		Type:                 enums.TransactionTypePayment,
		Status:               enums.TransactionStatusPending,
		GatewayTransactionID: &gatewayID,
	}
	assert.Error(t, repo.Create(context.Background(), &dup))
}

func TestOverrideAntifraudOnlyTouchesVerdict(t *testing.T) {
	t.Parallel()

	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	ctx := context.Background()
	seeded := seedPayment(t, repo, uuid.New(), "gw_override")
	admin := auth.UserPrincipal(uuid.New(), enums.RoleAdmin)

	reason := "  manual review cleared  "
	dto, err := svc.OverrideAntifraud(ctx, admin, seeded.ID, AntifraudOverrideInput{Status: "accepted", Reason: &reason})
	require.NoError(t, err)
	require.NotNil(t, dto.AntifraudStatus)
	assert.Equal(t, enums.AntifraudAccepted, *dto.AntifraudStatus)
	require.NotNil(t, dto.AntifraudReason)
	assert.Equal(t, "manual review cleared", *dto.AntifraudReason)
	assert.Equal(t, enums.TransactionStatusPending, dto.Status)
}

func TestOverrideAntifraudErrors(t *testing.T) {
	t.Parallel()

	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	ctx := context.Background()
	seeded := seedPayment(t, repo, uuid.New(), "gw_errors")

	tests := []struct {
		name      string
		principal auth.Principal
		id        uuid.UUID
		status    string
		code      pkgerrors.Code
	}{
		{"customer", auth.UserPrincipal(uuid.New(), enums.RoleCustomer), seeded.ID, "DENIED", pkgerrors.CodeForbidden},
		{"bad status", auth.UserPrincipal(uuid.New(), enums.RoleAdmin), seeded.ID, "MAYBE", pkgerrors.CodeValidation},
		{"missing", auth.UserPrincipal(uuid.New(), enums.RoleAdmin), uuid.New(), "DENIED", pkgerrors.CodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.OverrideAntifraud(ctx, tc.principal, tc.id, AntifraudOverrideInput{Status: tc.status})
			assert.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}
