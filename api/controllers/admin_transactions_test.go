package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/refunds"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type stubRefundService struct {
	gotID    uuid.UUID
	gotInput refunds.RefundInput
	err      error
}

func (s *stubRefundService) InitiateRefund(_ context.Context, _ auth.Principal, id uuid.UUID, input refunds.RefundInput) (*refunds.RefundDTO, error) {
	s.gotID = id
	s.gotInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &refunds.RefundDTO{
		RefundTransactionID:   uuid.New(),
		OriginalTransactionID: id,
		Amount:                money.NewAmount(500),
		Status:                enums.TransactionStatusRefunded,
		OriginalStatus:        enums.TransactionStatusPartiallyRefunded,
	}, nil
}

type stubTransactionService struct {
	override *transactions.AntifraudOverrideInput
}

func (s *stubTransactionService) Get(_ context.Context, _ auth.Principal, id uuid.UUID) (*transactions.TransactionDTO, error) {
	return &transactions.TransactionDTO{ID: id}, nil
}

func (s *stubTransactionService) ListForOrder(context.Context, auth.Principal, uuid.UUID) ([]transactions.TransactionDTO, error) {
	return nil, nil
}

func (s *stubTransactionService) OverrideAntifraud(_ context.Context, _ auth.Principal, id uuid.UUID, input transactions.AntifraudOverrideInput) (*transactions.TransactionDTO, error) {
	s.override = &input
	return &transactions.TransactionDTO{ID: id}, nil
}

func adminRequest(method, target, body, param string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = withURLParam(req, "transactionId", param)
	return req.WithContext(middleware.WithPrincipal(req.Context(), auth.UserPrincipal(uuid.New(), enums.RoleAdmin)))
}

func TestAdminRefund(t *testing.T) {
	txnID := uuid.New()

	t.Run("partial amount", func(t *testing.T) {
		svc := &stubRefundService{}
		rec := httptest.NewRecorder()
		AdminRefund(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPost, "/api/admin/transactions/x/refunds", `{"amount":"5.00"}`, txnID.String()))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotID != txnID || svc.gotInput.Amount == nil || *svc.gotInput.Amount != "5.00" {
			t.Fatalf("unexpected call %s %+v", svc.gotID, svc.gotInput)
		}
	})

	t.Run("empty body is a full refund", func(t *testing.T) {
		svc := &stubRefundService{}
		rec := httptest.NewRecorder()
		AdminRefund(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPost, "/api/admin/transactions/x/refunds", "", txnID.String()))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotInput.Amount != nil {
			t.Fatalf("expected no amount, got %v", *svc.gotInput.Amount)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AdminRefund(&stubRefundService{}, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPost, "/", `{}`, "nope"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("state conflict", func(t *testing.T) {
		svc := &stubRefundService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is not refundable")}
		rec := httptest.NewRecorder()
		AdminRefund(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPost, "/", `{}`, txnID.String()))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != string(pkgerrors.CodeStateConflict) {
			t.Fatalf("unexpected code %s", code)
		}
	})
}

func TestAdminAntifraudOverrideValidatesStatus(t *testing.T) {
	txnID := uuid.New().String()
	svc := &stubTransactionService{}

	rec := httptest.NewRecorder()
	AdminAntifraudOverride(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPatch, "/", `{"status":"MAYBE"}`, txnID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.override != nil {
		t.Fatalf("service must not be called for invalid status")
	}

	rec = httptest.NewRecorder()
	AdminAntifraudOverride(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPatch, "/", `{"status":"ACCEPTED","reason":"manual review"}`, txnID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.override == nil || svc.override.Status != "ACCEPTED" {
		t.Fatalf("unexpected override %+v", svc.override)
	}
}
