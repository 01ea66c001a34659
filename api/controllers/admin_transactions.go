package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/refunds"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func AdminTransactionGet(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal, err := middleware.RequirePrincipal(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		transactionID, err := validators.ParseUUIDParam(r, "transactionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		txn, err := svc.Get(ctx, principal, transactionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

// AdminRefund refunds a paid payment transaction. An absent or zero amount
// refunds the full payment.
func AdminRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal, err := middleware.RequirePrincipal(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		transactionID, err := validators.ParseUUIDParam(r, "transactionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input refunds.RefundInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithField(ctx, "transaction_id", transactionID.String())
		}
		refund, err := svc.InitiateRefund(ctx, principal, transactionID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}

// AdminAntifraudOverride changes only the antifraud flag of a transaction.
func AdminAntifraudOverride(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal, err := middleware.RequirePrincipal(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		transactionID, err := validators.ParseUUIDParam(r, "transactionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input transactions.AntifraudOverrideInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		txn, err := svc.OverrideAntifraud(ctx, principal, transactionID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}
