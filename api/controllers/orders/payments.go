package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type paymentTarget struct {
	principal auth.Principal
	orderID   uuid.UUID
	ctx       context.Context
}

func resolvePaymentTarget(r *http.Request, logg *logger.Logger) (paymentTarget, error) {
	ctx := r.Context()
	principal, err := middleware.RequirePrincipal(ctx)
	if err != nil {
		return paymentTarget{}, err
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return paymentTarget{}, err
	}
	if logg != nil {
		ctx = logg.WithOrderID(ctx, orderID.String())
	}
	return paymentTarget{principal: principal, orderID: orderID, ctx: ctx}, nil
}

// PayPix opens a PIX charge and returns the QR payload to display.
func PayPix(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := resolvePaymentTarget(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.InitiatePix(target.ctx, target.principal, target.orderID)
		if err != nil {
			responses.WriteError(target.ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// PayCard charges a tokenized card after the antifraud gate accepts it.
func PayCard(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := resolvePaymentTarget(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payments.CardPaymentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(target.ctx, logg, w, err)
			return
		}

		payment, err := svc.InitiateCard(target.ctx, target.principal, target.orderID, input)
		if err != nil {
			responses.WriteError(target.ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// PayRedirect creates a hosted checkout and returns its URL.
func PayRedirect(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := resolvePaymentTarget(r, logg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.InitiateRedirect(target.ctx, target.principal, target.orderID)
		if err != nil {
			responses.WriteError(target.ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}
