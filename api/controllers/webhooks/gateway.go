package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	gatewaywebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/gateway"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/gateway"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// maxWebhookBody bounds the payload read before signature verification.
const maxWebhookBody = 1 << 20

type GatewayWebhookService interface {
	Handle(ctx context.Context, rawBody []byte, signature string) (*gatewaywebhook.Result, error)
}

// GatewayWebhook verifies and reconciles a payment provider notification.
// The signature covers the raw body, so it is read untouched.
func GatewayWebhook(svc GatewayWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		result, err := svc.Handle(ctx, payload, r.Header.Get(gateway.SignatureHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
