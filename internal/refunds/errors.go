package refunds

import (
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func errInvalidRefundState() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "only paid payments can be refunded").
		WithReason(pkgerrors.ReasonInvalidRefundState)
}

func errMissingGatewayReference() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction has no gateway reference").
		WithReason(pkgerrors.ReasonMissingGatewayReference)
}

func errRefundAmountExceeded(requested, available int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds the original payment").
		WithReason(pkgerrors.ReasonRefundAmountExceeded).
		WithDetails(map[string]any{"requested_cents": requested, "available_cents": available})
}

func errRefundProvider(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund could not be processed, try again later").
		WithReason(pkgerrors.ReasonRefundProvider)
}
