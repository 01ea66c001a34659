package payments

import (
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ErrFraudDenied hides the verdict reason from the caller.
func ErrFraudDenied() error {
	return pkgerrors.New(pkgerrors.CodeDeclined, "transaction declined").
		WithReason(pkgerrors.ReasonFraudDenied)
}

func errPaymentProvider(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment processing failed, try again later").
		WithReason(pkgerrors.ReasonPaymentProvider)
}

func errAntifraudProvider(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment processing failed, try again later").
		WithReason(pkgerrors.ReasonAntifraudProvider)
}
