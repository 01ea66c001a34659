package errors

// Domain reasons surfaced to clients next to the code.
const (
	ReasonEmptyCart               Reason = "EMPTY_CART"
	ReasonInsufficientStock       Reason = "INSUFFICIENT_STOCK"
	ReasonProductUnavailable      Reason = "PRODUCT_UNAVAILABLE"
	ReasonAddressNotFound         Reason = "ADDRESS_NOT_FOUND"
	ReasonOrderNotFound           Reason = "ORDER_NOT_FOUND"
	ReasonOrderNotPending         Reason = "ORDER_NOT_PENDING"
	ReasonUnauthorizedOrderAccess Reason = "UNAUTHORIZED_ORDER_ACCESS"
	ReasonFraudDenied             Reason = "FRAUD_DENIED"
	ReasonPaymentProvider         Reason = "PAYMENT_PROVIDER_ERROR"
	ReasonAntifraudProvider       Reason = "ANTIFRAUD_PROVIDER_ERROR"
	ReasonInvalidSignature        Reason = "INVALID_WEBHOOK_SIGNATURE"
	ReasonTransactionNotFound     Reason = "TRANSACTION_NOT_FOUND"
	ReasonInvalidRefundState      Reason = "INVALID_REFUND_STATE"
	ReasonMissingGatewayReference Reason = "MISSING_GATEWAY_REFERENCE"
	ReasonRefundAmountExceeded    Reason = "REFUND_AMOUNT_EXCEEDED"
	ReasonRefundProvider          Reason = "REFUND_PROVIDER_ERROR"
)
