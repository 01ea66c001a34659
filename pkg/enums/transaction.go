package enums

import "fmt"

// TransactionType distinguishes charges from refunds in the payment ledger.
type TransactionType string

const (
	TransactionTypePayment TransactionType = "PAYMENT"
	TransactionTypeRefund  TransactionType = "REFUND"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePayment,
	TransactionTypeRefund,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}

// TransactionStatus mirrors provider state. The column is free text; these are
// the values the service itself writes.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusPaid       TransactionStatus = "PAID"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	// TransactionStatusRefunding marks a payment whose refund is in flight.
	TransactionStatusRefunding         TransactionStatus = "REFUNDING"
	TransactionStatusRefunded          TransactionStatus = "REFUNDED"
	TransactionStatusPartiallyRefunded TransactionStatus = "PARTIALLY_REFUNDED"
	TransactionStatusCancelled         TransactionStatus = "CANCELLED"
)

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// TransactionStatusFor returns the ledger status matching an order status.
func TransactionStatusFor(status OrderStatus) TransactionStatus {
	return TransactionStatus(status)
}
