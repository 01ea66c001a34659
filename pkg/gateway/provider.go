// Package gateway talks to the card/PIX payment provider. Provider is
// implemented by an HTTP Client and by a deterministic Simulator used when no
// credentials are configured.
package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Item struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

// ChargeRequest is the common payload for every charge flavour.
type ChargeRequest struct {
	OrderID         uuid.UUID             `json:"order_id"`
	AmountCents     int64                 `json:"amount_cents"`
	Description     string                `json:"description"`
	Customer        Customer              `json:"customer"`
	ShippingAddress types.AddressSnapshot `json:"shipping_address"`
	Items           []Item                `json:"items"`
}

type CardChargeRequest struct {
	ChargeRequest
	CardToken    string `json:"card_token"`
	HolderName   string `json:"holder_name"`
	HolderCPF    string `json:"holder_cpf"`
	Installments int    `json:"installments"`
}

type PixCharge struct {
	ProviderTransactionID string
	Status                string
	BRCode                string
	QRCodeImageURL        string
	ExpiresAt             time.Time
}

type CardCharge struct {
	ProviderTransactionID string
	Status                string
	TransactionRef        string
}

type RedirectCheckout struct {
	CheckoutID  string
	RedirectURL string
}

type ChargeDetails struct {
	ProviderTransactionID string
	Status                string
	AmountCents           int64
}

type Refund struct {
	RefundID string
	Status   string
}

// Provider is the payment provider contract consumed by payments, webhooks and refunds.
type Provider interface {
	CreatePixCharge(ctx context.Context, req ChargeRequest) (*PixCharge, error)
	CreateCardCharge(ctx context.Context, req CardChargeRequest) (*CardCharge, error)
	CreateRedirectCheckout(ctx context.Context, req ChargeRequest) (*RedirectCheckout, error)
	GetChargeDetails(ctx context.Context, providerTransactionID string) (*ChargeDetails, error)
	// Refund reverses a charge. A nil amount refunds the full charge.
	Refund(ctx context.Context, providerTransactionID string, amountCents *int64) (*Refund, error)
}
