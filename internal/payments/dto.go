package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type CardPaymentInput struct {
	CardToken    string `json:"card_token" validate:"required,max=255"`
	HolderName   string `json:"holder_name" validate:"required,max=120"`
	HolderCPF    string `json:"holder_cpf" validate:"required,min=11,max=14"`
	Installments int    `json:"installments" validate:"omitempty,min=1,max=12"`
}

type PixPaymentDTO struct {
	TransactionID   uuid.UUID               `json:"transaction_id"`
	OrderID         uuid.UUID               `json:"order_id"`
	Status          enums.TransactionStatus `json:"status"`
	Amount          money.Amount            `json:"amount"`
	BRCode          string                  `json:"br_code"`
	QRCodeImageURL  string                  `json:"qr_code_image_url"`
	ExpiresAt       time.Time               `json:"expires_at"`
	AntifraudStatus enums.AntifraudStatus   `json:"antifraud_status"`
}

type CardPaymentDTO struct {
	TransactionID   uuid.UUID               `json:"transaction_id"`
	OrderID         uuid.UUID               `json:"order_id"`
	Status          enums.TransactionStatus `json:"status"`
	OrderStatus     enums.OrderStatus       `json:"order_status"`
	Amount          money.Amount            `json:"amount"`
	TransactionRef  string                  `json:"transaction_ref"`
	AntifraudStatus enums.AntifraudStatus   `json:"antifraud_status"`
}

type RedirectPaymentDTO struct {
	TransactionID   uuid.UUID             `json:"transaction_id"`
	OrderID         uuid.UUID             `json:"order_id"`
	CheckoutID      string                `json:"checkout_id"`
	RedirectURL     string                `json:"redirect_url"`
	AntifraudStatus enums.AntifraudStatus `json:"antifraud_status"`
}
