package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/providerhttp"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const providerName = "gateway"

// Client is the HTTP implementation of Provider.
type Client struct {
	http      *providerhttp.Client
	pixExpiry time.Duration
}

func NewClient(cfg config.GatewayConfig, opts ...providerhttp.Option) (*Client, error) {
	opts = append([]providerhttp.Option{providerhttp.WithTimeout(cfg.Timeout)}, opts...)
	httpClient, err := providerhttp.New(providerName, cfg.BaseURL, cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: httpClient, pixExpiry: cfg.PixExpiry}, nil
}

type wireItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type wireCharge struct {
	ExternalID      string                `json:"external_id"`
	Amount          decimal.Decimal       `json:"amount"`
	Description     string                `json:"description"`
	Customer        Customer              `json:"customer"`
	ShippingAddress types.AddressSnapshot `json:"shipping_address"`
	Items           []wireItem            `json:"items"`
}

func toWire(req ChargeRequest) wireCharge {
	items := make([]wireItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, wireItem{
			ID:        item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: money.FromCents(item.UnitPriceCents),
		})
	}
	return wireCharge{
		ExternalID:      req.OrderID.String(),
		Amount:          money.FromCents(req.AmountCents),
		Description:     req.Description,
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	}
}

func (c *Client) CreatePixCharge(ctx context.Context, req ChargeRequest) (*PixCharge, error) {
	body := struct {
		wireCharge
		ExpiresInSeconds int64 `json:"expires_in_seconds"`
	}{wireCharge: toWire(req), ExpiresInSeconds: int64(c.pixExpiry.Seconds())}

	var resp struct {
		ID          string    `json:"id"`
		Status      string    `json:"status"`
		BRCode      string    `json:"br_code"`
		QRCodeImage string    `json:"qr_code_image_url"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
	if err := c.http.Do(ctx, "create_pix", http.MethodPost, "v1/charges/pix", body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned pix charge without id")
	}
	return &PixCharge{
		ProviderTransactionID: resp.ID,
		Status:                resp.Status,
		BRCode:                resp.BRCode,
		QRCodeImageURL:        resp.QRCodeImage,
		ExpiresAt:             resp.ExpiresAt,
	}, nil
}

func (c *Client) CreateCardCharge(ctx context.Context, req CardChargeRequest) (*CardCharge, error) {
	body := struct {
		wireCharge
		CardToken    string `json:"card_token"`
		HolderName   string `json:"holder_name"`
		HolderCPF    string `json:"holder_cpf"`
		Installments int    `json:"installments"`
	}{
		wireCharge:   toWire(req.ChargeRequest),
		CardToken:    req.CardToken,
		HolderName:   req.HolderName,
		HolderCPF:    types.DigitsOnly(req.HolderCPF),
		Installments: req.Installments,
	}

	var resp struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
	}
	if err := c.http.Do(ctx, "create_card", http.MethodPost, "v1/charges/card", body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned card charge without id")
	}
	return &CardCharge{ProviderTransactionID: resp.ID, Status: resp.Status, TransactionRef: resp.Reference}, nil
}

func (c *Client) CreateRedirectCheckout(ctx context.Context, req ChargeRequest) (*RedirectCheckout, error) {
	var resp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.http.Do(ctx, "create_checkout", http.MethodPost, "v1/checkouts", toWire(req), &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned incomplete checkout")
	}
	return &RedirectCheckout{CheckoutID: resp.ID, RedirectURL: resp.URL}, nil
}

func (c *Client) GetChargeDetails(ctx context.Context, providerTransactionID string) (*ChargeDetails, error) {
	id := strings.TrimSpace(providerTransactionID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider transaction id is required")
	}
	var resp struct {
		ID     string          `json:"id"`
		Status string          `json:"status"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.http.Do(ctx, "get_charge", http.MethodGet, "v1/charges/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &ChargeDetails{
		ProviderTransactionID: id,
		Status:                resp.Status,
		AmountCents:           money.ToCents(resp.Amount),
	}, nil
}

func (c *Client) Refund(ctx context.Context, providerTransactionID string, amountCents *int64) (*Refund, error) {
	id := strings.TrimSpace(providerTransactionID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider transaction id is required")
	}
	var body struct {
		Amount *decimal.Decimal `json:"amount,omitempty"`
	}
	if amountCents != nil {
		amount := money.FromCents(*amountCents)
		body.Amount = &amount
	}
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.http.Do(ctx, "refund", http.MethodPost, "v1/charges/"+url.PathEscape(id)+"/refunds", body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned refund without id")
	}
	return &Refund{RefundID: resp.ID, Status: resp.Status}, nil
}
