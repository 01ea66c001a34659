// Package antifraud scores payment attempts. Analyzer is implemented by an HTTP
// Client and by a rule-based Simulator used when no credentials are configured.
package antifraud

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/providerhttp"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type Item struct {
	ProductID      uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int64
}

// CardDetails carries the non-sensitive card data the scorer accepts.
type CardDetails struct {
	HolderName   string
	Installments int
}

type Request struct {
	OrderID       uuid.UUID
	AmountCents   int64
	CustomerEmail string
	CustomerCPF   string
	PaymentMethod enums.PaymentMethod
	Items         []Item
	Card          *CardDetails
}

type Verdict struct {
	Status enums.AntifraudStatus
	Reason string
}

type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Verdict, error)
}

// Simulator applies deterministic rules. A CPF starting with the denied prefix
// is DENIED, an amount above the review threshold is PENDING_REVIEW and
// everything else is ACCEPTED.
type Simulator struct {
	reviewThresholdCents int64
	deniedCPFPrefix      string
}

func NewSimulator(cfg config.AntifraudConfig) (*Simulator, error) {
	threshold, err := money.Parse(cfg.ReviewThreshold)
	if err != nil {
		return nil, err
	}
	return &Simulator{reviewThresholdCents: threshold, deniedCPFPrefix: cfg.DeniedCPFPrefix}, nil
}

func (s *Simulator) Analyze(_ context.Context, req Request) (*Verdict, error) {
	cpf := types.DigitsOnly(req.CustomerCPF)
	if s.deniedCPFPrefix != "" && cpf != "" && strings.HasPrefix(cpf, s.deniedCPFPrefix) {
		return &Verdict{Status: enums.AntifraudDenied, Reason: "cpf on test deny list"}, nil
	}
	if req.AmountCents > s.reviewThresholdCents {
		return &Verdict{Status: enums.AntifraudPendingReview, Reason: "amount above review threshold"}, nil
	}
	return &Verdict{Status: enums.AntifraudAccepted}, nil
}

const providerName = "antifraud"

// Client is the HTTP implementation of Analyzer.
type Client struct {
	http *providerhttp.Client
}

func NewClient(cfg config.AntifraudConfig, opts ...providerhttp.Option) (*Client, error) {
	opts = append([]providerhttp.Option{providerhttp.WithTimeout(cfg.Timeout)}, opts...)
	httpClient, err := providerhttp.New(providerName, cfg.BaseURL, cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: httpClient}, nil
}

type wireItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type wireCard struct {
	HolderName   string `json:"holder_name"`
	Installments int    `json:"installments"`
}

func (c *Client) Analyze(ctx context.Context, req Request) (*Verdict, error) {
	items := make([]wireItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, wireItem{
			ID:        item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: money.FromCents(item.UnitPriceCents),
		})
	}
	body := struct {
		OrderID       string          `json:"order_id"`
		Amount        decimal.Decimal `json:"amount"`
		CustomerEmail string          `json:"customer_email"`
		CustomerCPF   string          `json:"customer_cpf,omitempty"`
		PaymentMethod string          `json:"payment_method"`
		Items         []wireItem      `json:"items"`
		Card          *wireCard       `json:"card,omitempty"`
	}{
		OrderID:       req.OrderID.String(),
		Amount:        money.FromCents(req.AmountCents),
		CustomerEmail: req.CustomerEmail,
		CustomerCPF:   types.DigitsOnly(req.CustomerCPF),
		PaymentMethod: req.PaymentMethod.String(),
		Items:         items,
	}
	if req.Card != nil {
		body.Card = &wireCard{HolderName: req.Card.HolderName, Installments: req.Card.Installments}
	}

	var resp struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.http.Do(ctx, "analyze", http.MethodPost, "v1/analyses", body, &resp); err != nil {
		return nil, err
	}
	status, err := enums.ParseAntifraudStatus(resp.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "antifraud returned unknown verdict")
	}
	return &Verdict{Status: status, Reason: resp.Reason}, nil
}
