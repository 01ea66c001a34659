// Package shippingquote asks the postal rate provider for carrier options.
package shippingquote

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/providerhttp"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Package is the physical profile of a shipment.
type Package struct {
	WeightGrams        int
	LengthCm           int
	WidthCm            int
	HeightCm           int
	DeclaredValueCents int64
}

type Option struct {
	ServiceCode string `json:"service_code"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	EtaDays     int    `json:"eta_days"`
}

type Quoter interface {
	Quote(ctx context.Context, destinationZip string, pkg Package) ([]Option, error)
}

func validateZip(zip string) (string, error) {
	digits := types.DigitsOnly(zip)
	if len(digits) != 8 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "destination postal code must have 8 digits")
	}
	return digits, nil
}

type serviceRate struct {
	code       string
	name       string
	baseCents  int64
	perKgCents int64
	perZone    int64
	baseDays   int
}

var simulatedServices = []serviceRate{
	{code: "PAC", name: "PAC", baseCents: 1890, perKgCents: 450, perZone: 150, baseDays: 6},
	{code: "SEDEX", name: "SEDEX", baseCents: 2990, perKgCents: 780, perZone: 300, baseDays: 2},
}

// Simulator prices shipments from a fixed table. Distance is approximated by
// the gap between the first digits of origin and destination postal codes.
type Simulator struct {
	originZip string
}

func NewSimulator(cfg config.ShippingConfig) *Simulator {
	return &Simulator{originZip: types.DigitsOnly(cfg.OriginZip)}
}

func (s *Simulator) Quote(_ context.Context, destinationZip string, pkg Package) ([]Option, error) {
	dest, err := validateZip(destinationZip)
	if err != nil {
		return nil, err
	}
	zones := int64(0)
	if s.originZip != "" {
		zones = int64(dest[0]) - int64(s.originZip[0])
		if zones < 0 {
			zones = -zones
		}
	}
	kg := int64((max(pkg.WeightGrams, 1) + 999) / 1000)

	options := make([]Option, 0, len(simulatedServices))
	for _, svc := range simulatedServices {
		options = append(options, Option{
			ServiceCode: svc.code,
			Name:        svc.name,
			PriceCents:  svc.baseCents + svc.perKgCents*kg + svc.perZone*zones,
			EtaDays:     svc.baseDays + int(zones),
		})
	}
	return options, nil
}

const providerName = "shipping"

// Client is the HTTP implementation of Quoter.
type Client struct {
	http      *providerhttp.Client
	originZip string
}

func NewClient(cfg config.ShippingConfig, opts ...providerhttp.Option) (*Client, error) {
	opts = append([]providerhttp.Option{providerhttp.WithTimeout(cfg.Timeout)}, opts...)
	httpClient, err := providerhttp.New(providerName, cfg.BaseURL, cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: httpClient, originZip: types.DigitsOnly(cfg.OriginZip)}, nil
}

func (c *Client) Quote(ctx context.Context, destinationZip string, pkg Package) ([]Option, error) {
	dest, err := validateZip(destinationZip)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"from": map[string]string{"postal_code": c.originZip},
		"to":   map[string]string{"postal_code": dest},
		"package": map[string]any{
			"weight": decimal.New(int64(pkg.WeightGrams), -3),
			"length": pkg.LengthCm,
			"width":  pkg.WidthCm,
			"height": pkg.HeightCm,
		},
		"options": map[string]any{"insurance_value": money.FromCents(pkg.DeclaredValueCents)},
	}

	var resp []struct {
		ID           int             `json:"id"`
		Name         string          `json:"name"`
		Price        decimal.Decimal `json:"price"`
		DeliveryTime int             `json:"delivery_time"`
		Error        string          `json:"error"`
	}
	if err := c.http.Do(ctx, "quote", http.MethodPost, "api/v2/shipment/calculate", body, &resp); err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(resp))
	for _, svc := range resp {
		if svc.Error != "" || svc.Price.IsZero() {
			continue
		}
		options = append(options, Option{
			ServiceCode: strconv.Itoa(svc.ID),
			Name:        svc.Name,
			PriceCents:  money.ToCents(svc.Price),
			EtaDays:     svc.DeliveryTime,
		})
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].PriceCents < options[j].PriceCents })
	return options, nil
}
