package main

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/antifraud"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/gateway"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/providerhttp"
	"github.com/angelmondragon/storefront-backend/pkg/shippingquote"
)

// Providers without credentials fall back to the in-process simulators.

func newGateway(ctx context.Context, cfg *config.Config, m *metrics.PaymentMetrics, logg *logger.Logger) (gateway.Provider, error) {
	if cfg.Gateway.Simulated() {
		logg.Warn(ctx, "payment gateway credentials missing, using simulator")
		return gateway.NewSimulator(cfg.App.PublicURL, cfg.Gateway.PixExpiry), nil
	}
	client, err := gateway.NewClient(cfg.Gateway, providerhttp.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newAntifraud(ctx context.Context, cfg *config.Config, m *metrics.PaymentMetrics, logg *logger.Logger) (antifraud.Analyzer, error) {
	if cfg.Antifraud.Simulated() {
		logg.Warn(ctx, "antifraud credentials missing, using simulator")
		sim, err := antifraud.NewSimulator(cfg.Antifraud)
		if err != nil {
			return nil, err
		}
		return sim, nil
	}
	client, err := antifraud.NewClient(cfg.Antifraud, providerhttp.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newShippingQuoter(ctx context.Context, cfg *config.Config, m *metrics.PaymentMetrics, logg *logger.Logger) (shippingquote.Quoter, error) {
	if cfg.Shipping.Simulated() {
		logg.Warn(ctx, "shipping provider credentials missing, using rate table")
		return shippingquote.NewSimulator(cfg.Shipping), nil
	}
	client, err := shippingquote.NewClient(cfg.Shipping, providerhttp.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	return client, nil
}
