// Package app wires configuration into the pricing services shared by the API
// server and the command line tools.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-pricing/internal/billing"
	"github.com/noah-isme/storefront-pricing/internal/checkout"
	"github.com/noah-isme/storefront-pricing/internal/config"
	"github.com/noah-isme/storefront-pricing/internal/currency"
	"github.com/noah-isme/storefront-pricing/internal/display"
	"github.com/noah-isme/storefront-pricing/internal/installment"
	"github.com/noah-isme/storefront-pricing/internal/pricing"
	"github.com/noah-isme/storefront-pricing/internal/resilience"
	"github.com/noah-isme/storefront-pricing/internal/session"
)

// Services holds the constructed domain services.
type Services struct {
	Currency   *currency.Service
	Engine     *pricing.Engine
	Breaker    *resilience.Breaker
	Checkout   *checkout.Client
	Settlement checkout.Settlement
}

// Build constructs every service from cfg.
func Build(cfg *config.Config, logger zerolog.Logger) (*Services, error) {
	engine, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	breaker := resilience.NewBreaker(cfg.CircuitCheckoutMinReq, cfg.CircuitCheckoutFailureRate, cfg.CircuitCheckoutOpenFor).
		WithTarget("checkout").
		WithLogger(logger)
	client := checkout.NewClient(checkout.ClientConfig{
		Endpoint: cfg.CheckoutURL,
		Timeout:  cfg.CheckoutTimeout,
		Breaker:  breaker,
	})
	settlement := checkout.Settlement{Currency: cfg.CheckoutSettlementCurrency, MinorUnits: cfg.CheckoutMinorUnits}
	if settlement.Currency != "" {
		if _, err := engine.Currency.Lookup(settlement.Currency); err != nil {
			return nil, fmt.Errorf("CHECKOUT_SETTLEMENT_CURRENCY: %w", err)
		}
	}
	return &Services{
		Currency:   engine.Currency,
		Engine:     engine,
		Breaker:    breaker,
		Checkout:   client,
		Settlement: settlement,
	}, nil
}

// NewCurrency builds the currency service from the default table, the
// configured factor overrides and the campaign window.
func NewCurrency(cfg *config.Config, logger zerolog.Logger) (*currency.Service, error) {
	profiles := currency.WithFactors(currency.DefaultProfiles(), cfg.CurrencyFactors)
	svc, err := currency.NewService(currency.Config{
		Base:     cfg.BaseCurrency,
		Profiles: profiles,
		Campaign: currency.Campaign{
			Percent:  cfg.DiscountPercent,
			StartsAt: cfg.DiscountStartsAt,
			EndsAt:   cfg.DiscountEndsAt,
		},
		Logger: &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("currency table: %w", err)
	}
	return svc, nil
}

// NewEngine builds the quote engine.
func NewEngine(cfg *config.Config, logger zerolog.Logger) (*pricing.Engine, error) {
	svc, err := NewCurrency(cfg, logger)
	if err != nil {
		return nil, err
	}
	multipliers, err := Multipliers(cfg.SessionFormatMultipliers)
	if err != nil {
		return nil, err
	}
	engineLogger := logger.With().Str("component", "pricing").Logger()
	return &pricing.Engine{
		Currency:               svc,
		Billing:                billing.Calculator{Multipliers: multipliers, Currency: svc},
		Catalog:                installment.DefaultCatalog(),
		Display:                display.Renderer{Formatter: svc},
		MinInstallmentSubtotal: cfg.InstallmentMinSubtotal,
		Now:                    time.Now,
		Logger:                 &engineLogger,
	}, nil
}

// Multipliers overlays the configured format factors on the defaults.
func Multipliers(overrides map[string]float64) (billing.Multipliers, error) {
	out := billing.DefaultMultipliers()
	for raw, v := range overrides {
		format, err := session.ParseFormat(raw)
		if err != nil {
			return nil, fmt.Errorf("SESSION_FORMAT_MULTIPLIERS: %w", err)
		}
		out[format] = v
	}
	return out, nil
}

// NewRedis connects to url with tracing and optional metrics instrumentation.
// An empty url returns a nil client: Redis-backed middleware is then disabled.
func NewRedis(ctx context.Context, url string, instrumentMetrics bool, logger zerolog.Logger) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if instrumentMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
