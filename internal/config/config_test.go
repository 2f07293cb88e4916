package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-pricing/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"APP_ENV":                    "test",
		"PORT":                       "",
		"BASE_CURRENCY":              "",
		"CURRENCY_FACTORS":           "",
		"DISCOUNT_PERCENT":           "",
		"INSTALLMENT_MIN_SUBTOTAL":   "",
		"SESSION_FORMAT_MULTIPLIERS": "",
		"CHECKOUT_MINOR_UNITS":       "",
		"DISCOUNT_STARTS_AT":         "",
		"DISCOUNT_ENDS_AT":           "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "USD", cfg.BaseCurrency)
	require.Nil(t, cfg.CurrencyFactors)
	require.Equal(t, 100.0, cfg.InstallmentMinSubtotal)
	require.True(t, cfg.CheckoutMinorUnits)
	require.Equal(t, 10*time.Second, cfg.CheckoutTimeout)
}

func TestLoadParsesMapsAndCampaignWindow(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"APP_ENV":                    "test",
		"BASE_CURRENCY":              "usd",
		"CURRENCY_FACTORS":           "NGN=1600, GBP=0.8",
		"SESSION_FORMAT_MULTIPLIERS": "small-group=0.75",
		"DISCOUNT_PERCENT":           "15",
		"DISCOUNT_STARTS_AT":         "2026-11-01T00:00:00Z",
		"DISCOUNT_ENDS_AT":           "2026-11-30T23:59:59Z",
		"PORT":                       ":9090",
	})
	require.NoError(t, err)
	require.Equal(t, "USD", cfg.BaseCurrency)
	require.Equal(t, map[string]float64{"NGN": 1600, "GBP": 0.8}, cfg.CurrencyFactors)
	require.Equal(t, 0.75, cfg.SessionFormatMultipliers["small-group"])
	require.Equal(t, 15.0, cfg.DiscountPercent)
	require.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), cfg.DiscountStartsAt.UTC())
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []map[string]string{
		{"APP_ENV": "test", "CURRENCY_FACTORS": "NGN"},
		{"APP_ENV": "test", "CURRENCY_FACTORS": "NGN=-3"},
		{"APP_ENV": "test", "DISCOUNT_PERCENT": "120"},
		{"APP_ENV": "test", "DISCOUNT_STARTS_AT": "tomorrow"},
		{"APP_ENV": "test", "DISCOUNT_STARTS_AT": "2026-12-01T00:00:00Z", "DISCOUNT_ENDS_AT": "2026-11-01T00:00:00Z"},
		{"APP_ENV": "production", "CHECKOUT_URL": ""},
	}
	for _, env := range cases {
		_, err := config.LoadForTests(env)
		require.Error(t, err, "%v", env)
	}
}
