package currency_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-pricing/internal/currency"
	"github.com/noah-isme/storefront-pricing/internal/obs"
)

func newService(t *testing.T, campaign currency.Campaign) *currency.Service {
	t.Helper()
	svc, err := currency.NewService(currency.Config{
		Base:     "usd",
		Profiles: currency.DefaultProfiles(),
		Campaign: campaign,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsBadTables(t *testing.T) {
	_, err := currency.NewService(currency.Config{})
	require.ErrorIs(t, err, currency.ErrEmptyTable)

	dup := []currency.Profile{{Code: "USD", FactorFromBase: 1}, {Code: "usd", FactorFromBase: 1}}
	_, err = currency.NewService(currency.Config{Profiles: dup})
	require.ErrorIs(t, err, currency.ErrDuplicateCode)

	zero := []currency.Profile{{Code: "USD", FactorFromBase: 1}, {Code: "NGN", FactorFromBase: 0}}
	_, err = currency.NewService(currency.Config{Profiles: zero})
	require.ErrorIs(t, err, currency.ErrInvalidFactor)

	_, err = currency.NewService(currency.Config{Base: "JPY", Profiles: currency.DefaultProfiles()})
	require.ErrorIs(t, err, currency.ErrUnknownCurrency)

	skewed := []currency.Profile{{Code: "USD", FactorFromBase: 2}}
	_, err = currency.NewService(currency.Config{Base: "USD", Profiles: skewed})
	require.Error(t, err)
}

func TestConvertPivotsThroughBase(t *testing.T) {
	svc := newService(t, currency.Campaign{})

	require.InDelta(t, 15000.0, svc.Convert(10, "USD", "NGN"), 1e-9)
	require.InDelta(t, 10.0, svc.Convert(15000, "NGN", "USD"), 1e-9)
	require.InDelta(t, 0.79, svc.Convert(1500, "NGN", "GBP"), 1e-9)
	require.Equal(t, 42.0, svc.Convert(42, "EUR", "eur"))
}

func TestConvertRoundTrip(t *testing.T) {
	svc := newService(t, currency.Campaign{})
	amounts := []float64{0.01, 1, 19.99, 320, 123456.78}
	for _, a := range svc.Profiles() {
		for _, b := range svc.Profiles() {
			for _, x := range amounts {
				back := svc.Convert(svc.Convert(x, a.Code, b.Code), b.Code, a.Code)
				require.InDelta(t, x, back, 1e-6*x, "%s -> %s -> %s", a.Code, b.Code, a.Code)
			}
		}
	}
}

func TestResolveFallsBackToBase(t *testing.T) {
	obs.MustRegisterDomainMetrics("currency_test", prometheus.NewRegistry())
	before := testutil.ToFloat64(obs.CurrencyFallbackTotal.WithLabelValues("JPY"))

	svc := newService(t, currency.Campaign{})
	p := svc.Resolve("jpy")
	require.Equal(t, "USD", p.Code)

	_, err := svc.Lookup("JPY")
	var convErr *currency.ConversionError
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, "JPY", convErr.Code)

	require.InDelta(t, 10.0, svc.Convert(10, "JPY", "USD"), 1e-9)
	after := testutil.ToFloat64(obs.CurrencyFallbackTotal.WithLabelValues("JPY"))
	require.Equal(t, before+2, after)
}

func TestCampaignWindow(t *testing.T) {
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 11, 30, 23, 59, 59, 0, time.UTC)
	c := currency.Campaign{Percent: 20, StartsAt: start, EndsAt: end}

	require.False(t, c.Active(start.Add(-time.Second)))
	require.True(t, c.Active(start))
	require.True(t, c.Active(end))
	require.False(t, c.Active(end.Add(time.Second)))
	require.False(t, currency.Campaign{StartsAt: start}.Active(start), "zero percent never active")
	require.True(t, currency.Campaign{Percent: 5}.Active(time.Now()), "open window")
}

func TestApplyDiscount(t *testing.T) {
	svc := newService(t, currency.Campaign{Percent: 20})
	ngn, err := svc.Lookup("NGN")
	require.NoError(t, err)
	usd := svc.Base()

	discounted := svc.ApplyDiscount(currency.NewPrice(1000), ngn, true)
	require.True(t, discounted.Discounted)
	require.InDelta(t, 800.0, discounted.Amount, 1e-9)
	require.InDelta(t, 1000.0, discounted.Original, 1e-9)

	again := svc.ApplyDiscount(discounted, ngn, true)
	require.Equal(t, discounted, again, "discount must not stack")

	require.Equal(t, currency.NewPrice(1000), svc.ApplyDiscount(currency.NewPrice(1000), usd, true))
	require.Equal(t, currency.NewPrice(1000), svc.ApplyDiscount(currency.NewPrice(1000), ngn, false))
}

func TestFormat(t *testing.T) {
	svc := newService(t, currency.Campaign{})
	usd := svc.Base()
	ngn, _ := svc.Lookup("NGN")

	cases := []struct {
		amount  float64
		profile currency.Profile
		want    string
	}{
		{320, usd, "$320"},
		{14.5, usd, "$14.50"},
		{1500, usd, "$1,500"},
		{319.999999, usd, "$320"},
		{-5, usd, "-$5"},
		{480000, ngn, "₦480,000"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, svc.Format(tc.amount, tc.profile))
	}
}

func TestWithFactorsOverridesKnownCodes(t *testing.T) {
	profiles := currency.WithFactors(currency.DefaultProfiles(), map[string]float64{"ngn": 1600, "JPY": 150})
	svc, err := currency.NewService(currency.Config{Profiles: profiles})
	require.NoError(t, err)
	ngn, err := svc.Lookup("NGN")
	require.NoError(t, err)
	require.Equal(t, 1600.0, ngn.FactorFromBase)
	require.Len(t, svc.Profiles(), 4)
	require.Equal(t, 1500.0, currency.DefaultProfiles()[1].FactorFromBase, "defaults untouched")
}
