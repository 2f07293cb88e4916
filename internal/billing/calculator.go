package billing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/noah-isme/storefront-pricing/internal/currency"
	"github.com/noah-isme/storefront-pricing/internal/session"
)

// WeeksPerMonth is the fixed month approximation used for monthly billing.
// TODO: confirm with product whether calendar-accurate months are wanted before changing it.
const WeeksPerMonth = 4

var (
	// ErrNoBaseRate is returned when the offering has no hourly rate usable for the currency.
	ErrNoBaseRate = errors.New("no base hourly rate for currency")
	// ErrUnknownFormat is returned when no multiplier is configured for the session format.
	ErrUnknownFormat = errors.New("no multiplier for session format")
)

// Multipliers maps each session format to its price factor.
type Multipliers map[session.Format]float64

// DefaultMultipliers applies 30% and 50% group discounts.
func DefaultMultipliers() Multipliers {
	return Multipliers{
		session.FormatOneOnOne:   1.0,
		session.FormatSmallGroup: 0.7,
		session.FormatLargeGroup: 0.5,
	}
}

// BreakdownLine is a display-only label/value pair.
type BreakdownLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// MonthlyBilling is the recurring charge derived from a session configuration.
type MonthlyBilling struct {
	BaseHourlyRate     float64         `json:"baseHourlyRate"`
	Multiplier         float64         `json:"sessionFormatMultiplier"`
	AdjustedHourlyRate float64         `json:"adjustedHourlyRate"`
	HoursPerWeek       int             `json:"hoursPerWeek"`
	HoursPerMonth      int             `json:"hoursPerMonth"`
	MonthlyTotal       float64         `json:"monthlyTotal"`
	Currency           string          `json:"currency"`
	Breakdown          []BreakdownLine `json:"breakdown"`
}

// Calculator turns hourly rates and a session configuration into monthly billing.
type Calculator struct {
	Multipliers Multipliers
	Currency    *currency.Service
}

// Compute prices c in currencyCode. The rate is taken from baseRates when the
// offering lists one for the currency, otherwise the base-currency rate is converted.
// The customization must already be validated against the offering's matrix.
func (c Calculator) Compute(baseRates map[string]float64, cust session.Customization, currencyCode string) (MonthlyBilling, error) {
	code := currency.NormaliseCode(currencyCode)
	rate, err := c.rateFor(baseRates, code)
	if err != nil {
		return MonthlyBilling{}, err
	}
	multipliers := c.Multipliers
	if multipliers == nil {
		multipliers = DefaultMultipliers()
	}
	multiplier, ok := multipliers[cust.Format]
	if !ok {
		return MonthlyBilling{}, fmt.Errorf("%q: %w", cust.Format, ErrUnknownFormat)
	}

	adjusted := rate * multiplier
	hoursPerWeek := cust.HoursPerWeek()
	hoursPerMonth := hoursPerWeek * WeeksPerMonth
	total := adjusted * float64(hoursPerMonth)

	out := MonthlyBilling{
		BaseHourlyRate:     rate,
		Multiplier:         multiplier,
		AdjustedHourlyRate: adjusted,
		HoursPerWeek:       hoursPerWeek,
		HoursPerMonth:      hoursPerMonth,
		MonthlyTotal:       total,
		Currency:           code,
	}
	out.Breakdown = []BreakdownLine{
		{Label: "Sessions per week", Value: strconv.Itoa(cust.SessionsPerWeek)},
		{Label: "Session duration", Value: plural(cust.HoursPerSession, "hour")},
		{Label: "Weekly hours", Value: plural(hoursPerWeek, "hour")},
		{Label: "Monthly hours", Value: plural(hoursPerMonth, "hour")},
		{Label: "Effective hourly rate", Value: c.formatRate(adjusted, code)},
	}
	return out, nil
}

func (c Calculator) rateFor(baseRates map[string]float64, code string) (float64, error) {
	for k, v := range baseRates {
		if currency.NormaliseCode(k) == code && v > 0 {
			return v, nil
		}
	}
	if c.Currency == nil {
		return 0, fmt.Errorf("%s: %w", code, ErrNoBaseRate)
	}
	base := c.Currency.Base().Code
	for k, v := range baseRates {
		if currency.NormaliseCode(k) == base && v > 0 {
			return c.Currency.Convert(v, base, code), nil
		}
	}
	return 0, fmt.Errorf("%s: %w", code, ErrNoBaseRate)
}

func (c Calculator) formatRate(amount float64, code string) string {
	if c.Currency == nil {
		return strconv.FormatFloat(amount, 'f', 2, 64) + " " + code + "/hr"
	}
	return c.Currency.Format(amount, c.Currency.Resolve(code)) + "/hr"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
