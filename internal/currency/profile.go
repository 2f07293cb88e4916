package currency

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultBase is the reference currency every conversion factor is expressed against.
const DefaultBase = "USD"

var (
	// ErrEmptyTable is returned when a service is constructed without any profiles.
	ErrEmptyTable = errors.New("currency table is empty")
	// ErrDuplicateCode indicates the table lists the same currency twice.
	ErrDuplicateCode = errors.New("duplicate currency code")
	// ErrInvalidFactor indicates a non-positive conversion factor.
	ErrInvalidFactor = errors.New("conversion factor must be positive")
	// ErrUnknownCurrency is wrapped by ConversionError for codes missing from the table.
	ErrUnknownCurrency = errors.New("unknown currency")
)

// Profile is the immutable reference record for a supported currency.
//
// FactorFromBase is the number of units of this currency worth one unit of
// the base currency. The base profile always has a factor of 1.
type Profile struct {
	Code             string  `json:"code"`
	Symbol           string  `json:"symbol"`
	Locale           string  `json:"locale"`
	FactorFromBase   float64 `json:"conversionFactorFromBase"`
	DiscountEligible bool    `json:"discountEligible"`
}

// ConversionError reports a currency code that is not part of the table.
type ConversionError struct {
	Code string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// Unwrap exposes ErrUnknownCurrency to errors.Is.
func (e *ConversionError) Unwrap() error { return ErrUnknownCurrency }

// DefaultProfiles returns the built-in currency table.
func DefaultProfiles() []Profile {
	return []Profile{
		{Code: "USD", Symbol: "$", Locale: "en-US", FactorFromBase: 1},
		{Code: "NGN", Symbol: "₦", Locale: "en-NG", FactorFromBase: 1500, DiscountEligible: true},
		{Code: "GBP", Symbol: "£", Locale: "en-GB", FactorFromBase: 0.79},
		{Code: "EUR", Symbol: "€", Locale: "en-IE", FactorFromBase: 0.92},
	}
}

// WithFactors returns a copy of profiles where the listed codes use the provided factors.
// Codes missing from profiles are ignored.
func WithFactors(profiles []Profile, factors map[string]float64) []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	for code, factor := range factors {
		code = NormaliseCode(code)
		for i := range out {
			if out[i].Code == code {
				out[i].FactorFromBase = factor
			}
		}
	}
	return out
}

// NormaliseCode upper-cases and trims a currency code.
func NormaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
