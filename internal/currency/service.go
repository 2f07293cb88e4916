package currency

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/noah-isme/storefront-pricing/internal/obs"
)

// Campaign describes the regional promotion applied to discount-eligible currencies.
type Campaign struct {
	Percent  float64   `json:"percent"`
	StartsAt time.Time `json:"startsAt,omitempty"`
	EndsAt   time.Time `json:"endsAt,omitempty"`
}

// Active reports whether the campaign applies at the provided instant. Zero bounds are open.
func (c Campaign) Active(now time.Time) bool {
	if c.Percent <= 0 {
		return false
	}
	if !c.StartsAt.IsZero() && now.Before(c.StartsAt) {
		return false
	}
	if !c.EndsAt.IsZero() && now.After(c.EndsAt) {
		return false
	}
	return true
}

// Price is a quoted amount together with its discount state. Once Discounted is
// set the amount is final and further discount passes leave it untouched.
type Price struct {
	Amount     float64 `json:"amount"`
	Original   float64 `json:"original"`
	Discounted bool    `json:"discounted"`
}

// NewPrice wraps an undiscounted amount.
func NewPrice(amount float64) Price {
	return Price{Amount: amount, Original: amount}
}

// Config configures a Service.
type Config struct {
	Base     string
	Profiles []Profile
	Campaign Campaign
	Logger   *zerolog.Logger
}

// Service converts, discounts and formats amounts against a fixed currency table.
type Service struct {
	base     Profile
	profiles map[string]Profile
	order    []string
	campaign Campaign
	logger   zerolog.Logger
}

// NewService validates the currency table and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Profiles) == 0 {
		return nil, ErrEmptyTable
	}
	baseCode := NormaliseCode(cfg.Base)
	if baseCode == "" {
		baseCode = DefaultBase
	}
	svc := &Service{
		profiles: make(map[string]Profile, len(cfg.Profiles)),
		order:    make([]string, 0, len(cfg.Profiles)),
		campaign: cfg.Campaign,
		logger:   zerolog.Nop(),
	}
	if cfg.Logger != nil {
		svc.logger = cfg.Logger.With().Str("component", "currency").Logger()
	}
	for _, p := range cfg.Profiles {
		p.Code = NormaliseCode(p.Code)
		if p.Code == "" {
			return nil, fmt.Errorf("currency profile without code: %w", ErrUnknownCurrency)
		}
		if _, exists := svc.profiles[p.Code]; exists {
			return nil, fmt.Errorf("%s: %w", p.Code, ErrDuplicateCode)
		}
		if p.FactorFromBase <= 0 || math.IsInf(p.FactorFromBase, 0) || math.IsNaN(p.FactorFromBase) {
			return nil, fmt.Errorf("%s: %w", p.Code, ErrInvalidFactor)
		}
		svc.profiles[p.Code] = p
		svc.order = append(svc.order, p.Code)
	}
	base, ok := svc.profiles[baseCode]
	if !ok {
		return nil, fmt.Errorf("base currency: %w", &ConversionError{Code: baseCode})
	}
	if base.FactorFromBase != 1 {
		return nil, fmt.Errorf("base currency %s must have factor 1, got %v", baseCode, base.FactorFromBase)
	}
	svc.base = base
	return svc, nil
}

// Base returns the base currency profile.
func (s *Service) Base() Profile { return s.base }

// Campaign returns the configured regional promotion.
func (s *Service) Campaign() Campaign { return s.campaign }

// CampaignActive reports whether the regional promotion is running at now.
func (s *Service) CampaignActive(now time.Time) bool { return s.campaign.Active(now) }

// Profiles lists the table in configuration order.
func (s *Service) Profiles() []Profile {
	out := make([]Profile, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.profiles[code])
	}
	return out
}

// Lookup returns the profile for code or a *ConversionError.
func (s *Service) Lookup(code string) (Profile, error) {
	normalised := NormaliseCode(code)
	p, ok := s.profiles[normalised]
	if !ok {
		return Profile{}, &ConversionError{Code: normalised}
	}
	return p, nil
}

// Resolve returns the profile for code, falling back to the base currency when the code is unknown.
func (s *Service) Resolve(code string) Profile {
	p, err := s.Lookup(code)
	if err == nil {
		return p
	}
	s.logger.Warn().Err(err).Str("requested", NormaliseCode(code)).Str("fallback", s.base.Code).Msg("currency_fallback")
	if obs.CurrencyFallbackTotal != nil {
		obs.CurrencyFallbackTotal.WithLabelValues(NormaliseCode(code)).Inc()
	}
	return s.base
}

// Convert moves amount from one currency to another by pivoting through the base currency.
func (s *Service) Convert(amount float64, from, to string) float64 {
	src := s.Resolve(from)
	dst := s.Resolve(to)
	switch {
	case src.Code == dst.Code:
		return amount
	case src.Code == s.base.Code:
		return amount * dst.FactorFromBase
	case dst.Code == s.base.Code:
		return amount / src.FactorFromBase
	default:
		return amount / src.FactorFromBase * dst.FactorFromBase
	}
}

// ApplyDiscount applies the campaign percentage when the currency is eligible and
// the campaign is active. Prices that already carry a discount are returned as is.
func (s *Service) ApplyDiscount(price Price, p Profile, campaignActive bool) Price {
	if price.Discounted || !campaignActive || !p.DiscountEligible {
		return price
	}
	pct := s.campaign.Percent
	if pct <= 0 {
		return price
	}
	if pct > 100 {
		pct = 100
	}
	reduced := price.Amount - price.Amount*pct/100
	if reduced < 0 {
		reduced = 0
	}
	return Price{Amount: reduced, Original: price.Amount, Discounted: true}
}

// Format renders amount with the profile's symbol and locale digit grouping.
// Whole amounts carry no fractional digits, anything else exactly two.
func (s *Service) Format(amount float64, p Profile) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := 2
	if IsWhole(amount) {
		digits = 0
		amount = math.Round(amount)
		if amount == 0 {
			sign = ""
		}
	}
	tag, err := language.Parse(p.Locale)
	if err != nil {
		tag = language.English
	}
	printer := message.NewPrinter(tag)
	digitsText := printer.Sprintf("%v", number.Decimal(amount, number.MinFractionDigits(digits), number.MaxFractionDigits(digits)))
	return sign + p.Symbol + digitsText
}

// IsWhole reports whether amount rounds to a whole unit at cent precision.
func IsWhole(amount float64) bool {
	return math.Abs(amount-math.Round(amount)) < 0.005
}
