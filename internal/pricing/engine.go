package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-pricing/internal/billing"
	"github.com/noah-isme/storefront-pricing/internal/common"
	"github.com/noah-isme/storefront-pricing/internal/currency"
	"github.com/noah-isme/storefront-pricing/internal/display"
	"github.com/noah-isme/storefront-pricing/internal/installment"
	"github.com/noah-isme/storefront-pricing/internal/obs"
	"github.com/noah-isme/storefront-pricing/internal/session"
)

// DefaultPlanID is used when a request names no payment plan.
const DefaultPlanID = "full"

var (
	// ErrPlanNotOffered is returned when the chosen plan is hidden for the subtotal.
	ErrPlanNotOffered = errors.New("payment plan not offered for this subtotal")
	// ErrUnknownPlan is returned for plan ids missing from the catalog.
	ErrUnknownPlan = installment.ErrUnknownPlan
	// ErrUnknownTier is returned when a service offering is quoted without a valid tier.
	ErrUnknownTier = errors.New("unknown tier")
	// ErrUnknownAddOn is returned for add-on ids the offering does not list.
	ErrUnknownAddOn = errors.New("unknown add-on")
	// ErrNoPrice is returned when an item lists no price usable in the quoted currency.
	ErrNoPrice = errors.New("no price for currency")
	// ErrEngineNotConfigured is returned when the engine lacks its currency service.
	ErrEngineNotConfigured = errors.New("pricing engine not configured")
)

// Request is one snapshot of a buyer's purchase configuration.
type Request struct {
	Offering      Offering               `json:"offering" validate:"required"`
	Customization *session.Customization `json:"sessionCustomization,omitempty"`
	TierID        string                 `json:"tierId,omitempty"`
	AddOnIDs      []string               `json:"addOnIds,omitempty"`
	Currency      string                 `json:"currency,omitempty"`
	PlanID        string                 `json:"planId,omitempty"`
}

// Line is one priced item contributing to the subtotal.
type Line struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

// Rendered carries the formatted strings of a quote.
type Rendered struct {
	Subtotal       display.Rendered `json:"subtotal"`
	DueToday       string           `json:"dueToday"`
	PerInstallment string           `json:"perInstallment,omitempty"`
	ProcessingFee  string           `json:"processingFee,omitempty"`
	TotalWithFee   string           `json:"totalWithFee"`
}

// Quote is the priced, currency-correct and installment-aware result of a request.
type Quote struct {
	OfferingID        string                  `json:"offeringId"`
	Kind              Kind                    `json:"kind"`
	Currency          string                  `json:"currency"`
	RequestedCurrency string                  `json:"requestedCurrency,omitempty"`
	CurrencyFallback  bool                    `json:"currencyFallback"`
	Customization     *session.Customization  `json:"sessionCustomization"`
	Monthly           *billing.MonthlyBilling `json:"monthlyBilling,omitempty"`
	Lines             []Line                  `json:"lines"`
	Subtotal          currency.Price          `json:"subtotal"`
	CampaignActive    bool                    `json:"campaignActive"`
	Plan              installment.Plan        `json:"paymentPlan"`
	Breakdown         installment.Breakdown   `json:"breakdown"`
	Schedule          []installment.Due       `json:"schedule"`
	Display           Rendered                `json:"display"`
}

// PlanOption is a plan offered for a subtotal, with its breakdown.
type PlanOption struct {
	Plan      installment.Plan      `json:"plan"`
	Breakdown installment.Breakdown `json:"breakdown"`
	DueToday  string                `json:"dueToday"`
}

// Engine runs the purchase flow shared by course and service offerings:
// validate, bill, discount, split and render.
type Engine struct {
	Currency *currency.Service
	Billing  billing.Calculator
	Catalog  *installment.Catalog
	Display  display.Renderer
	// MinInstallmentSubtotal is expressed in the base currency.
	MinInstallmentSubtotal float64
	Now                    func() time.Time
	Logger                 *zerolog.Logger
}

// Quote prices req. Invalid input is reported as a 422 *common.AppError.
func (e *Engine) Quote(req Request) (q Quote, err error) {
	start := time.Now()
	kind := string(req.Offering.Kind)
	defer func() {
		result := "ok"
		if err != nil {
			result = "invalid"
			if !common.IsAppError(err) {
				result = "error"
			}
		}
		if obs.QuoteTotal != nil {
			obs.QuoteTotal.WithLabelValues(kind, result).Inc()
		}
		if obs.QuoteDuration != nil {
			obs.QuoteDuration.WithLabelValues(kind).Observe(float64(time.Since(start).Microseconds()) / 1000)
		}
		if err != nil && e != nil && e.Logger != nil {
			e.Logger.Debug().Err(err).Str("offering_id", req.Offering.ID).Str("result", result).Msg("quote_rejected")
		}
	}()

	if e == nil || e.Currency == nil {
		return Quote{}, ErrEngineNotConfigured
	}
	profile, fallback := e.resolve(req.Currency)
	code := profile.Code
	q = Quote{
		OfferingID:       req.Offering.ID,
		Kind:             req.Offering.Kind,
		Currency:         code,
		CurrencyFallback: fallback,
	}
	if fallback {
		q.RequestedCurrency = currency.NormaliseCode(req.Currency)
	}

	gross, err := e.itemTotal(&q, req, profile)
	if err != nil {
		return Quote{}, err
	}
	for _, id := range req.AddOnIDs {
		addOn, ok := req.Offering.addOn(id)
		if !ok {
			return Quote{}, common.Validation(fmt.Errorf("%q: %w", id, ErrUnknownAddOn), map[string]string{"addOnIds": id})
		}
		amount, ok := priceIn(e.Currency, addOn.Prices, code)
		if !ok || amount < 0 {
			return Quote{}, common.Validation(fmt.Errorf("add-on %q: %w %s", id, ErrNoPrice, code), map[string]string{"addOnIds": id})
		}
		q.Lines = append(q.Lines, e.line(addOn.ID, addOn.Name, amount, profile))
		gross += amount
	}

	q.CampaignActive = e.Currency.CampaignActive(e.now())
	q.Subtotal = e.Currency.ApplyDiscount(currency.NewPrice(gross), profile, q.CampaignActive)

	planID := req.PlanID
	if planID == "" {
		planID = DefaultPlanID
	}
	plan, breakdown, err := e.split(q.Subtotal.Amount, code, planID)
	if err != nil {
		return Quote{}, err
	}
	q.Plan = plan
	q.Breakdown = breakdown
	q.Schedule = installment.Schedule(breakdown, e.now())
	q.Display = e.render(q, profile)
	return q, nil
}

// Plans lists the plans offered for subtotal in currencyCode, each with its breakdown.
func (e *Engine) Plans(subtotal float64, currencyCode string) ([]PlanOption, error) {
	if e == nil || e.Currency == nil {
		return nil, ErrEngineNotConfigured
	}
	if subtotal < 0 {
		return nil, common.Validation(errors.New("subtotal must not be negative"), map[string]string{"subtotal": "min"})
	}
	profile, _ := e.resolve(currencyCode)
	eligible := e.catalog().Eligible(e.Currency.Convert(subtotal, profile.Code, e.Currency.Base().Code), e.MinInstallmentSubtotal)
	out := make([]PlanOption, 0, len(eligible))
	for _, plan := range eligible {
		plan = e.localPlan(plan, profile.Code)
		b, err := installment.Compute(subtotal, plan)
		if err != nil {
			return nil, err
		}
		out = append(out, PlanOption{Plan: plan, Breakdown: b, DueToday: e.Currency.Format(b.DownPaymentAmount, profile)})
	}
	return out, nil
}

func (e *Engine) itemTotal(q *Quote, req Request, profile currency.Profile) (float64, error) {
	code := profile.Code
	if req.Offering.Live() {
		matrix := *req.Offering.Matrix
		if err := matrix.Check(); err != nil {
			return 0, common.Validation(err, map[string]string{"sessionMatrix": "invalid"})
		}
		cust := matrix.DefaultCustomization(session.FormatOneOnOne)
		if req.Customization != nil {
			cust = *req.Customization
		}
		if err := session.Validate(matrix, cust); err != nil {
			countValidation("invalid")
			var verr *session.ValidationError
			if errors.As(err, &verr) {
				return 0, common.Validation(err, verr)
			}
			return 0, common.Validation(err, nil)
		}
		countValidation("valid")
		monthly, err := e.Billing.Compute(req.Offering.HourlyRates, cust, code)
		if err != nil {
			return 0, common.Validation(err, map[string]string{"hourlyRates": code})
		}
		q.Customization = &cust
		q.Monthly = &monthly
		q.Lines = append(q.Lines, e.line(req.Offering.ID, req.Offering.Title, monthly.MonthlyTotal, profile))
		return monthly.MonthlyTotal, nil
	}

	tier, ok := req.Offering.tier(req.TierID)
	if !ok {
		return 0, common.Validation(fmt.Errorf("%q: %w", req.TierID, ErrUnknownTier), map[string]string{"tierId": req.TierID})
	}
	amount, ok := priceIn(e.Currency, tier.Prices, code)
	if !ok || amount < 0 {
		return 0, common.Validation(fmt.Errorf("tier %q: %w %s", tier.ID, ErrNoPrice, code), map[string]string{"tierId": tier.ID})
	}
	q.Lines = append(q.Lines, e.line(tier.ID, tier.Name, amount, profile))
	return amount, nil
}

// split checks plan eligibility against the base-currency equivalent of the
// subtotal and computes the breakdown with the fee in the quoted currency.
func (e *Engine) split(subtotal float64, code, planID string) (installment.Plan, installment.Breakdown, error) {
	catalog := e.catalog()
	plan, err := catalog.Get(planID)
	if err != nil {
		return installment.Plan{}, installment.Breakdown{}, common.Validation(err, map[string]string{"planId": planID})
	}
	baseSubtotal := e.Currency.Convert(subtotal, code, e.Currency.Base().Code)
	if !offered(catalog.Eligible(baseSubtotal, e.MinInstallmentSubtotal), plan.ID) {
		err := fmt.Errorf("%q: %w", plan.ID, ErrPlanNotOffered)
		return installment.Plan{}, installment.Breakdown{}, common.Validation(err, map[string]string{"planId": plan.ID})
	}
	plan = e.localPlan(plan, code)
	b, err := installment.Compute(subtotal, plan)
	if err != nil {
		return installment.Plan{}, installment.Breakdown{}, err
	}
	return plan, b, nil
}

func (e *Engine) localPlan(plan installment.Plan, code string) installment.Plan {
	if plan.ProcessingFeeFlat > 0 {
		plan.ProcessingFeeFlat = e.Currency.Convert(plan.ProcessingFeeFlat, e.Currency.Base().Code, code)
	}
	return plan
}

func (e *Engine) render(q Quote, p currency.Profile) Rendered {
	renderer := e.Display
	if renderer.Formatter == nil {
		renderer.Formatter = e.Currency
	}
	out := Rendered{
		Subtotal:     renderer.Price(q.Subtotal, p),
		DueToday:     e.Currency.Format(q.Breakdown.DownPaymentAmount, p),
		TotalWithFee: e.Currency.Format(q.Breakdown.TotalWithFee, p),
	}
	if q.Plan.IsInstallment() {
		out.PerInstallment = e.Currency.Format(q.Breakdown.PerInstallmentRemainder, p)
	}
	if q.Breakdown.ProcessingFee > 0 {
		out.ProcessingFee = e.Currency.Format(q.Breakdown.ProcessingFee, p)
	}
	return out
}

func (e *Engine) line(id, label string, amount float64, p currency.Profile) Line {
	return Line{ID: id, Label: label, Amount: amount, Display: e.Currency.Format(amount, p)}
}

// resolve looks the code up, falling back to the base currency. An empty code
// selects the base currency without counting as a fallback.
func (e *Engine) resolve(code string) (currency.Profile, bool) {
	if currency.NormaliseCode(code) == "" {
		return e.Currency.Base(), false
	}
	if p, err := e.Currency.Lookup(code); err == nil {
		return p, false
	}
	return e.Currency.Resolve(code), true
}

func (e *Engine) catalog() *installment.Catalog {
	if e.Catalog == nil {
		return installment.DefaultCatalog()
	}
	return e.Catalog
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func offered(plans []installment.Plan, id string) bool {
	for _, p := range plans {
		if p.ID == id {
			return true
		}
	}
	return false
}

func countValidation(result string) {
	if obs.SessionValidationTotal != nil {
		obs.SessionValidationTotal.WithLabelValues(result).Inc()
	}
}
