package installment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPlan indicates a plan that breaks its own invariants.
	ErrInvalidPlan = errors.New("invalid payment plan")
	// ErrUnknownPlan is returned when a plan id is not part of the catalog.
	ErrUnknownPlan = errors.New("unknown payment plan")
)

// Plan is a named installment schedule.
type Plan struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Installments       int     `json:"installments"`
	DownPaymentPercent float64 `json:"downPaymentPercent"`
	ProcessingFeeFlat  float64 `json:"processingFeeFlat"`
}

// Check validates installments >= 1, a down payment within [0,100] and a non-negative fee.
func (p Plan) Check() error {
	if p.Installments < 1 {
		return fmt.Errorf("%w: installments must be at least 1", ErrInvalidPlan)
	}
	if p.DownPaymentPercent < 0 || p.DownPaymentPercent > 100 {
		return fmt.Errorf("%w: down payment percent %v outside [0,100]", ErrInvalidPlan, p.DownPaymentPercent)
	}
	if p.ProcessingFeeFlat < 0 {
		return fmt.Errorf("%w: processing fee must not be negative", ErrInvalidPlan)
	}
	return nil
}

// IsInstallment reports whether the plan splits the payment.
func (p Plan) IsInstallment() bool { return p.Installments > 1 }

// Catalog is the fixed set of plans offered to buyers.
type Catalog struct {
	plans []Plan
}

// NewCatalog validates plans and keeps them in order.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	seen := make(map[string]struct{}, len(plans))
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("%w: plan id is required", ErrInvalidPlan)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan %s", ErrInvalidPlan, p.ID)
		}
		if err := p.Check(); err != nil {
			return nil, fmt.Errorf("%s: %w", p.ID, err)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return &Catalog{plans: out}, nil
}

// DefaultPlans returns the stock plan set. Fees are expressed in the base currency.
func DefaultPlans() []Plan {
	return []Plan{
		{ID: "full", Name: "Pay in full", Installments: 1, DownPaymentPercent: 100},
		{ID: "split-2", Name: "Two payments", Installments: 2, DownPaymentPercent: 50},
		{ID: "three-month", Name: "3 monthly payments", Installments: 3, DownPaymentPercent: 25, ProcessingFeeFlat: 20},
		{ID: "six-month", Name: "6 monthly payments", Installments: 6, DownPaymentPercent: 20, ProcessingFeeFlat: 35},
	}
}

// DefaultCatalog builds a catalog from DefaultPlans.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPlans()...)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every plan in catalog order.
func (c *Catalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Get looks a plan up by id.
func (c *Catalog) Get(id string) (Plan, error) {
	id = strings.TrimSpace(id)
	for _, p := range c.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%q: %w", id, ErrUnknownPlan)
}

// Eligible returns the plans a buyer may choose for subtotal. Installment plans
// are hidden when subtotal is below minSubtotal; single payments are always offered.
func (c *Catalog) Eligible(subtotal, minSubtotal float64) []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		if p.IsInstallment() && subtotal < minSubtotal {
			continue
		}
		out = append(out, p)
	}
	return out
}
