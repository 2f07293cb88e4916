package pricing

import (
	"github.com/noah-isme/storefront-pricing/internal/currency"
	"github.com/noah-isme/storefront-pricing/internal/session"
)

// Kind distinguishes the two purchasable offering types.
type Kind string

const (
	KindCourse  Kind = "course"
	KindService Kind = "service"
)

// Tier is a fixed-price package of a service offering.
type Tier struct {
	ID     string             `json:"id" validate:"required"`
	Name   string             `json:"name"`
	Prices map[string]float64 `json:"prices"`
}

// AddOn is an optional extra priced on top of the offering.
type AddOn struct {
	ID     string             `json:"id" validate:"required"`
	Name   string             `json:"name"`
	Prices map[string]float64 `json:"prices"`
}

// Offering is the catalog entry a quote is computed for. Offerings carrying a
// session matrix are live offerings billed monthly from their hourly rates.
type Offering struct {
	ID          string             `json:"id" validate:"required"`
	Kind        Kind               `json:"kind" validate:"required,oneof=course service"`
	Title       string             `json:"title"`
	Matrix      *session.Matrix    `json:"sessionMatrix,omitempty"`
	HourlyRates map[string]float64 `json:"hourlyRates,omitempty"`
	Tiers       []Tier             `json:"tiers,omitempty" validate:"dive"`
	AddOns      []AddOn            `json:"addOns,omitempty" validate:"dive"`
}

// Live reports whether the offering is priced from a session configuration.
func (o Offering) Live() bool { return o.Matrix != nil }

func (o Offering) tier(id string) (Tier, bool) {
	for _, t := range o.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

func (o Offering) addOn(id string) (AddOn, bool) {
	for _, a := range o.AddOns {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}

// priceIn returns the amount listed for code, or converts the base-currency
// listing when the code has none.
func priceIn(svc *currency.Service, prices map[string]float64, code string) (float64, bool) {
	base := svc.Base().Code
	var fromBase float64
	var haveBase bool
	for k, v := range prices {
		switch currency.NormaliseCode(k) {
		case code:
			return v, true
		case base:
			fromBase, haveBase = v, true
		}
	}
	if !haveBase {
		return 0, false
	}
	return svc.Convert(fromBase, base, code), true
}
