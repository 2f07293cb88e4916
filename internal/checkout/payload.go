package checkout

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-pricing/internal/currency"
	"github.com/noah-isme/storefront-pricing/internal/installment"
	"github.com/noah-isme/storefront-pricing/internal/pricing"
	"github.com/noah-isme/storefront-pricing/internal/session"
)

// ErrNegativeAmount is returned when a quote would settle a negative amount.
var ErrNegativeAmount = errors.New("checkout amount must not be negative")

// Buyer identifies the person paying.
type Buyer struct {
	FullName string            `json:"fullName" validate:"required,max=200"`
	Email    string            `json:"email" validate:"required,email"`
	Phone    string            `json:"phone" validate:"required,max=32"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Settlement describes the currency convention of the checkout gateway.
type Settlement struct {
	Currency string
	// MinorUnits sends the amount as an integer count of minor units.
	MinorUnits bool
	// Exponent is the number of minor-unit digits; zero means 2.
	Exponent int32
}

// Payload is the flat document handed to the checkout gateway.
type Payload struct {
	Reference            string                 `json:"reference"`
	OfferingID           string                 `json:"offeringId"`
	Buyer                Buyer                  `json:"buyer"`
	SessionCustomization *session.Customization `json:"sessionCustomization"`
	Amount               decimal.Decimal        `json:"amount"`
	Currency             string                 `json:"currency"`
	DisplayCurrency      string                 `json:"displayCurrency"`
	DisplayAmount        float64                `json:"displayAmount"`
	PaymentPlan          installment.Plan       `json:"paymentPlan"`
}

// BuildPayload prepares the amount due today for the gateway: converted from the
// quoted currency into the settlement currency and rounded half away from zero.
func BuildPayload(svc *currency.Service, q pricing.Quote, buyer Buyer, s Settlement) (Payload, error) {
	if svc == nil {
		return Payload{}, pricing.ErrEngineNotConfigured
	}
	due := q.Breakdown.DownPaymentAmount
	if due < 0 {
		return Payload{}, ErrNegativeAmount
	}
	code := q.Currency
	if s.Currency != "" {
		settlement, err := svc.Lookup(s.Currency)
		if err != nil {
			return Payload{}, fmt.Errorf("settlement currency: %w", err)
		}
		code = settlement.Code
	}
	exp := s.Exponent
	if exp <= 0 {
		exp = 2
	}
	amount := decimal.NewFromFloat(svc.Convert(due, q.Currency, code))
	if s.MinorUnits {
		amount = amount.Shift(exp).Round(0)
	} else {
		amount = amount.Round(exp)
	}
	return Payload{
		Reference:            uuid.NewString(),
		OfferingID:           q.OfferingID,
		Buyer:                buyer,
		SessionCustomization: q.Customization,
		Amount:               amount,
		Currency:             code,
		DisplayCurrency:      q.Currency,
		DisplayAmount:        due,
		PaymentPlan:          q.Plan,
	}, nil
}

// MarshalJSON renders the amount as a bare JSON number.
func (p Payload) MarshalJSON() ([]byte, error) {
	type plain Payload
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain: plain(p), Amount: json.Number(p.Amount.String())})
}
