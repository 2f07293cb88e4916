package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-pricing/internal/common"
	"github.com/noah-isme/storefront-pricing/internal/obs"
	"github.com/noah-isme/storefront-pricing/internal/pricing"
)

// Submitter forwards a payload to the checkout gateway. *Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (Result, error)
}

// Handler reprices the buyer's configuration and forwards it to checkout.
type Handler struct {
	engine     *pricing.Engine
	submitter  Submitter
	settlement Settlement
	logger     zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Engine     *pricing.Engine
	Submitter  Submitter
	Settlement Settlement
	Logger     *zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "checkout").Logger()
	}
	return &Handler{engine: cfg.Engine, submitter: cfg.Submitter, settlement: cfg.Settlement, logger: logger}
}

// Input is the checkout request body.
type Input struct {
	Quote pricing.Request `json:"quote" validate:"required"`
	Buyer Buyer           `json:"buyer" validate:"required"`
}

type output struct {
	CheckoutURL string        `json:"checkoutUrl"`
	Reference   string        `json:"reference"`
	Amount      string        `json:"amount"`
	Currency    string        `json:"currency"`
	Quote       pricing.Quote `json:"quote"`
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.engine == nil || h.engine.Currency == nil || h.submitter == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(in); err != nil {
		common.WriteError(w, err)
		return
	}
	q, err := h.engine.Quote(in.Quote)
	if err != nil {
		if common.IsAppError(err) {
			common.WriteError(w, err)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "quote failed", nil)
		return
	}
	payload, err := BuildPayload(h.engine.Currency, q, in.Buyer, h.settlement)
	if err != nil {
		common.WriteError(w, common.Validation(err, nil))
		return
	}

	log := obs.LoggerWithTrace(r.Context(), h.logger).With().
		Str("reference", payload.Reference).
		Str("offering_id", payload.OfferingID).
		Str("plan_id", payload.PaymentPlan.ID).
		Logger()

	res, err := h.submitter.Submit(r.Context(), payload)
	if err != nil {
		var subErr *SubmissionError
		msg := err.Error()
		if errors.As(err, &subErr) {
			msg = subErr.Message
		}
		log.Warn().Err(err).Msg("checkout_submit_failed")
		common.JSONError(w, http.StatusBadGateway, common.CodeSubmission, msg, map[string]any{
			"retryable": true,
			"reference": payload.Reference,
		})
		return
	}
	log.Info().Str("amount", payload.Amount.String()).Str("currency", payload.Currency).Msg("checkout_submitted")
	common.Data(w, http.StatusCreated, output{
		CheckoutURL: res.CheckoutURL,
		Reference:   payload.Reference,
		Amount:      payload.Amount.String(),
		Currency:    payload.Currency,
		Quote:       q,
	})
}
