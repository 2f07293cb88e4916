package pricing

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/noah-isme/storefront-pricing/internal/common"
	"github.com/noah-isme/storefront-pricing/internal/currency"
	"github.com/noah-isme/storefront-pricing/internal/session"
)

// Handler exposes the quoting endpoints.
type Handler struct {
	engine *Engine
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Engine *Engine
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{engine: cfg.Engine}
}

type currenciesResponse struct {
	Base           string             `json:"base"`
	Currencies     []currency.Profile `json:"currencies"`
	Campaign       currency.Campaign  `json:"campaign"`
	CampaignActive bool               `json:"campaignActive"`
}

// Currencies handles GET /api/v1/currencies.
func (h *Handler) Currencies(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	svc := h.engine.Currency
	common.Data(w, http.StatusOK, currenciesResponse{
		Base:           svc.Base().Code,
		Currencies:     svc.Profiles(),
		Campaign:       svc.Campaign(),
		CampaignActive: svc.CampaignActive(h.engine.now()),
	})
}

// PaymentPlans handles GET /api/v1/payment-plans?subtotal=&currency=.
func (h *Handler) PaymentPlans(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("subtotal"))
	subtotal, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "subtotal must be a number", map[string]string{"subtotal": raw})
		return
	}
	plans, err := h.engine.Plans(subtotal, r.URL.Query().Get("currency"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, plans)
}

type validateSessionRequest struct {
	Matrix        session.Matrix        `json:"sessionMatrix"`
	Customization session.Customization `json:"sessionCustomization"`
}

type validateSessionResponse struct {
	Valid   bool                     `json:"valid"`
	Error   *session.ValidationError `json:"error,omitempty"`
	Message string                   `json:"message,omitempty"`
	Options map[session.Axis][]int   `json:"options"`
}

// ValidateSession handles POST /api/v1/sessions/validate. Constraint violations
// are reported in the body with a 200 so the client can re-render the constraint.
func (h *Handler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	var payload validateSessionRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := payload.Matrix.Check(); err != nil {
		common.WriteError(w, common.Validation(err, map[string]string{"sessionMatrix": "invalid"}))
		return
	}
	resp := validateSessionResponse{
		Valid: true,
		Options: map[session.Axis][]int{
			session.AxisSessionsPerWeek: payload.Matrix.OptionsFor(session.AxisSessionsPerWeek),
			session.AxisHoursPerSession: payload.Matrix.OptionsFor(session.AxisHoursPerSession),
		},
	}
	if err := session.Validate(payload.Matrix, payload.Customization); err != nil {
		var verr *session.ValidationError
		if !errors.As(err, &verr) {
			common.WriteError(w, err)
			return
		}
		resp.Valid = false
		resp.Error = verr
		resp.Message = verr.Error()
		countValidation("invalid")
	} else {
		countValidation("valid")
	}
	common.Data(w, http.StatusOK, resp)
}

// Quote handles POST /api/v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req Request
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	q, err := h.engine.Quote(req)
	if err != nil {
		if !common.IsAppError(err) {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "quote failed", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.engine == nil || h.engine.Currency == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "pricing engine not configured", nil)
		return false
	}
	return true
}
