package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/storefront-pricing/internal/obs"
	"github.com/noah-isme/storefront-pricing/internal/resilience"
)

var (
	// ErrNotConfigured is returned when no checkout endpoint is set.
	ErrNotConfigured = errors.New("checkout endpoint not configured")
	// ErrGatewayRejected is wrapped when the gateway answers with an error document.
	ErrGatewayRejected = errors.New("checkout gateway rejected the payload")
	// ErrInvalidResponse is wrapped when the gateway response cannot be understood.
	ErrInvalidResponse = errors.New("checkout gateway returned an invalid response")
)

// SubmissionError is surfaced to the buyer verbatim. Every submission failure is retryable.
type SubmissionError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	return "checkout submission failed: " + e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Retryable reports whether the buyer may submit again.
func (e *SubmissionError) Retryable() bool { return true }

// Result is the gateway's answer to a successful submission.
type Result struct {
	CheckoutURL string `json:"checkoutUrl"`
	Reference   string `json:"reference"`
}

type gatewayResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	Error       string `json:"error"`
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	Endpoint  string
	Timeout   time.Duration
	Breaker   *resilience.Breaker
	Transport http.RoundTripper
}

// Client forwards payloads to the checkout gateway with a single best-effort call.
type Client struct {
	HTTP     resilience.HTTPClient
	Endpoint string
}

// NewClient builds a Client whose transport is traced with otelhttp.
func NewClient(cfg ClientConfig) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		Endpoint: strings.TrimSpace(cfg.Endpoint),
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(base)},
			Breaker:     cfg.Breaker,
			MaxAttempts: 1,
			Timeout:     cfg.Timeout,
		},
	}
}

// Submit posts p to the gateway. Any failure is returned as *SubmissionError.
func (c *Client) Submit(ctx context.Context, p Payload) (res Result, err error) {
	start := time.Now()
	defer func() {
		if obs.CheckoutSubmitLatency != nil {
			obs.CheckoutSubmitLatency.Observe(float64(time.Since(start).Milliseconds()))
		}
		if obs.CheckoutSubmitTotal != nil {
			obs.CheckoutSubmitTotal.WithLabelValues(submitResult(err)).Inc()
		}
	}()

	if c == nil || c.Endpoint == "" {
		return Result{}, &SubmissionError{Message: ErrNotConfigured.Error(), Err: ErrNotConfigured}
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Result{}, &SubmissionError{Message: "could not encode payload", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, &SubmissionError{Message: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.Reference != "" {
		req.Header.Set("Idempotency-Key", p.Reference)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Result{}, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Result{}, &SubmissionError{Message: "could not read gateway response", StatusCode: resp.StatusCode, Err: err}
	}
	var decoded gatewayResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil && resp.StatusCode < http.StatusMultipleChoices {
			return Result{}, &SubmissionError{Message: ErrInvalidResponse.Error(), StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
		}
	}
	if decoded.Error != "" || resp.StatusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(decoded.Error)
		if msg == "" {
			msg = resp.Status
		}
		return Result{}, &SubmissionError{Message: msg, StatusCode: resp.StatusCode, Err: ErrGatewayRejected}
	}
	if strings.TrimSpace(decoded.CheckoutURL) == "" {
		return Result{}, &SubmissionError{Message: "gateway returned no checkout url", StatusCode: resp.StatusCode, Err: ErrInvalidResponse}
	}
	return Result{CheckoutURL: decoded.CheckoutURL, Reference: p.Reference}, nil
}

func transportError(err error) *SubmissionError {
	var statusErr *resilience.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.Status
		var decoded gatewayResponse
		if json.Unmarshal(statusErr.Body, &decoded) == nil && strings.TrimSpace(decoded.Error) != "" {
			msg = strings.TrimSpace(decoded.Error)
		}
		return &SubmissionError{Message: msg, StatusCode: statusErr.StatusCode, Err: err}
	}
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return &SubmissionError{Message: "checkout is temporarily unavailable", Err: err}
	}
	return &SubmissionError{Message: "checkout gateway unreachable", Err: err}
}

func submitResult(err error) string {
	var subErr *SubmissionError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resilience.ErrOpenCircuit):
		return "circuit_open"
	case errors.Is(err, ErrGatewayRejected):
		return "rejected"
	case errors.As(err, &subErr) && subErr.StatusCode >= http.StatusInternalServerError:
		return "upstream_error"
	default:
		return "unreachable"
	}
}
