package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/storefront-pricing/internal/resilience"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness, e.g. to drain traffic during shutdown.
func SetReady(v bool) { ready.Store(v) }

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Circuit exposes the state of an outbound circuit breaker.
type Circuit interface {
	State() resilience.State
	Target() string
}

// Handler exposes HTTP handlers for health endpoints. A nil Checker means
// Redis is not configured and is reported as disabled.
type Handler struct {
	Checker      Checker
	Circuits     []Circuit
	RedisTimeout time.Duration
}

type readiness struct {
	Status   string            `json:"status"`
	Redis    string            `json:"redis"`
	Circuits map[string]string `json:"circuits,omitempty"`
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness. Redis failures make the service unavailable; an open
// circuit only degrades it since quoting does not depend on the gateway.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	out := readiness{Status: "ok", Redis: "disabled"}
	code := http.StatusOK
	if !ready.Load() {
		out.Status = "shutting_down"
		code = http.StatusServiceUnavailable
	}
	if h.Checker != nil {
		out.Redis = "ok"
		if err := h.Checker.PingRedis(r.Context(), h.redisTimeout()); err != nil {
			out.Redis = err.Error()
			out.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	if len(h.Circuits) > 0 {
		out.Circuits = make(map[string]string, len(h.Circuits))
		for _, c := range h.Circuits {
			state := c.State()
			out.Circuits[c.Target()] = state.String()
			if state == resilience.Open && code == http.StatusOK {
				out.Status = "degraded"
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(out)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
