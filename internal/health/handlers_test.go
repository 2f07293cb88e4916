package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-pricing/internal/health"
	"github.com/noah-isme/storefront-pricing/internal/resilience"
)

type stubChecker struct {
	redisErr error
}

func (s stubChecker) PingRedis(_ context.Context, _ time.Duration) error {
	return s.redisErr
}

type readiness struct {
	Status   string            `json:"status"`
	Redis    string            `json:"redis"`
	Circuits map[string]string `json:"circuits"`
}

func ready(t *testing.T, handler health.Handler) (int, readiness) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var body readiness
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestLive(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadyWithoutRedis(t *testing.T) {
	code, body := ready(t, health.Handler{})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "disabled", body.Redis)
	require.Equal(t, "ok", body.Status)
}

func TestReadySuccess(t *testing.T) {
	breaker := resilience.NewBreaker(3, 0.5, time.Minute).WithTarget("checkout")
	code, body := ready(t, health.Handler{Checker: stubChecker{}, Circuits: []health.Circuit{breaker}, RedisTimeout: 50 * time.Millisecond})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body.Redis)
	require.Equal(t, "closed", body.Circuits["checkout"])
}

func TestReadyFailure(t *testing.T) {
	code, body := ready(t, health.Handler{Checker: stubChecker{redisErr: errors.New("redis down")}, RedisTimeout: 10 * time.Millisecond})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "redis down", body.Redis)
	require.Equal(t, "unavailable", body.Status)
}

func TestReadyDegradedWhenCircuitOpen(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Minute).WithTarget("checkout")
	breaker.Report(context.Background(), false)
	require.Equal(t, resilience.Open, breaker.State())

	code, body := ready(t, health.Handler{Circuits: []health.Circuit{breaker}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "degraded", body.Status)
	require.Equal(t, "open", body.Circuits["checkout"])
}

func TestReadinessAfterShutdown(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}}

	health.SetReady(true)
	code, _ := ready(t, handler)
	require.Equal(t, http.StatusOK, code)

	health.SetReady(false)
	code, body := ready(t, handler)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "shutting_down", body.Status)

	// reset for other tests
	health.SetReady(true)
}
