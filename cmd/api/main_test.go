package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-pricing/internal/config"
)

func TestProtectPprof(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := protectPprof(inner, "ops", "secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	protectPprof(inner, "", "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_BOOL", "off")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_MS", "150")
	require.False(t, envBool("TEST_BOOL", true))
	require.True(t, envBool("TEST_MISSING_BOOL", true))
	require.InDelta(t, 0.25, envFloat("TEST_FLOAT", 1), 1e-9)
	require.Equal(t, int64(150), envDurationMillis("TEST_MS", 10).Milliseconds())
	require.Equal(t, "fallback", envOrDefault("TEST_MISSING", "fallback"))
}

func TestAllowedOrigins(t *testing.T) {
	require.Equal(t, []string{"*"}, allowedOrigins(&config.Config{}))
	require.Equal(t, []string{"https://shop.example"}, allowedOrigins(&config.Config{CORSAllowedOrigins: []string{"https://shop.example"}}))
}
