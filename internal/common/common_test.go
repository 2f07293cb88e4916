package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-pricing/internal/common"
)

type buyerPayload struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type orderPayload struct {
	Buyer buyerPayload `json:"buyer"`
}

func TestValidateStructReportsJSONFieldPaths(t *testing.T) {
	err := common.ValidateStruct(orderPayload{Buyer: buyerPayload{Email: "not-an-email"}})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Equal(t, "required", details["buyer.fullName"])
	require.Equal(t, "email", details["buyer.email"])

	require.NoError(t, common.ValidateStruct(orderPayload{Buyer: buyerPayload{FullName: "Ada", Email: "ada@example.com"}}))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, common.Validation(errors.New("weekly hours exceed the limit of 12"), map[string]int{"limit": 12}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, common.CodeValidation, body.Error.Code)
	require.Equal(t, "weekly hours exceed the limit of 12", body.Error.Message)

	rec = httptest.NewRecorder()
	common.WriteError(rec, errors.New("plain"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	err := common.DecodeJSON(req, &dst)
	require.True(t, common.IsAppError(err))

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	require.ErrorIs(t, common.DecodeJSON(req, &dst), common.ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	require.NoError(t, common.DecodeJSON(req, &dst))
	require.Equal(t, float64(1), dst["a"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", common.ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:4312"
	require.Equal(t, "198.51.100.2", common.ClientIP(req))
}

func TestFloatDefault(t *testing.T) {
	require.Equal(t, 12.5, common.FloatDefault(" 12.5 ", 0))
	require.Equal(t, 3.0, common.FloatDefault("abc", 3))
	require.Equal(t, 3.0, common.FloatDefault("", 3))
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	status := http.StatusBadGateway
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusBadGateway, send())
	status = http.StatusCreated
	require.Equal(t, http.StatusCreated, send(), "failed attempt must not block a retry")
	require.Equal(t, http.StatusConflict, send())
}
