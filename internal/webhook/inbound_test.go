package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/model"
)

func post(t *testing.T, h http.Handler, path string, body *strings.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	h := NewRouter(RouterOptions{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestInbound_MissingEmail(t *testing.T) {
	called := false
	h := NewRouter(RouterOptions{Variant: variantFunc(func(context.Context, *model.InboundEmail) (Status, error) {
		called = true
		return Status{}, nil
	})})

	rec := post(t, h, "/api/inbound", strings.NewReader(`{"event":"email.received"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing email data", decode(t, rec)["error"])
	assert.False(t, called)

	rec = post(t, h, "/api/inbound", strings.NewReader(`{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInbound_ProcessingFailureIsGeneric(t *testing.T) {
	h := NewRouter(RouterOptions{Variant: variantFunc(func(context.Context, *model.InboundEmail) (Status, error) {
		return Status{}, errBoom
	})})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to process email", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestInbound_PanicIsJSON500(t *testing.T) {
	h := NewRouter(RouterOptions{Variant: variantFunc(func(context.Context, *model.InboundEmail) (Status, error) {
		panic("nil map")
	})})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["error"])
}

func TestInbound_PayloadTooLarge(t *testing.T) {
	h := NewRouter(RouterOptions{
		MaxBodyBytes: 16,
		Variant: variantFunc(func(context.Context, *model.InboundEmail) (Status, error) {
			return Status{Success: true}, nil
		}),
	})

	rec := post(t, h, "/api/inbound", payload(`{"id":"`+strings.Repeat("x", 100)+`"}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestInbound_ParsesRawWhenBodiesMissing(t *testing.T) {
	raw := "From: Alice <alice@example.com>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: From raw\r\n" +
		"Message-ID: <raw-1@example.com>\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Plain body from raw.\r\n"
	rawJSON, err := json.Marshal(raw)
	require.NoError(t, err)

	var got model.InboundEmail
	h := NewRouter(RouterOptions{Variant: variantFunc(func(_ context.Context, e *model.InboundEmail) (Status, error) {
		got = *e
		return Status{Success: true, Message: "ok"}, nil
	})})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1","raw":`+string(rawJSON)+`}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, got.Text(), "Plain body from raw.")
	assert.Equal(t, "From raw", got.Subject)
	assert.Equal(t, "alice@example.com", got.SenderAddress())
}
