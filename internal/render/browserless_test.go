package render

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/model"
)

func TestNewBrowserlessRequiresToken(t *testing.T) {
	_, err := NewBrowserless(model.RenderConfig{BaseURL: "https://x.test"}, nil)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestRenderPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pdf", r.URL.Path)
		assert.Equal(t, "tok en", r.URL.Query().Get("token"))

		var req pdfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "<p>hi</p>", req.HTML)
		assert.Equal(t, "A4", req.Options.Format)
		assert.True(t, req.Options.PrintBackground)

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.7 fake")
	}))
	defer srv.Close()

	b, err := NewBrowserless(model.RenderConfig{BaseURL: srv.URL + "/", Token: "tok en"}, srv.Client())
	require.NoError(t, err)

	pdf, err := b.RenderPDF(context.Background(), "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(pdf))
}

func TestRenderPDFServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "bad token")
	}))
	defer srv.Close()

	b, err := NewBrowserless(model.RenderConfig{BaseURL: srv.URL, Token: "t"}, nil)
	require.NoError(t, err)

	_, err = b.RenderPDF(context.Background(), "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}
