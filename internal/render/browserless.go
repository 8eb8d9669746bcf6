// Package render converts HTML to PDF through a Browserless instance.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/model"
)

// PDFRenderer turns an HTML document into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// Browserless calls the /pdf endpoint of a Browserless deployment.
type Browserless struct {
	baseURL    string
	token      string
	format     string
	httpClient *http.Client
}

// NewBrowserless returns a renderer for cfg. A missing token fails with
// *apperr.ConfigurationError.
func NewBrowserless(cfg model.RenderConfig, hc *http.Client) (*Browserless, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, &apperr.ConfigurationError{Missing: []string{"render.token (BROWSERLESS_TOKEN)"}}
	}
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	format := cfg.Format
	if format == "" {
		format = "A4"
	}
	return &Browserless{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		format:     format,
		httpClient: hc,
	}, nil
}

type pdfOptions struct {
	Format          string `json:"format"`
	PrintBackground bool   `json:"printBackground"`
}

type pdfRequest struct {
	HTML    string     `json:"html"`
	Options pdfOptions `json:"options"`
}

// RenderPDF posts html and returns the rendered document.
func (b *Browserless) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	body, err := json.Marshal(pdfRequest{
		HTML:    html,
		Options: pdfOptions{Format: b.format, PrintBackground: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling pdf request: %w", err)
	}

	endpoint := b.baseURL + "/pdf?token=" + url.QueryEscape(b.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating pdf request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling pdf service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("pdf service returned %d: %s", resp.StatusCode, msg)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("pdf service returned an empty document")
	}

	return data, nil
}
