package inbound

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/inboundkit/internal/model"
)

// CreateDomain registers a domain and returns it with the DNS records
// the owner must publish.
func (c *Client) CreateDomain(ctx context.Context, name string) (*model.Domain, error) {
	var out model.Domain
	body := model.CreateDomainRequest{Domain: name}
	if err := c.Do(ctx, http.MethodPost, "/domains", body, &out); err != nil {
		return nil, fmt.Errorf("creating domain %s: %w", name, err)
	}
	return &out, nil
}

// CheckDomain re-runs verification for a domain and returns its current
// status.
func (c *Client) CheckDomain(ctx context.Context, id string) (*model.Domain, error) {
	var out model.Domain
	path := "/domains/" + url.PathEscape(id) + "?check=true"
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("checking domain %s: %w", id, err)
	}
	return &out, nil
}
