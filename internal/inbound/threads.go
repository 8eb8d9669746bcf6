package inbound

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/nhle/inboundkit/internal/model"
)

// ListThreads fetches one page of conversation summaries.
func (c *Client) ListThreads(
	ctx context.Context,
	opts model.ListThreadsOptions,
) (*model.ThreadList, error) {
	var out model.ThreadList
	if err := c.Do(ctx, http.MethodGet, "/threads"+threadQuery(opts), nil, &out); err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	return &out, nil
}

// threadQuery encodes the list filters, omitting zero values.
func threadQuery(opts model.ListThreadsOptions) string {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.UnreadOnly {
		q.Set("unread_only", "true")
	}
	if opts.ArchivedOnly {
		q.Set("archived_only", "true")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// GetThread fetches a thread and its messages, oldest first.
func (c *Client) GetThread(ctx context.Context, id string) (*model.ThreadDetail, error) {
	var out model.ThreadDetail
	path := "/threads/" + url.PathEscape(id)
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("getting thread %s: %w", id, err)
	}
	sort.SliceStable(out.Messages, func(i, j int) bool {
		return out.Messages[i].Date.Before(out.Messages[j].Date)
	})
	return &out, nil
}

// ThreadAction applies a read-state or archive action to every message
// in a thread.
func (c *Client) ThreadAction(
	ctx context.Context,
	id string,
	action model.ThreadAction,
) (*model.ThreadActionResult, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown thread action %q", action)
	}

	body := map[string]string{"action": string(action)}
	var out model.ThreadActionResult
	path := "/threads/" + url.PathEscape(id) + "/actions"
	if err := c.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, fmt.Errorf("applying %s to thread %s: %w", action, id, err)
	}
	return &out, nil
}
