package inbound

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/inboundkit/internal/model"
)

// SendEmail submits a new outbound email.
func (c *Client) SendEmail(
	ctx context.Context,
	req model.SendEmailRequest,
	opts ...CallOption,
) (*model.SendResult, error) {
	var out model.SendResult
	if err := c.Do(ctx, http.MethodPost, "/emails", req, &out, opts...); err != nil {
		return nil, fmt.Errorf("sending email: %w", err)
	}
	return &out, nil
}

// Reply sends a reply to the message with the given id. Recipients are
// resolved upstream from the original message.
func (c *Client) Reply(
	ctx context.Context,
	messageID string,
	req model.ReplyRequest,
	opts ...CallOption,
) (*model.SendResult, error) {
	var out model.SendResult
	path := "/emails/" + url.PathEscape(messageID) + "/reply-new"
	if err := c.Do(ctx, http.MethodPost, path, req, &out, opts...); err != nil {
		return nil, fmt.Errorf("replying to %s: %w", messageID, err)
	}
	return &out, nil
}

// IdempotencyKeyFor derives the key used for the automatic analysis
// reply to a given inbound message, so webhook redeliveries collapse
// into a single reply.
func IdempotencyKeyFor(messageID string) string {
	return "analysis-reply-" + messageID
}
