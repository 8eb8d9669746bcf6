package webhook

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/dump"
	"github.com/nhle/inboundkit/internal/htmlclean"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
)

// Cleanup strips quoted replies from the HTML body, stores the raw and
// cleaned bodies, and logs how much was saved. It never replies.
type Cleanup struct {
	sink       dump.Sink
	quoteClass string
	logger     *slog.Logger
}

// NewCleanup returns the cleanup variant. An empty quoteClass uses
// htmlclean.DefaultQuoteClass.
func NewCleanup(sink dump.Sink, quoteClass string, logger *slog.Logger) *Cleanup {
	if quoteClass == "" {
		quoteClass = htmlclean.DefaultQuoteClass
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cleanup{sink: sink, quoteClass: quoteClass, logger: logger}
}

func (c *Cleanup) Name() string { return "cleanup" }

func (c *Cleanup) Handle(ctx context.Context, email *model.InboundEmail) (Status, error) {
	raw := email.HTML()
	if strings.TrimSpace(raw) == "" {
		c.logger.Info("no html body to clean", "email_id", email.ID)
		return Status{Success: true, Message: "No HTML content"}, nil
	}

	cleaned, err := htmlclean.StripQuotedReplies(raw, c.quoteClass)
	if err != nil {
		return Status{}, apperr.Processing("clean", err)
	}

	rawName, cleanedName := dump.Names(email.ID)
	rawLoc, err := c.sink.Put(ctx, rawName, []byte(raw))
	if err != nil {
		return Status{}, apperr.Processing("dump", err)
	}
	cleanedLoc, err := c.sink.Put(ctx, cleanedName, []byte(cleaned))
	if err != nil {
		return Status{}, apperr.Processing("dump", err)
	}

	d := htmlclean.Delta{Before: htmlclean.Measure(raw), After: htmlclean.Measure(cleaned)}
	c.logger.Info("html cleaned",
		"email_id", email.ID,
		"bytes_before", d.Before.Bytes,
		"bytes_after", d.After.Bytes,
		"bytes_saved", d.SavedBytes(),
		"tokens_before", d.Before.Tokens,
		"tokens_after", d.After.Tokens,
		"tokens_saved", d.SavedTokens(),
		"percent_saved", d.Percent(),
		"raw", rawLoc,
		"cleaned", cleanedLoc,
	)

	return Status{
		Success: true,
		Message: "Email cleaned",
		Details: map[string]interface{}{
			"tokensBefore": d.Before.Tokens,
			"tokensAfter":  d.After.Tokens,
			"tokensSaved":  d.SavedTokens(),
		},
	}, nil
}
