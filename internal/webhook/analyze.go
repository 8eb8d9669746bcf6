package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nhle/inboundkit/internal/ai"
	"github.com/nhle/inboundkit/internal/dedupe"
	"github.com/nhle/inboundkit/internal/htmlclean"
	"github.com/nhle/inboundkit/internal/inbound"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/tmpl"
)

// releaser is implemented by guards that can drop a claim.
type releaser interface {
	Release(ctx context.Context, key string) error
}

// Analyze acknowledges the webhook immediately, then classifies the email
// and replies with the verdict on a detached job.
type Analyze struct {
	analyzer ai.Analyzer
	replier  Replier
	engine   *tmpl.Engine
	jobs     *Detached
	guard    dedupe.Guard
	from     string
	fromName string
	logger   *slog.Logger
}

// AnalyzeOptions configures NewAnalyze.
type AnalyzeOptions struct {
	Analyzer ai.Analyzer
	Replier  Replier
	Engine   *tmpl.Engine
	Jobs     *Detached

	// Guard is optional. When set, a message id is analyzed at most once
	// per claim TTL.
	Guard dedupe.Guard

	From     string
	FromName string
	Logger   *slog.Logger
}

// NewAnalyze returns the analysis variant.
func NewAnalyze(opts AnalyzeOptions) *Analyze {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	engine := opts.Engine
	if engine == nil {
		engine = tmpl.New()
	}
	return &Analyze{
		analyzer: opts.Analyzer,
		replier:  opts.Replier,
		engine:   engine,
		jobs:     opts.Jobs,
		guard:    opts.Guard,
		from:     opts.From,
		fromName: opts.FromName,
		logger:   logger,
	}
}

func (a *Analyze) Name() string { return "analyze" }

func (a *Analyze) Handle(ctx context.Context, email *model.InboundEmail) (Status, error) {
	if strings.TrimSpace(email.ID) == "" {
		return Status{}, errMissingID
	}
	key := inbound.IdempotencyKeyFor(email.ID)

	if a.guard != nil {
		first, err := a.guard.Claim(ctx, key)
		if err != nil {
			// The upstream idempotency key still prevents a second reply.
			a.logger.Warn("claim failed, continuing", "email_id", email.ID, "error", err)
		} else if !first {
			a.logger.Info("duplicate delivery ignored", "email_id", email.ID)
			return Status{Success: true, Message: "Already processing"}, nil
		}
	}

	snapshot := *email
	if !a.jobs.Go("analyze "+email.ID, func(ctx context.Context) error {
		err := a.process(ctx, &snapshot, key)
		if err != nil {
			a.release(key)
		}
		return err
	}) {
		a.release(key)
		return Status{}, fmt.Errorf("server is shutting down")
	}

	return Status{Success: true, Message: "Analysis started"}, nil
}

func (a *Analyze) process(ctx context.Context, email *model.InboundEmail, key string) error {
	in := ai.Input{
		From:    email.SenderAddress(),
		To:      email.RecipientAddress(),
		Subject: email.Subject,
		Content: analysisContent(email),
	}

	analysis, err := a.analyzer.Analyze(ctx, in)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", email.ID, err)
	}

	reply, err := ai.ComposeReply(a.engine, analysis, in)
	if err != nil {
		return fmt.Errorf("composing reply for %s: %w", email.ID, err)
	}

	req := model.ReplyRequest{
		From:     replySender(a.from, email),
		FromName: a.fromName,
		Subject:  reply.Subject,
		Text:     reply.Text,
		Tags:     []model.Tag{{Name: "source", Value: "analysis"}},
	}
	if _, err := a.replier.Reply(ctx, email.ID, req, inbound.WithIdempotencyKey(key)); err != nil {
		return fmt.Errorf("replying to %s: %w", email.ID, err)
	}

	a.logger.Info("analysis reply sent",
		"email_id", email.ID,
		"safety_score", analysis.SafetyScore,
		"dangerous", analysis.IsDangerous,
	)
	return nil
}

func (a *Analyze) release(key string) {
	r, ok := a.guard.(releaser)
	if !ok {
		return
	}
	if err := r.Release(context.Background(), key); err != nil {
		a.logger.Warn("releasing claim", "key", key, "error", err)
	}
}

// analysisContent prefers the plain-text body and falls back to the HTML
// body converted to text.
func analysisContent(email *model.InboundEmail) string {
	if text := strings.TrimSpace(email.Text()); text != "" {
		return text
	}
	return htmlclean.ToText(email.HTML())
}
