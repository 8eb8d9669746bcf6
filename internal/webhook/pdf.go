package webhook

import (
	"context"
	"encoding/base64"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/compose"
	"github.com/nhle/inboundkit/internal/htmlclean"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/render"
	"github.com/nhle/inboundkit/internal/tmpl"
)

// DefaultFooter is the branding appended to every converted email.
const DefaultFooter = `<div style="margin-top:32px;padding-top:12px;border-top:1px solid #ddd;font:12px sans-serif;color:#888">
Converted to PDF by inboundkit{% if received %} &middot; received {{ received }}{% endif %}{% if sender %} &middot; from {{ sender | escape }}{% endif %}
</div>`

// PDF strips forwarded content, renders the remaining HTML to a PDF and
// replies to the sender with it attached.
type PDF struct {
	renderer render.PDFRenderer
	replier  Replier
	engine   *tmpl.Engine
	footer   string
	from     string
	fromName string
	now      func() time.Time
	logger   *slog.Logger
}

// NewPDF returns the pdf variant. from may be empty, in which case the
// reply is sent from the address the email was delivered to.
func NewPDF(renderer render.PDFRenderer, replier Replier, engine *tmpl.Engine, from, fromName string, logger *slog.Logger) *PDF {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PDF{
		renderer: renderer,
		replier:  replier,
		engine:   engine,
		footer:   DefaultFooter,
		from:     from,
		fromName: fromName,
		now:      time.Now,
		logger:   logger,
	}
}

func (p *PDF) Name() string { return "pdf" }

func (p *PDF) Handle(ctx context.Context, email *model.InboundEmail) (Status, error) {
	if strings.TrimSpace(email.ID) == "" {
		return Status{}, errMissingID
	}

	body := email.HTML()
	if strings.TrimSpace(body) == "" {
		text := email.Text()
		if strings.TrimSpace(text) == "" {
			return Status{}, &apperr.ValidationError{Reason: "No content to convert"}
		}
		body = "<pre style=\"white-space:pre-wrap;font-family:sans-serif\">" + html.EscapeString(text) + "</pre>"
	}

	stripped, err := htmlclean.StripForwarded(body)
	if err != nil {
		return Status{}, apperr.Processing("strip", err)
	}

	footer, err := p.engine.Render("pdf-footer", p.footer, p.footerBindings(email))
	if err != nil {
		return Status{}, apperr.Processing("footer", err)
	}
	doc, err := htmlclean.AppendFooter(stripped.HTML, footer)
	if err != nil {
		return Status{}, apperr.Processing("footer", err)
	}

	pdf, err := p.renderer.RenderPDF(ctx, doc)
	if err != nil {
		return Status{}, apperr.Processing("render", err)
	}

	req := model.ReplyRequest{
		From:     replySender(p.from, email),
		FromName: p.fromName,
		Subject:  compose.PrefillSubject(email.Subject),
		Text:     "Your email is attached as a PDF.",
		Attachments: []model.OutboundAttachment{{
			Filename:    PDFFilename(email.Subject),
			Content:     base64.StdEncoding.EncodeToString(pdf),
			ContentType: "application/pdf",
		}},
	}
	if _, err := p.replier.Reply(ctx, email.ID, req); err != nil {
		return Status{}, apperr.Processing("reply", err)
	}

	p.logger.Info("pdf sent",
		"email_id", email.ID,
		"pdf_bytes", len(pdf),
		"removed", stripped.Removed,
	)

	removed := make(map[string]interface{}, len(stripped.Removed))
	for k, v := range stripped.Removed {
		removed[k] = v
	}
	return Status{Success: true, Message: "PDF sent", Details: removed}, nil
}

func (p *PDF) footerBindings(email *model.InboundEmail) map[string]interface{} {
	received := email.ReceivedAt
	if received.IsZero() {
		received = p.now()
	}
	return map[string]interface{}{
		"received": received.UTC().Format("2006-01-02 15:04 MST"),
		"sender":   email.SenderAddress(),
		"subject":  email.Subject,
	}
}

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// PDFFilename derives an attachment name from a subject.
func PDFFilename(subject string) string {
	name := strings.Trim(filenameUnsafe.ReplaceAllString(strings.ToLower(subject), "-"), "-")
	if len(name) > 60 {
		name = strings.TrimRight(name[:60], "-")
	}
	if name == "" {
		name = "email"
	}
	return name + ".pdf"
}
