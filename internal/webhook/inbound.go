// Package webhook receives inbound-email webhooks and runs one of the
// content-transform variants on each delivery. It also proxies the two
// domain endpoints the setup wizard calls from a browser.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/inbound"
	"github.com/nhle/inboundkit/internal/mailparse"
	"github.com/nhle/inboundkit/internal/model"
)

// Status is the small acknowledgement returned on success.
type Status struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// errMissingID rejects deliveries that cannot be replied to.
var errMissingID = &apperr.ValidationError{Reason: "Missing email id"}

// Variant processes one inbound email. A *apperr.ValidationError maps to
// 400 with its reason; any other error maps to a generic 500.
type Variant interface {
	Name() string
	Handle(ctx context.Context, email *model.InboundEmail) (Status, error)
}

// Replier sends a reply to an inbound message.
type Replier interface {
	Reply(ctx context.Context, messageID string, req model.ReplyRequest, opts ...inbound.CallOption) (*model.SendResult, error)
}

type inboundHandler struct {
	variant Variant
	maxBody int64
	logger  *slog.Logger
}

func (h *inboundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var payload model.InboundWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		badRequest(w, "Invalid JSON payload")
		return
	}
	if payload.Email == nil {
		badRequest(w, "Missing email data")
		return
	}

	email := payload.Email
	fillFromRaw(email, h.logger)

	log := h.logger.With(
		"variant", h.variant.Name(),
		"email_id", email.ID,
		"request_id", requestID(r),
	)
	log.Info("inbound email received",
		"from", email.SenderAddress(),
		"subject", email.Subject,
	)

	status, err := h.variant.Handle(r.Context(), email)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			log.Warn("inbound email rejected", "reason", ve.Reason)
			badRequest(w, ve.Reason)
			return
		}
		internalError(w, r, log, err, "Failed to process email")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// fillFromRaw parses the raw message when the payload carries no parsed
// bodies.
func fillFromRaw(email *model.InboundEmail, logger *slog.Logger) {
	if email.Raw == "" || strings.TrimSpace(email.HTML()+email.Text()) != "" {
		return
	}

	msg, err := mailparse.Parse([]byte(email.Raw))
	if err != nil {
		logger.Warn("raw message unreadable", "email_id", email.ID, "error", err)
		return
	}

	email.ParsedData.HTMLBody = msg.HTMLBody
	email.ParsedData.TextBody = msg.TextBody
	if email.Subject == "" {
		email.Subject = msg.Subject
	}
	if email.MessageID == "" {
		email.MessageID = msg.MessageID
	}
	if email.From.Text == "" && msg.From != "" {
		email.From = model.AddressField{
			Text:      msg.From,
			Addresses: []model.Address{{Address: msg.From}},
		}
	}
}

// replySender picks the From address for an automatic reply: the
// configured sender, else the address the email was delivered to.
func replySender(configured string, email *model.InboundEmail) string {
	if configured != "" {
		return configured
	}
	return email.RecipientAddress()
}
