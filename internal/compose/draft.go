// Package compose holds the composer's form state and turns it into send
// or reply requests. It has no UI or network code.
package compose

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/model"
)

// Mode is fixed when a draft is opened.
type Mode int

const (
	ModeCompose Mode = iota
	ModeReply
)

func (m Mode) String() string {
	if m == ModeReply {
		return "reply"
	}
	return "compose"
}

// Format selects how the body is interpreted.
type Format int

const (
	FormatText Format = iota
	FormatHTML
)

func (f Format) String() string {
	if f == FormatHTML {
		return "HTML"
	}
	return "Plain text"
}

const replyPrefix = "Re: "

// PrefillSubject returns the reply subject for original, adding "Re: "
// unless the subject already starts with it (any case).
func PrefillSubject(original string) string {
	trimmed := strings.TrimSpace(original)
	if len(trimmed) >= 3 && strings.EqualFold(trimmed[:3], "re:") {
		return trimmed
	}
	return replyPrefix + trimmed
}

// Draft is the editable state of one composer dialog.
type Draft struct {
	mode        Mode
	replyTo     string
	replyToID   string
	To          string
	CC          string
	BCC         string
	Subject     string
	Body        string
	Format      Format
	ReplyAll    bool
	fixedTarget bool
	prefill     string
}

// NewDraft returns an empty compose-mode draft.
func NewDraft() *Draft {
	return &Draft{mode: ModeCompose}
}

// NewReply returns a reply-mode draft for msg. The recipient is the
// original sender and cannot be changed.
func NewReply(msg model.Message) *Draft {
	to := msg.ReplyAddress()
	return &Draft{
		mode:        ModeReply,
		replyTo:     to,
		replyToID:   msg.ID,
		To:          to,
		Subject:     PrefillSubject(msg.Subject),
		fixedTarget: true,
		prefill:     PrefillSubject(msg.Subject),
	}
}

// Mode returns the draft's mode.
func (d *Draft) Mode() Mode { return d.mode }

// ReplyToID returns the id of the message being answered.
func (d *Draft) ReplyToID() string { return d.replyToID }

// Recipient returns the effective To value. In reply mode it is always
// the original sender regardless of edits to To.
func (d *Draft) Recipient() string {
	if d.fixedTarget {
		return d.replyTo
	}
	return strings.TrimSpace(d.To)
}

// Reset restores the defaults the draft was opened with.
func (d *Draft) Reset() {
	*d = Draft{
		mode:        d.mode,
		replyTo:     d.replyTo,
		replyToID:   d.replyToID,
		To:          d.replyTo,
		Subject:     d.prefill,
		fixedTarget: d.fixedTarget,
		prefill:     d.prefill,
	}
}

// Validate checks the required fields and address syntax.
func (d *Draft) Validate() error {
	if d.Recipient() == "" {
		return &apperr.ValidationError{Field: "to", Reason: "recipient is required"}
	}
	if _, err := ParseAddressList(d.Recipient()); err != nil {
		return &apperr.ValidationError{Field: "to", Reason: err.Error()}
	}
	if strings.TrimSpace(d.Subject) == "" {
		return &apperr.ValidationError{Field: "subject", Reason: "subject is required"}
	}
	if strings.TrimSpace(d.Body) == "" {
		return &apperr.ValidationError{Field: "body", Reason: "message body is required"}
	}
	if d.mode == ModeCompose {
		if _, err := ParseAddressList(d.CC); err != nil {
			return &apperr.ValidationError{Field: "cc", Reason: err.Error()}
		}
		if _, err := ParseAddressList(d.BCC); err != nil {
			return &apperr.ValidationError{Field: "bcc", Reason: err.Error()}
		}
	}
	return nil
}

// CanSubmit reports whether the submit action is enabled.
func (d *Draft) CanSubmit(inFlight bool) bool {
	return !inFlight &&
		d.Recipient() != "" &&
		strings.TrimSpace(d.Subject) != "" &&
		strings.TrimSpace(d.Body) != ""
}

// body returns the HTML and text halves; exactly one is non-empty.
func (d *Draft) body() (html, text string) {
	if d.Format == FormatHTML {
		return d.Body, ""
	}
	return "", d.Body
}

// SendRequest builds the POST /emails body for a compose-mode draft.
func (d *Draft) SendRequest(from string) (model.SendEmailRequest, error) {
	if err := d.Validate(); err != nil {
		return model.SendEmailRequest{}, err
	}

	to, _ := ParseAddressList(d.Recipient())
	cc, _ := ParseAddressList(d.CC)
	bcc, _ := ParseAddressList(d.BCC)
	html, text := d.body()

	return model.SendEmailRequest{
		From:    from,
		To:      to,
		CC:      cc,
		BCC:     bcc,
		Subject: strings.TrimSpace(d.Subject),
		HTML:    html,
		Text:    text,
		Tags:    []model.Tag{{Name: "client_request", Value: uuid.NewString()}},
	}, nil
}

// ReplyRequest builds the POST /emails/{id}/reply-new body for a
// reply-mode draft. The recipient is resolved upstream.
func (d *Draft) ReplyRequest(from, fromName string) (model.ReplyRequest, error) {
	if err := d.Validate(); err != nil {
		return model.ReplyRequest{}, err
	}

	html, text := d.body()
	return model.ReplyRequest{
		From:     from,
		FromName: fromName,
		Subject:  strings.TrimSpace(d.Subject),
		HTML:     html,
		Text:     text,
		ReplyAll: d.ReplyAll,
		Tags:     []model.Tag{{Name: "client_request", Value: uuid.NewString()}},
	}, nil
}

// ParseAddressList splits a comma-separated list into bare addresses.
// An empty input yields nil.
func ParseAddressList(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	list, err := mail.ParseAddressList(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out, nil
}
