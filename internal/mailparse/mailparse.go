// Package mailparse reads a raw RFC 5322 message into bodies and
// attachment metadata. Webhook handlers use it when a payload carries
// the raw message but no parsed bodies.
package mailparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/inboundkit/internal/model"
)

// Message is the parsed content of one email.
type Message struct {
	MessageID   string
	Subject     string
	From        string
	To          []string
	Date        time.Time
	TextBody    string
	HTMLBody    string
	Attachments []model.Attachment
}

// Parse walks the MIME tree of raw. The first text/plain and text/html
// inline parts become the bodies; attachments are read only to measure
// their size.
func Parse(raw []byte) (*Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("reading message header: %w", err)
	}
	defer mr.Close()

	msg := &Message{}
	h := mr.Header
	msg.Subject, _ = h.Subject()
	msg.MessageID, _ = h.MessageID()
	msg.Date, _ = h.Date()
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}
	if to, err := h.AddressList("To"); err == nil {
		for _, a := range to {
			msg.To = append(msg.To, a.Address)
		}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return msg, fmt.Errorf("reading message part: %w", err)
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := ph.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain") && msg.TextBody == "":
				msg.TextBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && msg.HTMLBody == "":
				msg.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := ph.Filename()
			contentType, _, _ := ph.ContentType()

			n, readErr := io.Copy(io.Discard, part.Body)
			if readErr != nil {
				continue
			}

			msg.Attachments = append(msg.Attachments, model.Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        n,
				ContentID:   strings.Trim(ph.Get("Content-Id"), "<>"),
			})
		}
	}

	return msg, nil
}
