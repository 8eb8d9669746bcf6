package model

import (
	"strings"
	"time"
)

// InboundWebhook is the body the email service posts to /api/inbound.
type InboundWebhook struct {
	Event     string        `json:"event"`
	Timestamp time.Time     `json:"timestamp"`
	Email     *InboundEmail `json:"email"`
}

// InboundEmail is the parsed email inside a webhook payload.
type InboundEmail struct {
	ID         string       `json:"id"`
	MessageID  string       `json:"messageId"`
	From       AddressField `json:"from"`
	To         AddressField `json:"to"`
	Recipient  string       `json:"recipient"`
	Subject    string       `json:"subject"`
	ReceivedAt time.Time    `json:"receivedAt"`

	ParsedData     ParsedData     `json:"parsedData"`
	CleanedContent CleanedContent `json:"cleanedContent"`

	// Raw is the original RFC 5322 message, when the endpoint is set to
	// include it.
	Raw string `json:"raw,omitempty"`
}

// AddressField mirrors the parsed address header shape.
type AddressField struct {
	Text      string    `json:"text"`
	Addresses []Address `json:"addresses"`
}

// Address is a single mailbox.
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ParsedData holds the bodies as parsed from the MIME tree.
type ParsedData struct {
	TextBody string `json:"textBody"`
	HTMLBody string `json:"htmlBody"`
}

// CleanedContent holds the bodies after upstream sanitizing.
type CleanedContent struct {
	HTML    string `json:"html"`
	Text    string `json:"text"`
	HasHTML bool   `json:"hasHtml"`
	HasText bool   `json:"hasText"`
}

// HTML returns the best HTML body available in the payload.
func (e *InboundEmail) HTML() string {
	if strings.TrimSpace(e.CleanedContent.HTML) != "" {
		return e.CleanedContent.HTML
	}
	return e.ParsedData.HTMLBody
}

// Text returns the best plain-text body available in the payload.
func (e *InboundEmail) Text() string {
	if strings.TrimSpace(e.CleanedContent.Text) != "" {
		return e.CleanedContent.Text
	}
	return e.ParsedData.TextBody
}

// SenderAddress returns the first sender address, falling back to the
// raw header text.
func (e *InboundEmail) SenderAddress() string {
	if len(e.From.Addresses) > 0 && e.From.Addresses[0].Address != "" {
		return e.From.Addresses[0].Address
	}
	return e.From.Text
}

// RecipientAddress returns the address the email was delivered to.
func (e *InboundEmail) RecipientAddress() string {
	if e.Recipient != "" {
		return e.Recipient
	}
	if len(e.To.Addresses) > 0 {
		return e.To.Addresses[0].Address
	}
	return e.To.Text
}
