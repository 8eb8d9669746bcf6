package model

import (
	"strings"
	"time"
)

// Message direction values.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message is a single email inside a thread. Messages are immutable once
// fetched; a reply creates a new Message upstream.
type Message struct {
	ID          string `json:"id"`
	MessageID   string `json:"messageId"`
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	TextBody    string `json:"textBody"`
	HTMLBody    string `json:"htmlBody"`
	From        string `json:"from"`
	FromName    string `json:"fromName"`
	FromAddress string `json:"fromAddress"`

	To  []string `json:"to"`
	CC  []string `json:"cc"`
	BCC []string `json:"bcc"`

	Date       time.Time  `json:"date"`
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
	SentAt     *time.Time `json:"sentAt,omitempty"`

	IsRead      bool         `json:"isRead"`
	Attachments []Attachment `json:"attachments"`

	InReplyTo  string   `json:"inReplyTo"`
	References []string `json:"references"`
}

// Attachment is attachment metadata. Binary content is never fetched by
// the viewer.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	ContentID   string `json:"contentId"`
}

// IsOutbound reports whether the message was sent from this account.
func (m Message) IsOutbound() bool {
	return m.Type == DirectionOutbound
}

// PreferredBody returns the body that drives rendering: HTML when
// present, plain text otherwise.
func (m Message) PreferredBody() (body string, isHTML bool) {
	if strings.TrimSpace(m.HTMLBody) != "" {
		return m.HTMLBody, true
	}
	return m.TextBody, false
}

// Sender returns the best display form of the sender.
func (m Message) Sender() string {
	switch {
	case m.FromName != "" && m.FromAddress != "":
		return m.FromName + " <" + m.FromAddress + ">"
	case m.From != "":
		return m.From
	default:
		return m.FromAddress
	}
}

// ReplyAddress returns the address a reply goes to.
func (m Message) ReplyAddress() string {
	if m.FromAddress != "" {
		return m.FromAddress
	}
	return m.From
}

// PlainBody returns the text body with surrounding whitespace removed.
func (m Message) PlainBody() string {
	return strings.TrimSpace(m.TextBody)
}
