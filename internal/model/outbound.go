package model

// SendEmailRequest is the body of POST /emails. Exactly one of HTML and
// Text is set by the composer.
type SendEmailRequest struct {
	From        string               `json:"from"`
	To          []string             `json:"to"`
	CC          []string             `json:"cc,omitempty"`
	BCC         []string             `json:"bcc,omitempty"`
	ReplyTo     []string             `json:"reply_to,omitempty"`
	Subject     string               `json:"subject"`
	HTML        string               `json:"html,omitempty"`
	Text        string               `json:"text,omitempty"`
	Headers     map[string]string    `json:"headers,omitempty"`
	Attachments []OutboundAttachment `json:"attachments,omitempty"`
	Tags        []Tag                `json:"tags,omitempty"`
}

// ReplyRequest is the body of POST /emails/{id}/reply-new. The recipient
// is resolved upstream from the original message; ReplyAll widens it to
// every original recipient.
type ReplyRequest struct {
	From        string               `json:"from"`
	FromName    string               `json:"from_name,omitempty"`
	CC          []string             `json:"cc,omitempty"`
	BCC         []string             `json:"bcc,omitempty"`
	Subject     string               `json:"subject,omitempty"`
	HTML        string               `json:"html,omitempty"`
	Text        string               `json:"text,omitempty"`
	Headers     map[string]string    `json:"headers,omitempty"`
	Attachments []OutboundAttachment `json:"attachments,omitempty"`
	Tags        []Tag                `json:"tags,omitempty"`
	ReplyAll    bool                 `json:"reply_all,omitempty"`
}

// OutboundAttachment carries base64-encoded content.
type OutboundAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

// Tag is a name/value label attached to an outbound email.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SendResult is returned by the send and reply endpoints.
type SendResult struct {
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
}
