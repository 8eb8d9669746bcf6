package ai

import (
	"fmt"
	"strings"

	"github.com/nhle/inboundkit/internal/tmpl"
)

const replySubjectTemplate = `Email analysis: {{ subject_summary | oneline }}`

const replyBodyTemplate = `{% if dangerous %}WARNING: this email looks dangerous. Do not click its links, open its attachments or reply with personal information.

{% endif %}Safety score: {{ score }}/100

{{ summary }}

Details
-------
{{ details }}

Original subject: {{ original_subject }}
From: {{ original_from }}
`

// Reply is the subject and plain-text body of an analysis reply.
type Reply struct {
	Subject string
	Text    string
}

// ComposeReply renders the reply for a. The subject carries the subject
// summary; the body starts with a warning line when the email was
// flagged dangerous, then the score and summary.
func ComposeReply(engine *tmpl.Engine, a *Analysis, original Input) (Reply, error) {
	if a == nil {
		return Reply{}, fmt.Errorf("no analysis to reply with")
	}

	bindings := map[string]interface{}{
		"subject_summary":  a.ForwardedSubjectSummary,
		"dangerous":        a.IsDangerous,
		"score":            a.SafetyScore,
		"summary":          strings.TrimSpace(a.PersonalizedSummary),
		"details":          strings.TrimSpace(a.DetailedAnalysis),
		"original_subject": original.Subject,
		"original_from":    original.From,
	}

	subject, err := engine.Render("analysis-subject", replySubjectTemplate, bindings)
	if err != nil {
		return Reply{}, err
	}
	body, err := engine.Render("analysis-body", replyBodyTemplate, bindings)
	if err != nil {
		return Reply{}, err
	}

	return Reply{Subject: subject, Text: body}, nil
}
