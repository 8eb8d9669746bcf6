package ui

import "github.com/nhle/inboundkit/internal/apperr"

// ErrorText returns the user-facing text for err: the upstream message
// for API failures, the error string otherwise.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	if ue, ok := apperr.AsUpstream(err); ok {
		return ue.Message
	}
	return err.Error()
}
