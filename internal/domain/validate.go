// Package domain implements the domain setup flow: name validation, the
// four-step wizard and zone-file export.
package domain

import (
	"strings"

	"github.com/nhle/inboundkit/internal/apperr"
)

const maxLabelLen = 63

// Normalize lowercases name and strips surrounding space and a single
// trailing root dot.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".")
}

// Validate checks that name is a registrable host name: at least two
// dot-separated labels, each 1-63 ASCII letters, digits or hyphens, no
// label starting or ending with a hyphen, and an alphabetic top-level
// label. It returns *apperr.ValidationError describing the first rule
// broken.
func Validate(name string) error {
	name = Normalize(name)
	if name == "" {
		return invalid("domain is required")
	}

	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return invalid("domain must contain at least one dot")
	}

	for _, label := range labels {
		if label == "" {
			return invalid("domain must not contain empty labels")
		}
		if len(label) > maxLabelLen {
			return invalid("each label must be at most 63 characters")
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return invalid("labels must not start or end with a hyphen")
		}
		for i := 0; i < len(label); i++ {
			if !isLetter(label[i]) && !isDigit(label[i]) && label[i] != '-' {
				return invalid("labels may only contain letters, digits and hyphens")
			}
		}
	}

	tld := labels[len(labels)-1]
	for i := 0; i < len(tld); i++ {
		if !isLetter(tld[i]) {
			return invalid("top-level label must be alphabetic")
		}
	}

	return nil
}

func invalid(reason string) error {
	return &apperr.ValidationError{Field: "domain", Reason: reason}
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
