// Package apperr defines the error categories shared by the client,
// the terminal UI, and the webhook server.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports missing or invalid credentials and settings.
// It is returned at construction time, never per call.
type ConfigurationError struct {
	Missing []string
	Message string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf(
			"configuration error: missing %s", strings.Join(e.Missing, ", "),
		)
	}
	return "configuration error: " + e.Message
}

// UpstreamError is returned when the email API answers with a non-2xx
// status. Message is the upstream "error" field when present, otherwise
// the HTTP status line.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (%d): %s", e.Status, e.Message)
}

// ValidationError reports malformed user input. It is raised before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ProcessingError wraps a failure inside a content-transform pipeline.
// Stage names the step that failed (parse, render, analyze, reply, ...).
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Processing wraps err as a ProcessingError for the given stage.
// A nil err yields nil.
func Processing(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &ProcessingError{Stage: stage, Err: err}
}

// IsConfiguration reports whether err (or any error in its chain) is a
// ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// AsUpstream returns the UpstreamError in err's chain, if any.
func AsUpstream(err error) (*UpstreamError, bool) {
	var target *UpstreamError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsUpstream reports whether err (or any error in its chain) is an
// UpstreamError.
func IsUpstream(err error) bool {
	_, ok := AsUpstream(err)
	return ok
}

// IsValidation reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsProcessing reports whether err (or any error in its chain) is a
// ProcessingError.
func IsProcessing(err error) bool {
	var target *ProcessingError
	return errors.As(err, &target)
}
