package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationErrorListsMissingFields(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"inbound.api_key", "render.token"}}
	assert.Equal(t, "configuration error: missing inbound.api_key, render.token", err.Error())
	assert.True(t, IsConfiguration(fmt.Errorf("startup: %w", err)))
}

func TestAsUpstreamThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("listing threads: %w", &UpstreamError{Status: 404, Message: "Thread not found"})

	upErr, ok := AsUpstream(wrapped)
	require.True(t, ok)
	assert.Equal(t, 404, upErr.Status)
	assert.Equal(t, "Thread not found", upErr.Message)
	assert.False(t, IsValidation(wrapped))
}

func TestProcessingUnwraps(t *testing.T) {
	cause := errors.New("browserless returned 502")
	err := Processing("render", cause)

	assert.True(t, IsProcessing(err))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Processing("render", nil))
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "domain: top-level label must be alphabetic",
		(&ValidationError{Field: "domain", Reason: "top-level label must be alphabetic"}).Error())
	assert.Equal(t, "subject is required", (&ValidationError{Reason: "subject is required"}).Error())
}
