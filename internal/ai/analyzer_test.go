package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/tmpl"
)

func toolResponse(t *testing.T, a Analysis) []byte {
	t.Helper()
	input, err := json.Marshal(a)
	require.NoError(t, err)
	resp := apiResponse{
		ID:         "msg_1",
		Type:       "message",
		Role:       "assistant",
		StopReason: "tool_use",
		Content: []apiContentBlock{
			{Type: "tool_use", ID: "toolu_1", Name: toolName, Input: input},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return data
}

func newTestClaude(t *testing.T, handler http.HandlerFunc) *Claude {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClaude(model.AIConfig{APIKey: "sk-test", BaseURL: srv.URL}, srv.Client())
	require.NoError(t, err)
	return c
}

func TestNewClaude_MissingKey(t *testing.T) {
	_, err := NewClaude(model.AIConfig{}, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestAnalyze_ForcesToolAndDecodes(t *testing.T) {
	want := Analysis{
		DetailedAnalysis:        "Sender domain does not match the bank.",
		PersonalizedSummary:     "This looks like phishing.",
		SafetyScore:             8,
		ForwardedSubjectSummary: "Fake bank password reset",
		IsDangerous:             true,
	}

	var got apiRequest
	c := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write(toolResponse(t, want))
	})

	a, err := c.Analyze(context.Background(), Input{
		From:    "alerts@bank.example",
		Subject: "Reset your password",
		Content: "Click here",
	})
	require.NoError(t, err)
	assert.Equal(t, want, *a)

	require.NotNil(t, got.ToolChoice)
	assert.Equal(t, "tool", got.ToolChoice.Type)
	assert.Equal(t, toolName, got.ToolChoice.Name)
	require.Len(t, got.Tools, 1)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content[0].Text, "Reset your password")
}

func TestAnalyze_RejectsOutOfRangeScore(t *testing.T) {
	c := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(toolResponse(t, Analysis{
			PersonalizedSummary:     "ok",
			ForwardedSubjectSummary: "ok",
			SafetyScore:             150,
		}))
	})

	_, err := c.Analyze(context.Background(), Input{Content: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside 1-100")
}

func TestAnalyze_NoToolBlock(t *testing.T) {
	c := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hello"}],"stop_reason":"end_turn"}`))
	})

	_, err := c.Analyze(context.Background(), Input{Content: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analysis")
}

func TestAnalyze_APIError(t *testing.T) {
	c := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	})

	_, err := c.Analyze(context.Background(), Input{Content: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")
}

func TestUserPrompt_TruncatesContent(t *testing.T) {
	p := userPrompt(Input{Content: strings.Repeat("x", maxContentChars+100)})
	assert.Less(t, len(p), maxContentChars+100)
}

func TestComposeReply(t *testing.T) {
	engine := tmpl.New()

	t.Run("dangerous email starts with a warning", func(t *testing.T) {
		r, err := ComposeReply(engine, &Analysis{
			PersonalizedSummary:     "Phishing attempt.",
			SafetyScore:             5,
			ForwardedSubjectSummary: "Fake invoice",
			IsDangerous:             true,
		}, Input{Subject: "Invoice", From: "x@y.example"})
		require.NoError(t, err)

		assert.Equal(t, "Email analysis: Fake invoice", r.Subject)
		assert.True(t, strings.HasPrefix(r.Text, "WARNING:"))
		assert.Contains(t, r.Text, "Safety score: 5/100")
		assert.Contains(t, r.Text, "Phishing attempt.")
	})

	t.Run("safe email has no warning", func(t *testing.T) {
		r, err := ComposeReply(engine, &Analysis{
			PersonalizedSummary:     "A newsletter.",
			SafetyScore:             92,
			ForwardedSubjectSummary: "Weekly digest",
		}, Input{Subject: "Digest"})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(r.Text, "Safety score: 92/100"))
		assert.NotContains(t, r.Text, "WARNING")
	})

	t.Run("nil analysis", func(t *testing.T) {
		_, err := ComposeReply(engine, nil, Input{})
		assert.Error(t, err)
	})
}
