// Package ai classifies inbound email with the Claude Messages API and
// composes the automatic reply that reports the result.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 2048
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	toolName         = "record_email_analysis"

	// maxContentChars bounds the email text sent for analysis.
	maxContentChars = 50000
)

// Input is the email under analysis.
type Input struct {
	From    string
	To      string
	Subject string
	Content string
}

// Analysis is the structured verdict returned by the model.
type Analysis struct {
	DetailedAnalysis        string `json:"detailed_analysis"`
	PersonalizedSummary     string `json:"personalized_summary"`
	SafetyScore             int    `json:"safety_score"`
	ForwardedSubjectSummary string `json:"forwarded_subject_summary"`
	IsDangerous             bool   `json:"is_dangerous"`
}

// Validate checks the fields the reply depends on.
func (a *Analysis) Validate() error {
	if a.SafetyScore < 1 || a.SafetyScore > 100 {
		return fmt.Errorf("safety score %d outside 1-100", a.SafetyScore)
	}
	if strings.TrimSpace(a.PersonalizedSummary) == "" {
		return fmt.Errorf("analysis is missing a summary")
	}
	if strings.TrimSpace(a.ForwardedSubjectSummary) == "" {
		return fmt.Errorf("analysis is missing a subject summary")
	}
	return nil
}

// Analyzer produces an Analysis for an email.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (*Analysis, error)
}

// analysisSchema is the JSON schema of the forced tool input.
var analysisSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "detailed_analysis": {
      "type": "string",
      "description": "Thorough analysis of the email: intent, sender legitimacy, links, requests for money or credentials."
    },
    "personalized_summary": {
      "type": "string",
      "description": "Two or three sentence summary addressed to the recipient."
    },
    "safety_score": {
      "type": "integer",
      "minimum": 1,
      "maximum": 100,
      "description": "1 is certainly malicious, 100 is certainly safe."
    },
    "forwarded_subject_summary": {
      "type": "string",
      "description": "A short phrase, at most eight words, describing what the email is about."
    },
    "is_dangerous": {
      "type": "boolean",
      "description": "True for phishing, malware, scams or fraud."
    }
  },
  "required": ["detailed_analysis", "personalized_summary", "safety_score", "forwarded_subject_summary", "is_dangerous"]
}`)

// Claude calls the Messages API with a single tool the model is forced
// to use, so the reply is always the structured Analysis.
type Claude struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

// NewClaude returns an Analyzer for cfg. A missing API key fails with
// *apperr.ConfigurationError.
func NewClaude(cfg model.AIConfig, hc *http.Client) (*Claude, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &apperr.ConfigurationError{Missing: []string{"ai.api_key (ANTHROPIC_API_KEY)"}}
	}

	c := &Claude{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    hc,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 90 * time.Second}
	}
	return c, nil
}

// Analyze classifies in.
func (c *Claude) Analyze(ctx context.Context, in Input) (*Analysis, error) {
	resp, err := c.callAPI(ctx, apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: userPrompt(in)}},
		}},
		Tools: []apiTool{{
			Name:        toolName,
			Description: "Record the safety analysis of the email.",
			InputSchema: analysisSchema,
		}},
		ToolChoice: &apiToolChoice{Type: "tool", Name: toolName},
	})
	if err != nil {
		return nil, err
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" || block.Name != toolName {
			continue
		}
		var a Analysis
		if err := json.Unmarshal(block.Input, &a); err != nil {
			return nil, fmt.Errorf("decoding analysis: %w", err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("invalid analysis: %w", err)
		}
		return &a, nil
	}

	return nil, fmt.Errorf("model returned no analysis (stop reason %q)", resp.StopReason)
}

const systemPrompt = "You are an email security analyst. Someone forwarded an email " +
	"to you and wants to know whether it is safe and what it says. " +
	"Be concrete and cite the parts of the email that drive your verdict. " +
	"Always answer by calling the " + toolName + " tool."

func userPrompt(in Input) string {
	content := in.Content
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	var sb strings.Builder
	sb.WriteString("Analyze this email.\n\n")
	fmt.Fprintf(&sb, "From: %s\n", in.From)
	fmt.Fprintf(&sb, "To: %s\n", in.To)
	fmt.Fprintf(&sb, "Subject: %s\n\n", in.Subject)
	sb.WriteString(content)
	return sb.String()
}

// callAPI makes a single request to the Messages API.
func (c *Claude) callAPI(ctx context.Context, reqBody apiRequest) (*apiResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}
