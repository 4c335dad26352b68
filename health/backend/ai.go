package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/example/testhealth/health/domain"
)

const (
	DefaultModel    = "gpt-4o"
	DefaultEndpoint = "https://models.inference.ai.azure.com/chat/completions"

	degradedAction = "Manual investigation required"

	maxResponseBytes = 1 << 20
)

const categorizeSystemPrompt = "You are an expert QA automation engineer specializing in test failure analysis. Provide concise, actionable insights."

const rootCauseSystemPrompt = "You are an expert test automation engineer."

// AI classifies failures with an OpenAI-compatible chat completions API.
type AI struct {
	token    string
	model    string
	endpoint string
	client   *http.Client
}

// NewAI creates a new AI backend. Zero option fields take their defaults.
func NewAI(opts AIOptions) *AI {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	return &AI{
		token:    opts.Token,
		model:    opts.Model,
		endpoint: opts.Endpoint,
		client:   cleanhttp.DefaultPooledClient(),
	}
}

// WithHTTPClient replaces the HTTP client, mostly for tests.
func (a *AI) WithHTTPClient(c *http.Client) *AI {
	a.client = c
	return a
}

// Model returns the configured model name.
func (a *AI) Model() string {
	return a.model
}

// Name implements Backend.
func (a *AI) Name() string {
	return "ai:" + a.model
}

// Categorize implements Backend.
func (a *AI) Categorize(ctx context.Context, failure domain.FailureRecord) domain.Classification {
	content, err := a.complete(ctx, categorizeSystemPrompt, categorizationPrompt(failure), 300)
	if err != nil {
		return Degraded(failure.TestName, err)
	}
	c, err := Resolve(Parse(content), failure.TestName)
	if err != nil {
		return Degraded(failure.TestName, err)
	}
	c.Source = domain.SourceAI
	return c
}

// ExplainRootCause implements Backend.
func (a *AI) ExplainRootCause(ctx context.Context, req domain.RootCauseRequest) (string, error) {
	content, err := a.complete(ctx, rootCauseSystemPrompt, rootCausePrompt(req), 400)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty narrative", domain.ErrMalformedResponse)
	}
	return EnsurePriorityTag(content, priorityOf(req)), nil
}

// Degraded builds the result reported when a backend call fails.
func Degraded(testName string, err error) domain.Classification {
	return domain.Classification{
		TestName:        testName,
		Category:        domain.CategoryUnknown,
		Confidence:      0,
		Reasoning:       truncate("Error during analysis: "+err.Error(), reasoningLimit),
		SuggestedAction: degradedAction,
		Source:          domain.SourceAI,
		Degraded:        true,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *AI) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrBackendUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", domain.ErrMalformedResponse)
	}
	return parsed.Choices[0].Message.Content, nil
}

func categorizationPrompt(f domain.FailureRecord) string {
	return fmt.Sprintf(`Analyze this test failure and categorize it:

Test Name: %s
File: %s
Error: %s

Categories:
- TIMEOUT: Operation exceeded its time budget
- SELECTOR: Element could not be located or interacted with
- NETWORK: Connection or network-level failure
- ASSERTION: Expected and actual values differ
- PERMISSION: Access was denied
- OTHER: None of the above

Respond with:
Category: [ONE OF THE ABOVE]
Confidence: [0-100]%%
Reasoning: [Brief 1-2 sentence explanation]
Action: [What should be done next]

Be concise and specific.`, orUnknown(f.TestName), orUnknown(f.FilePath), orDefault(f.ErrorMessage, "No error message"))
}

func rootCausePrompt(req domain.RootCauseRequest) string {
	names := req.AffectedTests
	if len(names) > 5 {
		names = names[:5]
	}
	return fmt.Sprintf(`Multiple tests failed with similar errors:

Error Type: %s
Number of Failed Tests: %d
Test Names: %s
Sample Error: %s

Provide:
1. Root Cause: What is the likely underlying issue?
2. Investigation Steps: What should be checked? (list 2-3 items)
3. Suggested Fix: How to resolve this? (1-2 sentences)
4. Priority: HIGH or MEDIUM

Be concise and actionable.`, req.Signature, req.AffectedCount, strings.Join(names, ", "), truncate(req.SampleError, 200))
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
