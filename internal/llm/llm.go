// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm invokes the chat-completion model backend under a uniform
// call contract: message list in, normalized completion out, with
// JSON-schema-constrained output, bounded retries, and a deterministic
// mock mode for offline operation.
// Implements: prd003-model-gateway (R1-R5);
//
//	docs/ARCHITECTURE § Model Gateway.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/draft-engine/internal/httputil"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// Message is one turn of the chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System returns a system-role message.
func System(content string) Message { return Message{Role: "system", Content: content} }

// User returns a user-role message.
func User(content string) Message { return Message{Role: "user", Content: content} }

// ToolDef describes one callable tool offered to the model.
type ToolDef struct {
	// Name is the tool's function name.
	Name string `json:"name"`

	// Description tells the model when to call the tool.
	Description string `json:"description,omitempty"`

	// Parameters is the JSON schema for the tool's arguments.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// Schema constrains the completion to a named JSON schema. Both fields are
// required; a partial schema is a local validation error, never sent.
type Schema struct {
	Name string
	Body json.RawMessage
}

// Request is the gateway's uniform call contract.
type Request struct {
	Messages   []Message
	Tools      []ToolDef
	ToolChoice string
	Schema     *Schema

	// MaxTokens overrides the configured completion cap when positive.
	MaxTokens int
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the normalized completion.
type Result struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// APIError is a terminal (non-retryable or retry-exhausted) backend failure.
// Hint carries provider-specific remediation guidance.
type APIError struct {
	StatusCode int
	Body       string
	Hint       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model backend HTTP %d: %s (%s)", e.StatusCode, e.Body, e.Hint)
}

// hintFor maps an HTTP status to a remediation hint.
func hintFor(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "verify the model-api-key secret"
	case status == http.StatusNotFound:
		return "check the configured model identifier and base URL"
	case status == http.StatusBadRequest:
		return "the request was rejected; check message and schema contents"
	case status == http.StatusTooManyRequests:
		return "rate limited past the retry budget; reduce request volume"
	case status >= 500:
		return "backend unavailable past the retry budget; try again later"
	default:
		return "unexpected model backend response"
	}
}

// retryBaseDelay is the base duration for gateway backoff. Tests override
// this to avoid real sleeps.
var retryBaseDelay = time.Second

// Client calls the chat-completion backend.
type Client struct {
	cfg    types.ModelConfig
	client *http.Client
	policy httputil.Policy
	log    zerolog.Logger
}

// NewClient builds a gateway from configuration. Zero-valued settings
// receive defaults: 60s timeout, 4096 token cap, 3 retries.
func NewClient(cfg types.ModelConfig, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	policy := httputil.DefaultPolicy(cfg.MaxRetries + 1)
	policy.BaseDelay = retryBaseDelay
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		policy: policy,
		log:    log.With().Str("component", "llm").Logger(),
	}
}

// chat-completion wire structures (OpenAI-compatible).
type wireResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete performs one model invocation. In mock mode it returns
// deterministic canned content keyed by the requested schema name and
// makes no network call. Transient backend failures (429/5xx, transport
// errors) are retried with backoff and jitter, honoring Retry-After; all
// other HTTP failures surface as an *APIError with a remediation hint.
func (c *Client) Complete(ctx context.Context, req Request) (Result, error) {
	if req.Schema != nil && (req.Schema.Name == "" || len(req.Schema.Body) == 0) {
		return Result{}, fmt.Errorf("structured output requires both a schema name and a schema body")
	}
	if len(req.Messages) == 0 {
		return Result{}, fmt.Errorf("model request has no messages")
	}

	if c.cfg.MockMode {
		return mockComplete(req), nil
	}

	payload, err := c.buildPayload(req)
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("creating model request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, httpReq, c.policy)
	if err != nil {
		return Result{}, fmt.Errorf("model backend request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("model backend error")
		return Result{}, &APIError{
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body),
			Hint:       hintFor(resp.StatusCode),
		}
	}

	var parsed wireResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("decoding model response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("model returned no choices")
	}

	result := Result{
		Content: parsed.Choices[0].Message.Content,
		Usage:   parsed.Usage,
	}
	for _, tc := range parsed.Choices[0].Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.log.Debug().Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Msg("model call complete")

	return result, nil
}

// buildPayload assembles the chat-completion request body.
func (c *Client) buildPayload(req Request) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	body := map[string]any{
		"model":      c.cfg.Model,
		"messages":   req.Messages,
		"max_tokens": maxTokens,
	}

	if req.Schema != nil {
		body["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.Schema.Name,
				"schema": req.Schema.Body,
				"strict": true,
			},
		}
	}

	if len(req.Tools) > 0 {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, map[string]any{
				"type":     "function",
				"function": t,
			})
		}
		body["tools"] = tools
		if req.ToolChoice != "" {
			body["tool_choice"] = req.ToolChoice
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding model request: %w", err)
	}
	return payload, nil
}

// truncateBody keeps error payloads readable in logs and messages.
func truncateBody(body []byte) string {
	const max = 300
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
