package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fleveque/company-intel/internal/model"
)

// anthropicVersion is the API version header Anthropic requires on every call.
const anthropicVersion = "2023-06-01"

// anthropicMaxTokens caps the reply length. The JSON we ask for fits
// comfortably; the cap keeps a rambling model from burning tokens.
const anthropicMaxTokens = 1000

// anthropicRequest is the payload for POST {base}/messages. Unlike the
// OpenAI shape there is no system role in the messages array, and max_tokens
// is mandatory.
type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// anthropicResponse is the subset of the response we care about: the reply
// text lives at content[0].text.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// AnthropicClient implements Client against the Anthropic messages API.
// Auth is an x-api-key header plus a version header, not a Bearer token.
type AnthropicClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicClient creates the Anthropic-style adapter. Empty model or
// base URL fall back to the provider defaults.
func NewAnthropicClient(cfg model.ProviderSettings) *AnthropicClient {
	return &AnthropicClient{
		apiKey:     cfg.APIKey,
		model:      stringOr(cfg.Model, model.DefaultAnthropicModel),
		baseURL:    stringOr(cfg.BaseURL, model.DefaultAnthropicBaseURL),
		httpClient: newHTTPClient(),
	}
}

func (a *AnthropicClient) ProviderName() model.Provider { return model.ProviderAnthropic }
func (a *AnthropicClient) ModelName() string            { return a.model }

// Lookup sends one messages request and normalizes the reply. Same failure
// taxonomy as the OpenAI adapter: transport, provider, extraction, parse.
func (a *AnthropicClient) Lookup(ctx context.Context, company string) (*model.CompanyProfile, *model.DebugRecord, error) {
	prompt := BuildPrompt(company)
	debug := newDebugRecord(model.ProviderAnthropic, a.model, prompt)
	start := time.Now()

	body, err := json.Marshal(anthropicRequest{
		Model:       a.model,
		MaxTokens:   anthropicMaxTokens,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: lookupTemperature,
	})
	if err != nil {
		debug.RawResponse = errorPayload(err)
		return nil, debug, fmt.Errorf("marshaling anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		debug.RawResponse = errorPayload(err)
		return nil, debug, fmt.Errorf("creating anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		debug.RawResponse = errorPayload(err)
		debug.DurationMs = time.Since(start).Milliseconds()
		return nil, debug, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	debug.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		debug.RawResponse = errorPayload(err)
		return nil, debug, fmt.Errorf("reading anthropic response: %w", err)
	}
	debug.RawResponse = prettyJSON(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, debug, errors.New(apiErrorMessage(raw, resp.StatusCode))
	}

	var payload anthropicResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, debug, fmt.Errorf("decoding anthropic response: %w", err)
	}

	var content string
	if len(payload.Content) > 0 {
		content = payload.Content[0].Text
	}
	if content == "" {
		return nil, debug, fmt.Errorf("Empty response from %s", model.ProviderAnthropic)
	}

	profile, err := Normalize(content, company)
	if err != nil {
		return nil, debug, err
	}
	return profile, debug, nil
}
