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

// chatMessage is one entry of an OpenAI-style messages array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the payload for POST {base}/chat/completions.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatCompletionResponse is the subset of the response we care about.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// systemInstruction primes OpenAI-style models before the lookup prompt.
const systemInstruction = "You are a company research assistant. You answer with factual, verifiable company data in the exact JSON shape requested, with no surrounding prose."

// openAICompatClient implements Client against any OpenAI-compatible
// chat-completions endpoint. The OpenAI adapter uses it directly; the
// Gemini adapter reuses it through an AI gateway (see gemini.go).
type openAICompatClient struct {
	provider   model.Provider
	apiKey     string
	model      string
	baseURL    string
	withSystem bool // OpenAI gets a system+user pair; the gateway gets user-only
	httpClient *http.Client
}

// NewOpenAIClient creates the OpenAI-style adapter. Empty model or base URL
// fall back to the provider defaults.
func NewOpenAIClient(cfg model.ProviderSettings) Client {
	return &openAICompatClient{
		provider:   model.ProviderOpenAI,
		apiKey:     cfg.APIKey,
		model:      stringOr(cfg.Model, model.DefaultOpenAIModel),
		baseURL:    stringOr(cfg.BaseURL, model.DefaultOpenAIBaseURL),
		withSystem: true,
		httpClient: newHTTPClient(),
	}
}

func (c *openAICompatClient) ProviderName() model.Provider { return c.provider }
func (c *openAICompatClient) ModelName() string            { return c.model }

// Lookup sends one chat completion request and normalizes the reply.
// Failure taxonomy, in the order it can occur: transport error, provider
// error (non-2xx), extraction error (no content), parse error (content not
// coercible to the schema). All are terminal — no retries.
func (c *openAICompatClient) Lookup(ctx context.Context, company string) (*model.CompanyProfile, *model.DebugRecord, error) {
	prompt := BuildPrompt(company)
	debug := newDebugRecord(c.provider, c.model, prompt)
	start := time.Now()

	var messages []chatMessage
	if c.withSystem {
		messages = append(messages, chatMessage{Role: "system", Content: systemInstruction})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: lookupTemperature,
	})
	if err != nil {
		debug.RawResponse = errorPayload(err)
		return nil, debug, fmt.Errorf("marshaling %s request: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		debug.RawResponse = errorPayload(err)
		return nil, debug, fmt.Errorf("creating %s request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		debug.RawResponse = errorPayload(err)
		debug.DurationMs = time.Since(start).Milliseconds()
		return nil, debug, fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	debug.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		debug.RawResponse = errorPayload(err)
		return nil, debug, fmt.Errorf("reading %s response: %w", c.provider, err)
	}
	debug.RawResponse = prettyJSON(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, debug, errors.New(apiErrorMessage(raw, resp.StatusCode))
	}

	var payload chatCompletionResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, debug, fmt.Errorf("decoding %s response: %w", c.provider, err)
	}

	var content string
	if len(payload.Choices) > 0 {
		content = payload.Choices[0].Message.Content
	}
	if content == "" {
		return nil, debug, fmt.Errorf("Empty response from %s", c.provider)
	}

	profile, err := Normalize(content, company)
	if err != nil {
		return nil, debug, err
	}
	return profile, debug, nil
}

// stringOr returns s, or fallback when s is empty.
func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
