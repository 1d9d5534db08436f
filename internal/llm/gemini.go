package llm

import "github.com/fleveque/company-intel/internal/model"

// NewGeminiClient creates the Gemini-style adapter. Google's API is reached
// through an OpenAI-compatible AI gateway, so the wire shape is the same
// chat-completions envelope as OpenAI — only the defaults, the provider tag
// and the message layout differ (the gateway expects a user-only message
// array; the system/user split is an OpenAI convention).
func NewGeminiClient(cfg model.ProviderSettings) Client {
	return &openAICompatClient{
		provider:   model.ProviderGemini,
		apiKey:     cfg.APIKey,
		model:      stringOr(cfg.Model, model.DefaultGeminiModel),
		baseURL:    stringOr(cfg.BaseURL, model.DefaultGeminiBaseURL),
		withSystem: false,
		httpClient: newHTTPClient(),
	}
}
