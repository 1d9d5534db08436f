package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/fleveque/company-intel/internal/model"
)

// ValidateKey pings a provider with the configured credentials to check the
// API key actually works, without running a full lookup. OpenAI and the
// Gemini gateway speak the OpenAI API, so the official SDK covers both with
// a models listing (cheapest authenticated call). Anthropic has no free
// ping, so we send a one-token message through its SDK.
func ValidateKey(ctx context.Context, provider model.Provider, settings model.Settings) error {
	cfg := settings.ForProvider(provider)
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key configured for %s", provider)
	}

	switch provider {
	case model.ProviderOpenAI, model.ProviderGemini:
		return validateOpenAICompat(ctx, cfg)
	case model.ProviderAnthropic:
		return validateAnthropic(ctx, cfg)
	default:
		return fmt.Errorf("unknown provider: %s", provider)
	}
}

func validateOpenAICompat(ctx context.Context, cfg model.ProviderSettings) error {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	if _, err := client.ListModels(ctx); err != nil {
		return fmt.Errorf("key validation failed: %w", err)
	}
	return nil
}

func validateAnthropic(ctx context.Context, cfg model.ProviderSettings) error {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	// Our stored base URL includes the /v1 prefix (the raw adapter appends
	// /messages to it); the SDK adds /v1 itself, so strip it here.
	if base := strings.TrimSuffix(cfg.BaseURL, "/v1"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	client := anthropic.NewClient(opts...)

	_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(stringOr(cfg.Model, model.DefaultAnthropicModel)),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("key validation failed: %w", err)
	}
	return nil
}
