// Package model defines the core data types for the company intel service.
// In Go, we use structs instead of classes. Struct tags (the `json:"..."` and
// `db:"..."` annotations) tell serialization libraries how to map fields.
package model

import "time"

// Provider identifies an LLM provider backend.
// Go doesn't have enums — we use typed string constants instead.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// FallbackOrder is the fixed priority used when the preferred provider has
// no API key configured: first provider in this list with a key wins.
var FallbackOrder = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// ValidProvider checks if a string names a known provider.
func ValidProvider(s string) bool {
	switch Provider(s) {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	default:
		return false
	}
}

// Per-provider defaults, applied when the settings record leaves the model
// or base URL empty. The Gemini default goes through an OpenAI-compatible
// gateway, hence the vendor-prefixed model identifier.
const (
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	DefaultAnthropicModel   = "claude-2"
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

	DefaultGeminiModel   = "google:gemini-1.5-flash"
	DefaultGeminiBaseURL = "https://ai-gateway.vercel.sh/v1"
)

// Fallback values substituted during normalization when a provider reply
// omits a mandatory field or gives it the wrong shape.
const (
	FieldUnavailable = "Unavailable"
	RegionGlobal     = "Global"
)

// CompanyProfile is the normalized result of a lookup. After normalization
// every field except AdditionalInfo is guaranteed non-empty: Name falls back
// to the original query, the string fields to "Unavailable", and the two
// slice fields to ["Global"].
type CompanyProfile struct {
	Name            string   `json:"name"`
	Headquarters    string   `json:"headquarters"`
	Founded         string   `json:"founded"`
	BusinessRegions []string `json:"businessRegions"`
	MainMarkets     []string `json:"mainMarkets"`
	AdditionalInfo  string   `json:"additionalInfo,omitempty"`
}

// DebugRecord is a diagnostic snapshot of one query attempt. It is created
// once per attempt and never mutated afterwards. RawResponse holds the
// pretty-printed response body on any attempt that reached the network, or
// a serialized error payload when the transport itself failed.
type DebugRecord struct {
	ID          string    `json:"id"`
	Provider    Provider  `json:"provider"`
	Model       string    `json:"model"`
	Prompt      string    `json:"prompt"`
	RawResponse string    `json:"rawResponse"`
	Timestamp   time.Time `json:"timestamp"`
	DurationMs  int64     `json:"durationMs"`
}

// LookupResult is the tagged outcome of a lookup: either Data is set and
// Success is true, or Error carries a human-readable message. Debug is
// present whenever the attempt reached the network stage.
type LookupResult struct {
	Success bool            `json:"success"`
	Data    *CompanyProfile `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Debug   *DebugRecord    `json:"debug,omitempty"`
}

// ProviderSettings holds the credentials for a single provider. An empty
// APIKey means "not configured" — the orchestrator skips the provider.
type ProviderSettings struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// Settings is the full per-user configuration record: one credentials block
// per provider plus the preferred-provider selector. Loaded from storage at
// session start, mutated only through the settings API, persisted on
// explicit save.
type Settings struct {
	OpenAI            ProviderSettings `json:"openai"`
	Anthropic         ProviderSettings `json:"anthropic"`
	Gemini            ProviderSettings `json:"gemini"`
	PreferredProvider Provider         `json:"preferred_provider"`
}

// DefaultSettings returns a settings record with every model and base URL
// at its provider default and no API keys configured.
func DefaultSettings() Settings {
	return Settings{
		OpenAI:            ProviderSettings{Model: DefaultOpenAIModel, BaseURL: DefaultOpenAIBaseURL},
		Anthropic:         ProviderSettings{Model: DefaultAnthropicModel, BaseURL: DefaultAnthropicBaseURL},
		Gemini:            ProviderSettings{Model: DefaultGeminiModel, BaseURL: DefaultGeminiBaseURL},
		PreferredProvider: ProviderOpenAI,
	}
}

// ForProvider returns the credentials block for the given provider.
func (s Settings) ForProvider(p Provider) ProviderSettings {
	switch p {
	case ProviderOpenAI:
		return s.OpenAI
	case ProviderAnthropic:
		return s.Anthropic
	case ProviderGemini:
		return s.Gemini
	default:
		return ProviderSettings{}
	}
}

// HasKey reports whether the given provider has a non-empty API key.
func (s Settings) HasKey(p Provider) bool {
	return s.ForProvider(p).APIKey != ""
}

// Configured reports whether at least one provider has an API key.
func (s Settings) Configured() bool {
	for _, p := range FallbackOrder {
		if s.HasKey(p) {
			return true
		}
	}
	return false
}

// LookupRecord is one row of lookup history: the persisted form of a
// DebugRecord plus the outcome. Each field has two tags:
//   - `db:"column_name"` — used by sqlx to scan database rows
//   - `json:"field_name"` — used for JSON serialization (API responses)
type LookupRecord struct {
	ID           string    `db:"id" json:"id"`
	Company      string    `db:"company" json:"company"`
	Provider     Provider  `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Prompt       string    `db:"prompt" json:"prompt"`
	RawResponse  string    `db:"raw_response" json:"raw_response"`
	Success      bool      `db:"success" json:"success"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs   *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
