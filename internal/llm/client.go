// Package llm provides a provider-agnostic interface for querying LLM chat
// APIs about companies. Each provider adapter sends one request, captures a
// debug record of the exchange, and normalizes the free-text reply into a
// CompanyProfile.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fleveque/company-intel/internal/model"
)

// lookupTemperature biases providers toward deterministic factual output.
const lookupTemperature = 0.3

// Client is the interface for LLM providers that can look up company data.
// All three adapters (OpenAI, Anthropic, Gemini-via-gateway) implement it,
// so the orchestrator picks one without knowing wire details.
//
// Go interface design tip: keep interfaces small. This has one query method —
// that's ideal. Go proverb: "The bigger the interface, the weaker the abstraction."
type Client interface {
	// Lookup queries the provider for the given company. The DebugRecord is
	// non-nil whenever the attempt reached the network stage, whether or not
	// an error is returned.
	Lookup(ctx context.Context, company string) (*model.CompanyProfile, *model.DebugRecord, error)
	ProviderName() model.Provider
	ModelName() string
}

// newHTTPClient is the shared HTTP client factory for adapters.
// LLM completions are slow; 60s covers the worst case we've seen.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// newDebugRecord starts a debug snapshot for one query attempt.
// The caller fills RawResponse and DurationMs as the attempt progresses.
func newDebugRecord(provider model.Provider, modelName, prompt string) *model.DebugRecord {
	return &model.DebugRecord{
		ID:        uuid.NewString(),
		Provider:  provider,
		Model:     modelName,
		Prompt:    prompt,
		Timestamp: time.Now().UTC(),
	}
}

// prettyJSON re-indents a raw JSON body for the debug record. Non-JSON
// bodies are kept verbatim — a debug record should never lose data.
func prettyJSON(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// errorPayload serializes a transport error for the debug record, used when
// no response body exists to capture.
func errorPayload(err error) string {
	out, merr := json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	if merr != nil {
		return err.Error()
	}
	return string(out)
}

// apiErrorMessage extracts a human-readable message from a provider error
// body. Both the OpenAI and Anthropic families use {"error":{"message":...}};
// some gateways flatten it to {"message":...}. Falls back to the HTTP status
// text when the body gives us nothing.
func apiErrorMessage(body []byte, statusCode int) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
}
