package llm

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fleveque/company-intel/internal/model"
)

// chatReply builds a minimal OpenAI-style completion body around the given
// assistant text.
func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestOpenAIClient_SuccessfulLookup(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(bareObject)))
	}))
	defer ts.Close()

	client := NewOpenAIClient(model.ProviderSettings{APIKey: "sk-test", BaseURL: ts.URL})

	profile, debug, err := client.Lookup(t.Context(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Acme" {
		t.Errorf("expected profile name Acme, got %q", profile.Name)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("expected /chat/completions, got %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}

	// The request must be a system+user pair at temperature 0.3 with the
	// default model when none is configured.
	var req chatCompletionRequest
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("decoding captured request: %v", err)
	}
	if req.Model != model.DefaultOpenAIModel {
		t.Errorf("expected default model, got %q", req.Model)
	}
	if req.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("expected system+user messages, got %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "Acme") {
		t.Error("expected the prompt to mention the company")
	}

	if debug == nil {
		t.Fatal("expected a debug record on success")
	}
	if debug.Provider != model.ProviderOpenAI {
		t.Errorf("expected provider tag openai, got %q", debug.Provider)
	}
	if debug.Prompt != BuildPrompt("Acme") {
		t.Error("expected the debug record to carry the exact prompt")
	}
	if !strings.Contains(debug.RawResponse, "choices") {
		t.Error("expected the debug record to carry the raw body")
	}
}

func TestOpenAIClient_ProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer ts.Close()

	client := NewOpenAIClient(model.ProviderSettings{APIKey: "bad", BaseURL: ts.URL})

	_, debug, err := client.Lookup(t.Context(), "Acme")
	if err == nil {
		t.Fatal("expected an error for a 401 response")
	}
	if !strings.Contains(err.Error(), "invalid key") {
		t.Errorf("expected the provider's own message, got %v", err)
	}
	if debug == nil || !strings.Contains(debug.RawResponse, "invalid key") {
		t.Error("expected the debug record to carry the error body")
	}
}

func TestOpenAIClient_ErrorWithoutMessageFallsBackToStatusText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`not even json`))
	}))
	defer ts.Close()

	client := NewOpenAIClient(model.ProviderSettings{APIKey: "k", BaseURL: ts.URL})

	_, _, err := client.Lookup(t.Context(), "Acme")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Internal Server Error") {
		t.Errorf("expected HTTP status text fallback, got %v", err)
	}
}

func TestOpenAIClient_EmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	client := NewOpenAIClient(model.ProviderSettings{APIKey: "k", BaseURL: ts.URL})

	_, _, err := client.Lookup(t.Context(), "Acme")
	if err == nil {
		t.Fatal("expected an error for an empty reply")
	}
	if !strings.Contains(err.Error(), "Empty response from openai") {
		t.Errorf("expected the extraction error, got %v", err)
	}
}

func TestOpenAIClient_FencedReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("Here you go:\n```json\n" + bareObject + "\n```")))
	}))
	defer ts.Close()

	client := NewOpenAIClient(model.ProviderSettings{APIKey: "k", BaseURL: ts.URL})

	profile, _, err := client.Lookup(t.Context(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Headquarters != "X" {
		t.Errorf("expected the fenced JSON parsed, got %+v", profile)
	}
}

func TestOpenAIClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // close immediately: every request now fails at the transport

	client := NewOpenAIClient(model.ProviderSettings{APIKey: "k", BaseURL: ts.URL})

	_, debug, err := client.Lookup(t.Context(), "Acme")
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Errorf("expected a transport failure message, got %v", err)
	}
	// The debug record still exists, with a serialized error payload in
	// place of a response body.
	if debug == nil {
		t.Fatal("expected a debug record for a transport failure")
	}
	if !strings.Contains(debug.RawResponse, "error") {
		t.Errorf("expected an error payload in the debug record, got %q", debug.RawResponse)
	}
}
