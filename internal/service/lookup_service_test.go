package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fleveque/company-intel/internal/llm"
	"github.com/fleveque/company-intel/internal/model"
	"github.com/fleveque/company-intel/internal/storage"
)

// fakeSettingsRepo serves a fixed settings record, or ErrNotFound when
// nothing has been "saved" yet.
type fakeSettingsRepo struct {
	settings model.Settings
	empty    bool
	saved    *model.Settings
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (model.Settings, error) {
	if f.empty {
		return model.Settings{}, storage.ErrNotFound
	}
	return f.settings, nil
}

func (f *fakeSettingsRepo) Save(ctx context.Context, s model.Settings) error {
	f.saved = &s
	f.settings = s
	f.empty = false
	return nil
}

// memLookupRepo collects history rows in memory.
type memLookupRepo struct {
	recs []model.LookupRecord
}

func (m *memLookupRepo) Create(ctx context.Context, rec *model.LookupRecord) error {
	m.recs = append(m.recs, *rec)
	return nil
}

func (m *memLookupRepo) ListRecent(ctx context.Context, limit int) ([]model.LookupRecord, error) {
	if len(m.recs) > limit {
		return m.recs[:limit], nil
	}
	return m.recs, nil
}

func (m *memLookupRepo) Count(ctx context.Context) (int64, error) { return int64(len(m.recs)), nil }

func (m *memLookupRepo) CountSuccessful(ctx context.Context) (int64, error) {
	var n int64
	for _, r := range m.recs {
		if r.Success {
			n++
		}
	}
	return n, nil
}

func (m *memLookupRepo) CountByProvider(ctx context.Context, p model.Provider) (int64, error) {
	var n int64
	for _, r := range m.recs {
		if r.Provider == p {
			n++
		}
	}
	return n, nil
}

// fakeClient is a canned adapter: one profile or one error, call-counted.
type fakeClient struct {
	provider model.Provider
	profile  *model.CompanyProfile
	err      error
	calls    int
}

func (f *fakeClient) Lookup(ctx context.Context, company string) (*model.CompanyProfile, *model.DebugRecord, error) {
	f.calls++
	debug := &model.DebugRecord{
		ID:          "test-id",
		Provider:    f.provider,
		Model:       "test-model",
		Prompt:      "prompt",
		RawResponse: "{}",
	}
	if f.err != nil {
		return nil, debug, f.err
	}
	return f.profile, debug, nil
}

func (f *fakeClient) ProviderName() model.Provider { return f.provider }
func (f *fakeClient) ModelName() string            { return "test-model" }

func newTestService(t *testing.T, settings model.Settings) (*LookupService, *memLookupRepo, *fakeClient) {
	t.Helper()

	repo := &memLookupRepo{}
	client := &fakeClient{
		profile: &model.CompanyProfile{
			Name:            "Acme",
			Headquarters:    "X",
			Founded:         "1999",
			BusinessRegions: []string{"EU"},
			MainMarkets:     []string{"EU"},
		},
	}

	svc := NewLookupService(&fakeSettingsRepo{settings: settings}, repo, model.DefaultSettings(), 0, zap.NewNop())
	svc.newClient = func(p model.Provider, s model.Settings) llm.Client {
		client.provider = p
		return client
	}
	return svc, repo, client
}

func settingsWithKeys(preferred model.Provider, keys map[model.Provider]string) model.Settings {
	s := model.DefaultSettings()
	s.PreferredProvider = preferred
	s.OpenAI.APIKey = keys[model.ProviderOpenAI]
	s.Anthropic.APIKey = keys[model.ProviderAnthropic]
	s.Gemini.APIKey = keys[model.ProviderGemini]
	return s
}

func TestLookup_NoConfiguredKeys(t *testing.T) {
	svc, _, client := newTestService(t, model.DefaultSettings())

	_, _, err := svc.Lookup(context.Background(), "Acme")
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
	// Fail fast: no adapter call, no network.
	if client.calls != 0 {
		t.Errorf("expected no adapter calls, got %d", client.calls)
	}
}

func TestLookup_UsesPreferredProvider(t *testing.T) {
	settings := settingsWithKeys(model.ProviderAnthropic, map[model.Provider]string{
		model.ProviderOpenAI:    "sk",
		model.ProviderAnthropic: "ak",
	})
	svc, _, _ := newTestService(t, settings)

	_, debug, err := svc.Lookup(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if debug.Provider != model.ProviderAnthropic {
		t.Errorf("expected the preferred provider, got %q", debug.Provider)
	}
}

func TestLookup_FallsBackWhenPreferredHasNoKey(t *testing.T) {
	// Preferred anthropic, but only an OpenAI key: fixed fallback order wins.
	settings := settingsWithKeys(model.ProviderAnthropic, map[model.Provider]string{
		model.ProviderOpenAI: "sk",
	})
	svc, _, _ := newTestService(t, settings)

	_, debug, err := svc.Lookup(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if debug.Provider != model.ProviderOpenAI {
		t.Errorf("expected fallback to openai, got %q", debug.Provider)
	}
}

func TestLookup_PropagatesAdapterFailure(t *testing.T) {
	settings := settingsWithKeys(model.ProviderOpenAI, map[model.Provider]string{
		model.ProviderOpenAI: "sk",
		model.ProviderGemini: "gk",
	})
	svc, repo, client := newTestService(t, settings)
	client.err = errors.New("invalid key")

	_, debug, err := svc.Lookup(context.Background(), "Acme")
	if err == nil || !strings.Contains(err.Error(), "invalid key") {
		t.Fatalf("expected the adapter failure verbatim, got %v", err)
	}
	if debug == nil {
		t.Error("expected the debug record alongside the failure")
	}
	// Single-attempt policy: no second provider is tried.
	if client.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", client.calls)
	}
	// The failed attempt still lands in history.
	if len(repo.recs) != 1 || repo.recs[0].Success {
		t.Errorf("expected one failed history row, got %+v", repo.recs)
	}
}

func TestLookup_RecordsHistoryOnSuccess(t *testing.T) {
	settings := settingsWithKeys(model.ProviderOpenAI, map[model.Provider]string{
		model.ProviderOpenAI: "sk",
	})
	svc, repo, _ := newTestService(t, settings)

	profile, _, err := svc.Lookup(context.Background(), "  Acme  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Acme" {
		t.Errorf("expected the fixture profile, got %+v", profile)
	}

	if len(repo.recs) != 1 {
		t.Fatalf("expected one history row, got %d", len(repo.recs))
	}
	rec := repo.recs[0]
	if !rec.Success || rec.Company != "Acme" || rec.Provider != model.ProviderOpenAI {
		t.Errorf("unexpected history row: %+v", rec)
	}
}

func TestLookupWith_PinsTheProvider(t *testing.T) {
	// Preference says openai, but the pinned provider wins.
	settings := settingsWithKeys(model.ProviderOpenAI, map[model.Provider]string{
		model.ProviderOpenAI: "sk",
		model.ProviderGemini: "gk",
	})
	svc, _, _ := newTestService(t, settings)

	_, debug, err := svc.LookupWith(context.Background(), "Acme", model.ProviderGemini)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if debug.Provider != model.ProviderGemini {
		t.Errorf("expected the pinned provider, got %q", debug.Provider)
	}
}

func TestLookupWith_RejectsUnkeyedProvider(t *testing.T) {
	settings := settingsWithKeys(model.ProviderOpenAI, map[model.Provider]string{
		model.ProviderOpenAI: "sk",
	})
	svc, _, client := newTestService(t, settings)

	_, _, err := svc.LookupWith(context.Background(), "Acme", model.ProviderAnthropic)
	if err == nil || !strings.Contains(err.Error(), "no API key configured") {
		t.Fatalf("expected a missing-key error, got %v", err)
	}
	if client.calls != 0 {
		t.Errorf("expected no adapter calls, got %d", client.calls)
	}
}

func TestLookup_EmptyName(t *testing.T) {
	svc, _, client := newTestService(t, settingsWithKeys(model.ProviderOpenAI, map[model.Provider]string{
		model.ProviderOpenAI: "sk",
	}))

	_, _, err := svc.Lookup(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected an error for an empty name")
	}
	if client.calls != 0 {
		t.Errorf("expected no adapter calls, got %d", client.calls)
	}
}

func TestSettings_BootstrapWhenNothingSaved(t *testing.T) {
	bootstrap := settingsWithKeys(model.ProviderGemini, map[model.Provider]string{
		model.ProviderGemini: "gk",
	})
	svc := NewLookupService(&fakeSettingsRepo{empty: true}, &memLookupRepo{}, bootstrap, 0, zap.NewNop())

	got, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PreferredProvider != model.ProviderGemini || !got.HasKey(model.ProviderGemini) {
		t.Errorf("expected the bootstrap settings, got %+v", got)
	}
}

func TestSaveSettings_RejectsInvalidPreferred(t *testing.T) {
	svc := NewLookupService(&fakeSettingsRepo{empty: true}, &memLookupRepo{}, model.DefaultSettings(), 0, zap.NewNop())

	s := model.DefaultSettings()
	s.PreferredProvider = "chatgpt"
	if err := svc.SaveSettings(context.Background(), s); err == nil {
		t.Fatal("expected an error for an unknown preferred provider")
	}
}

func TestSelectProvider_FixedFallbackOrder(t *testing.T) {
	tests := []struct {
		name     string
		settings model.Settings
		want     model.Provider
	}{
		{
			"preferred wins",
			settingsWithKeys(model.ProviderGemini, map[model.Provider]string{
				model.ProviderOpenAI: "a", model.ProviderGemini: "b",
			}),
			model.ProviderGemini,
		},
		{
			"openai before anthropic",
			settingsWithKeys(model.ProviderGemini, map[model.Provider]string{
				model.ProviderOpenAI: "a", model.ProviderAnthropic: "b",
			}),
			model.ProviderOpenAI,
		},
		{
			"anthropic before gemini",
			settingsWithKeys(model.ProviderOpenAI, map[model.Provider]string{
				model.ProviderAnthropic: "a", model.ProviderGemini: "b",
			}),
			model.ProviderAnthropic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectProvider(tt.settings); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
