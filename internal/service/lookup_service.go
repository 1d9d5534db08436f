// Package service contains the core business logic: the lookup pipeline.
// LookupService orchestrates one query attempt end to end:
//
//	settings → provider selection → adapter call → normalized profile
//
// plus the bookkeeping around it (rate limiting, history recording).
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/company-intel/internal/llm"
	"github.com/fleveque/company-intel/internal/model"
	"github.com/fleveque/company-intel/internal/storage"
)

// ErrNoProvider is the configuration error: no provider has an API key, so
// no lookup can be attempted. Surfaced verbatim to the user.
var ErrNoProvider = errors.New("no LLM provider configured: add an API key for OpenAI, Anthropic or Gemini in settings")

// clientFactory builds an adapter for a provider from a settings snapshot.
// It's a field on the service so tests can substitute fixture adapters.
type clientFactory func(p model.Provider, s model.Settings) llm.Client

// LookupService is the main entry point for company lookups.
type LookupService struct {
	settingsRepo storage.SettingsRepository
	lookupRepo   storage.LookupRepository
	bootstrap    model.Settings // config-supplied settings, used until a record is saved
	limiter      *rate.Limiter
	newClient    clientFactory
	logger       *zap.Logger
}

// NewLookupService creates a service with all pipeline pieces wired up.
// ratePerMinute caps outbound LLM calls; zero or negative disables the cap.
func NewLookupService(
	settingsRepo storage.SettingsRepository,
	lookupRepo storage.LookupRepository,
	bootstrap model.Settings,
	ratePerMinute int,
	logger *zap.Logger,
) *LookupService {
	limit := rate.Inf
	if ratePerMinute > 0 {
		// rate.Every returns a rate.Limit from the interval between events.
		limit = rate.Every(time.Minute / time.Duration(ratePerMinute))
	}

	return &LookupService{
		settingsRepo: settingsRepo,
		lookupRepo:   lookupRepo,
		bootstrap:    bootstrap,
		limiter:      rate.NewLimiter(limit, 1), // burst of 1 — strict limiting
		newClient:    defaultClientFactory,
		logger:       logger,
	}
}

func defaultClientFactory(p model.Provider, s model.Settings) llm.Client {
	switch p {
	case model.ProviderAnthropic:
		return llm.NewAnthropicClient(s.Anthropic)
	case model.ProviderGemini:
		return llm.NewGeminiClient(s.Gemini)
	default:
		return llm.NewOpenAIClient(s.OpenAI)
	}
}

// Settings returns the active settings: the persisted record when one has
// been saved, otherwise the config-supplied bootstrap values.
func (s *LookupService) Settings(ctx context.Context) (model.Settings, error) {
	saved, err := s.settingsRepo.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return s.bootstrap, nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	return saved, nil
}

// SaveSettings validates and persists a settings record. This is the only
// mutation path: lookups always read a fresh snapshot, never write.
func (s *LookupService) SaveSettings(ctx context.Context, settings model.Settings) error {
	if !model.ValidProvider(string(settings.PreferredProvider)) {
		return fmt.Errorf("invalid preferred provider: %q", settings.PreferredProvider)
	}
	return s.settingsRepo.Save(ctx, settings)
}

// Lookup runs one query attempt for a company name. Selection policy:
//  1. Fail immediately when no provider has a key (no HTTP call is made).
//  2. Use the preferred provider when it has a key.
//  3. Otherwise fall back in fixed order OpenAI → Anthropic → Gemini.
//  4. Invoke exactly one adapter; its failure is the lookup's failure.
//     No second provider is tried — a bad reply should be visible, not
//     papered over by a different model's answer.
//
// The returned DebugRecord is non-nil whenever the attempt reached the
// network, on success and failure alike.
func (s *LookupService) Lookup(ctx context.Context, company string) (*model.CompanyProfile, *model.DebugRecord, error) {
	return s.lookup(ctx, company, "")
}

// LookupWith runs one query attempt pinned to a specific provider,
// bypassing the selection policy. Used by the CLI's --provider flag. The
// pinned provider must have an API key.
func (s *LookupService) LookupWith(ctx context.Context, company string, provider model.Provider) (*model.CompanyProfile, *model.DebugRecord, error) {
	if !model.ValidProvider(string(provider)) {
		return nil, nil, fmt.Errorf("invalid provider: %q", provider)
	}
	return s.lookup(ctx, company, provider)
}

func (s *LookupService) lookup(ctx context.Context, company string, pinned model.Provider) (*model.CompanyProfile, *model.DebugRecord, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, nil, errors.New("company name is required")
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	var provider model.Provider
	if pinned != "" {
		if !settings.HasKey(pinned) {
			return nil, nil, fmt.Errorf("no API key configured for %s", pinned)
		}
		provider = pinned
	} else {
		if !settings.Configured() {
			return nil, nil, ErrNoProvider
		}
		provider = selectProvider(settings)
	}

	client := s.newClient(provider, settings)

	// Rate limit — blocks until a token is available or the context is done.
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	s.logger.Info("looking up company",
		zap.String("company", company),
		zap.String("provider", string(provider)),
		zap.String("model", client.ModelName()),
	)

	profile, debug, err := client.Lookup(ctx, company)
	s.recordAttempt(ctx, company, client, debug, err)

	if err != nil {
		s.logger.Warn("lookup failed",
			zap.String("company", company),
			zap.String("provider", string(provider)),
			zap.Error(err),
		)
		return nil, debug, err
	}

	return profile, debug, nil
}

// selectProvider applies the selection policy to a settings snapshot that is
// known to have at least one key.
func selectProvider(s model.Settings) model.Provider {
	if s.HasKey(s.PreferredProvider) {
		return s.PreferredProvider
	}
	for _, p := range model.FallbackOrder {
		if s.HasKey(p) {
			return p
		}
	}
	// Unreachable when Configured() held; keep the zero-risk default.
	return model.ProviderOpenAI
}

// recordAttempt persists the debug snapshot as lookup history. Best effort:
// a history write failure is logged, never surfaced to the caller.
func (s *LookupService) recordAttempt(ctx context.Context, company string, client llm.Client, debug *model.DebugRecord, lookupErr error) {
	if debug == nil {
		// The attempt never reached the network (e.g. request construction
		// failed before a debug record existed). Nothing to record.
		return
	}

	rec := &model.LookupRecord{
		ID:          debug.ID,
		Company:     company,
		Provider:    client.ProviderName(),
		Model:       client.ModelName(),
		Prompt:      debug.Prompt,
		RawResponse: debug.RawResponse,
		Success:     lookupErr == nil,
	}
	rec.DurationMs = &debug.DurationMs
	if lookupErr != nil {
		msg := lookupErr.Error()
		rec.ErrorMessage = &msg
	}

	if err := s.lookupRepo.Create(ctx, rec); err != nil {
		s.logger.Error("recording lookup attempt", zap.Error(err))
	}
}

// ValidateKey pings a provider with the active settings to check its
// credentials. Used by the admin API and the CLI, never by Lookup.
func (s *LookupService) ValidateKey(ctx context.Context, provider model.Provider) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	return llm.ValidateKey(ctx, provider, settings)
}
