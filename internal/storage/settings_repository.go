package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/company-intel/internal/model"
)

// ErrNotFound is returned when a record doesn't exist in the database.
// Go uses sentinel errors (predefined error values) instead of exception types.
// Callers check with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("record not found")

// SettingsRepository persists the single provider-credentials record.
// Go interfaces are implicit — any struct that has these methods satisfies it.
// This makes testing easy: a fixture implementation needs no imports from
// the real one.
type SettingsRepository interface {
	// Get returns the persisted settings record, or ErrNotFound when none
	// has been saved yet (first run).
	Get(ctx context.Context) (model.Settings, error)

	// Save upserts the settings record. This is the only writer: settings
	// change exclusively through an explicit save.
	Save(ctx context.Context, s model.Settings) error
}

// settingsRow is the flat database shape of model.Settings. The nested
// per-provider structs flatten into prefixed columns.
type settingsRow struct {
	ID                int64  `db:"id"`
	OpenAIAPIKey      string `db:"openai_api_key"`
	OpenAIModel       string `db:"openai_model"`
	OpenAIBaseURL     string `db:"openai_base_url"`
	AnthropicAPIKey   string `db:"anthropic_api_key"`
	AnthropicModel    string `db:"anthropic_model"`
	AnthropicBaseURL  string `db:"anthropic_base_url"`
	GeminiAPIKey      string `db:"gemini_api_key"`
	GeminiModel       string `db:"gemini_model"`
	GeminiBaseURL     string `db:"gemini_base_url"`
	PreferredProvider string `db:"preferred_provider"`
}

func (r settingsRow) toModel() model.Settings {
	return model.Settings{
		OpenAI:            model.ProviderSettings{APIKey: r.OpenAIAPIKey, Model: r.OpenAIModel, BaseURL: r.OpenAIBaseURL},
		Anthropic:         model.ProviderSettings{APIKey: r.AnthropicAPIKey, Model: r.AnthropicModel, BaseURL: r.AnthropicBaseURL},
		Gemini:            model.ProviderSettings{APIKey: r.GeminiAPIKey, Model: r.GeminiModel, BaseURL: r.GeminiBaseURL},
		PreferredProvider: model.Provider(r.PreferredProvider),
	}
}

func fromModel(s model.Settings) settingsRow {
	return settingsRow{
		ID:                1,
		OpenAIAPIKey:      s.OpenAI.APIKey,
		OpenAIModel:       s.OpenAI.Model,
		OpenAIBaseURL:     s.OpenAI.BaseURL,
		AnthropicAPIKey:   s.Anthropic.APIKey,
		AnthropicModel:    s.Anthropic.Model,
		AnthropicBaseURL:  s.Anthropic.BaseURL,
		GeminiAPIKey:      s.Gemini.APIKey,
		GeminiModel:       s.Gemini.Model,
		GeminiBaseURL:     s.Gemini.BaseURL,
		PreferredProvider: string(s.PreferredProvider),
	}
}

// sqliteSettingsRepository is the SQLite implementation of SettingsRepository.
// The struct is unexported (lowercase first letter) — only the interface is public.
type sqliteSettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SQLite-backed SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &sqliteSettingsRepository{db: db}
}

func (r *sqliteSettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	var row settingsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, openai_api_key, openai_model, openai_base_url,
		       anthropic_api_key, anthropic_model, anthropic_base_url,
		       gemini_api_key, gemini_model, gemini_base_url,
		       preferred_provider
		FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, ErrNotFound
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("getting settings: %w", err)
	}
	return row.toModel(), nil
}

func (r *sqliteSettingsRepository) Save(ctx context.Context, s model.Settings) error {
	// NamedExecContext uses the struct's `db:` tags to map fields to :named placeholders.
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO settings (
			id, openai_api_key, openai_model, openai_base_url,
			anthropic_api_key, anthropic_model, anthropic_base_url,
			gemini_api_key, gemini_model, gemini_base_url,
			preferred_provider, updated_at
		) VALUES (
			:id, :openai_api_key, :openai_model, :openai_base_url,
			:anthropic_api_key, :anthropic_model, :anthropic_base_url,
			:gemini_api_key, :gemini_model, :gemini_base_url,
			:preferred_provider, CURRENT_TIMESTAMP
		)
		ON CONFLICT(id) DO UPDATE SET
			openai_api_key     = excluded.openai_api_key,
			openai_model       = excluded.openai_model,
			openai_base_url    = excluded.openai_base_url,
			anthropic_api_key  = excluded.anthropic_api_key,
			anthropic_model    = excluded.anthropic_model,
			anthropic_base_url = excluded.anthropic_base_url,
			gemini_api_key     = excluded.gemini_api_key,
			gemini_model       = excluded.gemini_model,
			gemini_base_url    = excluded.gemini_base_url,
			preferred_provider = excluded.preferred_provider,
			updated_at         = CURRENT_TIMESTAMP
	`, fromModel(s))
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
