package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/company-intel/internal/model"
)

// LookupRepository handles persistence of lookup history: one row per query
// attempt, success or failure, carrying the debug snapshot.
type LookupRepository interface {
	Create(ctx context.Context, rec *model.LookupRecord) error
	ListRecent(ctx context.Context, limit int) ([]model.LookupRecord, error)
	Count(ctx context.Context) (int64, error)
	CountSuccessful(ctx context.Context) (int64, error)
	CountByProvider(ctx context.Context, provider model.Provider) (int64, error)
}

type sqliteLookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository creates a new SQLite-backed LookupRepository.
func NewLookupRepository(db *sqlx.DB) LookupRepository {
	return &sqliteLookupRepository{db: db}
}

func (r *sqliteLookupRepository) Create(ctx context.Context, rec *model.LookupRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO lookups (id, company, provider, model, prompt, raw_response, success, error_message, duration_ms)
		VALUES (:id, :company, :provider, :model, :prompt, :raw_response, :success, :error_message, :duration_ms)
	`, rec)
	if err != nil {
		return fmt.Errorf("creating lookup record: %w", err)
	}
	return nil
}

func (r *sqliteLookupRepository) ListRecent(ctx context.Context, limit int) ([]model.LookupRecord, error) {
	var recs []model.LookupRecord
	err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM lookups ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent lookups: %w", err)
	}
	return recs, nil
}

func (r *sqliteLookupRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM lookups")
	return count, err
}

func (r *sqliteLookupRepository) CountSuccessful(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM lookups WHERE success = 1")
	return count, err
}

func (r *sqliteLookupRepository) CountByProvider(ctx context.Context, provider model.Provider) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM lookups WHERE provider = ?", provider)
	return count, err
}
