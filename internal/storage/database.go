// Package storage handles data persistence in SQLite: the settings record
// and the lookup history.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Blank import: registers the SQLite driver.
	// In Go, importing a package for its side effects (init function) is done
	// with `_`. The sqlite3 package registers itself as a database/sql driver.
)

// Schema is embedded directly in the binary — no migration files need to
// exist at runtime.
//
// settings is a single-row table (id is pinned to 1): there is exactly one
// settings record per deployment, saved explicitly through the admin API.
// lookups is append-only history, one row per query attempt.
const schema = `
CREATE TABLE IF NOT EXISTS settings (
    id                 INTEGER PRIMARY KEY CHECK (id = 1),
    openai_api_key     TEXT NOT NULL DEFAULT '',
    openai_model       TEXT NOT NULL DEFAULT '',
    openai_base_url    TEXT NOT NULL DEFAULT '',
    anthropic_api_key  TEXT NOT NULL DEFAULT '',
    anthropic_model    TEXT NOT NULL DEFAULT '',
    anthropic_base_url TEXT NOT NULL DEFAULT '',
    gemini_api_key     TEXT NOT NULL DEFAULT '',
    gemini_model       TEXT NOT NULL DEFAULT '',
    gemini_base_url    TEXT NOT NULL DEFAULT '',
    preferred_provider TEXT NOT NULL DEFAULT 'openai',
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lookups (
    id            TEXT PRIMARY KEY,
    company       TEXT NOT NULL,
    provider      TEXT NOT NULL,
    model         TEXT NOT NULL,
    prompt        TEXT NOT NULL DEFAULT '',
    raw_response  TEXT NOT NULL DEFAULT '',
    success       BOOLEAN NOT NULL DEFAULT 0,
    error_message TEXT,
    duration_ms   INTEGER,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_lookups_company ON lookups(company);
CREATE INDEX IF NOT EXISTS idx_lookups_provider ON lookups(provider);
`

// NewDatabase creates a new SQLite connection and runs migrations.
// sqlx wraps database/sql with convenience methods like StructScan and NamedExec.
//
// Key Go pattern: the constructor creates the resource AND validates it (Ping).
// If anything fails, we return an error — the caller decides what to do.
func NewDatabase(dbPath string) (*sqlx.DB, error) {
	// The DSN (Data Source Name) configures SQLite pragmas:
	// - WAL mode: allows concurrent reads while writing
	// - foreign_keys: enforce referential integrity
	// - busy_timeout: wait up to 5s instead of failing on lock contention
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Ping actually opens the connection (Open is lazy in database/sql)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// SQLite performs best with a single writer connection
	db.SetMaxOpenConns(1)

	// Run migrations
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
