// Package main provides the CLI tool for the company-intel service.
// Uses Cobra for command parsing — Cobra is the standard Go CLI framework
// (used by kubectl, docker, hugo, and many others).
//
// Run with: go run ./cmd/cli lookup "Acme Corp"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/company-intel/internal/config"
	"github.com/fleveque/company-intel/internal/model"
	"github.com/fleveque/company-intel/internal/service"
	"github.com/fleveque/company-intel/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd creates the root command. Cobra builds a tree of commands:
// intel-cli lookup "Acme Corp" --debug
// intel-cli settings prefer anthropic
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "intel-cli",
		Short: "Company intel CLI tools",
	}

	root.AddCommand(lookupCmd())
	root.AddCommand(validateKeysCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(settingsCmd())
	return root
}

// env bundles everything a command needs. Each command opens its own env
// and closes it when done.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     interface{ Close() error }
	svc    *service.LookupService
	repo   storage.LookupRepository
}

func (e *env) close() {
	_ = e.logger.Sync()
	_ = e.db.Close()
}

func openEnv() (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("INTEL_CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Always use development mode for CLI output
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	lookupRepo := storage.NewLookupRepository(db)
	svc := service.NewLookupService(
		storage.NewSettingsRepository(db),
		lookupRepo,
		cfg.Settings(),
		cfg.LLM.RatePerMinute,
		logger,
	)

	return &env{cfg: cfg, logger: logger, db: db, svc: svc, repo: lookupRepo}, nil
}

// signalContext returns a context cancelled by Ctrl+C, so a hanging LLM
// call can be interrupted cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func lookupCmd() *cobra.Command {
	var debug bool
	var provider string

	cmd := &cobra.Command{
		Use:   "lookup <company>",
		Short: "Look up company data via the configured LLM provider",
		Args:  cobra.ExactArgs(1),
		// RunE returns an error (vs Run which doesn't). Cobra prints the error automatically.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(args[0], provider, debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Print the debug record (prompt + raw response)")
	cmd.Flags().StringVar(&provider, "provider", "", "Pin the lookup to one provider (openai, anthropic or gemini)")
	return cmd
}

func runLookup(company, provider string, debug bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()

	var profile *model.CompanyProfile
	var rec *model.DebugRecord
	if provider != "" {
		profile, rec, err = e.svc.LookupWith(ctx, company, model.Provider(provider))
	} else {
		profile, rec, err = e.svc.Lookup(ctx, company)
	}
	if debug && rec != nil {
		fmt.Fprintf(os.Stderr, "--- debug [%s / %s] ---\n%s\n---\n", rec.Provider, rec.Model, rec.RawResponse)
	}
	if err != nil {
		return err
	}

	return printJSON(profile)
}

func validateKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-keys",
		Short: "Ping each configured provider to check its API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateKeys()
		},
	}
}

func runValidateKeys() error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()

	settings, err := e.svc.Settings(ctx)
	if err != nil {
		return err
	}

	var failures int
	for _, p := range model.FallbackOrder {
		if !settings.HasKey(p) {
			fmt.Printf("%-10s not configured\n", p)
			continue
		}
		if err := e.svc.ValidateKey(ctx, p); err != nil {
			failures++
			fmt.Printf("%-10s INVALID: %v\n", p, err)
			continue
		}
		fmt.Printf("%-10s ok\n", p)
	}

	if failures > 0 {
		return fmt.Errorf("%d provider key(s) failed validation", failures)
	}
	return nil
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lookup attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of attempts to show")
	return cmd
}

func runHistory(limit int) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()

	recs, err := e.repo.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	for _, r := range recs {
		status := "ok"
		if !r.Success {
			status = "FAILED"
			if r.ErrorMessage != nil {
				status += ": " + *r.ErrorMessage
			}
		}
		fmt.Printf("%s  %-20s %-10s %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"), truncate(r.Company, 20), r.Provider, status)
	}
	return nil
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and modify provider settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active settings record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prefer <provider>",
		Short: "Set the preferred provider (openai, anthropic or gemini)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsPrefer(args[0])
		},
	})

	return cmd
}

func runSettingsShow() error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()

	settings, err := e.svc.Settings(ctx)
	if err != nil {
		return err
	}

	// Don't print full keys to the terminal; the record is for inspection.
	settings.OpenAI.APIKey = maskKey(settings.OpenAI.APIKey)
	settings.Anthropic.APIKey = maskKey(settings.Anthropic.APIKey)
	settings.Gemini.APIKey = maskKey(settings.Gemini.APIKey)

	return printJSON(settings)
}

func runSettingsPrefer(provider string) error {
	if !model.ValidProvider(provider) {
		return fmt.Errorf("invalid provider %q: must be openai, anthropic or gemini", provider)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()

	settings, err := e.svc.Settings(ctx)
	if err != nil {
		return err
	}

	settings.PreferredProvider = model.Provider(provider)
	if err := e.svc.SaveSettings(ctx, settings); err != nil {
		return err
	}

	fmt.Printf("preferred provider set to %s\n", provider)
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 4) + key[len(key)-4:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
