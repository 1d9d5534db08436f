// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults — merged in priority order.
// Go convention: configuration is loaded into structs, not accessed as raw key-value pairs.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fleveque/company-intel/internal/model"
)

// Config is the root configuration struct. Nested structs organize related settings.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type AuthConfig struct {
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig holds the bootstrap credentials for each provider. These are the
// first-run values: once a settings record has been saved through the admin
// API, the persisted record wins over this block.
type LLMConfig struct {
	// PreferredProvider selects the default adapter when more than one
	// provider has a key: "openai", "anthropic" or "gemini".
	PreferredProvider string         `mapstructure:"preferred_provider"`
	OpenAI            ProviderConfig `mapstructure:"openai"`
	Anthropic         ProviderConfig `mapstructure:"anthropic"`
	Gemini            ProviderConfig `mapstructure:"gemini"`
	RatePerMinute     int            `mapstructure:"rate_per_minute"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
// In Go, functions return errors as the last return value — callers must check them.
// This pattern replaces try/catch: if err != nil { handle it }.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults — these apply when neither file nor env provides a value
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/company-intel.db")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("llm.preferred_provider", string(model.ProviderOpenAI))
	v.SetDefault("llm.openai.model", model.DefaultOpenAIModel)
	v.SetDefault("llm.openai.base_url", model.DefaultOpenAIBaseURL)
	v.SetDefault("llm.anthropic.model", model.DefaultAnthropicModel)
	v.SetDefault("llm.anthropic.base_url", model.DefaultAnthropicBaseURL)
	v.SetDefault("llm.gemini.model", model.DefaultGeminiModel)
	v.SetDefault("llm.gemini.base_url", model.DefaultGeminiBaseURL)
	v.SetDefault("llm.rate_per_minute", 10)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")

	// Read from YAML config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found" — defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// INTEL_ prefix + nested keys: INTEL_LLM_OPENAI_API_KEY=sk-... → llm.openai.api_key
	v.SetEnvPrefix("INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into our Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if !model.ValidProvider(cfg.LLM.PreferredProvider) {
		return nil, fmt.Errorf("invalid llm.preferred_provider: %q", cfg.LLM.PreferredProvider)
	}

	return &cfg, nil
}

// Settings builds the bootstrap settings record from the config block,
// filling empty models and base URLs with the provider defaults. Used on
// first run, before any settings record has been persisted.
func (c *Config) Settings() model.Settings {
	s := model.DefaultSettings()
	s.PreferredProvider = model.Provider(c.LLM.PreferredProvider)

	apply := func(dst *model.ProviderSettings, src ProviderConfig) {
		dst.APIKey = src.APIKey
		if src.Model != "" {
			dst.Model = src.Model
		}
		if src.BaseURL != "" {
			dst.BaseURL = src.BaseURL
		}
	}
	apply(&s.OpenAI, c.LLM.OpenAI)
	apply(&s.Anthropic, c.LLM.Anthropic)
	apply(&s.Gemini, c.LLM.Gemini)

	return s
}

// Address returns the listen address string like "0.0.0.0:8080".
// This is a method on ServerConfig — Go attaches methods to types via receiver syntax.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
