// Package config loads mailwright configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. a YAML file (default: $XDG_CONFIG_HOME/mailwright/config.yaml)
//  3. settings stored in the local database (see the settings command)
//  4. a .env file and the process environment
//
// The result is validated before use.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/mailwright/internal/compose"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/logging"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

type Config struct {
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Compose ComposeConfig `yaml:"compose"`
	Triage  TriageConfig  `yaml:"triage"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type OpenAIConfig struct {
	APIKey            string        `yaml:"api_key" validate:"omitempty,startswith=sk-"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	Model             string        `yaml:"model" validate:"required"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries        uint          `yaml:"max_retries" validate:"lte=10"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gte=0"`
}

// ComposeConfig holds the writing preferences.
type ComposeConfig struct {
	DefaultTone      string        `yaml:"default_tone" validate:"required"`
	AutoGrammarCheck bool          `yaml:"auto_grammar_check"`
	ShowSuggestions  bool          `yaml:"show_suggestions"`
	Debounce         time.Duration `yaml:"debounce" validate:"gt=0"`
	MinCheckLength   int           `yaml:"min_check_length" validate:"gte=0"`
	MaxDrafts        int           `yaml:"max_drafts" validate:"gte=1"`
	DraftIdleTimeout time.Duration `yaml:"draft_idle_timeout" validate:"gt=0"`
}

type TriageConfig struct {
	CacheTTL    time.Duration `yaml:"cache_ttl" validate:"gt=0"`
	MaxResults  int64         `yaml:"max_results" validate:"min=1,max=500"`
	DetailLimit int           `yaml:"detail_limit" validate:"min=1,max=100"`
	Concurrency int           `yaml:"concurrency" validate:"min=1,max=20"`
}

type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model:             llm.DefaultModel,
			Timeout:           llm.DefaultTimeout,
			MaxRetries:        llm.DefaultMaxRetries,
			RequestsPerMinute: llm.DefaultRequestsPerMinute,
		},
		Compose: ComposeConfig{
			DefaultTone:      llm.DefaultTone,
			AutoGrammarCheck: true,
			ShowSuggestions:  true,
			Debounce:         500 * time.Millisecond,
			MinCheckLength:   10,
			MaxDrafts:        compose.DefaultMaxDrafts,
			DraftIdleTimeout: compose.DefaultDraftIdleTimeout,
		},
		Triage: TriageConfig{
			CacheTTL:    30 * time.Minute,
			MaxResults:  50,
			DetailLimit: 20,
			Concurrency: 5,
		},
		Storage: StorageConfig{Path: sqlite.DefaultPath()},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultFile returns the default YAML config path.
func DefaultFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".config", "mailwright", "config.yaml")
	}
	return filepath.Join(dir, "mailwright", "config.yaml")
}

// SettingsSource provides stored settings. *sqlite.Store implements it.
type SettingsSource interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// LoadOptions controls Load.
type LoadOptions struct {
	// File is a YAML config file. An explicitly named file must exist;
	// when empty, DefaultFile is read if present.
	File string
	// EnvFile is loaded into the environment if present (default ".env").
	EnvFile string
	// Settings, if set, overrides file values with stored settings.
	Settings SettingsSource
}

// Load builds a Config from all layers and validates it.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg := Default()

	file, required := opts.File, true
	if file == "" {
		file, required = DefaultFile(), false
	}
	if err := cfg.loadFile(file, required); err != nil {
		return nil, err
	}

	if opts.Settings != nil {
		if err := cfg.applySettings(ctx, opts.Settings); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applySettings(ctx context.Context, src SettingsSource) error {
	get := func(key string) (string, bool, error) {
		v, err := src.GetSetting(ctx, key)
		if errors.Is(err, sqlite.ErrNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	}

	if v, ok, err := get(sqlite.KeyOpenAIAPIKey); err != nil {
		return err
	} else if ok {
		c.OpenAI.APIKey = v
	}
	if v, ok, err := get(sqlite.KeyDefaultTone); err != nil {
		return err
	} else if ok {
		c.Compose.DefaultTone = v
	}
	for key, dst := range map[string]*bool{
		sqlite.KeyAutoGrammarCheck: &c.Compose.AutoGrammarCheck,
		sqlite.KeyShowSuggestions:  &c.Compose.ShowSuggestions,
	} {
		v, ok, err := get(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("stored setting %s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("OPENAI_API_KEY", &c.OpenAI.APIKey)
	setString("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	setString("OPENAI_MODEL", &c.OpenAI.Model)
	setString("MAILWRIGHT_DEFAULT_TONE", &c.Compose.DefaultTone)
	setString("MAILWRIGHT_DB", &c.Storage.Path)
	setString("MAILWRIGHT_LOG_LEVEL", &c.Log.Level)
	setString("MAILWRIGHT_LOG_FORMAT", &c.Log.Format)
	setString("MAILWRIGHT_LOG_FILE", &c.Log.File)

	if v := os.Getenv("MAILWRIGHT_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MAILWRIGHT_CACHE_TTL: %w", err)
		}
		c.Triage.CacheTTL = d
	}
	return nil
}

// LLM returns the llm client configuration.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		APIKey:            c.OpenAI.APIKey,
		BaseURL:           c.OpenAI.BaseURL,
		Model:             c.OpenAI.Model,
		Timeout:           c.OpenAI.Timeout,
		MaxRetries:        c.OpenAI.MaxRetries,
		RequestsPerMinute: c.OpenAI.RequestsPerMinute,
	}
}

// Logging returns the logger options.
func (c *Config) Logging() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}
