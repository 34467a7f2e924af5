package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Request   RequestConfig   `yaml:"request"`
	LLM       LLMConfig       `yaml:"llm"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Compare   CompareConfig   `yaml:"compare"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	History  LogSettings `yaml:"history"` // prompt/response transcript, empty path disables
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path          string `yaml:"path"`
	ReferencesCSV string `yaml:"references_csv"` // optional gold-standard import, re-read when modified
}

// RequestConfig holds HTTP request settings for the generative service.
type RequestConfig struct {
	Retries       int           `yaml:"retries"`         // 0 = fail on first error
	Timeout       Duration      `yaml:"timeout"`         // 0 = no client timeout
	RatePerMinute int           `yaml:"rate_per_minute"` // 0 = unlimited
	Backoff       BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// LLMConfig holds settings for the generative text provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai", "gemini"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"` // OpenAI-compatible endpoint
	Key      string `yaml:"key"`
}

// NarrativeConfig holds sampling settings for the narrative expander.
type NarrativeConfig struct {
	Temperature   float32 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	MaxSeedEvents int     `yaml:"max_seed_events"` // 0 = embed the whole pattern timeline
}

// AnalysisConfig holds orchestrator settings.
type AnalysisConfig struct {
	DefaultLocale string   `yaml:"default_locale"`
	CacheSize     int      `yaml:"cache_size"` // 0 = unbounded
	RunTimeout    Duration `yaml:"run_timeout"`
}

// CompareConfig holds settings for multi-strategy comparisons.
type CompareConfig struct {
	Parallelism int `yaml:"parallelism"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:5173",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			History: LogSettings{
				Path:  "./logs/llm_history.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path:          "./data/biotimeline.db",
			ReferencesCSV: "./data/references.csv",
		},
		Request: RequestConfig{
			Retries:       0,
			Timeout:       0,
			RatePerMinute: 0,
			Backoff: BackoffConfig{
				BaseDelay: Duration(1 * time.Second),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			BaseURL:  "https://api.openai.com/v1/chat/completions",
			Key:      "",
		},
		Narrative: NarrativeConfig{
			Temperature:   0.7,
			MaxTokens:     4000,
			MaxSeedEvents: 0,
		},
		Analysis: AnalysisConfig{
			DefaultLocale: "it",
			CacheSize:     128,
			RunTimeout:    Duration(3 * time.Minute),
		},
		Compare: CompareConfig{
			Parallelism: 1,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	// Load from Env if empty (as a fallback, but do NOT save back to disk)
	if cfg.LLM.Key == "" {
		cfg.LLM.Key = os.Getenv(keyEnvVar(cfg.LLM.Provider))
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandPaths resolves $VAR references in file paths. The file on disk keeps the raw form.
func (c *Config) expandPaths() {
	for _, p := range []*string{&c.DB.Path, &c.DB.ReferencesCSV, &c.Log.Server.Path, &c.Log.Requests.Path, &c.Log.History.Path} {
		*p = os.ExpandEnv(*p)
	}
}

func keyEnvVar(provider string) string {
	if provider == "gemini" {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("invalid llm.provider %q: must be one of openai, gemini", c.LLM.Provider)
	}
	if !isValidLocale(c.Analysis.DefaultLocale) {
		return fmt.Errorf("invalid analysis.default_locale %q: must be 'it' or 'en'", c.Analysis.DefaultLocale)
	}
	if c.Narrative.Temperature < 0 || c.Narrative.Temperature > 2 {
		return fmt.Errorf("invalid narrative.temperature %v: must be within [0, 2]", c.Narrative.Temperature)
	}
	if c.Narrative.MaxTokens <= 0 {
		return fmt.Errorf("invalid narrative.max_tokens %d: must be positive", c.Narrative.MaxTokens)
	}
	if c.Request.Retries < 0 || c.Analysis.CacheSize < 0 || c.Narrative.MaxSeedEvents < 0 {
		return fmt.Errorf("request.retries, analysis.cache_size and narrative.max_seed_events must not be negative")
	}
	if c.Compare.Parallelism < 1 {
		c.Compare.Parallelism = 1
	}
	return nil
}

func isValidLocale(s string) bool {
	matched, _ := regexp.MatchString(`^(it|en)$`, s)
	return matched
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Biotimeline Configuration
# ------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# The LLM key falls back to OPENAI_API_KEY / GEMINI_API_KEY when empty.

`)
	data = append(header, data...)

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: openai, gemini\n${1}provider:"))

	reLocale := regexp.MustCompile(`(?m)^(\s+)default_locale:`)
	data = reLocale.ReplaceAll(data, []byte("${1}# Options: it, en\n${1}default_locale:"))

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
