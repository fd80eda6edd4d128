package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAccount     = "default"
	DefaultCalendarID  = "primary"
	DefaultProvider    = "gemini"
	DefaultHTTPAddr    = "127.0.0.1:8080"
	DefaultMetricsAddr = ":9090"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultLLMTimeout  = 60 * time.Second
)

// LLMConfig selects the language model backend.
type LLMConfig struct {
	// Provider is one of gemini, openai, anthropic or ollama.
	Provider string `yaml:"provider" json:"provider"`
	// Model overrides the provider's default model.
	Model string `yaml:"model" json:"model"`
	// APIKey authenticates against hosted providers. For Gemini it falls
	// back to GOOGLE_API_KEY.
	APIKey      string        `yaml:"api_key" json:"-"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// MirrorConfig controls the local SQLite mirror.
type MirrorConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// MetricsConfig configures the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Addr is the address for the metrics server (e.g. ":9090").
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// OAuthConfig holds the Google OAuth client used to obtain and refresh
// calendar tokens.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"-"`
	// TokenDir holds one token file per account. Empty selects the user
	// cache directory.
	TokenDir string `yaml:"token_dir" json:"token_dir"`
}

// Config is the top-level configuration.
type Config struct {
	// Account selects the stored token used by the CLI and the stdio server.
	Account string `yaml:"account" json:"account"`
	// CalendarID is the calendar used when a request names none.
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
	// Workers bounds concurrent remote calls per plan. 0 or 1 executes
	// operations one at a time.
	Workers int `yaml:"workers" json:"workers"`

	LLM     LLMConfig     `yaml:"llm" json:"llm"`
	Mirror  MirrorConfig  `yaml:"mirror" json:"mirror"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	OAuth   OAuthConfig   `yaml:"oauth" json:"oauth"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Account:    DefaultAccount,
		CalendarID: DefaultCalendarID,
		Workers:    1,
		LLM: LLMConfig{
			Provider: DefaultProvider,
			Timeout:  DefaultLLMTimeout,
		},
		Mirror: MirrorConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir(), "mirror.db"),
		},
		HTTP:    HTTPConfig{Addr: DefaultHTTPAddr},
		Metrics: MetricsConfig{Enabled: true, Addr: DefaultMetricsAddr},
		Logging: LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// DefaultPath is config.yaml in the textcal user config directory.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, "textcal", "config.yaml")
}

func dataDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return filepath.Join(base, "textcal")
}

// Normalize fills zero values with defaults so partially filled files
// still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Account == "" {
		c.Account = def.Account
	}
	if c.CalendarID == "" {
		c.CalendarID = def.CalendarID
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = def.LLM.Timeout
	}
	if c.Mirror.Path == "" {
		c.Mirror.Path = def.Mirror.Path
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = def.Metrics.Addr
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "gemini" && c.LLM.BaseURL != "" {
		return fmt.Errorf("llm base_url is not supported for provider gemini")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q (want text or json)", c.Logging.Format)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	return nil
}

// Load reads the YAML file at path on top of the defaults, applies
// environment overrides, then normalizes and validates the result. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path with 0600 permissions, creating the
// parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from TEXTCAL_* variables, GOOGLE_CLIENT_ID,
// GOOGLE_CLIENT_SECRET and GOOGLE_API_KEY.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("TEXTCAL_ACCOUNT", &c.Account)
	str("TEXTCAL_CALENDAR_ID", &c.CalendarID)
	str("TEXTCAL_LLM_PROVIDER", &c.LLM.Provider)
	str("TEXTCAL_LLM_MODEL", &c.LLM.Model)
	str("TEXTCAL_LLM_BASE_URL", &c.LLM.BaseURL)
	str("TEXTCAL_LLM_API_KEY", &c.LLM.APIKey)
	if c.LLM.APIKey == "" && strings.EqualFold(c.LLM.Provider, "gemini") {
		str("GOOGLE_API_KEY", &c.LLM.APIKey)
	}
	str("TEXTCAL_MIRROR_PATH", &c.Mirror.Path)
	str("TEXTCAL_HTTP_ADDR", &c.HTTP.Addr)
	str("TEXTCAL_METRICS_ADDR", &c.Metrics.Addr)
	str("TEXTCAL_LOG_LEVEL", &c.Logging.Level)
	str("TEXTCAL_LOG_FORMAT", &c.Logging.Format)
	str("TEXTCAL_TOKEN_DIR", &c.OAuth.TokenDir)
	str("GOOGLE_CLIENT_ID", &c.OAuth.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.OAuth.ClientSecret)

	if v, ok := lookup("TEXTCAL_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TEXTCAL_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	if v, ok := lookup("TEXTCAL_LLM_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TEXTCAL_LLM_TIMEOUT %q: %w", v, err)
		}
		c.LLM.Timeout = d
	}
	for key, dst := range map[string]*bool{
		"TEXTCAL_MIRROR_ENABLED":  &c.Mirror.Enabled,
		"TEXTCAL_METRICS_ENABLED": &c.Metrics.Enabled,
	} {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = b
		}
	}
	return nil
}
