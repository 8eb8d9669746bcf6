package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nhle/inboundkit/internal/apperr"
)

// InboundConfig holds the email API connection settings.
type InboundConfig struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the per-request timeout.
func (c InboundConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// MailConfig holds the terminal client settings.
type MailConfig struct {
	FromAddress     string `mapstructure:"from_address" yaml:"from_address"`
	FromName        string `mapstructure:"from_name" yaml:"from_name"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	StaleAfterSec   int    `mapstructure:"stale_after_sec" yaml:"stale_after_sec"`
	PageSize        int    `mapstructure:"page_size" yaml:"page_size"`
}

// PollInterval returns how often the list and detail views refetch.
func (c MailConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// StaleAfter returns how long a cached view stays fresh.
func (c MailConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSec) * time.Second
}

// RenderConfig holds the PDF rendering service settings.
type RenderConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Token   string `mapstructure:"token" yaml:"token"`
	Format  string `mapstructure:"format" yaml:"format"`
}

// AIConfig holds the completion service settings used for analysis.
type AIConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ServerConfig holds the webhook server settings.
type ServerConfig struct {
	Addr               string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxBodyBytes       int64    `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	AnalysisTimeoutSec int      `mapstructure:"analysis_timeout_sec" yaml:"analysis_timeout_sec"`
	QuoteMarkerClass   string   `mapstructure:"quote_marker_class" yaml:"quote_marker_class"`
}

// AnalysisTimeout bounds one detached analysis job.
func (c ServerConfig) AnalysisTimeout() time.Duration {
	if c.AnalysisTimeoutSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.AnalysisTimeoutSec) * time.Second
}

// DumpConfig selects where the cleanup variant writes raw and cleaned
// bodies for inspection.
type DumpConfig struct {
	Type     string `mapstructure:"type" yaml:"type"`
	LocalDir string `mapstructure:"local_dir" yaml:"local_dir"`
	S3Bucket string `mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Region string `mapstructure:"s3_region" yaml:"s3_region"`
	S3Prefix string `mapstructure:"s3_prefix" yaml:"s3_prefix"`
}

// RedisConfig enables the optional analysis claim guard.
type RedisConfig struct {
	URL         string `mapstructure:"url" yaml:"url"`
	ClaimTTLSec int    `mapstructure:"claim_ttl_sec" yaml:"claim_ttl_sec"`
}

// ClaimTTL returns how long a claimed message id is remembered.
func (c RedisConfig) ClaimTTL() time.Duration {
	if c.ClaimTTLSec <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ClaimTTLSec) * time.Second
}

// StoreConfig locates the local state database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level configuration object. It is built once at
// startup and passed to each component explicitly.
type AppConfig struct {
	Inbound InboundConfig `mapstructure:"inbound" yaml:"inbound"`
	Mail    MailConfig    `mapstructure:"mail" yaml:"mail"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Dump    DumpConfig    `mapstructure:"dump" yaml:"dump"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
}

// Requirement names a group of settings a command depends on.
type Requirement int

const (
	RequireInbound Requirement = iota
	RequireSender
	RequireRender
	RequireAI
)

// Require checks that every setting needed by the given requirements is
// present and returns a ConfigurationError naming all that are missing.
func (c *AppConfig) Require(reqs ...Requirement) error {
	var missing []string
	for _, r := range reqs {
		switch r {
		case RequireInbound:
			if c.Inbound.APIKey == "" {
				missing = append(missing, "inbound.api_key (INBOUND_API_KEY)")
			}
			if c.Inbound.BaseURL == "" {
				missing = append(missing, "inbound.base_url (INBOUND_BASE_URL)")
			}
		case RequireSender:
			if c.Mail.FromAddress == "" {
				missing = append(missing, "mail.from_address (INBOUND_FROM)")
			}
		case RequireRender:
			if c.Render.Token == "" {
				missing = append(missing, "render.token (BROWSERLESS_TOKEN)")
			}
		case RequireAI:
			if c.AI.APIKey == "" {
				missing = append(missing, "ai.api_key (ANTHROPIC_API_KEY)")
			}
		}
	}
	if len(missing) > 0 {
		return &apperr.ConfigurationError{Missing: missing}
	}
	return nil
}

// CredentialLookup fetches a secret by name, typically from the OS
// keyring.
type CredentialLookup func(name string) (string, error)

// Credential names used with CredentialLookup.
const (
	CredentialInboundAPIKey = "inbound-api-key"
	CredentialRenderToken   = "browserless-token"
	CredentialAIKey         = "anthropic-api-key"
)

// FillCredentials fills secrets that are still empty after file and
// environment loading. Lookup failures leave the field empty so Require
// can report it.
func (c *AppConfig) FillCredentials(lookup CredentialLookup) {
	if lookup == nil {
		return
	}
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v, err := lookup(name); err == nil {
			*dst = v
		}
	}
	fill(&c.Inbound.APIKey, CredentialInboundAPIKey)
	fill(&c.Render.Token, CredentialRenderToken)
	fill(&c.AI.APIKey, CredentialAIKey)
}

// DefaultConfigPath returns ~/.config/inbound/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "inbound", "config.yaml")
}

// DefaultStorePath returns ~/.config/inbound/state.db.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "state.db")
	}
	return filepath.Join(home, ".config", "inbound", "state.db")
}

// envBindings maps config keys to environment variables.
var envBindings = map[string]string{
	"inbound.api_key":       "INBOUND_API_KEY",
	"inbound.base_url":      "INBOUND_BASE_URL",
	"mail.from_address":     "INBOUND_FROM",
	"render.token":          "BROWSERLESS_TOKEN",
	"render.base_url":       "BROWSERLESS_URL",
	"ai.api_key":            "ANTHROPIC_API_KEY",
	"redis.url":             "REDIS_URL",
	"server.addr":           "INBOUND_ADDR",
	"dump.s3_bucket":        "INBOUND_DUMP_BUCKET",
	"dump.s3_region":        "AWS_REGION",
	"store.path":            "INBOUND_STORE_PATH",
	"server.max_body_bytes": "INBOUND_MAX_BODY_BYTES",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("inbound.base_url", "https://inbound.new/api/v2")
	v.SetDefault("inbound.timeout_sec", 30)
	v.SetDefault("mail.poll_interval_sec", 30)
	v.SetDefault("mail.stale_after_sec", 10)
	v.SetDefault("mail.page_size", 25)
	v.SetDefault("render.base_url", "https://production-sfo.browserless.io")
	v.SetDefault("render.format", "A4")
	v.SetDefault("ai.base_url", "https://api.anthropic.com")
	v.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_body_bytes", 10*1024*1024)
	v.SetDefault("server.analysis_timeout_sec", 120)
	v.SetDefault("server.quote_marker_class", "gmail_quote")
	v.SetDefault("dump.type", "local")
	v.SetDefault("dump.local_dir", "emails")
	v.SetDefault("redis.claim_ttl_sec", 86400)
	v.SetDefault("store.path", DefaultStorePath())
}

// LoadConfig reads configuration from a .env file in the working
// directory, the YAML file at path, and the environment, in increasing
// order of precedence. A missing file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
// Secrets are not written; they belong in the keyring or environment.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	inbound := cfg.Inbound
	inbound.APIKey = ""
	render := cfg.Render
	render.Token = ""
	ai := cfg.AI
	ai.APIKey = ""

	v.Set("inbound", inbound)
	v.Set("mail", cfg.Mail)
	v.Set("render", render)
	v.Set("ai", ai)
	v.Set("server", cfg.Server)
	v.Set("dump", cfg.Dump)
	v.Set("redis", cfg.Redis)
	v.Set("store", cfg.Store)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
