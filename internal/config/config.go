// Package config loads runtime settings from the environment, an optional
// .env file and any command-line flags bound into viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Setting keys. Each is also read from the upper-cased environment variable.
const (
	KeyGeminiAPIKey    = "gemini_api_key"
	KeyAPIKey          = "api_key"
	KeyGeminiModel     = "gemini_model"
	KeyPort            = "port"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeySyncDelay       = "sync_delay"
	KeyUploadDelay     = "upload_delay"
	KeyAITimeout       = "ai_timeout"
	KeyAICacheTTL      = "ai_cache_ttl"
	KeyReportBucket    = "report_bucket"
	KeyCredentialsFile = "google_application_credentials"
	KeyDemoSeed        = "demo_seed"
)

// Config holds every runtime setting.
type Config struct {
	// APIKey enables the live advisor. Empty means fallback mode.
	APIKey string
	Model  string

	Port      string
	LogLevel  string
	LogFormat string

	SyncDelay   time.Duration
	UploadDelay time.Duration
	AITimeout   time.Duration
	AICacheTTL  time.Duration

	// ReportBucket enables archiving investor reports to Cloud Storage.
	ReportBucket    string
	CredentialsFile string

	// DemoSeed seeds the cashflow generator. Zero means time-based.
	DemoSeed int64
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyGeminiModel, "gemini-2.5-flash")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeySyncDelay, 2*time.Second)
	v.SetDefault(KeyUploadDelay, 1500*time.Millisecond)
	v.SetDefault(KeyAITimeout, 30*time.Second)
	v.SetDefault(KeyAICacheTTL, 5*time.Minute)
	v.SetDefault(KeyDemoSeed, 0)
}

// Load reads .env if present, then resolves every setting from v, which
// may already carry bound flags. A nil v uses a fresh viper instance.
func Load(v *viper.Viper) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		APIKey:          v.GetString(KeyGeminiAPIKey),
		Model:           v.GetString(KeyGeminiModel),
		Port:            v.GetString(KeyPort),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		SyncDelay:       v.GetDuration(KeySyncDelay),
		UploadDelay:     v.GetDuration(KeyUploadDelay),
		AITimeout:       v.GetDuration(KeyAITimeout),
		AICacheTTL:      v.GetDuration(KeyAICacheTTL),
		ReportBucket:    v.GetString(KeyReportBucket),
		CredentialsFile: v.GetString(KeyCredentialsFile),
		DemoSeed:        v.GetInt64(KeyDemoSeed),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = v.GetString(KeyAPIKey)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that have no sensible fallback.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.SyncDelay < 0 || c.UploadDelay < 0 {
		return errors.New("simulated delays must not be negative")
	}
	if c.AITimeout < 0 || c.AICacheTTL < 0 {
		return errors.New("advisor timeout and cache ttl must not be negative")
	}
	return nil
}

// LiveAdvisor reports whether a generative API key is configured.
func (c Config) LiveAdvisor() bool {
	return c.APIKey != ""
}
