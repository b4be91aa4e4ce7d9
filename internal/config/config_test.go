package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "API_KEY", "GEMINI_MODEL", "PORT", "LOG_LEVEL", "LOG_FORMAT",
		"SYNC_DELAY", "UPLOAD_DELAY", "AI_TIMEOUT", "AI_CACHE_TTL", "REPORT_BUCKET",
		"GOOGLE_APPLICATION_CREDENTIALS", "DEMO_SEED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.APIKey)
	assert.False(t, cfg.LiveAdvisor())
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.SyncDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.UploadDelay)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, 5*time.Minute, cfg.AICacheTTL)
	assert.Equal(t, int64(0), cfg.DemoSeed)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key-1")
	t.Setenv("PORT", "9090")
	t.Setenv("SYNC_DELAY", "10ms")
	t.Setenv("REPORT_BUCKET", "orchestra-reports")
	t.Setenv("DEMO_SEED", "42")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "key-1", cfg.APIKey)
	assert.True(t, cfg.LiveAdvisor())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10*time.Millisecond, cfg.SyncDelay)
	assert.Equal(t, "orchestra-reports", cfg.ReportBucket)
	assert.Equal(t, int64(42), cfg.DemoSeed)
}

func TestLoadAPIKeyAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "alias-key")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "alias-key", cfg.APIKey)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	v := viper.New()
	v.Set(KeyLogLevel, "debug")
	v.Set(KeyUploadDelay, "0s")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.UploadDelay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Valid", Config{Port: "8080"}, false},
		{"EmptyPort", Config{}, true},
		{"NegativeDelay", Config{Port: "8080", SyncDelay: -time.Second}, true},
		{"NegativeTTL", Config{Port: "8080", AICacheTTL: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
