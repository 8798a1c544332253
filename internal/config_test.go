package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("STORAGE_PROVIDER", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "")
	t.Setenv("API_TIMEOUT_SECONDS", "")
	t.Setenv("TOKEN_ENCRYPTION_KEY", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, uint16(5173), cfg.Port)
	assert.Equal(t, "http://0.0.0.0:8000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.NotEmpty(t, cfg.Storage.DataDir)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("API_BASE_URL", "https://books.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("STORAGE_PROVIDER", "local")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env, "unknown env falls back to prod")
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://books.example.com", cfg.API.BaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "non-http base url",
			env:  map[string]string{"API_BASE_URL": "ftp://books", "STORAGE_PROVIDER": "local"},
		},
		{
			name: "r2 without account",
			env:  map[string]string{"API_BASE_URL": "http://x", "STORAGE_PROVIDER": "r2", "R2_ACCOUNT_ID": ""},
		},
		{
			name: "r2 without bucket",
			env: map[string]string{
				"API_BASE_URL":         "http://x",
				"STORAGE_PROVIDER":     "r2",
				"R2_ACCOUNT_ID":        "acct",
				"R2_ACCESS_KEY_ID":     "key",
				"R2_SECRET_ACCESS_KEY": "secret",
				"R2_BUCKET_NAME":       "",
			},
		},
		{
			name: "short token key",
			env: map[string]string{
				"API_BASE_URL":         "http://x",
				"STORAGE_PROVIDER":     "local",
				"TOKEN_ENCRYPTION_KEY": "c2hvcnQ=",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
