package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverBolt, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:5000", cfg.Address())
	assert.Equal(t, 5*time.Minute, cfg.Auth.IdentityCacheTTL)
	assert.Equal(t, time.UTC, cfg.Tasks.Location)
	assert.False(t, cfg.Redis.Enabled)
	assert.Contains(t, cfg.Database.URL, "postgres://tasktrail:")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "9")
	t.Setenv("SERVER_IDLE_TIMEOUT", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DUE_DATE_TIMEZONE", "Europe/London")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 9*time.Second, cfg.Context.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.HTTP.IdleTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "Europe/London", cfg.Tasks.Location.String())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: DriverFirestore}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIRESTORE_PROJECT_ID")
	assert.Contains(t, err.Error(), "AUTH_SECRET")

	cfg = &Config{Store: StoreConfig{Driver: "mongo"}, Auth: AuthConfig{Secret: "x"}}
	assert.ErrorContains(t, cfg.Validate(), `unknown STORE_DRIVER "mongo"`)

	cfg = &Config{Store: StoreConfig{Driver: DriverBolt}, Auth: AuthConfig{Secret: "x"}}
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadTimeZone(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("DUE_DATE_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.ErrorContains(t, err, "DUE_DATE_TIMEZONE")
}
