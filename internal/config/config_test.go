package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_EXPIRATION_MINUTES", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()
	assert.Equal(t, "membership", cfg.JWT.Issuer)
	assert.Equal(t, "membership-api", cfg.JWT.Audience)
	assert.Equal(t, 60, cfg.JWT.ExpirationMinutes)
	assert.Empty(t, cfg.RedisAddr)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
}

func TestLoadTelemetry(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_SAMPLING_RATIO", "1.5")

	cfg := Load()
	assert.Equal(t, "debug", cfg.Telemetry.LogLevel)
	assert.True(t, cfg.Telemetry.OTLPEnabled)
	assert.Equal(t, 0.1, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, "grpc", cfg.Telemetry.OTLPProtocol)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "  s3cret  ")
	t.Setenv("JWT_EXPIRATION_MINUTES", "15")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "Root@Example.com")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "not-a-number")

	cfg := Load()
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 15, cfg.JWT.ExpirationMinutes)
	assert.Equal(t, "root@example.com", cfg.Bootstrap.AdminEmail)
	assert.Equal(t, 50, cfg.DBMaxOpenConn)
	assert.NoError(t, cfg.Validate())
}

func TestRuntimeHolderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "membership.yml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: DEBUG\nratelimit:\n  login:\n    rate: 1\n    burst: 3\n"), 0o600))

	holder, err := NewRuntimeHolderFromFile(path)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1.0, cfg.RateLimit.Login.Rate)
	assert.Equal(t, 3, cfg.RateLimit.Login.Burst)
}

func TestRuntimeHolderRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "membership.yml")
	require.NoError(t, os.WriteFile(path, []byte("ratelimit:\n  login:\n    burst: 0\n"), 0o600))

	_, err := NewRuntimeHolderFromFile(path)
	assert.Error(t, err)
}

func TestRuntimeHolderHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "membership.yml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	holder, err := NewRuntimeHolderFromFile(path)
	require.NoError(t, err)

	var notified atomic.Int32
	holder.Subscribe(func(RuntimeConfig) { notified.Add(1) })

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	assert.Eventually(t, func() bool {
		return holder.Get().Log.Level == "warn" && notified.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
}
