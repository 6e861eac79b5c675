package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", cfg.HTTPAddr)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 10, cfg.Bcrypt.Cost)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 10*time.Minute, cfg.LiveKit.TokenTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.LiveKit.Configured())
}

func TestLoad_Overrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("JWT_ACCESS_EXPIRATION", "15m")
	t.Setenv("CORS_ORIGINS", "https://1.sodam.store,https://2.sodam.store")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("LIVEKIT_URL", "wss://lk.example")
	t.Setenv("LIVEKIT_API_KEY", "key")
	t.Setenv("LIVEKIT_API_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, []string{"https://1.sodam.store", "https://2.sodam.store"}, cfg.CORS.Origins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.LiveKit.Configured())
	assert.Equal(t, "wss://lk.example", cfg.LiveKit.ServerURL())
}

func TestLoad_MissingAccessSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	_, err := Load()
	assert.ErrorIs(t, err, ErrAccessSecretMissing)
}

func TestLoad_MissingRefreshSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrRefreshSecretMissing)
}

func TestLoad_EqualSecretsRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")

	_, err := Load()
	assert.ErrorIs(t, err, ErrSecretsEqual)
}

func TestValidate_BadTTL(t *testing.T) {
	cfg := Config{JWT: JWT{AccessSecret: "a", RefreshSecret: "b", AccessTTL: 0, RefreshTTL: time.Hour}, Bcrypt: Bcrypt{Cost: 10}}
	assert.Error(t, cfg.Validate())
}
