package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "nxl_jwt", cfg.Auth.CookieName)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Storage.Enabled())
	assert.False(t, cfg.Seed.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MONGO_DATABASE", "crm_test")
	t.Setenv("AUTH_PASSWORD_RESET_TTL_MINUTES", "15")
	t.Setenv("STORAGE_BUCKET", "media")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "crm_test", cfg.Mongo.Database)
	assert.Equal(t, 15*time.Minute, cfg.Auth.PasswordResetTTL())
	assert.True(t, cfg.Storage.Enabled())
}

func TestLoad_RejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_BcryptCost(t *testing.T) {
	cfg := &Config{Mongo: MongoConfig{URI: "mongodb://x"}, Auth: AuthConfig{BcryptCost: 2}}
	assert.Error(t, cfg.Validate())

	cfg.Auth.BcryptCost = 10
	assert.NoError(t, cfg.Validate())
}

func TestRequestTimeout_Disabled(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
}
