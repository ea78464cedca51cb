package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("WEBAPP_URL", "")
	t.Setenv("CORS_ORIGIN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, devJWTSecret, cfg.JWT.AccessSecret)
	assert.Equal(t, devJWTRefreshSecret, cfg.JWT.RefreshSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 30*time.Minute, cfg.JWT.ResetTTL)
	assert.Equal(t, "https://euler-js.github.io/foodway", cfg.WebAppURL)
	assert.Equal(t, []string{"*"}, cfg.CORS)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_NodeEnvFallbackAndLists(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "test")
	t.Setenv("CORS_ORIGIN", "http://a.com, http://b.com ,")
	t.Setenv("WEBAPP_URL", "https://menu.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvTest, cfg.Env)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.CORS)
	assert.Equal(t, "https://menu.example.com", cfg.WebAppURL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", Name: "menu", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/menu?sslmode=require", d.DSN())

	d.URL = "postgres://x"
	assert.Equal(t, "postgres://x", d.DSN())
}
