package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querystack/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "test_jwt_secret")

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.UploadMaxBytes)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "s3cret")
	v.Set("DB_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", "file::memory:")
	v.Set("AI_TIMEOUT", "5s")

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file::memory:", cfg.DatabaseDSN)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	_, err := config.Load(v)
	assert.ErrorContains(t, err, "JWT_SECRET")

	v = viper.New()
	v.Set("JWT_SECRET", "x")
	v.Set("DB_DRIVER", "mysql")
	_, err = config.Load(v)
	assert.ErrorContains(t, err, "DB_DRIVER")
}
