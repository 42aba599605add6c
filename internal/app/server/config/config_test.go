package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.RunAddress)
	assert.Equal(t, "migrations", cfg.DB.Migrations)
	assert.Equal(t, 500, cfg.Sync.MaxBatch)
	assert.Equal(t, int64(10<<20), cfg.Images.MaxBytes)
	assert.Equal(t, 24*time.Hour, cfg.Images.URLTTL)
	assert.Equal(t, time.Hour, cfg.Images.UploadURLTTL)
	assert.Equal(t, "auto", cfg.Blob.Region)
	assert.True(t, cfg.Blob.UseSSL)
	assert.Empty(t, cfg.Logger.LogLevel)
}

func TestFromViper_Env(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("RUN_ADDRESS", ":9090")
	t.Setenv("DATABASE_URI", "postgres://u:p@localhost:5432/notes")
	t.Setenv("SYNC_MAX_BATCH", "50")
	t.Setenv("IMAGE_URL_TTL", "2h")
	t.Setenv("BLOB_USE_SSL", "false")
	t.Setenv("LOG_LEVEL", "warn")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, ":9090", cfg.Server.RunAddress)
	assert.Equal(t, "postgres://u:p@localhost:5432/notes", cfg.DB.DatabaseURI)
	assert.Equal(t, 50, cfg.Sync.MaxBatch)
	assert.Equal(t, 2*time.Hour, cfg.Images.URLTTL)
	assert.False(t, cfg.Blob.UseSSL)
	assert.Equal(t, "warn", cfg.Logger.LogLevel)
	assert.False(t, cfg.ExposeDetails())
}
