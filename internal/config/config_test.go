package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_UsesDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "storage/app/public", cfg.Storage.LocalRoot)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.False(t, cfg.Purchase.StrictStatus)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("S3_BUCKET", "fleamarket-images")
	t.Setenv("PURCHASE_STRICT_STATUS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "fleamarket-images", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Purchase.StrictStatus)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "market", Schema: "public"}
	assert.Equal(t, "postgres://u:p@db:5432/market?sslmode=disable&search_path=public", c.DSN())
}
