package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/sign")
	t.Setenv("DISPATCH_DELAY_MS", "250")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "https://hooks.example.com/sign", cfg.Webhook.URL)
	assert.Equal(t, "Colégio-Zampieri-Sistema/1.0", cfg.Webhook.UserAgent)
	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.Delay())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 600, cfg.Redis.TTLSec)
	assert.Equal(t, "schooldocs", cfg.Database.AppName)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
}

func TestDispatchDelay(t *testing.T) {
	assert.Equal(t, time.Second, DispatchConfig{DelayMS: 1000}.Delay())
	assert.Equal(t, time.Duration(0), DispatchConfig{DelayMS: -5}.Delay())
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "America/Sao_Paulo"}
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())

	cfg.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
