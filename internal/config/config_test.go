package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_PATH", "PORT", "HYPERPAY_BASE_URL", "HYPERPAY_ENTITY_ID", "HYPERPAY_BEARER_TOKEN",
	"REDIS_URL", "KAFKA_BROKERS", "OTLP_ENDPOINT", "APP_SCHEME", "BREAKER_THRESHOLD", "BREAKER_COOLDOWN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://eu-test.oppwa.com", cfg.HyperPay.BaseURL)
	assert.Equal(t, "bbuser", cfg.AppScheme)
	assert.Equal(t, uint32(5), cfg.Breaker.Threshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Cooldown)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("HYPERPAY_ENTITY_ID", "entity")
	t.Setenv("HYPERPAY_BEARER_TOKEN", "token")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("BREAKER_THRESHOLD", "3")
	t.Setenv("BREAKER_COOLDOWN", "10s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "entity", cfg.HyperPay.EntityID)
	assert.Equal(t, "token", cfg.HyperPay.BearerToken)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, uint32(3), cfg.Breaker.Threshold)
	assert.Equal(t, 10*time.Second, cfg.Breaker.Cooldown)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
hyperpay:
  base_url: https://oppwa.com
  entity_id: file-entity
  bearer_token: file-token
redis_url: localhost:6379
kafka_brokers: [localhost:9092]
app_scheme: shopapp
breaker:
  threshold: 2
  cooldown: 1m
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("HYPERPAY_BEARER_TOKEN", "env-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "https://oppwa.com", cfg.HyperPay.BaseURL)
	assert.Equal(t, "file-entity", cfg.HyperPay.EntityID)
	assert.Equal(t, "env-token", cfg.HyperPay.BearerToken)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "shopapp", cfg.AppScheme)
	assert.Equal(t, uint32(2), cfg.Breaker.Threshold)
	assert.Equal(t, time.Minute, cfg.Breaker.Cooldown)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidBreakerEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BREAKER_COOLDOWN", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "BREAKER_COOLDOWN")
}

func TestValidate_MissingCredentials(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HYPERPAY_ENTITY_ID")
	assert.Contains(t, err.Error(), "HYPERPAY_BEARER_TOKEN")
}
