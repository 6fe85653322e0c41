package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ORDER_TOKEN_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CleanupOnCreate)
	assert.True(t, cfg.CleanupOnConfirm)
	assert.Equal(t, "CheckoutSession", cfg.MetricsNamespace)
	assert.Equal(t, 3, cfg.AWSMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ORDER_TOKEN_SECRET", "s3cret")
	t.Setenv("SESSION_BACKEND", "dynamodb")
	t.Setenv("SESSION_TABLE", "order-sessions")
	t.Setenv("ORDER_SESSION_TTL", "10m")
	t.Setenv("CLEANUP_PAYMENT_ON_CONFIRM", "false")
	t.Setenv("RUN_LOCAL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendDynamoDB, cfg.SessionBackend)
	assert.Equal(t, "order-sessions", cfg.SessionTable)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.CleanupOnConfirm)
	assert.True(t, cfg.RunLocal)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {},
		"unknown backend":      {"ORDER_TOKEN_SECRET": "s", "SESSION_BACKEND": "memcached"},
		"dynamodb needs table": {"ORDER_TOKEN_SECRET": "s", "SESSION_BACKEND": "dynamodb"},
		"bad ttl":              {"ORDER_TOKEN_SECRET": "s", "ORDER_SESSION_TTL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("ORDER_TOKEN_SECRET", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadWorker(t *testing.T) {
	t.Setenv("PAYMENTS_TABLE", "")
	_, err := LoadWorker()
	assert.Error(t, err)

	t.Setenv("PAYMENTS_TABLE", "payments")
	cfg, err := LoadWorker()
	require.NoError(t, err)
	assert.Equal(t, "payments", cfg.PaymentsTable)
	assert.Equal(t, "CheckoutSession", cfg.MetricsNamespace)
}
