package config

import (
	"testing"
	"time"

	"github.com/slighter12/go-lib/database/postgres"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"audit": map[string]any{
			"topicId": "",
		},
		"rateLimit": map[string]any{
			"auth": map[string]any{
				"max": 5,
			},
		},
		"secretKey": map[string]any{
			"access": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "AUDIT_TOPICID", want: "audit.topicId"},
		{envKey: "RATELIMIT_AUTH_MAX", want: "rateLimit.auth.max"},
		{envKey: "SECRETKEY_ACCESS", want: "secretKey.access"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults_FillsMissingSections(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.API.Window)
	assert.Equal(t, 100, cfg.RateLimit.API.Max)
	assert.Equal(t, 5, cfg.RateLimit.Auth.Max)
	assert.Equal(t, RateLimitBackendMemory, cfg.RateLimit.Backend)
	assert.Equal(t, 8, cfg.PasswordStrength.MinLength)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.ValidationDelay)
	assert.Equal(t, 3, cfg.Client.MaxRetries)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Auth:      &AuthConfig{BcryptCost: 4, AccessTokenTTL: time.Minute},
		RateLimit: &RateLimitConfig{Backend: RateLimitBackendRedis, Auth: RateLimitRule{Window: time.Second, Max: 2}},
	}
	cfg.Storage.Driver = StorageDriverPostgres
	applyDefaults(cfg)

	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.Equal(t, time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, RateLimitBackendRedis, cfg.RateLimit.Backend)
	assert.Equal(t, time.Second, cfg.RateLimit.Auth.Window)
	assert.Equal(t, 2, cfg.RateLimit.Auth.Max)
}

func TestApplyDefaults_DropsPostgresReplicas(t *testing.T) {
	cfg := &Config{
		Postgres: &postgres.DBConn{
			Replicas: []postgres.ConnectionConfig{{Host: "replica", Port: "5432"}},
		},
	}
	applyDefaults(cfg)

	assert.Empty(t, cfg.Postgres.Replicas)
}
