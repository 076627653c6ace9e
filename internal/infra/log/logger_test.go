package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Log.Level = "debug"
	cfg.Env.ServiceName = "Wallet App API"

	logger, err := New(Params{Config: cfg})
	require.NoError(t, err)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))

	cfg.Env.Log.Level = "bogus"
	_, err = New(Params{Config: cfg})
	assert.Error(t, err)
}

func TestNewLogger_RedactsSensitiveAttributes(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.ServiceName = "Wallet App API"
	cfg.Env.Version = "1.0.0"
	buf := &bytes.Buffer{}

	logger, err := newLogger(buf, cfg)
	require.NoError(t, err)
	logger.Info("login", slog.String("email", "a@example.com"), slog.String("password", "hunter2"), slog.String("Authorization", "Bearer x"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "a@example.com", line["email"])
	assert.Equal(t, "[REDACTED]", line["password"])
	assert.Equal(t, "[REDACTED]", line["Authorization"])
	assert.Equal(t, "Wallet App API", line["service"])
	assert.Equal(t, "1.0.0", line["version"])
}
