package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"wallet/config"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newCapturingLogger(debug bool) (*gormSlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := &config.Config{}
	cfg.Env.Debug = debug

	return newGormSlogLogger(base, cfg), buf
}

func sqlFn(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormSlogLogger_ParamsAreFiltered(t *testing.T) {
	l, _ := newCapturingLogger(true)

	sql, vars := l.ParamsFilter(context.Background(), "SELECT * FROM accounts WHERE email = $1", "a@example.com")

	assert.Equal(t, "SELECT * FROM accounts WHERE email = $1", sql)
	assert.Nil(t, vars)
}

func TestGormSlogLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("record not found is silent", func(t *testing.T) {
		l, buf := newCapturingLogger(false)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1"), gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("errors are logged", func(t *testing.T) {
		l, buf := newCapturingLogger(false)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1"), assert.AnError)
		assert.Contains(t, buf.String(), "GORM query failed")
	})

	t.Run("slow queries warn", func(t *testing.T) {
		l, buf := newCapturingLogger(false)
		l.Trace(ctx, time.Now().Add(-time.Second), sqlFn("SELECT pg_sleep(1)"), nil)
		assert.Contains(t, buf.String(), "GORM slow query")
	})

	t.Run("fast queries only in debug", func(t *testing.T) {
		l, buf := newCapturingLogger(false)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1"), nil)
		assert.Empty(t, buf.String())

		l, buf = newCapturingLogger(true)
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1"), nil)
		assert.Contains(t, buf.String(), "GORM query")
	})
}

func TestLogPoolWaits(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	prev := sql.DBStats{WaitCount: 10, WaitDuration: time.Second}
	logPoolWaits(context.Background(), logger, prev, prev)
	assert.Empty(t, buf.String())

	cur := sql.DBStats{WaitCount: 12, WaitDuration: time.Second + 100*time.Millisecond}
	logPoolWaits(context.Background(), logger, prev, cur)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"waits":2`)
}
