package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
	timeprovider "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/time"
)

func TestDescribeStatement(t *testing.T) {
	tests := []struct {
		sql  string
		want statement
	}{
		{`SELECT * FROM "payments" WHERE id = $1 LIMIT 1 FOR UPDATE`, statement{verb: "SELECT", table: "payments", locking: true}},
		{`SELECT count(*) FROM payment_transactions WHERE payment_id = ?`, statement{verb: "SELECT", table: "payment_transactions"}},
		{`INSERT INTO "notifications" ("id") VALUES ($1)`, statement{verb: "INSERT", table: "notifications"}},
		{`UPDATE "payments" SET "paid_amount"=$1`, statement{verb: "UPDATE", table: "payments"}},
		{`delete from connected_users where connection_id = ?`, statement{verb: "DELETE", table: "connected_users"}},
		{`CREATE INDEX idx ON payments (status)`, statement{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, describeStatement(tt.sql), tt.sql)
	}
}

func TestDatabaseLogger_Trace(t *testing.T) {
	clock := &timeprovider.FixedTimeProvider{At: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	ctx := coreport.WithRequestID(context.Background(), "req-7")

	newLogger := func(level string) (*DatabaseLogger, *observer.ObservedLogs) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewDatabaseLogger(logger.NewFromZap(zap.New(core)), clock, level).(*DatabaseLogger)
		return l, logs
	}
	trace := func(l *DatabaseLogger, sql string, elapsed time.Duration, err error) {
		l.Trace(ctx, clock.At.Add(-elapsed), func() (string, int64) { return sql, 1 }, err)
	}

	t.Run("slow query", func(t *testing.T) {
		l, logs := newLogger("warn")
		trace(l, `SELECT * FROM "notifications"`, 500*time.Millisecond, nil)

		entries := logs.FilterMessage("Slow SQL Query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "notifications", entries[0].ContextMap()["table"])
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	})

	t.Run("row lock under its threshold is quiet", func(t *testing.T) {
		l, logs := newLogger("warn")
		trace(l, `SELECT * FROM "payments" WHERE id = $1 FOR UPDATE`, 500*time.Millisecond, nil)
		assert.Zero(t, logs.Len())
	})

	t.Run("slow row lock", func(t *testing.T) {
		l, logs := newLogger("warn")
		trace(l, `SELECT * FROM "payments" WHERE id = $1 FOR UPDATE`, 3*time.Second, nil)

		entries := logs.FilterMessage("Slow row lock").All()
		require.Len(t, entries, 1)
		assert.Equal(t, true, entries[0].ContextMap()["row_lock"])
	})

	t.Run("custom thresholds", func(t *testing.T) {
		l, logs := newLogger("warn")
		trace(l.WithThresholds(time.Hour, 10*time.Millisecond), `SELECT * FROM "payments" FOR UPDATE`, 20*time.Millisecond, nil)
		assert.Equal(t, 1, logs.FilterMessage("Slow row lock").Len())
	})

	t.Run("errors", func(t *testing.T) {
		l, logs := newLogger("error")
		trace(l, `INSERT INTO "payment_transactions"`, time.Millisecond, errors.New("duplicate key"))
		trace(l, `SELECT * FROM "payments"`, time.Millisecond, gorm.ErrRecordNotFound)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "SQL Error", entries[0].Message)
		assert.Equal(t, "duplicate key", entries[0].ContextMap()["error"])
	})

	t.Run("silent", func(t *testing.T) {
		l, logs := newLogger("silent")
		trace(l, `UPDATE "payments"`, time.Minute, errors.New("boom"))
		assert.Zero(t, logs.Len())
	})

	t.Run("info level traces every statement", func(t *testing.T) {
		l, logs := newLogger("info")
		trace(l, `UPDATE "payments" SET status = 'COMPLETED'`, time.Millisecond, nil)
		assert.Equal(t, 1, logs.FilterMessage("SQL Query").Len())
	})
}
