package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	// A locking read waits for whoever holds the payment row, so it is allowed longer
	defaultLockThreshold = time.Second
)

var tablePattern = regexp.MustCompile(`(?i)\b(?:FROM|INTO|UPDATE)\s+["` + "`" + `]?([A-Za-z0-9_]+)`)

// DatabaseLogger writes GORM traces through the core logger
type DatabaseLogger struct {
	coreLogger    coreport.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
	lockThreshold time.Duration
	timeProvider  coreport.TimeProvider
}

// NewDatabaseLogger creates a GORM logger writing through coreLogger
func NewDatabaseLogger(coreLogger coreport.Logger, timeProvider coreport.TimeProvider, level string) logger.Interface {
	return &DatabaseLogger{
		coreLogger:    coreLogger.With(map[string]any{"source": "database"}),
		logLevel:      parseGormLevel(level),
		slowThreshold: defaultSlowThreshold,
		lockThreshold: defaultLockThreshold,
		timeProvider:  timeProvider,
	}
}

func parseGormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	default:
		return logger.Info
	}
}

// LogMode implements logger.Interface
func (l *DatabaseLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

// WithThresholds returns a copy using the given slow-statement thresholds
func (l *DatabaseLogger) WithThresholds(slow, lock time.Duration) *DatabaseLogger {
	clone := *l
	clone.slowThreshold = slow
	clone.lockThreshold = lock
	return &clone
}

func (l *DatabaseLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.coreLogger.Info(fmt.Sprintf(msg, data...), nil)
	}
}

func (l *DatabaseLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.coreLogger.Warn(fmt.Sprintf(msg, data...), nil)
	}
}

func (l *DatabaseLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.coreLogger.Error(fmt.Sprintf(msg, data...), nil)
	}
}

// Trace logs one statement. Locking reads on the ledger get their own threshold
// and message so lock contention is easy to tell apart from slow queries.
func (l *DatabaseLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := l.timeProvider.Since(begin)
	sql, rows := fc()
	stmt := describeStatement(sql)

	fields := map[string]any{
		"elapsed_ms": elapsed.Milliseconds(),
		"rows":       rows,
		"sql":        sql,
	}
	if stmt.verb != "" {
		fields["type"] = stmt.verb
	}
	if stmt.table != "" {
		fields["table"] = stmt.table
	}
	if stmt.locking {
		fields["row_lock"] = true
	}
	if requestID := coreport.RequestIDFromContext(ctx); requestID != "" {
		fields["request_id"] = requestID
	}

	threshold := l.slowThreshold
	if stmt.locking {
		threshold = l.lockThreshold
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if l.logLevel >= logger.Info {
			l.coreLogger.Debug("SQL Query", fields)
		}
	case err != nil:
		if l.logLevel >= logger.Error {
			fields["error"] = err.Error()
			l.coreLogger.Error("SQL Error", fields)
		}
	case threshold > 0 && elapsed > threshold && l.logLevel >= logger.Warn:
		if stmt.locking {
			l.coreLogger.Warn("Slow row lock", fields)
		} else {
			l.coreLogger.Warn("Slow SQL Query", fields)
		}
	case l.logLevel >= logger.Info:
		l.coreLogger.Debug("SQL Query", fields)
	}
}

type statement struct {
	verb    string
	table   string
	locking bool
}

func describeStatement(sql string) statement {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)

	var stmt statement
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(upper, verb) {
			stmt.verb = verb
			break
		}
	}
	if match := tablePattern.FindStringSubmatch(trimmed); len(match) == 2 {
		stmt.table = strings.ToLower(match[1])
	}
	stmt.locking = stmt.verb == "SELECT" && strings.Contains(upper, " FOR UPDATE")
	return stmt
}
