package logger

import (
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

const redacted = "[REDACTED]"

// Field names whose values never reach the log output. Matching is on a
// lowercase substring so "gateway_secret_key" and "Authorization" are caught too.
var sensitiveKeys = []string{"secret", "token", "password", "signature", "authorization", "api_key"}

// ZapLogger implements the Logger port on top of zap
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapLogger creates a zap-backed logger. Production writes sampled JSON;
// every other environment gets a colored console encoder.
func NewZapLogger(isProduction bool, level string) core.Logger {
	atomic := zap.NewAtomicLevelAt(toZapLevel(core.ParseLogLevel(level)))

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if isProduction {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// webhook storms repeat the same lines; keep the first few per second
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 20}
	}
	cfg.Level = atomic
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	built, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return &ZapLogger{logger: built, level: atomic}
}

// NewFromZap wraps an existing zap logger, mostly for tests using zaptest/observer
func NewFromZap(z *zap.Logger) core.Logger {
	return &ZapLogger{logger: z, level: zap.NewAtomicLevelAt(zap.DebugLevel)}
}

func toZapLevel(level core.LogLevel) zapcore.Level {
	switch level {
	case core.LogLevelDebug:
		return zap.DebugLevel
	case core.LogLevelWarn:
		return zap.WarnLevel
	case core.LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// SetLevel changes the minimum level at runtime
func (l *ZapLogger) SetLevel(level core.LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// toFields converts a field map in key order so output is stable between runs
func toFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		switch v := fields[k].(type) {
		case nil:
			out = append(out, zap.Skip())
		case error:
			out = append(out, zap.NamedError(k, v))
		case time.Duration:
			out = append(out, zap.Duration(k, v))
		default:
			if isSensitive(k) {
				out = append(out, zap.String(k, redacted))
				continue
			}
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

func (l *ZapLogger) Debug(message string, fields map[string]any) {
	l.logger.Debug(message, toFields(fields)...)
}

func (l *ZapLogger) Info(message string, fields map[string]any) {
	l.logger.Info(message, toFields(fields)...)
}

func (l *ZapLogger) Warn(message string, fields map[string]any) {
	l.logger.Warn(message, toFields(fields)...)
}

func (l *ZapLogger) Error(message string, fields map[string]any) {
	l.logger.Error(message, toFields(fields)...)
}

// With returns a child logger carrying the given fields
func (l *ZapLogger) With(fields map[string]any) core.Logger {
	return &ZapLogger{logger: l.logger.With(toFields(fields)...), level: l.level}
}

// Flush writes out anything zap still buffers
func (l *ZapLogger) Flush() error {
	return l.logger.Sync()
}
