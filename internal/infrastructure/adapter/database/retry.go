package database

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

// SQLSTATEs worth running a whole ledger transaction again for
var transientSQLStates = map[string]string{
	"40001": "serialization_failure",
	"40P01": "deadlock_detected",
	"55P03": "lock_not_available",
	"53300": "too_many_connections",
	"57P01": "admin_shutdown",
	"08000": "connection_exception",
	"08003": "connection_does_not_exist",
	"08006": "connection_failure",
}

// RetryConfig holds configuration for retrying a transaction
type RetryConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
	MaxInterval   time.Duration
	JitterFactor  float64 // 0.0-1.0
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    5,
		RetryInterval: 50 * time.Millisecond,
		MaxInterval:   2 * time.Second,
		JitterFactor:  0.2,
	}
}

// RetryOnTransientError runs operation until it succeeds or fails with a
// non-transient error. It gives up early when the next backoff would overrun
// the context deadline, so a webhook bounded by its timeout fails fast and the
// gateway retries instead.
func RetryOnTransientError(
	ctx context.Context,
	config RetryConfig,
	operation func() error,
	logger coreport.Logger,
) error {
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}
		reason, transient := transientReason(err)
		if !transient || attempt >= attempts {
			break
		}

		backoff := backoffFor(attempt, config)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < backoff {
			logger.Warn("No time left to retry transaction", map[string]any{
				"attempt": attempt,
				"reason":  reason,
				"error":   err.Error(),
			})
			return err
		}

		logger.Warn("Transient database error, retrying transaction", map[string]any{
			"attempt":     attempt,
			"max_retries": attempts,
			"reason":      reason,
			"retry_after": backoff.String(),
		})

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if _, transient := transientReason(err); transient {
		logger.Error("All retry attempts failed", map[string]any{
			"attempts": attempts,
			"error":    err.Error(),
		})
	}
	return err
}

// backoffFor returns the wait before retry number attempt (1-based)
func backoffFor(attempt int, config RetryConfig) time.Duration {
	backoff := config.RetryInterval << uint(attempt-1)
	if backoff > config.MaxInterval || backoff <= 0 {
		backoff = config.MaxInterval
	}
	if config.JitterFactor > 0 {
		backoff += time.Duration(float64(backoff) * config.JitterFactor * rand.Float64())
	}
	return backoff
}

func isTransientError(err error) bool {
	_, transient := transientReason(err)
	return transient
}

// transientReason reports whether a failed transaction may succeed when run
// again, with a short label for logs
func transientReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		reason, ok := transientSQLStates[pgErr.Code]
		return reason, ok
	}
	if pgconn.SafeToRetry(err) {
		return "connection_not_used", true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadlock"):
		return "deadlock_detected", true
	case strings.Contains(msg, "could not serialize"), strings.Contains(msg, "serialization failure"):
		return "serialization_failure", true
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "database table is locked"):
		return "sqlite_busy", true
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "broken pipe"), strings.Contains(msg, "server closed"):
		return "connection_lost", true
	}
	return "", false
}
