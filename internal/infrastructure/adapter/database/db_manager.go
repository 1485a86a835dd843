package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Manager owns the GORM handle, its pool settings and the pool watcher
type Manager struct {
	config       *Config
	db           *gorm.DB
	logger       coreport.Logger
	poolWatcher  *PoolWatcher
	timeProvider coreport.TimeProvider
}

// NewManager creates a new database manager
func NewManager(config *Config, logger coreport.Logger, timeProvider coreport.TimeProvider) *Manager {
	return &Manager{
		config:       config,
		logger:       logger.With(map[string]any{"driver": config.Driver}),
		timeProvider: timeProvider,
	}
}

// Connect opens the database without a deadline
func (m *Manager) Connect() (*gorm.DB, error) {
	return m.ConnectContext(context.Background())
}

// ConnectContext opens the database and checks it answers. Failed attempts are
// retried RetryAttempts times with a doubling delay, cut short when ctx ends.
func (m *Manager) ConnectContext(ctx context.Context) (*gorm.DB, error) {
	if err := m.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	delay := m.config.RetryDelay
	var lastErr error
	for attempt := 1; attempt <= m.config.RetryAttempts; attempt++ {
		db, err := m.open(ctx)
		if err == nil {
			m.db = db
			m.logger.Info("Connected to database", map[string]any{
				"name":           m.config.Database,
				"attempt":        attempt,
				"max_open_conns": m.config.MaxOpenConns,
				"query_timeout":  m.config.QueryTimeout.String(),
			})
			return db, nil
		}
		lastErr = err

		if attempt == m.config.RetryAttempts {
			break
		}
		m.logger.Warn("Database not reachable yet", map[string]any{
			"host":        m.config.Host,
			"attempt":     attempt,
			"retry_after": delay.String(),
			"error":       err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("connecting to database: %w", ctx.Err())
		}
		delay *= 2
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", m.config.RetryAttempts, lastErr)
}

// open runs one connection attempt and sizes the pool
func (m *Manager) open(ctx context.Context) (*gorm.DB, error) {
	db, err := gorm.Open(m.dialector(), &gorm.Config{
		Logger:      NewDatabaseLogger(m.logger, m.timeProvider, m.config.LogLevel),
		NowFunc:     m.timeProvider.Now,
		PrepareStmt: m.config.Driver == DriverPostgres,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, m.config.QueryTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// StartMonitoring samples pool statistics every interval until Close
func (m *Manager) StartMonitoring(interval time.Duration) {
	watcher := NewPoolWatcher(m.sqlStats, m.logger, m.timeProvider, 0.8)
	if err := watcher.Start(interval); err != nil {
		m.logger.Warn("Failed to start connection pool monitoring", map[string]any{"error": err.Error()})
		return
	}
	m.poolWatcher = watcher
}

func (m *Manager) sqlStats() (sql.DBStats, error) {
	if m.db == nil {
		return sql.DBStats{}, fmt.Errorf("database is not connected")
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// PoolStats returns the latest pool sample, taking one when monitoring is off
func (m *Manager) PoolStats() (PoolSnapshot, error) {
	if m.poolWatcher != nil {
		if snapshot, ok := m.poolWatcher.Last(); ok {
			return snapshot, nil
		}
	}
	return NewPoolWatcher(m.sqlStats, m.logger, m.timeProvider, 1).Sample()
}

func (m *Manager) dialector() gorm.Dialector {
	if m.config.Driver == DriverSQLite {
		return sqlite.Open(m.config.DSN())
	}
	return postgres.Open(m.config.DSN())
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Ping checks that the database answers within the query timeout
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := m.WithTimeout(ctx)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close stops the pool watcher and releases every connection
func (m *Manager) Close() error {
	if m.poolWatcher != nil {
		m.poolWatcher.Stop()
	}
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	m.logger.Debug("Closing database connection", nil)
	return sqlDB.Close()
}

// WithTimeout returns a context with timeout for database operations
func (m *Manager) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.QueryTimeout)
}

// CreateUnitOfWork creates a new UnitOfWork instance
func (m *Manager) CreateUnitOfWork() *UnitOfWork {
	return NewUnitOfWork(m.db, m.logger, m.config.Retry)
}
