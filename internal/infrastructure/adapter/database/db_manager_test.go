package database_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
	timeprovider "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/time"
)

func sqliteConfig(dsn string) *database.Config {
	config := database.DefaultConfig()
	config.Driver = database.DriverSQLite
	config.Database = dsn
	config.LogLevel = "silent"
	config.RetryAttempts = 1
	return config
}

func TestManager_ConnectPingAndPoolStats(t *testing.T) {
	config := sqliteConfig(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	config.MaxOpenConns = 4

	manager := database.NewManager(config, logger.NewNoopLogger(), timeprovider.NewRealTimeProvider())
	_, err := manager.ConnectContext(context.Background())
	require.NoError(t, err)
	defer manager.Close()

	require.NoError(t, manager.Ping(context.Background()))

	stats, err := manager.PoolStats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.MaxOpen)
	assert.Less(t, stats.Saturation(), 1.0)
}

func TestManager_InvalidConfig(t *testing.T) {
	config := sqliteConfig("")

	manager := database.NewManager(config, logger.NewNoopLogger(), timeprovider.NewRealTimeProvider())
	_, err := manager.Connect()
	assert.ErrorContains(t, err, "invalid database configuration")
}

func TestManager_ConnectStopsWhenContextEnds(t *testing.T) {
	config := sqliteConfig(filepath.Join(t.TempDir(), "missing", "portal.db"))
	config.RetryAttempts = 5
	config.RetryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manager := database.NewManager(config, logger.NewNoopLogger(), timeprovider.NewRealTimeProvider())
	_, err := manager.ConnectContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_CloseWithoutConnect(t *testing.T) {
	manager := database.NewManager(sqliteConfig("unused.db"), logger.NewNoopLogger(), timeprovider.NewRealTimeProvider())
	assert.NoError(t, manager.Close())
}
