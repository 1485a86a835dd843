// Package dbtest opens throwaway in-memory sqlite databases migrated to the
// current schema, for repository and use case tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/model"
	timeprovider "github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/time"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestDB bundles a migrated database with the pieces built on top of it
type TestDB struct {
	Manager *database.Manager
	DB      *gorm.DB
	UoW     *database.UnitOfWork
	Logger  coreport.Logger
}

// New opens a fresh database for t and closes it on cleanup. A single connection
// is used so every goroutine sees the same in-memory database and writes serialize.
func New(t *testing.T) *TestDB {
	t.Helper()

	log := logger.NewNoopLogger()
	config := database.DefaultConfig()
	config.Driver = database.DriverSQLite
	config.Database = fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	config.MaxOpenConns = 1
	config.MaxIdleConns = 1
	config.ConnMaxLifetime = time.Hour
	config.LogLevel = "silent"
	config.RetryAttempts = 1
	config.Retry.RetryInterval = time.Millisecond

	manager := database.NewManager(config, log, timeprovider.NewRealTimeProvider())
	db, err := manager.Connect()
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	migrator := migration.NewMigrationManager(db, log, timeprovider.NewRealTimeProvider())
	require.NoError(t, migrator.MigrateAll(context.Background()))

	return &TestDB{
		Manager: manager,
		DB:      db,
		UoW:     manager.CreateUnitOfWork(),
		Logger:  log,
	}
}

// SeedRequest inserts a service priced at price and a request for it by clientID
func (d *TestDB) SeedRequest(t *testing.T, clientID, price string, assignedStaffID string) *entity.ServiceRequest {
	t.Helper()

	service := model.Service{
		ID:    uuid.NewString(),
		Name:  "Contract review",
		Price: decimal.RequireFromString(price),
	}
	require.NoError(t, d.DB.Create(&service).Error)

	request := model.RequestService{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		ServiceID: service.ID,
	}
	if assignedStaffID != "" {
		request.AssignedStaffID = &assignedStaffID
	}
	require.NoError(t, d.DB.Create(&request).Error)

	return &entity.ServiceRequest{
		ID:              request.ID,
		ClientID:        clientID,
		ServiceID:       service.ID,
		ServiceName:     service.Name,
		Price:           service.Price,
		AssignedStaffID: assignedStaffID,
	}
}
