package migration

import (
	"context"

	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixed ids of the rows SeedDemoData writes
const (
	DemoServiceID = "00000000-0000-4000-8000-000000000001"
	DemoRequestID = "00000000-0000-4000-8000-000000000002"
	DemoClientID  = "00000000-0000-4000-8000-000000000003"
	DemoStaffID   = "00000000-0000-4000-8000-000000000004"
)

// SeedDemoData inserts a priced service and one request for it so a development
// instance can take payments. Existing rows are left alone.
func SeedDemoData(ctx context.Context, db *gorm.DB) error {
	staffID := DemoStaffID
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Service{
			ID:    DemoServiceID,
			Name:  "Initial legal consultation",
			Price: decimal.RequireFromString("50000.00"),
		}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.RequestService{
			ID:              DemoRequestID,
			ClientID:        DemoClientID,
			ServiceID:       DemoServiceID,
			AssignedStaffID: &staffID,
		}).Error
	})
}
