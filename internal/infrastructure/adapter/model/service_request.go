package model

import "github.com/shopspring/decimal"

// Service is the catalogue entry a request is made for. The table is owned by the
// portal's catalogue CRUD; this model only reads it.
type Service struct {
	ID    string          `gorm:"primaryKey;type:varchar(36)"`
	Name  string          `gorm:"type:varchar(255);not null"`
	Price decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

// TableName specifies the table name for Service
func (Service) TableName() string {
	return "services"
}

// RequestService is a client's request for a service
type RequestService struct {
	ID              string  `gorm:"primaryKey;type:varchar(36)"`
	ClientID        string  `gorm:"type:varchar(36);not null;index"`
	ServiceID       string  `gorm:"type:varchar(36);not null"`
	AssignedStaffID *string `gorm:"type:varchar(36)"`
}

// TableName specifies the table name for RequestService
func (RequestService) TableName() string {
	return "request_services"
}
