package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment represents the database model for payment ledgers
type Payment struct {
	ID                 string          `gorm:"primaryKey;type:varchar(36)"`
	RequestServiceID   string          `gorm:"type:varchar(36);not null;index"`
	ClientID           string          `gorm:"type:varchar(36);not null;index:idx_payments_client_created,priority:1"`
	ServiceID          string          `gorm:"type:varchar(36);not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PaidAmount         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	RemainingBalance   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PaymentMethod      string          `gorm:"type:varchar(32);not null"`
	PaymentType        string          `gorm:"type:varchar(16);not null"`
	PaymentStatus      string          `gorm:"type:varchar(16);not null;index"`
	GatewayPaymentID   *string         `gorm:"type:varchar(128);index"`
	GatewayCheckoutURL *string         `gorm:"type:text"`
	GatewayStatus      string          `gorm:"type:varchar(64)"`
	LastWebhookPayload datatypes.JSON
	CreatedAt          time.Time `gorm:"not null;index:idx_payments_client_created,priority:2"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
