package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentTransaction represents one settlement row of a payment ledger
type PaymentTransaction struct {
	ID                   string          `gorm:"primaryKey;type:varchar(36)"`
	PaymentID            string          `gorm:"type:varchar(36);not null;index"`
	TransactionAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TransactionDate      time.Time       `gorm:"not null"`
	GatewayTransactionID string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_payment_transactions_gateway_txn"`
	GatewayStatus        string          `gorm:"type:varchar(32);not null"`
	Applied              bool            `gorm:"not null"`
	RawResponse          datatypes.JSON
	CreatedAt            time.Time `gorm:"not null"`

	Payment Payment `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName specifies the table name for PaymentTransaction
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
