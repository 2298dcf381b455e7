package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records the simulated capture for an order, one-to-one.
type Payment struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	TransactionID string          `gorm:"column:transaction_id;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
