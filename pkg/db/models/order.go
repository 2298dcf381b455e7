package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rgarciadev/atelier-backend/pkg/enums"
)

// Order is immutable once created; totals are snapshotted at checkout time
// and never recomputed from live product rows.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID            *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	GuestID           *uuid.UUID          `gorm:"column:guest_id;type:uuid"`
	ShippingAddressID uuid.UUID           `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID           `gorm:"column:billing_address_id;type:uuid;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null"`
	ShippingFee       decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(10,2);not null"`
	TotalAmount       decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;default:'ORDERED'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment           *Payment            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
}
