package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem references a specific variant (not just a product) with a
// quantity. Prices are deliberately not stored here; checkout always reads
// the live product row.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_variant"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_variant"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Variant   *Variant  `gorm:"foreignKey:VariantID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
