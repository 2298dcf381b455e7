package models

import (
	"time"

	"github.com/google/uuid"
)

// Color is a lookup row for variant colors.
type Color struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

// Size is a lookup row for variant sizes.
type Size struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

// Variant is the unit inventory is tracked at: one product in one color and
// one size. Quantity never goes negative; every mutation is a conditional
// update guarded by the current count.
type Variant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_variants_product_color_size"`
	ColorID   uuid.UUID `gorm:"column:color_id;type:uuid;not null;uniqueIndex:idx_variants_product_color_size"`
	SizeID    uuid.UUID `gorm:"column:size_id;type:uuid;not null;uniqueIndex:idx_variants_product_color_size"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	Color     *Color    `gorm:"foreignKey:ColorID"`
	Size      *Size     `gorm:"foreignKey:SizeID"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
