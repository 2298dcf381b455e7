package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds the in-progress selection for one owner. Exactly one of
// UserID/GuestID is set (CHECK + partial unique indexes in the schema);
// application code goes through types.Owner so the XOR holds at the type
// level too.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid"`
	GuestID   *uuid.UUID `gorm:"column:guest_id;type:uuid"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
