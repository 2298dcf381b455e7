package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rgarciadev/atelier-backend/pkg/enums"
)

// PaymentCard is the vaulted card for a user, one per user. The number is
// stored as four independently encrypted segments, each with its own nonce,
// and the CVC only as a salted one-way digest. No single column ever holds a
// decryptable full number or a recoverable CVC.
type PaymentCard struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Segment1Encrypted string         `gorm:"column:segment1_encrypted;not null"`
	Segment2Encrypted string         `gorm:"column:segment2_encrypted;not null"`
	Segment3Encrypted string         `gorm:"column:segment3_encrypted;not null"`
	Segment4Encrypted string         `gorm:"column:segment4_encrypted;not null"`
	ExpiryEncrypted   string         `gorm:"column:expiry_encrypted;not null"`
	Last4Plain        string         `gorm:"column:last4_plain;not null"`
	CardType          enums.CardType `gorm:"column:card_type;not null"`
	CVCHash           string         `gorm:"column:cvc_hash;not null"`
	CVCSalt           string         `gorm:"column:cvc_salt;not null"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
