package vault

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

// Repository persists vaulted cards, one row per user.
type Repository interface {
	// Upsert saves the card, replacing the user's existing card if any.
	Upsert(ctx context.Context, card *models.PaymentCard) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.PaymentCard, error)
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Upsert(ctx context.Context, card *models.PaymentCard) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"segment1_encrypted", "segment2_encrypted", "segment3_encrypted",
				"segment4_encrypted", "expiry_encrypted", "last4_plain",
				"card_type", "cvc_hash", "cvc_salt", "updated_at",
			}),
		}).
		Create(card).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save card")
	}
	return nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.PaymentCard, error) {
	var card models.PaymentCard
	err := r.db.WithContext(ctx).First(&card, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no saved card")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load card")
	}
	return &card, nil
}
