package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

// Repository persists variant stock levels. Decrement is the only write path
// checkout uses; it must be atomic under concurrent checkouts.
type Repository interface {
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	// Decrement atomically subtracts qty from the variant's stock, failing
	// without modification when fewer than qty units remain. Returns the
	// quantity that was available at the time of the failed attempt.
	Decrement(ctx context.Context, variantID uuid.UUID, qty int) error
	Restock(ctx context.Context, variantID uuid.UUID, qty int) error
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

func (r *repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).
		Preload("Color").
		Preload("Size").
		First(&variant, "id = ?", variantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load variant")
	}
	return &variant, nil
}

func (r *repository) Decrement(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	// Single conditional UPDATE. The WHERE guard makes check and decrement
	// one atomic statement; a concurrent checkout that drains the stock
	// first leaves RowsAffected at zero here.
	res := r.db.WithContext(ctx).Model(&models.Variant{}).
		Where("id = ? AND quantity >= ?", variantID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to decrement stock")
	}
	if res.RowsAffected == 0 {
		variant, err := r.FindVariant(ctx, variantID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  qty,
				"available":  variant.Quantity,
			})
	}
	return nil
}

func (r *repository) Restock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := r.db.WithContext(ctx).Model(&models.Variant{}).
		Where("id = ?", variantID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to restock variant")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return nil
}
