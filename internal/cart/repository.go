package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

type Repository interface {
	// FindByOwner returns the owner's cart with items preloaded, or NotFound.
	FindByOwner(ctx context.Context, owner types.Owner) (*models.Cart, error)
	Create(ctx context.Context, owner types.Owner) (*models.Cart, error)
	UpsertItem(ctx context.Context, cartID, variantID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, cartID, variantID uuid.UUID) error
	// ClearItems removes every item; the cart row itself survives.
	ClearItems(ctx context.Context, cartID uuid.UUID) error
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

func ownerScope(owner types.Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.IsUser() {
			return db.Where("user_id = ?", owner.ID())
		}
		return db.Where("guest_id = ?", owner.ID())
	}
}

func (r *repository) FindByOwner(ctx context.Context, owner types.Owner) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Preload("Items").
		Preload("Items.Variant").
		Preload("Items.Variant.Color").
		Preload("Items.Variant.Size").
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart")
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, owner types.Owner) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	cart := models.Cart{
		ID:      uuid.New(),
		UserID:  owner.UserID(),
		GuestID: owner.GuestID(),
	}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create cart")
	}
	return &cart, nil
}

func (r *repository) UpsertItem(ctx context.Context, cartID, variantID uuid.UUID, qty int) error {
	var existing models.CartItem
	err := r.db.WithContext(ctx).
		First(&existing, "cart_id = ? AND variant_id = ?", cartID, variantID).Error
	switch {
	case err == nil:
		update := r.db.WithContext(ctx).Model(&existing).Update("quantity", qty)
		if update.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, update.Error, "failed to update cart item")
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := models.CartItem{
			ID:        uuid.New(),
			CartID:    cartID,
			VariantID: variantID,
			Quantity:  qty,
		}
		if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to add cart item")
		}
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart item")
	}
}

func (r *repository) DeleteItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to remove cart item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (r *repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear cart")
	}
	return nil
}
