package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/db"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

type Repository interface {
	// Create persists the order with its items and payment in the caller's
	// transaction. A colliding order number is regenerated once before the
	// insert.
	Create(ctx context.Context, order *models.Order) error
	FindByNumberForOwner(ctx context.Context, orderNumber string, owner types.Owner) (*models.Order, error)
	ListForOwner(ctx context.Context, owner types.Owner) ([]models.Order, error)
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db   *gorm.DB
	mint func(time.Time) (string, error)
}

func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb, mint: NewOrderNumber}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx, mint: r.mint}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	mint := r.mint
	if mint == nil {
		mint = NewOrderNumber
	}
	if order.OrderNumber == "" {
		number, err := mint(time.Now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint order number")
		}
		order.OrderNumber = number
	}

	// Postgres aborts the surrounding transaction after a failed insert, so
	// the collision check runs before the write. The unique index still
	// backstops the race between check and insert.
	taken, err := r.numberTaken(ctx, order.OrderNumber)
	if err != nil {
		return err
	}
	if taken {
		number, err := mint(time.Now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint order number")
		}
		order.OrderNumber = number
	}

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "order_number") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
	}
	return nil
}

func (r *repository) numberTaken(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check order number")
	}
	return count > 0, nil
}

func ownerScope(owner types.Owner) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if owner.IsUser() {
			return q.Where("user_id = ?", owner.ID())
		}
		return q.Where("guest_id = ?", owner.ID())
	}
}

func (r *repository) FindByNumberForOwner(ctx context.Context, orderNumber string, owner types.Owner) (*models.Order, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	var order models.Order
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Where("order_number = ?", orderNumber).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("Items.Variant.Color").
		Preload("Items.Variant.Size").
		Preload("Payment").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return &order, nil
}

func (r *repository) ListForOwner(ctx context.Context, owner types.Owner) ([]models.Order, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("Items.Variant.Color").
		Preload("Items.Variant.Size").
		Preload("Payment").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return rows, nil
}
