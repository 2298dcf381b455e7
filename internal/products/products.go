// Package products is the read-side contract the checkout pipeline has with
// the catalog. Catalog administration lives elsewhere; checkout only needs
// the live effective price and display fields.
package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

type Repository interface {
	FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	// FindByIDs loads a batch keyed by id; missing ids are simply absent.
	FindByIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*models.Product, error)
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

func (r *repository) FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	result := make(map[uuid.UUID]*models.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Find(&rows, "id IN ?", productIDs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load products")
	}
	for i := range rows {
		result[rows[i].ID] = &rows[i]
	}
	return result, nil
}
