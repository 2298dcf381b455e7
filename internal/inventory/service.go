// Package inventory is the stock ledger for product variants. A variant is
// one product in one color and size; its quantity never goes below zero,
// enforced by a conditional UPDATE rather than a read-then-write.
package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

type Service interface {
	// CheckAvailable reports whether the variant currently holds at least
	// qty units. Advisory only; ReserveAndDecrement is the authority.
	CheckAvailable(ctx context.Context, variantID uuid.UUID, qty int) (bool, error)
	// ReserveAndDecrement atomically takes qty units or fails with
	// INSUFFICIENT_STOCK carrying the available count.
	ReserveAndDecrement(ctx context.Context, variantID uuid.UUID, qty int) error
	Restock(ctx context.Context, variantID uuid.UUID, qty int) error
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) CheckAvailable(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	variant, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		return false, err
	}
	return variant.Quantity >= qty, nil
}

func (s *service) ReserveAndDecrement(ctx context.Context, variantID uuid.UUID, qty int) error {
	return s.repo.Decrement(ctx, variantID, qty)
}

func (s *service) Restock(ctx context.Context, variantID uuid.UUID, qty int) error {
	return s.repo.Restock(ctx, variantID, qty)
}

func (s *service) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	return s.repo.FindVariant(ctx, variantID)
}
