// Package cart manages the pre-checkout selection, one active cart per
// owner, lazily created on first interaction.
package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/internal/inventory"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

const maxLineQuantity = 20

type Service interface {
	// GetOrCreate returns the owner's cart, creating an empty one if none
	// exists yet.
	GetOrCreate(ctx context.Context, owner types.Owner) (*models.Cart, error)
	// PutItem sets the quantity for a variant, adding the line if absent.
	// The variant must exist and hold enough stock for the requested
	// quantity at the time of the call.
	PutItem(ctx context.Context, owner types.Owner, variantID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner types.Owner, variantID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo      Repository
	inventory inventory.Service
}

func NewService(repo Repository, inv inventory.Service) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository is required")
	}
	if inv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory service is required")
	}
	return &service{repo: repo, inventory: inv}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), inventory: s.inventory.WithTx(tx)}
}

func (s *service) GetOrCreate(ctx context.Context, owner types.Owner) (*models.Cart, error) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}
	return s.repo.Create(ctx, owner)
}

func (s *service) PutItem(ctx context.Context, owner types.Owner, variantID uuid.UUID, qty int) (*models.Cart, error) {
	if qty <= 0 || qty > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range").
			WithDetails(map[string]any{"min": 1, "max": maxLineQuantity})
	}

	// advisory stock check so the cart surfaces availability early; the
	// authoritative check happens again at checkout
	available, err := s.inventory.CheckAvailable(ctx, variantID, qty)
	if err != nil {
		return nil, err
	}
	if !available {
		variant, err := s.inventory.FindVariant(ctx, variantID)
		if err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  qty,
				"available":  variant.Quantity,
			})
	}

	cart, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertItem(ctx, cart.ID, variantID, qty); err != nil {
		return nil, err
	}
	return s.repo.FindByOwner(ctx, owner)
}

func (s *service) RemoveItem(ctx context.Context, owner types.Owner, variantID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, variantID); err != nil {
		return nil, err
	}
	return s.repo.FindByOwner(ctx, owner)
}

func (s *service) Clear(ctx context.Context, cartID uuid.UUID) error {
	return s.repo.ClearItems(ctx, cartID)
}
