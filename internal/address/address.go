// Package address is the thin contract checkout has with the address book.
// Address-book CRUD is an external surface; checkout only fetches an address
// by id for its owner, and creates throwaway rows for guest orders.
package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

// GuestAddressInput carries the raw address fields a guest supplies at
// checkout.
type GuestAddressInput struct {
	FullName   string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      *string
}

type Repository interface {
	// FindForOwner loads an address only when it belongs to the owner.
	FindForOwner(ctx context.Context, addressID uuid.UUID, owner types.Owner) (*models.Address, error)
	FindByID(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	// CreateGuestAddress persists a throwaway address owned by the guest.
	CreateGuestAddress(ctx context.Context, guestID uuid.UUID, input GuestAddressInput) (*models.Address, error)
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

func (r *repository) FindForOwner(ctx context.Context, addressID uuid.UUID, owner types.Owner) (*models.Address, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	query := r.db.WithContext(ctx).Where("id = ?", addressID)
	if owner.IsUser() {
		query = query.Where("user_id = ?", owner.ID())
	} else {
		query = query.Where("guest_id = ?", owner.ID())
	}

	var addr models.Address
	if err := query.First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load address")
	}
	return &addr, nil
}

func (r *repository) FindByID(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).First(&addr, "id = ?", addressID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load address")
	}
	return &addr, nil
}

func (r *repository) CreateGuestAddress(ctx context.Context, guestID uuid.UUID, input GuestAddressInput) (*models.Address, error) {
	if guestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}
	country := input.Country
	if country == "" {
		country = "US"
	}
	addr := models.Address{
		ID:         uuid.New(),
		GuestID:    &guestID,
		FullName:   input.FullName,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    country,
		Phone:      input.Phone,
	}
	if err := r.db.WithContext(ctx).Create(&addr).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create guest address")
	}
	return &addr, nil
}
