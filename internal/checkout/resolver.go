package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/internal/address"
	"github.com/rgarciadev/atelier-backend/internal/vault"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

// PaymentMethodResolver is the one axis the three checkout variants differ
// on: how the payment is verified and where the order's addresses come from.
// The orchestrator pipeline is otherwise identical for all three.
type PaymentMethodResolver interface {
	Method() enums.PaymentMethod
	// VerifyPayment authorizes the charge before any write happens. Vault
	// errors pass through unchanged.
	VerifyPayment(ctx context.Context) (*vault.AuthResult, error)
	// ResolveAddresses returns the shipping and billing address ids, creating
	// rows where the variant requires it. Runs inside the checkout
	// transaction.
	ResolveAddresses(ctx context.Context, tx *gorm.DB) (shippingID, billingID uuid.UUID, err error)
}

// savedCardResolver verifies the caller's vaulted card with the supplied CVC.
type savedCardResolver struct {
	vault             vault.Service
	addresses         address.Repository
	owner             types.Owner
	cvc               string
	shippingAddressID uuid.UUID
	billingAddressID  *uuid.UUID
}

func (r *savedCardResolver) Method() enums.PaymentMethod {
	return enums.PaymentMethodSavedCard
}

func (r *savedCardResolver) VerifyPayment(ctx context.Context) (*vault.AuthResult, error) {
	card, err := r.vault.VerifySavedCard(ctx, r.owner.ID(), r.cvc)
	if err != nil {
		return nil, err
	}
	if card.CardType != enums.CardTypeDebit {
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "only debit cards are accepted")
	}
	return &vault.AuthResult{
		TransactionID: vault.NewTransactionID(),
		Last4:         card.Last4,
	}, nil
}

func (r *savedCardResolver) ResolveAddresses(ctx context.Context, tx *gorm.DB) (uuid.UUID, uuid.UUID, error) {
	repo := r.addresses.WithTx(tx)
	shipping, err := repo.FindForOwner(ctx, r.shippingAddressID, r.owner)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	billing := shipping.ID
	if r.billingAddressID != nil && *r.billingAddressID != shipping.ID {
		billingAddr, err := repo.FindForOwner(ctx, *r.billingAddressID, r.owner)
		if err != nil {
			return uuid.Nil, uuid.Nil, err
		}
		billing = billingAddr.ID
	}
	return shipping.ID, billing, nil
}

// newCardResolver authorizes a full-detail card for an authenticated user.
// The optional card save happens after the order commits.
type newCardResolver struct {
	savedCardResolver
	card vault.CardInput
}

func (r *newCardResolver) Method() enums.PaymentMethod {
	return enums.PaymentMethodNewCard
}

func (r *newCardResolver) VerifyPayment(ctx context.Context) (*vault.AuthResult, error) {
	return r.vault.AuthorizeOneTime(ctx, r.card)
}

// guestResolver authorizes a full-detail card and creates a throwaway
// address for the guest; billing is always the shipping address.
type guestResolver struct {
	vault        vault.Service
	addresses    address.Repository
	guestID      uuid.UUID
	card         vault.CardInput
	guestAddress address.GuestAddressInput
}

func (r *guestResolver) Method() enums.PaymentMethod {
	return enums.PaymentMethodGuestCard
}

func (r *guestResolver) VerifyPayment(ctx context.Context) (*vault.AuthResult, error) {
	return r.vault.AuthorizeOneTime(ctx, r.card)
}

func (r *guestResolver) ResolveAddresses(ctx context.Context, tx *gorm.DB) (uuid.UUID, uuid.UUID, error) {
	addr, err := r.addresses.WithTx(tx).CreateGuestAddress(ctx, r.guestID, r.guestAddress)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return addr.ID, addr.ID, nil
}
