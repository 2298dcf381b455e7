// Package vault tokenizes payment cards and verifies them at checkout. A
// card number is stored as four independently encrypted segments, the CVC
// only as a salted one-way digest. Plaintext card material exists in memory
// for the duration of one call and is never logged or echoed.
package vault

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/config"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/security"
)

// MaskedCard is the only card shape that ever leaves the vault toward a
// client.
type MaskedCard struct {
	MaskedNumber string         `json:"masked_number"`
	Last4        string         `json:"last4"`
	Expiry       string         `json:"expiry"`
	CardType     enums.CardType `json:"card_type"`
}

// VerifiedCard is the decrypted card handed to the checkout pipeline after a
// successful CVC check. It stays server-side.
type VerifiedCard struct {
	Number   string
	Expiry   string
	Last4    string
	CardType enums.CardType
}

type Service interface {
	// TokenizeAndStore validates and vaults the card, replacing any card the
	// user already has.
	TokenizeAndStore(ctx context.Context, userID uuid.UUID, card CardInput) (*MaskedCard, error)
	// VerifySavedCard checks the supplied CVC against the stored digest and,
	// only on match, decrypts and reassembles the card.
	VerifySavedCard(ctx context.Context, userID uuid.UUID, cvc string) (*VerifiedCard, error)
	// AuthorizeOneTime runs a full-detail card through the simulated
	// processor without touching the vault.
	AuthorizeOneTime(ctx context.Context, card CardInput) (*AuthResult, error)
	GetMaskedCard(ctx context.Context, userID uuid.UUID) (*MaskedCard, error)
	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo       Repository
	cfg        config.VaultConfig
	box        *cipherBox
	authorizer PaymentAuthorizer
	now        func() time.Time
}

func NewService(repo Repository, cfg config.VaultConfig, authorizer PaymentAuthorizer) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vault repository is required")
	}
	if authorizer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment authorizer is required")
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid vault key")
	}
	box, err := newCipherBox(key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to init vault cipher")
	}
	return &service{
		repo:       repo,
		cfg:        cfg,
		box:        box,
		authorizer: authorizer,
		now:        time.Now,
	}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	clone := *s
	clone.repo = s.repo.WithTx(tx)
	return &clone
}

func (s *service) TokenizeAndStore(ctx context.Context, userID uuid.UUID, card CardInput) (*MaskedCard, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateCardInput(card, s.now()); err != nil {
		return nil, err
	}

	number := card.normalizedNumber()
	salt, err := security.NewCVCSalt(s.cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate salt")
	}
	digest, err := security.DigestCVC(card.CVC, salt, s.cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to digest cvc")
	}

	// each segment gets its own nonce inside Seal, so equal segments never
	// share ciphertext
	segments := make([]string, 4)
	for i := 0; i < 4; i++ {
		sealed, err := s.box.Seal(number[i*4 : i*4+4])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encrypt card")
		}
		segments[i] = sealed
	}
	expirySealed, err := s.box.Seal(card.Expiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encrypt expiry")
	}

	record := &models.PaymentCard{
		UserID:            userID,
		Segment1Encrypted: segments[0],
		Segment2Encrypted: segments[1],
		Segment3Encrypted: segments[2],
		Segment4Encrypted: segments[3],
		ExpiryEncrypted:   expirySealed,
		Last4Plain:        number[12:],
		CardType:          card.Type,
		CVCHash:           digest,
		CVCSalt:           salt,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	return &MaskedCard{
		MaskedNumber: "**** **** **** " + record.Last4Plain,
		Last4:        record.Last4Plain,
		Expiry:       card.Expiry,
		CardType:     card.Type,
	}, nil
}

func (s *service) VerifySavedCard(ctx context.Context, userID uuid.UUID, cvc string) (*VerifiedCard, error) {
	card, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// legacy rows missing the digest pair fail verification outright
	if card.CVCHash == "" || card.CVCSalt == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "cvc verification failed")
	}
	match, err := security.VerifyCVC(cvc, card.CVCSalt, card.CVCHash, s.cfg)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "cvc verification failed")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "cvc verification failed")
	}

	number := ""
	for _, sealed := range []string{
		card.Segment1Encrypted, card.Segment2Encrypted,
		card.Segment3Encrypted, card.Segment4Encrypted,
	} {
		segment, err := s.box.Open(sealed)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to decrypt card")
		}
		number += segment
	}
	expiry, err := s.box.Open(card.ExpiryEncrypted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to decrypt expiry")
	}

	// the card may have expired since it was vaulted
	if err := validateExpiry(expiry, s.now()); err != nil {
		return nil, err
	}
	if !luhnValid(number) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vaulted card failed checksum")
	}

	return &VerifiedCard{
		Number:   number,
		Expiry:   expiry,
		Last4:    card.Last4Plain,
		CardType: card.CardType,
	}, nil
}

func (s *service) AuthorizeOneTime(ctx context.Context, card CardInput) (*AuthResult, error) {
	// instrument restriction comes before any other work
	if card.Type != enums.CardTypeDebit {
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "only debit cards are accepted")
	}
	if err := validateCardInput(card, s.now()); err != nil {
		return nil, err
	}
	return s.authorizer.Authorize(ctx, card.normalizedNumber(), card.CVC)
}

func (s *service) GetMaskedCard(ctx context.Context, userID uuid.UUID) (*MaskedCard, error) {
	card, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	expiry, err := s.box.Open(card.ExpiryEncrypted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to decrypt expiry")
	}
	return &MaskedCard{
		MaskedNumber: "**** **** **** " + card.Last4Plain,
		Last4:        card.Last4Plain,
		Expiry:       expiry,
		CardType:     card.CardType,
	}, nil
}
