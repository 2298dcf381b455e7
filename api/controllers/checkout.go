package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rgarciadev/atelier-backend/api/middleware"
	"github.com/rgarciadev/atelier-backend/api/responses"
	"github.com/rgarciadev/atelier-backend/api/validators"
	"github.com/rgarciadev/atelier-backend/internal/address"
	checkoutsvc "github.com/rgarciadev/atelier-backend/internal/checkout"
	"github.com/rgarciadev/atelier-backend/internal/vault"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
)

// cardPayload is the inline card shape shared by new-card and guest
// checkout. Raw values are handed straight to the vault and never logged.
type cardPayload struct {
	Number   string `json:"number" validate:"required,min=12,max=23"`
	Expiry   string `json:"expiry" validate:"required,len=5"`
	CVC      string `json:"cvc" validate:"required,min=3,max=4,numeric"`
	CardType string `json:"card_type" validate:"required,oneof=DEBIT CREDIT"`
}

func (p cardPayload) toInput() vault.CardInput {
	return vault.CardInput{
		Number: p.Number,
		Expiry: p.Expiry,
		CVC:    p.CVC,
		Type:   enums.CardType(p.CardType),
	}
}

type guestAddressPayload struct {
	FullName   string  `json:"full_name" validate:"required,max=120"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country,omitempty" validate:"omitempty,len=2"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

func (p guestAddressPayload) toInput() address.GuestAddressInput {
	return address.GuestAddressInput{
		FullName:   p.FullName,
		Line1:      p.Line1,
		Line2:      p.Line2,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Country:    p.Country,
		Phone:      p.Phone,
	}
}

type savedCardCheckoutRequest struct {
	ShippingAddressID uuid.UUID  `json:"shipping_address_id" validate:"required"`
	BillingAddressID  *uuid.UUID `json:"billing_address_id,omitempty"`
	CVC               string     `json:"cvc" validate:"required,min=3,max=4,numeric"`
}

type newCardCheckoutRequest struct {
	ShippingAddressID uuid.UUID   `json:"shipping_address_id" validate:"required"`
	BillingAddressID  *uuid.UUID  `json:"billing_address_id,omitempty"`
	Card              cardPayload `json:"card" validate:"required"`
	SaveCard          bool        `json:"save_card"`
}

type guestCheckoutRequest struct {
	Address guestAddressPayload `json:"address" validate:"required"`
	Card    cardPayload         `json:"card" validate:"required"`
}

// CheckoutSavedCard places an order charged to the caller's vaulted card.
func CheckoutSavedCard(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload savedCardCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.CheckoutSavedCard(r.Context(), owner, checkoutsvc.SavedCardRequest{
			ShippingAddressID: payload.ShippingAddressID,
			BillingAddressID:  payload.BillingAddressID,
			CVC:               payload.CVC,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// CheckoutNewCard places an order charged to an inline card, optionally
// vaulting it afterwards.
func CheckoutNewCard(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload newCardCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.CheckoutNewCard(r.Context(), owner, checkoutsvc.NewCardRequest{
			ShippingAddressID: payload.ShippingAddressID,
			BillingAddressID:  payload.BillingAddressID,
			Card:              payload.Card.toInput(),
			SaveCard:          payload.SaveCard,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// CheckoutGuest places an order for an anonymous guest with raw address
// fields and an inline card.
func CheckoutGuest(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok || !owner.IsGuest() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "guest checkout requires a guest identity"))
			return
		}

		var payload guestCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.CheckoutGuest(r.Context(), owner.ID(), checkoutsvc.GuestRequest{
			Address: payload.Address.toInput(),
			Card:    payload.Card.toInput(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}
