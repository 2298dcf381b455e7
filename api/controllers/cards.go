package controllers

import (
	"net/http"

	"github.com/rgarciadev/atelier-backend/api/middleware"
	"github.com/rgarciadev/atelier-backend/api/responses"
	"github.com/rgarciadev/atelier-backend/api/validators"
	"github.com/rgarciadev/atelier-backend/internal/vault"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
)

type saveCardRequest struct {
	Card cardPayload `json:"card" validate:"required"`
}

// SaveCard tokenizes a card into the vault, replacing the caller's existing
// card if one is stored. The response is the masked shape only.
func SaveCard(cards vault.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cards == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vault service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok || !owner.IsUser() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "registered account required"))
			return
		}

		var payload saveCardRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		masked, err := cards.TokenizeAndStore(r.Context(), owner.ID(), payload.Card.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, masked)
	}
}

// GetCard returns the caller's vaulted card in masked form.
func GetCard(cards vault.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cards == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vault service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok || !owner.IsUser() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "registered account required"))
			return
		}

		masked, err := cards.GetMaskedCard(r.Context(), owner.ID())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, masked)
	}
}
