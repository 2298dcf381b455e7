package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rgarciadev/atelier-backend/api/middleware"
	"github.com/rgarciadev/atelier-backend/api/responses"
	"github.com/rgarciadev/atelier-backend/api/validators"
	cartsvc "github.com/rgarciadev/atelier-backend/internal/cart"
	"github.com/rgarciadev/atelier-backend/internal/products"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
)

type cartItemView struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Color       string          `json:"color,omitempty"`
	Size        string          `json:"size,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ImageURL    string          `json:"image_url,omitempty"`
}

type cartView struct {
	ID       uuid.UUID       `json:"id"`
	Items    []cartItemView  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type putCartItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=20"`
}

// GetCart returns the caller's cart, lazily creating an empty one.
func GetCart(carts cartsvc.Service, catalog products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		cart, err := carts.GetOrCreate(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := newCartView(r, catalog, cart)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PutCartItem sets the quantity for one variant line.
func PutCartItem(carts cartsvc.Service, catalog products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload putCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := carts.PutItem(r.Context(), owner, payload.VariantID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := newCartView(r, catalog, cart)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// DeleteCartItem removes one variant line from the cart.
func DeleteCartItem(carts cartsvc.Service, catalog products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := middleware.OwnerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant id"))
			return
		}

		cart, err := carts.RemoveItem(r.Context(), owner, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, verr := newCartView(r, catalog, cart)
		if verr != nil {
			responses.WriteError(r.Context(), logg, w, verr)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// newCartView joins cart lines with their catalog products so the client
// sees live effective prices, not stale snapshots.
func newCartView(r *http.Request, catalog products.Repository, cart *models.Cart) (*cartView, error) {
	view := &cartView{
		ID:       cart.ID,
		Items:    make([]cartItemView, 0, len(cart.Items)),
		Subtotal: decimal.Zero,
	}
	if len(cart.Items) == 0 {
		return view, nil
	}

	productIDs := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Variant != nil {
			productIDs = append(productIDs, item.Variant.ProductID)
		}
	}
	byID, err := catalog.FindByIDs(r.Context(), productIDs)
	if err != nil {
		return nil, err
	}

	for _, item := range cart.Items {
		entry := cartItemView{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
		if item.Variant != nil {
			entry.ProductID = item.Variant.ProductID
			if item.Variant.Color != nil {
				entry.Color = item.Variant.Color.Name
			}
			if item.Variant.Size != nil {
				entry.Size = item.Variant.Size.Name
			}
			if product, ok := byID[item.Variant.ProductID]; ok {
				entry.ProductName = product.Name
				entry.UnitPrice = product.EffectivePrice()
				entry.LineTotal = entry.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
				if len(product.ImageURLs) > 0 {
					entry.ImageURL = product.ImageURLs[0]
				}
			}
		}
		view.Subtotal = view.Subtotal.Add(entry.LineTotal)
		view.Items = append(view.Items, entry)
	}
	return view, nil
}
