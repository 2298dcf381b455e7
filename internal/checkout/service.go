// Package checkout turns a cart into a placed order. One pipeline serves
// all three entry points (saved card, new card, guest); the write sequence
// runs in a single transaction so a failed step leaves no partial order
// behind.
package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/internal/address"
	"github.com/rgarciadev/atelier-backend/internal/cart"
	"github.com/rgarciadev/atelier-backend/internal/inventory"
	"github.com/rgarciadev/atelier-backend/internal/orders"
	"github.com/rgarciadev/atelier-backend/internal/pricing"
	"github.com/rgarciadev/atelier-backend/internal/products"
	"github.com/rgarciadev/atelier-backend/internal/vault"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
	"github.com/rgarciadev/atelier-backend/pkg/metrics"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

// TxRunner is the transaction boundary the pipeline commits through.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SavedCardRequest places an order charged to the caller's vaulted card.
type SavedCardRequest struct {
	ShippingAddressID uuid.UUID
	BillingAddressID  *uuid.UUID
	CVC               string
}

// NewCardRequest places an order charged to a card supplied inline, with an
// optional opt-in to vault it afterwards.
type NewCardRequest struct {
	ShippingAddressID uuid.UUID
	BillingAddressID  *uuid.UUID
	Card              vault.CardInput
	SaveCard          bool
}

// GuestRequest places an order for an anonymous guest; the raw address
// fields become a throwaway Address row used for both shipping and billing.
type GuestRequest struct {
	Address address.GuestAddressInput
	Card    vault.CardInput
}

type Service interface {
	CheckoutSavedCard(ctx context.Context, owner types.Owner, req SavedCardRequest) (*orders.Summary, error)
	CheckoutNewCard(ctx context.Context, owner types.Owner, req NewCardRequest) (*orders.Summary, error)
	CheckoutGuest(ctx context.Context, guestID uuid.UUID, req GuestRequest) (*orders.Summary, error)
}

type service struct {
	tx        TxRunner
	carts     cart.Service
	products  products.Repository
	pricing   *pricing.Engine
	vault     vault.Service
	inventory inventory.Service
	orders    orders.Service
	addresses address.Repository
	metrics   *metrics.CheckoutMetrics
	log       *logger.Logger
}

type Deps struct {
	Tx        TxRunner
	Carts     cart.Service
	Products  products.Repository
	Pricing   *pricing.Engine
	Vault     vault.Service
	Inventory inventory.Service
	Orders    orders.Service
	Addresses address.Repository
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tx runner is required")
	case deps.Carts == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service is required")
	case deps.Products == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products repository is required")
	case deps.Pricing == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing engine is required")
	case deps.Vault == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vault service is required")
	case deps.Inventory == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory service is required")
	case deps.Orders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service is required")
	case deps.Addresses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repository is required")
	}
	return &service{
		tx:        deps.Tx,
		carts:     deps.Carts,
		products:  deps.Products,
		pricing:   deps.Pricing,
		vault:     deps.Vault,
		inventory: deps.Inventory,
		orders:    deps.Orders,
		addresses: deps.Addresses,
		metrics:   deps.Metrics,
		log:       deps.Logger,
	}, nil
}

func (s *service) CheckoutSavedCard(ctx context.Context, owner types.Owner, req SavedCardRequest) (*orders.Summary, error) {
	if !owner.IsUser() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "saved card checkout requires a registered user")
	}
	resolver := &savedCardResolver{
		vault:             s.vault,
		addresses:         s.addresses,
		owner:             owner,
		cvc:               req.CVC,
		shippingAddressID: req.ShippingAddressID,
		billingAddressID:  req.BillingAddressID,
	}
	return s.run(ctx, owner, resolver, nil)
}

func (s *service) CheckoutNewCard(ctx context.Context, owner types.Owner, req NewCardRequest) (*orders.Summary, error) {
	if !owner.IsUser() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "new card checkout requires a registered user")
	}
	resolver := &newCardResolver{
		savedCardResolver: savedCardResolver{
			vault:             s.vault,
			addresses:         s.addresses,
			owner:             owner,
			shippingAddressID: req.ShippingAddressID,
			billingAddressID:  req.BillingAddressID,
		},
		card: req.Card,
	}

	var afterCommit func(context.Context)
	if req.SaveCard {
		card := req.Card
		userID := owner.ID()
		afterCommit = func(ctx context.Context) {
			// the order stands even if vaulting fails; the caller can retry
			// from the cards endpoint
			if _, err := s.vault.TokenizeAndStore(ctx, userID, card); err != nil && s.log != nil {
				s.log.Error(ctx, "failed to save card after checkout", err)
			}
		}
	}
	return s.run(ctx, owner, resolver, afterCommit)
}

func (s *service) CheckoutGuest(ctx context.Context, guestID uuid.UUID, req GuestRequest) (*orders.Summary, error) {
	owner := types.GuestOwner(guestID)
	resolver := &guestResolver{
		vault:        s.vault,
		addresses:    s.addresses,
		guestID:      guestID,
		card:         req.Card,
		guestAddress: req.Address,
	}
	return s.run(ctx, owner, resolver, nil)
}

// run is the shared pipeline: load cart, price it live, verify payment, then
// commit order + inventory + payment + cart clear atomically.
func (s *service) run(ctx context.Context, owner types.Owner, resolver PaymentMethodResolver, afterCommit func(context.Context)) (*orders.Summary, error) {
	started := time.Now()
	method := resolver.Method()

	summary, err := s.attempt(ctx, owner, resolver)
	s.metrics.ObserveDuration(method.String(), time.Since(started))
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncFailed(method.String(), code)
		return nil, err
	}
	s.metrics.IncPlaced(method.String())
	if s.log != nil {
		s.log.Info(s.log.WithOrderNumber(ctx, summary.OrderNumber), "order placed")
	}
	if afterCommit != nil {
		afterCommit(ctx)
	}
	return summary, nil
}

func (s *service) attempt(ctx context.Context, owner types.Owner, resolver PaymentMethodResolver) (*orders.Summary, error) {
	loaded, err := s.carts.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(loaded.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	lines, orderItems, err := s.priceCart(ctx, loaded)
	if err != nil {
		return nil, err
	}
	totals := s.pricing.ComputeTotals(lines)

	// payment verification happens before any write; vault errors surface
	// unchanged
	receipt, err := resolver.VerifyPayment(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        owner.UserID(),
		GuestID:       owner.GuestID(),
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		ShippingFee:   totals.ShippingFee,
		TotalAmount:   totals.Total,
		Status:        enums.OrderStatusOrdered,
		PaymentMethod: resolver.Method(),
		Items:         orderItems,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shippingID, billingID, err := resolver.ResolveAddresses(ctx, tx)
		if err != nil {
			return err
		}
		order.ShippingAddressID = shippingID
		order.BillingAddressID = billingID

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		inv := s.inventory.WithTx(tx)
		for _, item := range orderItems {
			if err := inv.ReserveAndDecrement(ctx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}

		payment := models.Payment{
			ID:            uuid.New(),
			OrderID:       order.ID,
			Amount:        totals.Total,
			TransactionID: receipt.TransactionID,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record payment")
		}

		return s.carts.WithTx(tx).Clear(ctx, loaded.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.orders.GetSummary(ctx, order.OrderNumber, owner)
}

// priceCart resolves live effective prices for every cart line and builds
// the order item snapshots from them.
func (s *service) priceCart(ctx context.Context, loaded *models.Cart) ([]pricing.LineInput, []models.OrderItem, error) {
	productIDs := make([]uuid.UUID, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		if item.Variant == nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "cart item missing variant")
		}
		productIDs = append(productIDs, item.Variant.ProductID)
	}

	byID, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, err
	}

	lines := make([]pricing.LineInput, 0, len(loaded.Items))
	orderItems := make([]models.OrderItem, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		product, ok := byID[item.Variant.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available")
		}
		price := product.EffectivePrice()
		lines = append(lines, pricing.LineInput{UnitPrice: price, Quantity: item.Quantity})
		orderItems = append(orderItems, models.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return lines, orderItems, nil
}
