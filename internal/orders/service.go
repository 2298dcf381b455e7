// Package orders persists placed orders and assembles their read model. An
// order never changes after creation; the summary is a pure join over the
// snapshotted rows.
package orders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/internal/address"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

type Service interface {
	Create(ctx context.Context, order *models.Order) error
	// GetSummary returns the full read model for one of the owner's orders.
	GetSummary(ctx context.Context, orderNumber string, owner types.Owner) (*Summary, error)
	// ListSummaries returns the owner's order history, newest first.
	ListSummaries(ctx context.Context, owner types.Owner) ([]Summary, error)
	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo         Repository
	addresses    address.Repository
	deliveryDays int
}

func NewService(repo Repository, addresses address.Repository, deliveryDays int) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository is required")
	}
	if addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repository is required")
	}
	if deliveryDays <= 0 {
		deliveryDays = 7
	}
	return &service{repo: repo, addresses: addresses, deliveryDays: deliveryDays}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	clone := *s
	clone.repo = s.repo.WithTx(tx)
	clone.addresses = s.addresses.WithTx(tx)
	return &clone
}

func (s *service) Create(ctx context.Context, order *models.Order) error {
	return s.repo.Create(ctx, order)
}

func (s *service) GetSummary(ctx context.Context, orderNumber string, owner types.Owner) (*Summary, error) {
	order, err := s.repo.FindByNumberForOwner(ctx, orderNumber, owner)
	if err != nil {
		return nil, err
	}
	return s.buildSummary(ctx, order)
}

func (s *service) ListSummaries(ctx context.Context, owner types.Owner) ([]Summary, error) {
	rows, err := s.repo.ListForOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(rows))
	for i := range rows {
		summary, err := s.buildSummary(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (s *service) buildSummary(ctx context.Context, order *models.Order) (*Summary, error) {
	items := make([]SummaryItem, 0, len(order.Items))
	for _, item := range order.Items {
		entry := SummaryItem{
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			LineTotal: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if item.Product != nil {
			entry.ProductName = item.Product.Name
			if len(item.Product.ImageURLs) > 0 {
				entry.ImageURL = item.Product.ImageURLs[0]
			}
		}
		if item.Variant != nil {
			if item.Variant.Color != nil {
				entry.Color = item.Variant.Color.Name
			}
			if item.Variant.Size != nil {
				entry.Size = item.Variant.Size.Name
			}
		}
		items = append(items, entry)
	}

	summary := &Summary{
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PaymentMethod:     order.PaymentMethod,
		Items:             items,
		Subtotal:          order.Subtotal,
		Tax:               order.Tax,
		ShippingFee:       order.ShippingFee,
		TotalAmount:       order.TotalAmount,
		PlacedAt:          order.CreatedAt,
		EstimatedDelivery: order.CreatedAt.AddDate(0, 0, s.deliveryDays),
	}
	if order.Payment != nil {
		summary.Payment = &SummaryPayment{
			Amount:        order.Payment.Amount,
			TransactionID: order.Payment.TransactionID,
		}
	}

	shipping, err := s.addresses.FindByID(ctx, order.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	summary.ShippingAddress = summaryAddress(shipping)
	if order.BillingAddressID == order.ShippingAddressID {
		summary.BillingAddress = summary.ShippingAddress
	} else {
		billing, err := s.addresses.FindByID(ctx, order.BillingAddressID)
		if err != nil {
			return nil, err
		}
		summary.BillingAddress = summaryAddress(billing)
	}
	return summary, nil
}
