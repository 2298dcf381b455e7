package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
)

// Summary is the read model of a placed order, shared by the checkout
// response and order history.
type Summary struct {
	OrderNumber       string              `json:"order_number"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	Items             []SummaryItem       `json:"items"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	Tax               decimal.Decimal     `json:"tax"`
	ShippingFee       decimal.Decimal     `json:"shipping_fee"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	Payment           *SummaryPayment     `json:"payment,omitempty"`
	ShippingAddress   *SummaryAddress     `json:"shipping_address,omitempty"`
	BillingAddress    *SummaryAddress     `json:"billing_address,omitempty"`
	PlacedAt          time.Time           `json:"placed_at"`
	EstimatedDelivery time.Time           `json:"estimated_delivery"`
}

type SummaryItem struct {
	ProductName string          `json:"product_name"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type SummaryPayment struct {
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}

type SummaryAddress struct {
	FullName   string  `json:"full_name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

func summaryAddress(addr *models.Address) *SummaryAddress {
	if addr == nil {
		return nil
	}
	return &SummaryAddress{
		FullName:   addr.FullName,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}
