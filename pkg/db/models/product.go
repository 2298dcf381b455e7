package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents the canonical catalog listing. The sale CHECK in the
// schema guarantees sale_price < selling_price whenever on_sale is set.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string           `gorm:"column:name;not null"`
	Category     string           `gorm:"column:category;not null"`
	CostPrice    decimal.Decimal  `gorm:"column:cost_price;type:numeric(10,2);not null"`
	SellingPrice decimal.Decimal  `gorm:"column:selling_price;type:numeric(10,2);not null"`
	OnSale       bool             `gorm:"column:on_sale;not null;default:false"`
	SalePrice    *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	ImageURLs    pq.StringArray   `gorm:"column:image_urls;type:text[];not null;default:ARRAY[]::text[]"`
	Variants     []Variant        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice is the price actually charged right now: the sale price
// while on sale, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.OnSale && p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.SellingPrice
}
