package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/internal/address"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Address{}, &models.Product{}, &models.Color{}, &models.Size{},
		&models.Variant{}, &models.Order{}, &models.OrderItem{}, &models.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), address.NewRepository(db), 7)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return v
}

func seedOrder(t *testing.T, db *gorm.DB, owner types.Owner) *models.Order {
	t.Helper()

	guestID := uuid.New()
	addr := models.Address{
		ID:         uuid.New(),
		GuestID:    &guestID,
		FullName:   "Dana Smith",
		Line1:      "1 Main St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
		Country:    "US",
	}
	if err := db.Create(&addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}

	color := models.Color{ID: uuid.New(), Name: "Black"}
	size := models.Size{ID: uuid.New(), Name: "M"}
	if err := db.Create(&color).Error; err != nil {
		t.Fatalf("seed color: %v", err)
	}
	if err := db.Create(&size).Error; err != nil {
		t.Fatalf("seed size: %v", err)
	}
	product := models.Product{
		ID:           uuid.New(),
		Name:         "Linen Shirt",
		Category:     "tops",
		CostPrice:    d(t, "40.00"),
		SellingPrice: d(t, "100.00"),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.Variant{
		ID: uuid.New(), ProductID: product.ID,
		ColorID: color.ID, SizeID: size.ID, Quantity: 5,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}

	order := &models.Order{
		ID:                uuid.New(),
		UserID:            owner.UserID(),
		GuestID:           owner.GuestID(),
		ShippingAddressID: addr.ID,
		BillingAddressID:  addr.ID,
		Subtotal:          d(t, "100.00"),
		Tax:               d(t, "6.00"),
		ShippingFee:       d(t, "11.95"),
		TotalAmount:       d(t, "117.95"),
		Status:            enums.OrderStatusOrdered,
		PaymentMethod:     enums.PaymentMethodSavedCard,
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			ProductID: product.ID,
			VariantID: variant.ID,
			Quantity:  1,
			Price:     d(t, "100.00"),
		}},
		Payment: &models.Payment{
			ID:            uuid.New(),
			Amount:        d(t, "117.95"),
			TransactionID: "SIM-TEST",
		},
	}
	return order
}

func TestNewOrderNumber(t *testing.T) {
	t.Parallel()

	now := time.Now()
	number, err := NewOrderNumber(now)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !strings.HasPrefix(number, "ORD-") {
		t.Fatalf("unexpected prefix: %s", number)
	}
	if number != strings.ToUpper(number) {
		t.Fatalf("expected uppercase, got %s", number)
	}

	other, err := NewOrderNumber(now)
	if err != nil {
		t.Fatalf("mint again: %v", err)
	}
	if number == other {
		t.Fatalf("expected random suffix to differ, got %s twice", number)
	}
}

func TestCreateAssignsNumber(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())

	order := seedOrder(t, db, owner)
	if err := svc.Create(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.OrderNumber == "" {
		t.Fatal("expected order number assigned")
	}
}

func TestCreateRegeneratesCollidingNumber(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	owner := types.UserOwner(uuid.New())

	existing := seedOrder(t, db, owner)
	existing.OrderNumber = "ORD-COLLIDE1"
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("seed colliding order: %v", err)
	}

	minted := []string{"ORD-COLLIDE1", "ORD-FRESH001"}
	repo := &repository{db: db, mint: func(time.Time) (string, error) {
		number := minted[0]
		if len(minted) > 1 {
			minted = minted[1:]
		}
		return number, nil
	}}

	order := seedOrder(t, db, owner)
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.OrderNumber != "ORD-FRESH001" {
		t.Fatalf("expected regenerated number, got %s", order.OrderNumber)
	}

	var count int64
	if err := db.Model(&models.Order{}).Where("order_number = ?", "ORD-FRESH001").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 persisted order, got %d", count)
	}
}

func TestCreateExhaustedCollisionConflicts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	owner := types.UserOwner(uuid.New())

	existing := seedOrder(t, db, owner)
	existing.OrderNumber = "ORD-COLLIDE2"
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("seed colliding order: %v", err)
	}

	// the regenerated number collides too
	repo := &repository{db: db, mint: func(time.Time) (string, error) {
		return "ORD-COLLIDE2", nil
	}}

	order := seedOrder(t, db, owner)
	err := repo.Create(ctx, order)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetSummary(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())

	order := seedOrder(t, db, owner)
	if err := svc.Create(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}

	summary, err := svc.GetSummary(ctx, order.OrderNumber, owner)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}

	if summary.OrderNumber != order.OrderNumber {
		t.Fatalf("unexpected number %s", summary.OrderNumber)
	}
	if !summary.TotalAmount.Equal(d(t, "117.95")) {
		t.Fatalf("unexpected total %s", summary.TotalAmount)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(summary.Items))
	}
	item := summary.Items[0]
	if item.ProductName != "Linen Shirt" || item.Color != "Black" || item.Size != "M" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if !item.LineTotal.Equal(d(t, "100.00")) {
		t.Fatalf("unexpected line total %s", item.LineTotal)
	}

	wantDelivery := summary.PlacedAt.AddDate(0, 0, 7)
	if !summary.EstimatedDelivery.Equal(wantDelivery) {
		t.Fatalf("expected delivery %s, got %s", wantDelivery, summary.EstimatedDelivery)
	}

	if summary.ShippingAddress == nil || summary.ShippingAddress.City != "Austin" {
		t.Fatalf("unexpected shipping address: %+v", summary.ShippingAddress)
	}
	if summary.BillingAddress != summary.ShippingAddress {
		t.Fatal("expected billing aliased to shipping for same address id")
	}
	if summary.Payment == nil || summary.Payment.TransactionID != "SIM-TEST" {
		t.Fatalf("unexpected payment: %+v", summary.Payment)
	}
}

func TestGetSummaryWrongOwner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())

	order := seedOrder(t, db, owner)
	if err := svc.Create(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.GetSummary(ctx, order.OrderNumber, types.UserOwner(uuid.New()))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for other owner, got %v", err)
	}

	_, err = svc.GetSummary(ctx, order.OrderNumber, types.GuestOwner(owner.ID()))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for guest with same id, got %v", err)
	}
}

func TestListSummaries(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())

	first := seedOrder(t, db, owner)
	if err := svc.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := seedOrder(t, db, owner)
	if err := svc.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	summaries, err := svc.ListSummaries(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(summaries))
	}

	other, err := svc.ListSummaries(ctx, types.UserOwner(uuid.New()))
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty history, got %d", len(other))
	}
}
