package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/internal/inventory"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Color{}, &models.Size{}, &models.Variant{},
		&models.Cart{}, &models.CartItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	inv, err := inventory.NewService(inventory.NewRepository(db))
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	svc, err := NewService(NewRepository(db), inv)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return svc
}

func seedVariant(t *testing.T, db *gorm.DB, qty int) uuid.UUID {
	t.Helper()
	variant := models.Variant{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		ColorID:   uuid.New(),
		SizeID:    uuid.New(),
		Quantity:  qty,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func TestGetOrCreateLazy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())

	first, err := svc.GetOrCreate(ctx, owner)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	second, err := svc.GetOrCreate(ctx, owner)
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one cart per owner, got %s and %s", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.Cart{}).Count(&count).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 cart, got %d", count)
	}
}

func TestPutItemUpserts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.GuestOwner(uuid.New())
	variantID := seedVariant(t, db, 10)

	cart, err := svc.PutItem(ctx, owner, variantID, 2)
	if err != nil {
		t.Fatalf("put item: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", cart.Items)
	}

	cart, err = svc.PutItem(ctx, owner, variantID, 5)
	if err != nil {
		t.Fatalf("put item again: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity replaced, got %+v", cart.Items)
	}
}

func TestPutItemInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())
	variantID := seedVariant(t, db, 1)

	_, err := svc.PutItem(ctx, owner, variantID, 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestPutItemQuantityBounds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())
	variantID := seedVariant(t, db, 100)

	for _, qty := range []int{0, -1, maxLineQuantity + 1} {
		_, err := svc.PutItem(ctx, owner, variantID, qty)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for qty %d, got %v", qty, err)
		}
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	owner := types.UserOwner(uuid.New())
	variantA := seedVariant(t, db, 10)
	variantB := seedVariant(t, db, 10)

	if _, err := svc.PutItem(ctx, owner, variantA, 1); err != nil {
		t.Fatalf("put a: %v", err)
	}
	cart, err := svc.PutItem(ctx, owner, variantB, 2)
	if err != nil {
		t.Fatalf("put b: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(cart.Items))
	}

	cart, err = svc.RemoveItem(ctx, owner, variantA)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].VariantID != variantB {
		t.Fatalf("unexpected items after remove: %+v", cart.Items)
	}

	_, err = svc.RemoveItem(ctx, owner, variantA)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for removed item, got %v", err)
	}

	if err := svc.Clear(ctx, cart.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	var count int64
	if err := db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cart, got %d items", count)
	}
}
