package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Color{}, &models.Size{}, &models.Variant{}); err != nil {
		t.Fatalf("migrate variants: %v", err)
	}
	return db
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

func TestReserveAndDecrement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 5)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.ReserveAndDecrement(ctx, variantID, 3); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	variant, err := svc.FindVariant(ctx, variantID)
	if err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 2 {
		t.Fatalf("expected 2 remaining, got %d", variant.Quantity)
	}
}

func TestReserveAndDecrementInsufficient(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 2)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.ReserveAndDecrement(ctx, variantID, 3)
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["available"] != 2 {
		t.Fatalf("expected available 2, got %v", details["available"])
	}

	// the failed attempt must not touch stock
	variant, err := svc.FindVariant(ctx, variantID)
	if err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 2 {
		t.Fatalf("expected stock untouched at 2, got %d", variant.Quantity)
	}
}

func TestReserveAndDecrementExactStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 4)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.ReserveAndDecrement(ctx, variantID, 4); err != nil {
		t.Fatalf("decrement to zero: %v", err)
	}
	variant, err := svc.FindVariant(ctx, variantID)
	if err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 0 {
		t.Fatalf("expected 0 remaining, got %d", variant.Quantity)
	}

	err = svc.ReserveAndDecrement(ctx, variantID, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock on empty variant, got %v", err)
	}
}

func TestReserveAndDecrementConcurrent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	// a single pooled connection keeps sqlite from returning busy errors;
	// the goroutines still race through the conditional UPDATE
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	const stock = 5
	const attempts = 8
	variantID := seedVariant(t, db, stock)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.ReserveAndDecrement(ctx, variantID, 1)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
			t.Fatalf("unexpected error: %v", err)
		}
		insufficient++
	}
	if succeeded != stock {
		t.Fatalf("expected %d successful reservations, got %d", stock, succeeded)
	}
	if insufficient != attempts-stock {
		t.Fatalf("expected %d insufficient-stock failures, got %d", attempts-stock, insufficient)
	}

	variant, err := svc.FindVariant(ctx, variantID)
	if err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 0 {
		t.Fatalf("expected 0 remaining, got %d", variant.Quantity)
	}
}

func TestReserveAndDecrementInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 5)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.ReserveAndDecrement(ctx, variantID, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckAvailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 3)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ok, err := svc.CheckAvailable(ctx, variantID, 3)
	if err != nil || !ok {
		t.Fatalf("expected available, ok=%v err=%v", ok, err)
	}
	ok, err = svc.CheckAvailable(ctx, variantID, 4)
	if err != nil || ok {
		t.Fatalf("expected unavailable, ok=%v err=%v", ok, err)
	}

	_, err = svc.CheckAvailable(ctx, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRestock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 1)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Restock(ctx, variantID, 9); err != nil {
		t.Fatalf("restock: %v", err)
	}
	variant, err := svc.FindVariant(ctx, variantID)
	if err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 10 {
		t.Fatalf("expected 10, got %d", variant.Quantity)
	}

	err = svc.Restock(ctx, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
