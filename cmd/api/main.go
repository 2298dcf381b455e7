package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rgarciadev/atelier-backend/api/routes"
	"github.com/rgarciadev/atelier-backend/internal/address"
	cartsvc "github.com/rgarciadev/atelier-backend/internal/cart"
	checkoutsvc "github.com/rgarciadev/atelier-backend/internal/checkout"
	"github.com/rgarciadev/atelier-backend/internal/inventory"
	ordersvc "github.com/rgarciadev/atelier-backend/internal/orders"
	"github.com/rgarciadev/atelier-backend/internal/pricing"
	"github.com/rgarciadev/atelier-backend/internal/products"
	"github.com/rgarciadev/atelier-backend/internal/vault"
	"github.com/rgarciadev/atelier-backend/pkg/config"
	"github.com/rgarciadev/atelier-backend/pkg/db"
	"github.com/rgarciadev/atelier-backend/pkg/db/models"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
	"github.com/rgarciadev/atelier-backend/pkg/metrics"
	"github.com/rgarciadev/atelier-backend/pkg/migrate"
	pkgredis "github.com/rgarciadev/atelier-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := openDatabase(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if !cfg.FeatureFlags.UseSQLite {
		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	taxRate, err := decimal.NewFromString(cfg.Checkout.TaxRatePercent)
	if err != nil {
		logg.Error(context.Background(), "invalid tax rate config", err)
		os.Exit(1)
	}
	shippingFee, err := decimal.NewFromString(cfg.Checkout.ShippingFeeUSD)
	if err != nil {
		logg.Error(context.Background(), "invalid shipping fee config", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	conn := dbClient.DB()
	catalogRepo := products.NewRepository(conn)
	addressRepo := address.NewRepository(conn)

	inventoryService, err := inventory.NewService(inventory.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartsvc.NewRepository(conn), inventoryService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	vaultService, err := vault.NewService(vault.NewRepository(conn), cfg.Vault, vault.NewSimulatedAuthorizer())
	if err != nil {
		logg.Error(context.Background(), "failed to create vault service", err)
		os.Exit(1)
	}
	ordersService, err := ordersvc.NewService(ordersvc.NewRepository(conn), addressRepo, cfg.Checkout.DeliveryDays)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Tx:        dbClient,
		Carts:     cartService,
		Products:  catalogRepo,
		Pricing:   pricing.NewEngine(taxRate, shippingFee),
		Vault:     vaultService,
		Inventory: inventoryService,
		Orders:    ordersService,
		Addresses: addressRepo,
		Metrics:   checkoutMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DBPinger: dbClient,
			Redis:    redisClient,
			Registry: registry,
			Catalog:  catalogRepo,
			Carts:    cartService,
			Vault:    vaultService,
			Orders:   ordersService,
			Checkout: checkoutService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// openDatabase boots postgres, or an in-process sqlite file when the dev
// flag is set so the API can run without external services.
func openDatabase(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*db.Client, error) {
	if !cfg.FeatureFlags.UseSQLite || !cfg.App.IsDev() {
		return db.New(ctx, cfg.DB, logg)
	}

	conn, err := gorm.Open(sqlite.Open("atelier-dev.db"), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		return nil, err
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Color{},
		&models.Size{},
		&models.Product{},
		&models.Variant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PaymentCard{},
	)
	if err != nil {
		return nil, err
	}
	logg.Info(ctx, "sqlite dev database ready")
	return db.NewWithConn(conn), nil
}
