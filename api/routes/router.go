package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rgarciadev/atelier-backend/api/controllers"
	"github.com/rgarciadev/atelier-backend/api/middleware"
	cartsvc "github.com/rgarciadev/atelier-backend/internal/cart"
	checkoutsvc "github.com/rgarciadev/atelier-backend/internal/checkout"
	ordersvc "github.com/rgarciadev/atelier-backend/internal/orders"
	"github.com/rgarciadev/atelier-backend/internal/products"
	"github.com/rgarciadev/atelier-backend/internal/vault"
	"github.com/rgarciadev/atelier-backend/pkg/config"
	"github.com/rgarciadev/atelier-backend/pkg/db"
	"github.com/rgarciadev/atelier-backend/pkg/logger"
	pkgredis "github.com/rgarciadev/atelier-backend/pkg/redis"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DBPinger db.Pinger
	Redis    *pkgredis.Client
	Registry *prometheus.Registry

	Catalog  products.Repository
	Carts    cartsvc.Service
	Vault    vault.Service
	Orders   ordersvc.Service
	Checkout checkoutsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	idempotencyTTL := cfg.Checkout.IdempotencyTTL()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// registered accounts only
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, idempotencyTTL, logg))

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", controllers.SaveCard(deps.Vault, logg))
			r.Get("/me", controllers.GetCard(deps.Vault, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderNumber}", controllers.GetOrder(deps.Orders, logg))
		})

		r.Post("/checkout", controllers.CheckoutSavedCard(deps.Checkout, logg))
		r.Post("/checkout/new-card", controllers.CheckoutNewCard(deps.Checkout, logg))
	})

	// guest-capable surfaces; a bearer token still wins inside Guest
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Guest(cfg.JWT, logg))

		r.Get("/", controllers.GetCart(deps.Carts, deps.Catalog, logg))
		r.Put("/items", controllers.PutCartItem(deps.Carts, deps.Catalog, logg))
		r.Delete("/items/{variantID}", controllers.DeleteCartItem(deps.Carts, deps.Catalog, logg))
	})

	r.Route("/api/v1/guest", func(r chi.Router) {
		r.Use(middleware.Guest(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, idempotencyTTL, logg))

		r.Post("/checkout", controllers.CheckoutGuest(deps.Checkout, logg))
	})

	return r
}
