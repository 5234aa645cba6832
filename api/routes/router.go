package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luciamendez/farmlink-backend/api/controllers"
	cartcontrollers "github.com/luciamendez/farmlink-backend/api/controllers/cart"
	listingcontrollers "github.com/luciamendez/farmlink-backend/api/controllers/listings"
	ordercontrollers "github.com/luciamendez/farmlink-backend/api/controllers/orders"
	webhookcontrollers "github.com/luciamendez/farmlink-backend/api/controllers/webhooks"
	"github.com/luciamendez/farmlink-backend/api/middleware"
	"github.com/luciamendez/farmlink-backend/internal/cart"
	"github.com/luciamendez/farmlink-backend/internal/catalog"
	"github.com/luciamendez/farmlink-backend/internal/orders"
	"github.com/luciamendez/farmlink-backend/pkg/config"
	"github.com/luciamendez/farmlink-backend/pkg/db"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
	"github.com/luciamendez/farmlink-backend/pkg/metrics"
	pkgredis "github.com/luciamendez/farmlink-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *pkgredis.Client
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
	Catalog     catalog.Service
	Cart        cart.Service
	Orders      orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// public catalog browse, no auth
	r.Route("/api/v1/listings", func(r chi.Router) {
		r.Get("/", listingcontrollers.Search(deps.Catalog, cfg.Checkout.DefaultSearchRadiusKm, logg))
		r.Get("/{listingId}", listingcontrollers.Detail(deps.Catalog, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", webhookcontrollers.Payment(deps.Orders, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/cart/quote", cartcontrollers.Quote(deps.Cart, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
		})

		r.Route("/farmer", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleFarmer.String(), enums.RoleAdmin.String()))
			r.Route("/listings", func(r chi.Router) {
				r.Get("/", listingcontrollers.ListMine(deps.Catalog, logg))
				r.Post("/", listingcontrollers.Create(deps.Catalog, logg))
				r.Put("/{listingId}", listingcontrollers.Update(deps.Catalog, logg))
				r.Put("/{listingId}/stock", listingcontrollers.AdjustStock(deps.Catalog, logg))
			})
		})
	})

	return r
}
