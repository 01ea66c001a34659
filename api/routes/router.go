package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/refunds"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// CacheStore is the redis surface the HTTP layer needs: readiness, auth
// throttling and idempotent replays.
type CacheStore interface {
	redis.Pinger
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Cache    CacheStore
	Gatherer prometheus.Gatherer

	Users        users.Service
	Products     products.Service
	Cart         cart.Service
	Wishlist     wishlist.Service
	Addresses    address.Service
	Shipping     shipping.Service
	Orders       orders.Service
	Payments     payments.Service
	Transactions transactions.Service
	Refunds      refunds.Service
	Webhooks     webhookcontrollers.GatewayWebhookService
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	guestPolicy := middleware.NewAuthRateLimitPolicy(
		"guest",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		0,
	)

	// chi only knows the full route pattern once the endpoint is matched, so
	// idempotency wraps endpoints instead of whole groups.
	idem := middleware.Idempotency(p.Cache, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Cache))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/api/v1/webhooks/gateway", webhookcontrollers.GatewayWebhook(p.Webhooks, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Cache, logg)).Post("/register", controllers.AuthRegister(p.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Cache, logg)).Post("/login", controllers.AuthLogin(p.Users, logg))
		r.With(middleware.AuthRateLimit(guestPolicy, p.Cache, logg)).Post("/guest", controllers.AuthGuest(p.Users, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(p.Users, logg))
	})

	r.Get("/api/v1/products", controllers.ProductList(p.Products, logg))
	r.Get("/api/v1/products/{productId}", controllers.ProductGet(p.Products, logg))
	r.Get("/api/v1/categories", controllers.CategoryList(p.Products, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(p.Cart, logg))
			r.Delete("/", cartcontrollers.Clear(p.Cart, logg))
			r.With(idem).Post("/lines", cartcontrollers.AddLine(p.Cart, logg))
			r.Patch("/lines/{lineId}", cartcontrollers.UpdateLine(p.Cart, logg))
			r.Delete("/lines/{lineId}", cartcontrollers.RemoveLine(p.Cart, logg))
		})

		r.Post("/api/v1/shipping/quote", controllers.ShippingQuote(p.Shipping, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.With(idem).Post("/", ordercontrollers.Create(p.Orders, logg))
			r.Get("/", ordercontrollers.List(p.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(p.Orders, logg))
			r.Get("/{orderId}/transactions", ordercontrollers.Transactions(p.Transactions, logg))
			r.With(idem).Post("/{orderId}/payments/pix", ordercontrollers.PayPix(p.Payments, logg))
			r.With(idem).Post("/{orderId}/payments/card", ordercontrollers.PayCard(p.Payments, logg))
			r.With(idem).Post("/{orderId}/payments/redirect", ordercontrollers.PayRedirect(p.Payments, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))

			r.Route("/api/v1/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(p.Wishlist, logg))
				r.Post("/", controllers.WishlistAdd(p.Wishlist, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(p.Wishlist, logg))
			})
			r.Route("/api/v1/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(p.Addresses, logg))
				r.With(idem).Post("/", controllers.AddressCreate(p.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(p.Addresses, logg))
			})
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

		r.With(idem).Post("/products", controllers.AdminCreateProduct(p.Products, logg))
		r.Patch("/products/{productId}", controllers.AdminUpdateProduct(p.Products, logg))

		r.Route("/transactions/{transactionId}", func(r chi.Router) {
			r.Get("/", controllers.AdminTransactionGet(p.Transactions, logg))
			r.With(idem).Post("/refunds", controllers.AdminRefund(p.Refunds, logg))
			r.Patch("/antifraud", controllers.AdminAntifraudOverride(p.Transactions, logg))
		})
	})

	return r
}
