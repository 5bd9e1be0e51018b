package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fitplay-hq/fitplay-backend/api/controllers"
	"github.com/fitplay-hq/fitplay-backend/api/middleware"
	"github.com/fitplay-hq/fitplay-backend/internal/auth"
	"github.com/fitplay-hq/fitplay-backend/internal/catalog"
	"github.com/fitplay-hq/fitplay-backend/internal/orders"
	"github.com/fitplay-hq/fitplay-backend/internal/payments"
	"github.com/fitplay-hq/fitplay-backend/internal/users"
	"github.com/fitplay-hq/fitplay-backend/internal/vouchers"
	"github.com/fitplay-hq/fitplay-backend/internal/wallets"
	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/redis"
)

const (
	loginIPLimit        = 10
	loginWindow         = time.Minute
	resetConfirmIPLimit = 10
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	userService users.Service,
	catalogService catalog.Service,
	walletService wallets.Service,
	orderService orders.Service,
	voucherService vouchers.Service,
	paymentService payments.Service,
) http.Handler {
	var idemStore redis.IdempotencyStore
	var limiter rateLimiter
	var readyCache redis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		limiter = redisClient
		readyCache = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, readyCache))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.IPRateLimit("login", loginIPLimit, loginWindow, limiter, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/password-reset", controllers.AuthRequestPasswordReset(authService, logg))
		r.With(middleware.IPRateLimit("pwreset-confirm", resetConfirmIPLimit, cfg.ResetLimit.Window, limiter, logg)).
			Patch("/password-reset", controllers.AuthConfirmPasswordReset(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogListProducts(catalogService, logg))
			r.Get("/products/{productID}", controllers.CatalogGetProduct(catalogService, logg))
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/me", controllers.WalletMe(walletService, logg))
			r.Get("/me/transactions", controllers.WalletMyTransactions(walletService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleHR, enums.UserRoleAdmin))
				r.Post("/allocate", controllers.WalletAllocate(walletService, logg))
				r.Post("/adjust", controllers.WalletAdjust(walletService, userService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderPlace(orderService, logg))
			r.Get("/", controllers.OrderList(orderService, logg))
			r.Get("/{orderID}", controllers.OrderGet(orderService, logg))
			r.Patch("/{orderID}", controllers.OrderTransition(orderService, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).
				Delete("/{orderID}", controllers.OrderDelete(orderService, logg))
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Post("/redeem", controllers.VoucherRedeem(voucherService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleHR, enums.UserRoleAdmin))
				r.Get("/", controllers.VoucherList(voucherService, logg))
				r.Post("/", controllers.VoucherCreate(voucherService, logg))
				r.Delete("/{voucherID}", controllers.VoucherDeactivate(voucherService, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/verify-order", controllers.PaymentVerifyOrder(paymentService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleHR, enums.UserRoleAdmin))
			r.Get("/", controllers.UserList(userService, logg))
			r.Post("/", controllers.UserProvision(userService, logg))
		})
	})

	return r
}
