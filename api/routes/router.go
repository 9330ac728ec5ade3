package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bazaarlink-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/bazaarlink-backend/api/controllers/admin"
	cartcontrollers "github.com/angelmondragon/bazaarlink-backend/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/bazaarlink-backend/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/bazaarlink-backend/api/controllers/orders"
	walletcontrollers "github.com/angelmondragon/bazaarlink-backend/api/controllers/wallet"
	"github.com/angelmondragon/bazaarlink-backend/api/middleware"
	"github.com/angelmondragon/bazaarlink-backend/internal/cart"
	"github.com/angelmondragon/bazaarlink-backend/internal/cashout"
	checkoutsvc "github.com/angelmondragon/bazaarlink-backend/internal/checkout"
	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/internal/orders"
	"github.com/angelmondragon/bazaarlink-backend/internal/otp"
	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	otpService otp.Service,
	ledgerService ledger.Service,
	cashoutService cashout.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// Interfaces stay nil without a client so the middleware can pass through.
	var (
		idempotencyStore redis.IdempotencyStore
		limiterStore     middleware.RateLimiterStore
		redisPinger      controllers.Pinger
		dbPinger         controllers.Pinger
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		limiterStore = redisClient
		redisPinger = redisClient
	}
	if dbP != nil {
		dbPinger = dbP
	}

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutUserLimit,
	)
	otpPolicy := middleware.NewRateLimitPolicy(
		"otp_issue",
		cfg.RateLimit.OTPIssueWindow,
		0,
		cfg.RateLimit.OTPIssueUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbPinger,
			"redis": redisPinger,
		}))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleCustomer))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(cartService, logg))
				r.Delete("/", cartcontrollers.CartClear(cartService, logg))
				r.Post("/lines", cartcontrollers.CartAddLine(cartService, logg))
				r.Patch("/lines/{productId}", cartcontrollers.CartUpdateQuantity(cartService, logg))
				r.Delete("/lines/{productId}", cartcontrollers.CartRemoveLine(cartService, logg))
			})
			r.With(middleware.RateLimit(checkoutPolicy, limiterStore, logg)).
				Post("/checkout", checkoutcontrollers.Checkout(checkoutService, logg))
			r.Get("/order-groups/{groupId}", checkoutcontrollers.OrderGroupFetch(checkoutService, logg))
			r.Route("/orders/{orderId}", func(r chi.Router) {
				r.With(middleware.RateLimit(otpPolicy, limiterStore, logg)).
					Post("/otp", ordercontrollers.IssueOTP(otpService, logg))
				r.Post("/cancel", ordercontrollers.Cancel(ordersService, logg))
			})
		})

		r.Route("/courier/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleCourier))
			r.Get("/", ordercontrollers.CourierAssigned(ordersService, logg))
			r.Get("/available", ordercontrollers.CourierAvailable(ordersService, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.CourierOrderDetail(ordersService, logg))
				r.Post("/accept", ordercontrollers.CourierAccept(ordersService, logg))
				r.Put("/items/{itemId}/collected", ordercontrollers.CourierItemCollected(ordersService, logg))
				r.Post("/vendors/{vendorId}/confirm-pickup", ordercontrollers.CourierConfirmPickup(ordersService, logg))
				r.Post("/out-for-delivery", ordercontrollers.CourierOutForDelivery(ordersService, logg))
				r.Post("/deliver", ordercontrollers.CourierDeliver(ordersService, logg))
			})
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleVendor, enums.UserRoleCourier))
			r.Get("/", walletcontrollers.WalletFetch(ledgerService, logg))
			r.Get("/transactions", walletcontrollers.WalletTransactions(ledgerService, logg))
			r.Route("/cashouts", func(r chi.Router) {
				r.Get("/", walletcontrollers.CashoutList(cashoutService, logg))
				r.Post("/", walletcontrollers.CashoutCreate(cashoutService, logg))
				r.Post("/{cashoutId}/cancel", walletcontrollers.CashoutCancel(cashoutService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Route("/cashouts", func(r chi.Router) {
				r.Get("/", admincontrollers.CashoutQueue(cashoutService, logg))
				r.Post("/{cashoutId}/approve", admincontrollers.CashoutApprove(cashoutService, logg))
				r.Post("/{cashoutId}/reject", admincontrollers.CashoutReject(cashoutService, logg))
				r.Post("/{cashoutId}/transfer", admincontrollers.CashoutTransfer(cashoutService, logg))
				r.Post("/{cashoutId}/complete", admincontrollers.CashoutComplete(cashoutService, logg))
			})
			r.Route("/wallets/{walletId}", func(r chi.Router) {
				r.Get("/", admincontrollers.WalletDetail(ledgerService, logg))
				r.Post("/release", admincontrollers.WalletRelease(ledgerService, logg))
				r.Get("/reconcile", admincontrollers.WalletReconcile(ledgerService, logg))
			})
			r.Post("/orders/{orderId}/cancel", ordercontrollers.Cancel(ordersService, logg))
			r.Post("/order-groups/{groupId}/payment", admincontrollers.ConfirmPayment(checkoutService, logg))
		})
	})

	return r
}
