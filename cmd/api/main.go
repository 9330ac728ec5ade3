package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bazaarlink-backend/api/routes"
	"github.com/angelmondragon/bazaarlink-backend/internal/cart"
	"github.com/angelmondragon/bazaarlink-backend/internal/cashout"
	"github.com/angelmondragon/bazaarlink-backend/internal/checkout"
	"github.com/angelmondragon/bazaarlink-backend/internal/coupons"
	"github.com/angelmondragon/bazaarlink-backend/internal/feeestimate"
	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/internal/orders"
	"github.com/angelmondragon/bazaarlink-backend/internal/otp"
	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	"github.com/angelmondragon/bazaarlink-backend/internal/verification"
	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
	"github.com/angelmondragon/bazaarlink-backend/pkg/migrate"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox"
	"github.com/angelmondragon/bazaarlink-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	domainMetrics := metrics.NewDomainMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	services, err := buildServices(cfg, logg, dbClient, redisClient, outboxService, domainMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			services.cart,
			services.checkout,
			services.orders,
			services.otp,
			services.ledger,
			services.cashout,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

type apiServices struct {
	cart     cart.Service
	checkout checkout.Service
	orders   orders.Service
	otp      otp.Service
	ledger   ledger.Service
	cashout  cashout.Service
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	outboxService *outbox.Service,
	domainMetrics *metrics.DomainMetrics,
) (*apiServices, error) {
	conn := dbClient.DB()

	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient)
	if err != nil {
		return nil, err
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn), dbClient, outboxService, domainMetrics, logg)
	if err != nil {
		return nil, err
	}

	verificationService, err := verification.NewService(verification.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	otpService, err := otp.NewService(otp.NewRepository(conn), redisClient, cfg.OTP)
	if err != nil {
		return nil, err
	}

	feeService, err := feeestimate.NewService(feeestimate.NewRepository(conn), cfg.Checkout)
	if err != nil {
		return nil, err
	}

	couponService, err := coupons.NewService(coupons.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:      dbClient,
		Repo:    checkout.NewRepository(conn),
		Cart:    cartService,
		Fees:    feeService,
		Coupons: couponService,
		Gateway: checkout.DeferredGateway{},
		Outbox:  outboxService,
		Metrics: domainMetrics,
		Logger:  logg,
		Options: checkout.Options{
			TaxRate: cfg.Checkout.TaxRateDecimal(),
			Fallback: pricing.FeeQuote{
				FeePaise:   cfg.Checkout.FallbackFeePaise,
				DistanceKm: cfg.Checkout.FallbackDistanceKm,
			},
			OnlinePayments: cfg.FeatureFlags.OnlinePayments,
		},
	})
	if err != nil {
		return nil, err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Tx:             dbClient,
		Repo:           orders.NewRepository(conn),
		Ledger:         ledgerService,
		OTP:            otpService,
		Verifier:       verificationService,
		Outbox:         outboxService,
		Metrics:        domainMetrics,
		Logger:         logg,
		CommissionRate: cfg.Settlement.CommissionRateDecimal(),
	})
	if err != nil {
		return nil, err
	}

	cashoutService, err := cashout.NewService(cashout.ServiceParams{
		Tx:       dbClient,
		Repo:     cashout.NewRepository(conn),
		Ledger:   ledgerService,
		Verifier: verificationService,
		Outbox:   outboxService,
		Metrics:  domainMetrics,
		Logger:   logg,
		Options: cashout.Options{
			MinimumPaise:         cfg.Settlement.CashoutMinimumPaise,
			RequireOwnerVerified: cfg.Settlement.RequireOwnerVerified,
		},
	})
	if err != nil {
		return nil, err
	}

	return &apiServices{
		cart:     cartService,
		checkout: checkoutService,
		orders:   ordersService,
		otp:      otpService,
		ledger:   ledgerService,
		cashout:  cashoutService,
	}, nil
}
