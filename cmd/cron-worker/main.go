package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bazaarlink-backend/internal/cart"
	"github.com/angelmondragon/bazaarlink-backend/internal/checkout"
	"github.com/angelmondragon/bazaarlink-backend/internal/coupons"
	"github.com/angelmondragon/bazaarlink-backend/internal/cron"
	"github.com/angelmondragon/bazaarlink-backend/internal/feeestimate"
	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
	"github.com/angelmondragon/bazaarlink-backend/pkg/migrate"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox"
	"github.com/angelmondragon/bazaarlink-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	domainMetrics := metrics.NewDomainMetrics(prometheus.DefaultRegisterer)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, dbClient, domainMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"once":        *once,
	})
	logg.Info(ctx, "starting cron worker")

	if !*once {
		go func() {
			if err := metrics.Serve(ctx, cfg.Service.MetricsAddr, prometheus.DefaultGatherer); err != nil {
				logg.Error(ctx, "metrics listener stopped", err)
			}
		}()
	}

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, domainMetrics *metrics.DomainMetrics) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	outboxService := outbox.NewService(outboxRepo, logg)

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn), dbClient, outboxService, domainMetrics, logg)
	if err != nil {
		return nil, err
	}
	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient)
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

	expiryJob, err := cron.NewPendingPaymentExpiryJob(cron.PendingPaymentExpiryJobParams{
		Logger:    logg,
		Expirer:   checkoutService,
		TTL:       cfg.Checkout.PendingPaymentTTL,
		BatchSize: cfg.Cron.PendingPaymentBatch,
	})
	if err != nil {
		return nil, err
	}
	reconcileJob, err := cron.NewWalletReconcileJob(cron.WalletReconcileJobParams{
		Logger:    logg,
		Ledger:    ledgerService,
		Metrics:   domainMetrics,
		BatchSize: cfg.Settlement.ReconcileBatchSize,
	})
	if err != nil {
		return nil, err
	}
	auditJob, err := cron.NewFallbackFeeAuditJob(cron.FallbackFeeAuditJobParams{
		Logger:  logg,
		Counter: checkoutService,
		Window:  cfg.Cron.FallbackAuditWindow,
	})
	if err != nil {
		return nil, err
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetention,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(expiryJob, reconcileJob, auditJob, retentionJob), nil
}

// lockName scopes the cron lock per environment so staging and prod workers
// sharing a Redis do not block each other.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
