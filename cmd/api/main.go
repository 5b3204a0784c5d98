package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	cartcontrollers "github.com/stagepass/stagepass-backend/api/controllers/cart"
	"github.com/stagepass/stagepass-backend/api/routes"
	"github.com/stagepass/stagepass-backend/internal/cart"
	"github.com/stagepass/stagepass-backend/internal/checkout"
	"github.com/stagepass/stagepass-backend/internal/commerce"
	"github.com/stagepass/stagepass-backend/internal/hold"
	"github.com/stagepass/stagepass-backend/internal/orders"
	"github.com/stagepass/stagepass-backend/internal/pricing"
	"github.com/stagepass/stagepass-backend/internal/promo"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/db"
	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/metrics"
	"github.com/stagepass/stagepass-backend/pkg/migrate"
	"github.com/stagepass/stagepass-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)

	commerceClient, err := commerce.New(cfg.Commerce, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	ledger, err := hold.NewLedger(hold.LedgerParams{
		Logger:   logg,
		Config:   cfg.Hold,
		Notifier: hold.NewLogNotifier(logg),
		Metrics:  engineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation ledger", err)
		os.Exit(1)
	}

	coordinator, err := hold.NewCoordinator(commerceClient, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create release coordinator", err)
		os.Exit(1)
	}

	cartTTL := cfg.Hold.Duration * 2
	cartRepo, err := cart.NewRedisRepository(redisClient, cartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repository", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, ledger, coordinator, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	// Expiry drives release-then-clear; attached after construction to break
	// the ledger/cart cycle.
	ledger.SetExpiryHandler(cart.NewExpiryHandler(cartService, coordinator))

	promoStore, err := promo.NewRedisStore(redisClient, cartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo store", err)
		os.Exit(1)
	}

	promoResolver, err := promo.NewResolver(commerceClient, promoStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo resolver", err)
		os.Exit(1)
	}

	calculator := pricing.NewCalculator(cfg.Loyalty.PointsPerCurrencyUnit)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:     cartService,
		Promos:    promoResolver,
		Commerce:  commerceClient,
		Snapshots: orders.NewRepository(dbClient.DB()),
		Calc:      calculator,
		Insurance: cfg.Insurance,
		Logger:    logg,
		Metrics:   engineMetrics,
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
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			CartService:     cartService,
			CheckoutService: checkoutService,
			PromoResolver:   promoResolver,
			CartRenderer: cartcontrollers.Renderer{
				Promos:    promoResolver,
				Calc:      calculator,
				Insurance: cfg.Insurance,
				Holds:     ledger,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
