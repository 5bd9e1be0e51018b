package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fitplay-hq/fitplay-backend/api/routes"
	"github.com/fitplay-hq/fitplay-backend/internal/auth"
	"github.com/fitplay-hq/fitplay-backend/internal/catalog"
	"github.com/fitplay-hq/fitplay-backend/internal/orders"
	"github.com/fitplay-hq/fitplay-backend/internal/payments"
	"github.com/fitplay-hq/fitplay-backend/internal/users"
	"github.com/fitplay-hq/fitplay-backend/internal/vouchers"
	"github.com/fitplay-hq/fitplay-backend/internal/wallets"
	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/mailer"
	"github.com/fitplay-hq/fitplay-backend/pkg/migrate"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/redis"
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

	mailClient, err := mailer.New(cfg.Mailer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	userRepo := users.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)

	walletService, err := wallets.NewService(wallets.NewRepository(conn), dbClient, outboxSvc, cfg.Wallet)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, dbClient, walletService, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		orders.NewRepository(conn),
		catalogRepo,
		userRepo,
		walletService,
		dbClient,
		outboxSvc,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	voucherService, err := vouchers.NewService(vouchers.NewRepository(conn), walletService, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create voucher service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(
		userRepo,
		auth.NewRepository(conn),
		dbClient,
		redisClient,
		mailClient,
		cfg.JWT,
		cfg.Password,
		cfg.ResetLimit,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	gateway, err := payments.NewGateway(cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}
	paymentService, err := payments.NewService(gateway, orderService, catalogRepo, cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			authService,
			userService,
			catalogService,
			walletService,
			orderService,
			voucherService,
			paymentService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
