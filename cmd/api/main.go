package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/foliotrack/foliotrack/internal/infra/gateway/marketdata"
	"github.com/foliotrack/foliotrack/internal/infra/postgres"
	infraRedis "github.com/foliotrack/foliotrack/internal/infra/redis"
	"github.com/foliotrack/foliotrack/internal/ledger"
	"github.com/foliotrack/foliotrack/internal/module/valuation"
	"github.com/foliotrack/foliotrack/internal/platform/account"
	"github.com/foliotrack/foliotrack/internal/platform/asset"
	"github.com/foliotrack/foliotrack/internal/platform/portfolio"
	"github.com/foliotrack/foliotrack/internal/transport/httpapi"
	"github.com/foliotrack/foliotrack/internal/transport/httpapi/handler"
	"github.com/foliotrack/foliotrack/pkg/config"
	"github.com/foliotrack/foliotrack/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefault(cfg.Env)
	log.Info("Starting foliotrack API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Database
	db, err := postgres.NewPool(ctx, postgres.Config{
		URL:             cfg.Postgres.URL,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		MaxConnIdleTime: cfg.Postgres.MaxConnIdleTime,
	})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database connection established")

	if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
		log.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}
	log.Info("Database schema up to date")

	// Redis price cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established")

	priceCache := infraRedis.NewCacheWithTTL(redisClient, cfg.Prices.CacheTTL, log)
	priceProvider := marketdata.NewClient(marketdata.Config{
		BaseURL: cfg.Prices.QuoteAPIURL,
		APIKey:  cfg.Prices.QuoteAPIKey,
		Timeout: cfg.Prices.QuoteTimeout,
	}, log)

	// Repositories
	accountRepo := postgres.NewAccountRepository(db.Pool)
	assetRepo := postgres.NewAssetRepository(db.Pool)
	ledgerRepo := postgres.NewLedgerRepository(db.Pool)
	portfolioRepo := postgres.NewPortfolioRepository(db.Pool)

	// Services
	accountSvc := account.NewService(accountRepo)
	assetSvc := asset.NewService(assetRepo, priceCache, log)
	ledgerSvc := ledger.NewService(ledgerRepo, accountSvc, assetSvc, log)
	portfolioSvc := portfolio.NewService(portfolioRepo)
	valuationSvc := valuation.NewService(accountRepo, assetRepo, ledgerRepo, portfolioRepo)
	log.Info("Services initialized")

	// Background price refresh; disabled when no quote API is configured
	var priceUpdater *asset.PriceUpdater
	if cfg.Prices.QuoteAPIURL != "" {
		priceUpdater, err = asset.NewPriceUpdater(assetRepo, priceCache, priceProvider, asset.PriceUpdaterConfig{
			Interval:  cfg.Prices.RefreshInterval,
			BatchSize: 50,
		}, log)
		if err != nil {
			log.Error("Failed to create price updater", "error", err)
			os.Exit(1)
		}
		if err := priceUpdater.Start(ctx); err != nil {
			log.Error("Failed to start price updater", "error", err)
			os.Exit(1)
		}
		log.Info("Price updater started", "interval", cfg.Prices.RefreshInterval)
	} else {
		log.Warn("QUOTE_API_URL not set, price updater disabled")
	}

	// HTTP handlers
	accountHandler := handler.NewAccountHandler(accountSvc, valuationSvc)
	// A nil *PriceUpdater must not reach the interface field, or the nil
	// check inside the handler would pass a non-nil interface
	var refresher handler.PriceRefresher
	if priceUpdater != nil {
		refresher = priceUpdater
	}
	assetHandler := handler.NewAssetHandler(assetSvc, refresher)
	transactionHandler := handler.NewTransactionHandler(ledgerSvc)
	portfolioHandler := handler.NewPortfolioHandler(portfolioSvc, valuationSvc)
	dashboardHandler := handler.NewDashboardHandler(valuationSvc)
	healthHandler := handler.NewHealthHandler(db, redisPinger{redisClient})

	r := httpapi.NewRouter(httpapi.Config{
		Logger:             log,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		AccountHandler:     accountHandler,
		AssetHandler:       assetHandler,
		TransactionHandler: transactionHandler,
		PortfolioHandler:   portfolioHandler,
		DashboardHandler:   dashboardHandler,
		HealthHandler:      healthHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	if priceUpdater != nil {
		priceUpdater.Stop()
		log.Info("Price updater stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}

// redisPinger adapts the Redis client to the health handler's Pinger
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
