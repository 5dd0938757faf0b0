package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kestrelpay/switchboard-backend/api/routes"
	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/internal/connectors/square"
	"github.com/kestrelpay/switchboard-backend/internal/customers"
	"github.com/kestrelpay/switchboard-backend/internal/payments"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/internal/vault"
	"github.com/kestrelpay/switchboard-backend/pkg/audit"
	"github.com/kestrelpay/switchboard-backend/pkg/config"
	"github.com/kestrelpay/switchboard-backend/pkg/db"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
	"github.com/kestrelpay/switchboard-backend/pkg/metrics"
	"github.com/kestrelpay/switchboard-backend/pkg/migrate"
	"github.com/kestrelpay/switchboard-backend/pkg/redis"
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

	var vaultClient *vault.Client
	if cfg.Vault.BaseURL != "" {
		vaultClient, err = vault.New(cfg.Vault, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create vault client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "vault not configured, card storage disabled")
	}

	var adapters []connectors.Connector
	if cfg.Square.AccessToken != "" {
		squareAdapter, err := square.New(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create square adapter", err)
			os.Exit(1)
		}
		adapters = append(adapters, squareAdapter)
	}
	registry := connectors.NewRegistry(adapters...)

	locker, err := locking.New(redisClient, cfg.Lock, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lock coordinator", err)
		os.Exit(1)
	}

	store := storage.NewGormStore(dbClient, redisClient, logg)
	auditService := audit.NewService(audit.NewRepository(dbClient.DB()), logg)

	promRegistry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(promRegistry)

	pipeline := payments.NewPipeline(&payments.Deps{
		Store:      store,
		Audit:      auditService,
		Connectors: registry,
		Vault:      vaultClient,
		Logg:       logg,
	}, locker, redisClient, pipelineMetrics, logg)

	paymentService := payments.NewService(pipeline, cfg.FeatureFlags.ResponseSchemaV2)
	customerService := customers.NewService(store, auditService, vaultClient, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, store, paymentService, customerService, promRegistry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
