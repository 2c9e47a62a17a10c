/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the commission engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Open the store (PostgreSQL when DATABASE_URL is set, SQLite otherwise)
  3. Create the API handler with the engine wired in
  4. Start the monthly settlement scheduler
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080, or PORT env)
  -db        SQLite database path (default: commission.db)
             Use ":memory:" for an in-memory database

ENVIRONMENT:
  DATABASE_URL  PostgreSQL connection string; takes precedence over -db
  PORT          HTTP server port
  DEFAULT_WITHHOLDING_RATE  Engine default rate (percent, default 3.3)
  DEFAULT_CURRENCY          Engine default currency (default KRW)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the settlement scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the store

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Settlement scheduler
  - store/sqlite, store/postgres: Database implementations
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/commission-engine/api"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/store/postgres"
	"github.com/warp/commission-engine/store/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", "commission.db", "SQLite database path (ignored when DATABASE_URL is set)")
	flag.Parse()

	cfg := loadEngineConfig(log)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, *dbPath, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize store")
	}
	defer closeStore()

	handler := api.NewHandler(store, cfg, log)
	router := api.NewRouter(handler)

	scheduler := api.NewSettlementScheduler(store, handler, log)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}

// openStore picks PostgreSQL when DATABASE_URL is set, SQLite otherwise.
func openStore(ctx context.Context, dbPath string, log *logrus.Logger) (api.Store, func(), error) {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		pool, err := postgres.NewPool(ctx, connStr)
		if err != nil {
			return nil, nil, err
		}
		store, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("using PostgreSQL store")
		return store, pool.Close, nil
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("path", dbPath).Info("using SQLite store")
	return store, func() { store.Close() }, nil
}

func loadEngineConfig(log *logrus.Logger) commission.Config {
	cfg := commission.DefaultConfig()
	if v := os.Getenv("DEFAULT_WITHHOLDING_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			log.WithError(err).Fatal("invalid DEFAULT_WITHHOLDING_RATE")
		}
		cfg.DefaultWithholdingRate = rate
	}
	if v := os.Getenv("DEFAULT_CURRENCY"); v != "" {
		cfg.DefaultCurrency = v
	}
	return cfg
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
