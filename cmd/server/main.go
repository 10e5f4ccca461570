package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/db"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/policy"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := newLogger(cfg.App.Dev)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	dbConn, err := db.Open(cfg.Database, logger.Named("db"))
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg, logger.Named("db")); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		logger.Info("migrations completed")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.App, logger.Named("seed")); err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
		logger.Info("seeding completed")
		return
	}

	if err := db.Migrate(dbConn, cfg, logger.Named("db")); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn, cfg.App, logger.Named("seed")); err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
	}

	// Reject tokens of clients that have since been deleted
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		dbConn.WithContext(ctx).Model(&models.Client{}).Where("id = ?", uid).Count(&count)
		return count > 0
	})

	routerCfg := policy.NewRouterConfig(dbConn, cfg, logger)
	appHandler := NewApp(dbConn, routerCfg, cfg, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped gracefully")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
