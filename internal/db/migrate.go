package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{&models.Client{}, &models.Product{}, &models.Order{}, &models.OrderDetail{}}
}

// Migrate brings the schema up to date. With MIGRATIONS=1 on Postgres the SQL
// files under MigrationsDir are applied; otherwise gorm AutoMigrate is used.
func Migrate(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.App.Migrations && cfg.Database.Driver == "postgres" {
		log.Info("applying sql migrations", zap.String("dir", MigrationsDir))
		if err := runSQLMigrations(cfg.Database.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range Models() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"clients", "products", "orders", "order_details"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// MigrationsDir is relative to the working directory of the server binary.
var MigrationsDir = "migrations"

// runSQLMigrations executes migrations using golang-migrate file source.
func runSQLMigrations(url string) error {
	m, err := migrate.New("file://"+MigrationsDir, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
