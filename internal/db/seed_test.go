package db

import (
	"testing"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestMigrateAutoMigrate(t *testing.T) {
	d := openTestDB(t)
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite"}}
	if err := Migrate(d, cfg, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{"clients", "products", "orders", "order_details"} {
		if !d.Migrator().HasTable(table) {
			t.Errorf("missing table %s", table)
		}
	}
}

func TestSeedIdempotent(t *testing.T) {
	d := openTestDB(t)
	if err := d.AutoMigrate(Models()...); err != nil {
		t.Fatal(err)
	}
	app := config.AppConfig{AdminEmail: "Admin@Shop.test", AdminPassword: "secret123"}
	if err := Seed(d, app, zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Seed(d, app, zap.NewNop()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var products, admins int64
	d.Model(&models.Product{}).Count(&products)
	d.Model(&models.Client{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	if products != 2 {
		t.Fatalf("expected 2 seeded products got %d", products)
	}
	if admins != 1 {
		t.Fatalf("expected exactly 1 admin got %d", admins)
	}

	var admin models.Client
	if err := d.Where("email = ?", "admin@shop.test").First(&admin).Error; err != nil {
		t.Fatalf("admin lookup: %v", err)
	}
	if !auth.VerifyPassword("secret123", admin.MotDePasse) {
		t.Fatal("admin password not hashed with the configured value")
	}
}

func TestSeedPromotesExistingClient(t *testing.T) {
	d := openTestDB(t)
	if err := d.AutoMigrate(Models()...); err != nil {
		t.Fatal(err)
	}
	c := models.Client{Nom: "Boss", Prenom: "B", Email: "boss@shop.test", MotDePasse: "x", Role: models.RoleUser}
	d.Create(&c)

	if err := Seed(d, config.AppConfig{AdminEmail: "boss@shop.test", AdminPassword: "whatever"}, zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var reloaded models.Client
	d.First(&reloaded, c.ID)
	if reloaded.Role != models.RoleAdmin {
		t.Fatalf("expected promotion to admin, got %s", reloaded.Role)
	}
}

func TestSeedSkipsNonEmptyCatalogue(t *testing.T) {
	d := openTestDB(t)
	if err := d.AutoMigrate(Models()...); err != nil {
		t.Fatal(err)
	}
	d.Create(&models.Product{Nom: "Existing", Stock: 1})
	if err := Seed(d, config.AppConfig{}, zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var n int64
	d.Model(&models.Product{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected catalogue untouched, got %d products", n)
	}
}
