package services

import (
	"testing"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Client{}, &models.Product{}, &models.Order{}, &models.OrderDetail{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedClient(t testing.TB, db *gorm.DB) models.Client {
	t.Helper()
	c := models.Client{Nom: "Dupont", Prenom: "Jean", Email: t.Name() + "@example.com", MotDePasse: "x", Role: models.RoleUser}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func seedProduct(t testing.TB, db *gorm.DB, prix string, stock int) models.Product {
	t.Helper()
	p := models.Product{Nom: "Produit", Prix: decimal.RequireFromString(prix), Stock: stock}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	return p
}

func seedOrder(t testing.TB, db *gorm.DB, clientID uint) models.Order {
	t.Helper()
	o := models.Order{ClientID: clientID, Statut: models.OrderStatusPending, Total: decimal.Zero}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("order: %v", err)
	}
	return o
}

func stockOf(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	if err := db.Unscoped().First(&p, productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return p.Stock
}

func totalOf(t testing.TB, db *gorm.DB, orderID uint) decimal.Decimal {
	t.Helper()
	var o models.Order
	if err := db.First(&o, orderID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return o.Total
}
