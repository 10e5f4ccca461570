package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seed inserts sample products into an empty catalogue and, when
// ADMIN_EMAIL/ADMIN_PASSWORD are set, makes sure that admin account exists.
// It is safe to run repeatedly.
func Seed(db *gorm.DB, app config.AppConfig, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		products := []models.Product{
			{Nom: "Ordinateur portable", Description: "Ordinateur portable haute performance", Prix: decimal.RequireFromString("999.99"), Stock: 10},
			{Nom: "Smartphone", Description: "Smartphone dernière génération", Prix: decimal.RequireFromString("699.99"), Stock: 15},
		}
		if err := db.Create(&products).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		log.Info("seeded sample products", zap.Int("count", len(products)))
	}

	if app.AdminEmail == "" || app.AdminPassword == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(app.AdminEmail))
	var existing models.Client
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			if err := db.Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
			log.Info("promoted existing client to admin", zap.String("email", email))
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hash, err := auth.HashPassword(app.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.Client{Nom: "Admin", Prenom: "Admin", Email: email, MotDePasse: hash, Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info("seeded admin client", zap.String("email", email), zap.Uint("id", admin.ID))
	return nil
}
