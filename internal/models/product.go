package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable item. Stock never goes below zero: decrements go
// through the inventory service's conditional update only.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nom         string          `gorm:"size:255;not null" json:"nom"`
	Description string          `gorm:"type:text" json:"description"`
	Prix        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"prix"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	ImageURL    string          `gorm:"size:500" json:"image_url"`
	CategorieID uint            `gorm:"index" json:"categorie_id"`
}

// InStock reports whether q units can be taken right now.
func (p *Product) InStock(q int) bool {
	return q > 0 && p.Stock >= q
}
