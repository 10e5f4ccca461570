package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderDetail is one line of an order. PrixUnitaire is the product price
// captured when the line was created and is never re-derived.
type OrderDetail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CommandeID   uint            `gorm:"index;not null" json:"commande_id"`
	Order        *Order          `gorm:"foreignKey:CommandeID" json:"-"`
	ProduitID    uint            `gorm:"index;not null" json:"produit_id"`
	Product      *Product        `gorm:"foreignKey:ProduitID" json:"-"`
	Quantite     int             `gorm:"not null" json:"quantite"`
	PrixUnitaire decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"prix_unitaire"`
}

func (d *OrderDetail) LineTotal() decimal.Decimal {
	return d.PrixUnitaire.Mul(decimal.NewFromInt(int64(d.Quantite)))
}
