package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const OrderStatusPending = "pending"

// Order groups OrderDetails for one client.
// Total is derived from the details and maintained by the inventory service.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientID     uint            `gorm:"index;not null" json:"client_id"`
	Client       *Client         `gorm:"foreignKey:ClientID" json:"-"`
	DateCommande time.Time       `gorm:"not null" json:"date_commande"`
	Statut       string          `gorm:"size:50;not null;default:'pending'" json:"statut"`
	Total        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total"`

	Details []OrderDetail `gorm:"foreignKey:CommandeID" json:"-"`
}

// OwnerID implements the Ownable interface for authorization.
func (o *Order) OwnerID() uint {
	return o.ClientID
}

// ComputeTotal sums the line totals of the loaded details.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range o.Details {
		total = total.Add(d.LineTotal())
	}
	return total.Round(2)
}

// ItemCount returns the number of units across all loaded details.
func (o *Order) ItemCount() int {
	n := 0
	for _, d := range o.Details {
		n += d.Quantite
	}
	return n
}
