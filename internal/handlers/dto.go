package handlers

import (
	"time"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/shopspring/decimal"
)

// DTOs are the JSON shapes of the API. Nesting only goes downwards
// (client → orders → details → product), never back up.

type ProductDTO struct {
	ID          uint            `json:"id"`
	Nom         string          `json:"nom"`
	Description string          `json:"description"`
	Prix        decimal.Decimal `json:"prix"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	CategorieID uint            `json:"categorie_id"`
}

type OrderDetailDTO struct {
	ID           uint            `json:"id"`
	CommandeID   uint            `json:"commande_id"`
	ProduitID    uint            `json:"produit_id"`
	Quantite     int             `json:"quantite"`
	PrixUnitaire decimal.Decimal `json:"prix_unitaire"`
	LineTotal    decimal.Decimal `json:"line_total"`
	Product      *ProductDTO     `json:"product,omitempty"`
}

type OrderDTO struct {
	ID           uint             `json:"id"`
	ClientID     uint             `json:"client_id"`
	DateCommande time.Time        `json:"date_commande"`
	Statut       string           `json:"statut"`
	Total        decimal.Decimal  `json:"total"`
	Details      []OrderDetailDTO `json:"details,omitempty"`
}

type ClientDTO struct {
	ID        uint       `json:"id"`
	Nom       string     `json:"nom"`
	Prenom    string     `json:"prenom"`
	Email     string     `json:"email"`
	Adresse   string     `json:"adresse"`
	Telephone string     `json:"telephone"`
	Role      string     `json:"role"`
	Orders    []OrderDTO `json:"orders,omitempty"`
}

// ClientStatsDTO is the client plus its aggregated order history.
type ClientStatsDTO struct {
	ClientDTO
	*services.ClientStats
}

type AuthResponse struct {
	Token string    `json:"token"`
	User  ClientDTO `json:"user"`
}

func toProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Nom:         p.Nom,
		Description: p.Description,
		Prix:        p.Prix,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CategorieID: p.CategorieID,
	}
}

func toOrderDetailDTO(d *models.OrderDetail) OrderDetailDTO {
	dto := OrderDetailDTO{
		ID:           d.ID,
		CommandeID:   d.CommandeID,
		ProduitID:    d.ProduitID,
		Quantite:     d.Quantite,
		PrixUnitaire: d.PrixUnitaire,
		LineTotal:    d.LineTotal(),
	}
	if d.Product != nil {
		p := toProductDTO(d.Product)
		dto.Product = &p
	}
	return dto
}

func toOrderDTO(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:           o.ID,
		ClientID:     o.ClientID,
		DateCommande: o.DateCommande,
		Statut:       o.Statut,
		Total:        o.Total,
	}
	for i := range o.Details {
		dto.Details = append(dto.Details, toOrderDetailDTO(&o.Details[i]))
	}
	return dto
}

func toClientDTO(c *models.Client) ClientDTO {
	dto := ClientDTO{
		ID:        c.ID,
		Nom:       c.Nom,
		Prenom:    c.Prenom,
		Email:     c.Email,
		Adresse:   c.Adresse,
		Telephone: c.Telephone,
		Role:      c.Role,
	}
	for i := range c.Orders {
		dto.Orders = append(dto.Orders, toOrderDTO(&c.Orders[i]))
	}
	return dto
}

func mapSlice[T, D any](in []T, f func(*T) D) []D {
	out := make([]D, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
