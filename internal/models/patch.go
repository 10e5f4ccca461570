package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Patch types carry only the fields present in a PATCH payload. Apply merges
// them into a loaded entity and returns the column names that were set, so the
// caller can persist exactly those.

type ClientPatch struct {
	Nom        *string `json:"nom"`
	Prenom     *string `json:"prenom"`
	Email      *string `json:"email"`
	MotDePasse *string `json:"mot_de_passe"` // hashed by the caller before Apply
	Adresse    *string `json:"adresse"`
	Telephone  *string `json:"telephone"`
	Role       *string `json:"role"`
}

func (p ClientPatch) Apply(c *Client) []string {
	var cols []string
	if p.Nom != nil {
		c.Nom = strings.TrimSpace(*p.Nom)
		cols = append(cols, "nom")
	}
	if p.Prenom != nil {
		c.Prenom = strings.TrimSpace(*p.Prenom)
		cols = append(cols, "prenom")
	}
	if p.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		cols = append(cols, "email")
	}
	if p.MotDePasse != nil {
		c.MotDePasse = *p.MotDePasse
		cols = append(cols, "mot_de_passe")
	}
	if p.Adresse != nil {
		c.Adresse = *p.Adresse
		cols = append(cols, "adresse")
	}
	if p.Telephone != nil {
		c.Telephone = *p.Telephone
		cols = append(cols, "telephone")
	}
	if p.Role != nil {
		c.Role = *p.Role
		cols = append(cols, "role")
	}
	return cols
}

type ProductPatch struct {
	Nom         *string          `json:"nom"`
	Description *string          `json:"description"`
	Prix        *decimal.Decimal `json:"prix"`
	Stock       *int             `json:"stock"`
	CategorieID *uint            `json:"categorie_id"`
	ImageURL    *string          `json:"-"` // set from an uploaded file, never from JSON
}

func (p ProductPatch) Apply(pr *Product) []string {
	var cols []string
	if p.Nom != nil {
		pr.Nom = strings.TrimSpace(*p.Nom)
		cols = append(cols, "nom")
	}
	if p.Description != nil {
		pr.Description = *p.Description
		cols = append(cols, "description")
	}
	if p.Prix != nil {
		pr.Prix = p.Prix.Round(2)
		cols = append(cols, "prix")
	}
	if p.Stock != nil {
		pr.Stock = *p.Stock
		cols = append(cols, "stock")
	}
	if p.CategorieID != nil {
		pr.CategorieID = *p.CategorieID
		cols = append(cols, "categorie_id")
	}
	if p.ImageURL != nil {
		pr.ImageURL = *p.ImageURL
		cols = append(cols, "image_url")
	}
	return cols
}

// OrderPatch has no Total: it is recomputed from the order's details.
type OrderPatch struct {
	Statut       *string    `json:"statut"`
	DateCommande *time.Time `json:"date_commande"`
}

func (p OrderPatch) Apply(o *Order) []string {
	var cols []string
	if p.Statut != nil {
		o.Statut = strings.TrimSpace(*p.Statut)
		cols = append(cols, "statut")
	}
	if p.DateCommande != nil {
		o.DateCommande = p.DateCommande.UTC()
		cols = append(cols, "date_commande")
	}
	return cols
}

// OrderDetailPatch only carries the quantity; the unit price is a snapshot.
type OrderDetailPatch struct {
	Quantite *int `json:"quantite"`
}

func (p OrderDetailPatch) Empty() bool { return p.Quantite == nil }
