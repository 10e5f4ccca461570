package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClient_OwnerID(t *testing.T) {
	c := &Client{ID: 42}
	if got := c.OwnerID(); got != 42 {
		t.Errorf("OwnerID() = %d, want 42", got)
	}
}

func TestClient_FullName(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{"both", Client{Prenom: "Jean", Nom: "Dupont"}, "Jean Dupont"},
		{"only nom", Client{Nom: "Dupont"}, "Dupont"},
		{"padded", Client{Prenom: " Jean ", Nom: " Dupont "}, "Jean Dupont"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_IsAdmin(t *testing.T) {
	if (&Client{Role: RoleUser}).IsAdmin() {
		t.Error("user should not be admin")
	}
	if !(&Client{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin should be admin")
	}
}

func TestProduct_InStock(t *testing.T) {
	p := &Product{Stock: 5}
	tests := []struct {
		q    int
		want bool
	}{{1, true}, {5, true}, {6, false}, {0, false}, {-1, false}}
	for _, tt := range tests {
		if got := p.InStock(tt.q); got != tt.want {
			t.Errorf("InStock(%d) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestOrder_ComputeTotal(t *testing.T) {
	o := &Order{Details: []OrderDetail{
		{Quantite: 2, PrixUnitaire: dec("10.50")},
		{Quantite: 1, PrixUnitaire: dec("3.25")},
	}}
	if got := o.ComputeTotal(); !got.Equal(dec("24.25")) {
		t.Errorf("ComputeTotal() = %s, want 24.25", got)
	}
	if got := o.ItemCount(); got != 3 {
		t.Errorf("ItemCount() = %d, want 3", got)
	}
	empty := &Order{}
	if !empty.ComputeTotal().IsZero() {
		t.Error("empty order total should be zero")
	}
}

func TestOrder_OwnerID(t *testing.T) {
	o := &Order{ClientID: 7}
	if got := o.OwnerID(); got != 7 {
		t.Errorf("OwnerID() = %d, want 7", got)
	}
}

func TestClientPatch_Apply(t *testing.T) {
	nom := "Martin"
	email := "  Jean@Example.COM "
	c := &Client{Nom: "Dupont", Prenom: "Jean", Email: "old@example.com", Telephone: "0102"}
	cols := ClientPatch{Nom: &nom, Email: &email}.Apply(c)

	if c.Nom != "Martin" || c.Email != "jean@example.com" {
		t.Fatalf("unexpected client after apply: %+v", c)
	}
	if c.Prenom != "Jean" || c.Telephone != "0102" {
		t.Fatalf("absent fields must stay untouched: %+v", c)
	}
	if len(cols) != 2 || cols[0] != "nom" || cols[1] != "email" {
		t.Fatalf("unexpected columns: %v", cols)
	}
}

func TestClientPatch_ApplyEmpty(t *testing.T) {
	c := &Client{Nom: "Dupont"}
	if cols := (ClientPatch{}).Apply(c); len(cols) != 0 {
		t.Fatalf("expected no columns, got %v", cols)
	}
	if c.Nom != "Dupont" {
		t.Fatal("client changed by empty patch")
	}
}

func TestProductPatch_Apply(t *testing.T) {
	prix := dec("12.345")
	stock := 0
	p := &Product{Nom: "Clavier", Prix: dec("10"), Stock: 4}
	cols := ProductPatch{Prix: &prix, Stock: &stock}.Apply(p)

	if !p.Prix.Equal(dec("12.35")) {
		t.Errorf("prix = %s, want 12.35", p.Prix)
	}
	if p.Stock != 0 {
		t.Errorf("stock = %d, want 0 (explicit zero must apply)", p.Stock)
	}
	if p.Nom != "Clavier" {
		t.Errorf("nom changed: %s", p.Nom)
	}
	if len(cols) != 2 {
		t.Errorf("unexpected columns: %v", cols)
	}
}

func TestOrderPatch_Apply(t *testing.T) {
	statut := "shipped"
	when := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	o := &Order{Statut: OrderStatusPending}
	cols := OrderPatch{Statut: &statut, DateCommande: &when}.Apply(o)

	if o.Statut != "shipped" {
		t.Errorf("statut = %s", o.Statut)
	}
	if o.DateCommande.Location() != time.UTC || !o.DateCommande.Equal(when) {
		t.Errorf("date_commande = %v", o.DateCommande)
	}
	if len(cols) != 2 {
		t.Errorf("unexpected columns: %v", cols)
	}
}

func TestOrderDetail_LineTotal(t *testing.T) {
	d := &OrderDetail{Quantite: 3, PrixUnitaire: dec("9.99")}
	if got := d.LineTotal(); !got.Equal(dec("29.97")) {
		t.Errorf("LineTotal() = %s, want 29.97", got)
	}
}
