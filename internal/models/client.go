package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Client is a customer account. It doubles as the authenticated principal.
// Implements the Ownable interface for ownership-based authorization.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nom        string `gorm:"size:100;not null" json:"nom"`
	Prenom     string `gorm:"size:100;not null" json:"prenom"`
	Email      string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	MotDePasse string `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Adresse    string `gorm:"size:500" json:"adresse"`
	Telephone  string `gorm:"size:50" json:"telephone"`
	Role       string `gorm:"size:20;not null;default:'user'" json:"role"`

	Orders []Order `gorm:"foreignKey:ClientID" json:"-"`
}

// OwnerID implements the Ownable interface: a client owns its own record.
func (c *Client) OwnerID() uint {
	return c.ID
}

func (c *Client) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// FullName returns "Prenom Nom", skipping empty parts.
func (c *Client) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.Prenom) + " " + strings.TrimSpace(c.Nom))
}
