package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

// OrderInput is the payload of a new order. Total is never accepted from
// callers: it starts at zero and follows the order's details.
type OrderInput struct {
	ClientID     uint       `json:"client_id"`
	DateCommande *time.Time `json:"date_commande"`
	Statut       string     `json:"statut"`
}

// Create inserts an order for an existing client. DateCommande defaults to
// now and Statut to "pending".
func (s *OrderService) Create(ctx context.Context, in OrderInput) (*models.Order, error) {
	v := validation.Violations{}
	if in.ClientID == 0 {
		v["client_id"] = "required"
	}
	validation.MaxLength("statut", in.Statut, 50, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	ok, err := store.Exists[models.Client](ctx, s.db, in.ClientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ReferenceError{Field: "client_id", ID: in.ClientID}
	}

	o := models.Order{
		ClientID:     in.ClientID,
		DateCommande: s.now().UTC(),
		Statut:       strings.TrimSpace(in.Statut),
		Total:        decimal.Zero,
	}
	if in.DateCommande != nil && !in.DateCommande.IsZero() {
		o.DateCommande = in.DateCommande.UTC()
	}
	if o.Statut == "" {
		o.Statut = models.OrderStatusPending
	}
	if err := s.db.WithContext(ctx).Create(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// RecentOrder is a compact view of one of the client's latest orders.
type RecentOrder struct {
	ID            uint            `json:"id"`
	DateCommande  time.Time       `json:"date_commande"`
	Statut        string          `json:"statut"`
	Total         decimal.Decimal `json:"total"`
	NumberOfItems int             `json:"number_of_items"`
}

// ClientStats aggregates a client's order history.
type ClientStats struct {
	TotalOrders         int             `json:"total_orders"`
	TotalSpent          decimal.Decimal `json:"total_spent"`
	TotalProductsBought int             `json:"total_products_bought"`
	OrdersByStatus      map[string]int  `json:"orders_by_status"`
	LastOrderDate       *time.Time      `json:"last_order_date"`
	RecentOrders        []RecentOrder   `json:"recent_orders"`
}

const recentOrdersLimit = 5

// ClientStats loads every order of clientID with its details and summarises them.
func (s *OrderService) ClientStats(ctx context.Context, clientID uint) (*ClientStats, error) {
	ok, err := store.Exists[models.Client](ctx, s.db, clientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Preload("Details").
		Order("date_commande desc, id desc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return summarize(orders), nil
}

// summarize expects orders sorted newest first.
func summarize(orders []models.Order) *ClientStats {
	st := &ClientStats{
		TotalSpent:     decimal.Zero,
		OrdersByStatus: map[string]int{},
		RecentOrders:   []RecentOrder{},
	}
	for i := range orders {
		o := &orders[i]
		st.TotalOrders++
		st.TotalSpent = st.TotalSpent.Add(o.Total)
		st.TotalProductsBought += o.ItemCount()
		st.OrdersByStatus[o.Statut]++
		if i == 0 {
			d := o.DateCommande
			st.LastOrderDate = &d
		}
		if i < recentOrdersLimit {
			st.RecentOrders = append(st.RecentOrders, RecentOrder{
				ID:            o.ID,
				DateCommande:  o.DateCommande,
				Statut:        o.Statut,
				Total:         o.Total,
				NumberOfItems: o.ItemCount(),
			})
		}
	}
	return st
}
