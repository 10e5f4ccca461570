package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/gate"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
	inv    *services.InventoryService
	authz  Authorizer
	log    *zap.Logger
}

func NewOrderHandler(db *gorm.DB, orders *services.OrderService, inv *services.InventoryService, authz Authorizer, log *zap.Logger) *OrderHandler {
	return &OrderHandler{db: db, orders: orders, inv: inv, authz: authz, log: orNop(log)}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Details.Product")
}

// List returns every order to admins and only their own to other clients.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, h.log, gate.ErrUnauthenticated)
		return
	}
	db := h.db.WithContext(r.Context()).Scopes(withDetails)
	if !claims.IsAdmin() {
		db = db.Where("client_id = ?", claims.ClientID)
	}
	var orders []models.Order
	if err := db.Order("date_commande desc, id desc").Find(&orders).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapSlice(orders, toOrderDTO))
}

// load fetches the order behind {id} and checks the caller may act on it.
func (h *OrderHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action, scopes ...func(*gorm.DB) *gorm.DB) (*models.Order, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	var o models.Order
	if err := h.db.WithContext(r.Context()).Scopes(scopes...).First(&o, id).Error; err != nil {
		writeError(w, h.log, store.Translate(err))
		return nil, false
	}
	if err := h.authz.Authorize(r.Context(), action, ResourceOrder, &o); err != nil {
		writeError(w, h.log, err)
		return nil, false
	}
	return &o, true
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r, gate.ActionView, withDetails)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderDTO(o))
}

// ListByClient returns the orders of {clientId}, newest first.
func (h *OrderHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}
	c, err := store.First[models.Client](r.Context(), h.db, clientID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.authz.Authorize(r.Context(), gate.ActionList, ResourceClient, c); err != nil {
		writeError(w, h.log, err)
		return
	}
	var orders []models.Order
	if err := h.db.WithContext(r.Context()).Scopes(withDetails).
		Where("client_id = ?", clientID).
		Order("date_commande desc, id desc").
		Find(&orders).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapSlice(orders, toOrderDTO))
}

// Create opens an empty order. Non-admins always order for themselves.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, h.log, gate.ErrUnauthenticated)
		return
	}
	var in services.OrderInput
	if err := httpx.DecodeJSON(r, &in, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	if !claims.IsAdmin() {
		if in.ClientID == 0 {
			in.ClientID = claims.ClientID
		}
		if in.ClientID != claims.ClientID {
			writeError(w, h.log, gate.ErrForbidden)
			return
		}
	}
	o, err := h.orders.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Info("order created", zap.Uint("order_id", o.ID), zap.Uint("client_id", o.ClientID))
	httpx.Created(w, fmt.Sprintf("/api/orders/%d", o.ID), toOrderDTO(o))
}

// Update patches statut and date_commande. The total is not writable.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var patch models.OrderPatch
	if err := httpx.DecodeJSON(r, &patch, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	h.apply(w, r, o, patch)
}

// UpdateStatus only changes the status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var body struct {
		Statut *string `json:"statut"`
	}
	if err := httpx.DecodeJSON(r, &body, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	if body.Statut == nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"statut": "required"})
		return
	}
	h.apply(w, r, o, models.OrderPatch{Statut: body.Statut})
}

func (h *OrderHandler) apply(w http.ResponseWriter, r *http.Request, o *models.Order, patch models.OrderPatch) {
	v := validation.Violations{}
	if patch.Statut != nil {
		validation.Required("statut", strings.TrimSpace(*patch.Statut), v)
		validation.MaxLength("statut", *patch.Statut, 50, v)
	}
	if patch.DateCommande != nil && patch.DateCommande.IsZero() {
		v["date_commande"] = "required"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := store.UpdateFields(r.Context(), h.db, o, patch.Apply(o)); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderDTO(o))
}

// Delete removes the order and its details and restocks their products.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.inv.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.NoContent(w)
}
