package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/diewo77/go-shop/gate"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderDetailHandler exposes order lines. Every mutation goes through the
// inventory service so product stock follows the quantities.
type OrderDetailHandler struct {
	db    *gorm.DB
	inv   *services.InventoryService
	authz Authorizer
	log   *zap.Logger
}

func NewOrderDetailHandler(db *gorm.DB, inv *services.InventoryService, authz Authorizer, log *zap.Logger) *OrderDetailHandler {
	return &OrderDetailHandler{db: db, inv: inv, authz: authz, log: orNop(log)}
}

func (h *OrderDetailHandler) List(w http.ResponseWriter, r *http.Request) {
	var details []models.OrderDetail
	if err := h.db.WithContext(r.Context()).Preload("Product").Order("id").Find(&details).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapSlice(details, toOrderDetailDTO))
}

func (h *OrderDetailHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var d models.OrderDetail
	if err := h.db.WithContext(r.Context()).Preload("Product").First(&d, id).Error; err != nil {
		writeError(w, h.log, store.Translate(err))
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderDetailDTO(&d))
}

// ListByOrder returns the lines of {orderId}; an unknown order is a 404.
func (h *OrderDetailHandler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	exists, err := store.Exists[models.Order](r.Context(), h.db, orderID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if !exists {
		writeError(w, h.log, store.ErrNotFound)
		return
	}
	var details []models.OrderDetail
	if err := h.db.WithContext(r.Context()).Preload("Product").
		Where("commande_id = ?", orderID).Order("id").
		Find(&details).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapSlice(details, toOrderDetailDTO))
}

// Create adds a line to an order the caller may update, taking the stock.
func (h *OrderDetailHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft services.DetailDraft
	if err := httpx.DecodeJSON(r, &draft, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	// An unknown order falls through to the service, which reports it as an
	// invalid reference.
	if draft.CommandeID != 0 {
		if err := h.authorizeOrder(r, draft.CommandeID); err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(w, h.log, err)
			return
		}
	}
	d, err := h.inv.Create(r.Context(), draft)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.Created(w, fmt.Sprintf("/api/order-details/%d", d.ID), toOrderDetailDTO(d))
}

// Update changes the quantity only; the unit price stays the creation snapshot.
func (h *OrderDetailHandler) Update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	var patch models.OrderDetailPatch
	if err := httpx.DecodeJSON(r, &patch, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	if patch.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"quantite": "required"})
		return
	}
	updated, err := h.inv.UpdateQuantity(r.Context(), d.ID, *patch.Quantite)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderDetailDTO(updated))
}

func (h *OrderDetailHandler) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.inv.Delete(r.Context(), d.ID); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.NoContent(w)
}

// load fetches the detail behind {id} and checks the caller may update its order.
func (h *OrderDetailHandler) load(w http.ResponseWriter, r *http.Request) (*models.OrderDetail, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	d, err := store.First[models.OrderDetail](r.Context(), h.db, id)
	if err != nil {
		writeError(w, h.log, err)
		return nil, false
	}
	if err := h.authorizeOrder(r, d.CommandeID); err != nil {
		writeError(w, h.log, err)
		return nil, false
	}
	return d, true
}

func (h *OrderDetailHandler) authorizeOrder(r *http.Request, orderID uint) error {
	o, err := store.First[models.Order](r.Context(), h.db, orderID)
	if err != nil {
		return err
	}
	return h.authz.Authorize(r.Context(), gate.ActionUpdate, ResourceOrder, o)
}
