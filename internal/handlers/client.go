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

type ClientHandler struct {
	db     *gorm.DB
	auth   *services.AuthService
	orders *services.OrderService
	authz  Authorizer
	log    *zap.Logger
}

func NewClientHandler(db *gorm.DB, authSvc *services.AuthService, orders *services.OrderService, authz Authorizer, log *zap.Logger) *ClientHandler {
	return &ClientHandler{db: db, auth: authSvc, orders: orders, authz: authz, log: orNop(log)}
}

// List returns every client (admin only).
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	var clients []models.Client
	if err := h.db.WithContext(r.Context()).Order("id asc").Find(&clients).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapSlice(clients, toClientDTO))
}

// load fetches the client behind {id} and checks the caller may act on it.
func (h *ClientHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action, scopes ...func(*gorm.DB) *gorm.DB) (*models.Client, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	var c models.Client
	if err := h.db.WithContext(r.Context()).Scopes(scopes...).First(&c, id).Error; err != nil {
		writeError(w, h.log, store.Translate(err))
		return nil, false
	}
	if err := h.authz.Authorize(r.Context(), action, ResourceClient, &c); err != nil {
		writeError(w, h.log, err)
		return nil, false
	}
	return &c, true
}

func withOrderTree(db *gorm.DB) *gorm.DB {
	return db.Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("date_commande desc") }).
		Preload("Orders.Details").
		Preload("Orders.Details.Product")
}

// Get returns one client with its orders, their details and products.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionView, withOrderTree)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toClientDTO(c))
}

// Stats returns the order statistics of one client.
func (h *ClientHandler) Stats(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	st, err := h.orders.ClientStats(r.Context(), c.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ClientStatsDTO{ClientDTO: toClientDTO(c), ClientStats: st})
}

type createClientInput struct {
	services.RegisterInput
	Role string `json:"role"`
}

// Create adds a client account (admin only). Role defaults to "user".
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in createClientInput
	if err := httpx.DecodeJSON(r, &in, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	v := validation.Violations{}
	validation.OneOf("role", in.Role, []string{models.RoleUser, models.RoleAdmin}, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	c, err := h.auth.CreateClient(r.Context(), in.RegisterInput, in.Role)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.Created(w, fmt.Sprintf("/api/clients/%d", c.ID), toClientDTO(c))
}

// Update applies a partial update. Only admins may change a role.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	var patch models.ClientPatch
	if err := httpx.DecodeJSON(r, &patch, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	v := validation.Violations{}
	if patch.Nom != nil {
		validation.Required("nom", *patch.Nom, v)
	}
	if patch.Prenom != nil {
		validation.Required("prenom", *patch.Prenom, v)
	}
	if patch.Email != nil {
		validation.Required("email", *patch.Email, v)
		validation.Email("email", strings.TrimSpace(*patch.Email), v)
	}
	if patch.MotDePasse != nil {
		validation.MinLength("mot_de_passe", *patch.MotDePasse, services.MinPasswordLength, v)
	}
	if patch.Role != nil {
		validation.OneOf("role", *patch.Role, []string{models.RoleUser, models.RoleAdmin}, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if patch.Role != nil {
		if claims, _ := auth.ClaimsFromContext(r.Context()); claims == nil || !claims.IsAdmin() {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", map[string]string{"role": "admin_only"})
			return
		}
	}
	if patch.MotDePasse != nil {
		hash, err := auth.HashPassword(*patch.MotDePasse)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		patch.MotDePasse = &hash
	}
	if err := store.UpdateFields(r.Context(), h.db, c, patch.Apply(c)); err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toClientDTO(c))
}

// Delete soft-deletes a client (admin only). Its orders are kept.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(r.Context()).Delete(&models.Client{}, id)
	if res.Error != nil {
		writeError(w, h.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, h.log, store.ErrNotFound)
		return
	}
	h.log.Info("client deleted", zap.Uint("client_id", id))
	httpx.NoContent(w)
}
