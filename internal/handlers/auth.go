package handlers

import (
	"net/http"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/services"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

type AuthHandler struct {
	svc *services.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: orNop(log)}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := httpx.DecodeJSON(r, &in, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	sess, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, AuthResponse{Token: sess.Token, User: toClientDTO(sess.Client)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := httpx.DecodeJSON(r, &in, maxJSONBody); err != nil {
		invalidJSON(w)
		return
	}
	sess, err := h.svc.Login(r.Context(), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, AuthResponse{Token: sess.Token, User: toClientDTO(sess.Client)})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	c, err := h.svc.Me(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toClientDTO(c))
}
