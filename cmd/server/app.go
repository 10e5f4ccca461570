package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/gate"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	cfg       *config.Config
	log       *zap.Logger
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
		cfg:       cfg,
		log:       log,
	}
	app.setupRoutes()
	// recover → logging → auth context → routes
	app.handler = withRecover(log, withLogging(log, auth.Middleware(routerCfg.Issuer)(app.mux)))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	none := a.require(gate.None())
	authed := a.require(gate.Authenticated())
	admin := a.require(gate.Role(models.RoleAdmin))

	// ─────────────────────────────────────────────────────────────────────────
	// Health
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)

	// ─────────────────────────────────────────────────────────────────────────
	// Auth
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler
	a.mux.Handle("POST /api/auth/register", none(ah.Register))
	a.mux.Handle("POST /api/auth/login", none(ah.Login))
	a.mux.Handle("GET /api/auth/me", authed(ah.Me))

	// ─────────────────────────────────────────────────────────────────────────
	// Clients (ownership checked in the handler)
	// ─────────────────────────────────────────────────────────────────────────
	ch := a.routerCfg.ClientHandler
	a.mux.Handle("GET /api/clients", admin(ch.List))
	a.mux.Handle("GET /api/clients/{id}", authed(ch.Get))
	a.mux.Handle("GET /api/clients/{id}/stats", authed(ch.Stats))
	a.mux.Handle("POST /api/clients", admin(ch.Create))
	a.mux.Handle("PATCH /api/clients/{id}", authed(ch.Update))
	a.mux.Handle("DELETE /api/clients/{id}", admin(ch.Delete))

	// ─────────────────────────────────────────────────────────────────────────
	// Products
	// ─────────────────────────────────────────────────────────────────────────
	ph := a.routerCfg.ProductHandler
	a.mux.Handle("GET /api/products", none(ph.List))
	a.mux.Handle("GET /api/products/{id}", none(ph.Get))
	a.mux.Handle("POST /api/products", authed(ph.Create))
	a.mux.Handle("PATCH /api/products/{id}", authed(ph.Update))
	a.mux.Handle("DELETE /api/products/{id}", admin(ph.Delete))

	// ─────────────────────────────────────────────────────────────────────────
	// Orders
	// ─────────────────────────────────────────────────────────────────────────
	oh := a.routerCfg.OrderHandler
	a.mux.Handle("GET /api/orders", authed(oh.List))
	a.mux.Handle("GET /api/orders/{id}", authed(oh.Get))
	a.mux.Handle("GET /api/orders/client/{clientId}", authed(oh.ListByClient))
	a.mux.Handle("POST /api/orders", authed(oh.Create))
	a.mux.Handle("PATCH /api/orders/{id}", admin(oh.Update))
	a.mux.Handle("PATCH /api/orders/{id}/status", admin(oh.UpdateStatus))
	a.mux.Handle("DELETE /api/orders/{id}", admin(oh.Delete))

	// ─────────────────────────────────────────────────────────────────────────
	// Order details (stock moves with every mutation)
	// ─────────────────────────────────────────────────────────────────────────
	dh := a.routerCfg.OrderDetailHandler
	a.mux.Handle("GET /api/order-details", none(dh.List))
	a.mux.Handle("GET /api/order-details/{id}", none(dh.Get))
	a.mux.Handle("GET /api/order-details/order/{orderId}", none(dh.ListByOrder))
	a.mux.Handle("POST /api/order-details", authed(dh.Create))
	a.mux.Handle("PATCH /api/order-details/{id}", authed(dh.Update))
	a.mux.Handle("DELETE /api/order-details/{id}", authed(dh.Delete))

	// ─────────────────────────────────────────────────────────────────────────
	// Uploaded images
	// ─────────────────────────────────────────────────────────────────────────
	files := a.routerCfg.Files
	prefix := files.URLPrefix + "/"
	a.mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(files.Dir))))
}

// require adapts a handler func behind a route requirement.
func (a *App) require(req gate.Requirement) func(http.HandlerFunc) http.Handler {
	mw := a.routerCfg.AuthGate.Require(req)
	return func(h http.HandlerFunc) http.Handler {
		return mw(h)
	}
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "database_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware.
func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if strings.HasPrefix(r.URL.Path, "/health") {
			return
		}
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// withRecover turns a panic into a 500.
func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.Error("panic serving request",
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
