package policy

import (
	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/handlers"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/diewo77/go-shop/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	// AuthGate provides route requirements and ownership checks
	AuthGate *AuthGate
	Issuer   *auth.Issuer
	Files    *storage.Local

	// Handlers
	AuthHandler        *handlers.AuthHandler
	ClientHandler      *handlers.ClientHandler
	ProductHandler     *handlers.ProductHandler
	OrderHandler       *handlers.OrderHandler
	OrderDetailHandler *handlers.OrderDetailHandler

	// Services
	AuthService      *services.AuthService
	OrderService     *services.OrderService
	InventoryService *services.InventoryService
}

// NewRouterConfig wires the gate, services and handlers together.
//
//	rc := policy.NewRouterConfig(db, cfg, logger)
//	mux.Handle("GET /api/clients", rc.AuthGate.Require(gate.Role(models.RoleAdmin))(http.HandlerFunc(rc.ClientHandler.List)))
func NewRouterConfig(db *gorm.DB, cfg *config.Config, log *zap.Logger) *RouterConfig {
	if log == nil {
		log = zap.NewNop()
	}
	authGate := NewAuthGate()
	issuer := auth.NewIssuer(cfg.JWT.Key, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL)
	files := storage.NewLocal(cfg.Uploads.Dir, cfg.Uploads.URLPrefix, cfg.Uploads.MaxBytes)

	authSvc := services.NewAuthService(db, issuer, log.Named("auth"))
	orderSvc := services.NewOrderService(db)
	invSvc := services.NewInventoryService(db, log.Named("inventory"))

	hlog := log.Named("http")
	return &RouterConfig{
		AuthGate:           authGate,
		Issuer:             issuer,
		Files:              files,
		AuthHandler:        handlers.NewAuthHandler(authSvc, hlog),
		ClientHandler:      handlers.NewClientHandler(db, authSvc, orderSvc, authGate, hlog),
		ProductHandler:     handlers.NewProductHandler(db, files, hlog),
		OrderHandler:       handlers.NewOrderHandler(db, orderSvc, invSvc, authGate, hlog),
		OrderDetailHandler: handlers.NewOrderDetailHandler(db, invSvc, authGate, hlog),
		AuthService:        authSvc,
		OrderService:       orderSvc,
		InventoryService:   invSvc,
	}
}
