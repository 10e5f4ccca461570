package policy_test

import (
	"testing"
	"time"

	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/handlers"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewRouterConfig(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	cfg := &config.Config{
		JWT:     config.JWTConfig{Key: "router-config-key-0123456789abcdef", Issuer: "go-shop", Audience: "go-shop-clients", TTL: time.Hour},
		Uploads: config.UploadConfig{Dir: t.TempDir(), URLPrefix: "/uploads/products/", MaxBytes: 1024},
	}

	rc := policy.NewRouterConfig(db, cfg, nil)

	require.NotNil(t, rc.AuthGate)
	assert.NotNil(t, rc.AuthHandler)
	assert.NotNil(t, rc.ClientHandler)
	assert.NotNil(t, rc.ProductHandler)
	assert.NotNil(t, rc.OrderHandler)
	assert.NotNil(t, rc.OrderDetailHandler)
	assert.Equal(t, "/uploads/products", rc.Files.URLPrefix)

	tok, _, err := rc.Issuer.Generate(&models.Client{ID: 3, Email: "a@b.c", Role: models.RoleUser})
	require.NoError(t, err)
	claims, err := rc.Issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.ClientID)

	// the handlers' resource names must be the ones the gate has policies for
	assert.Equal(t, policy.ResourceClient, handlers.ResourceClient)
	assert.True(t, rc.AuthGate.Gate.HasPolicy(handlers.ResourceOrder))
}
