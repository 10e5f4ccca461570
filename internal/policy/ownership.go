package policy

import (
	"context"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/gate"
)

// Ownable is implemented by resources that belong to a client.
type Ownable interface {
	OwnerID() uint
}

// OwnershipPolicy allows a client to act on the resources it owns.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can checks if the subject owns the resource.
// For list/create actions without a resource it returns true; the route
// requirement already controls access.
func (p *OwnershipPolicy) Can(_ context.Context, claims *auth.Claims, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		// resources without an owner are denied by default
		return false
	}
	return ownable.OwnerID() == claims.ClientID
}

// AdminBypassPolicy wraps another policy and always allows access for admins.
type AdminBypassPolicy struct {
	inner       gate.Policy[*auth.Claims]
	isAdminFunc func(ctx context.Context, claims *auth.Claims) bool
}

func NewAdminBypassPolicy(inner gate.Policy[*auth.Claims], isAdminFunc func(ctx context.Context, claims *auth.Claims) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdminFunc: isAdminFunc}
}

// Can checks if the subject is admin (bypass) or falls back to the inner policy.
func (p *AdminBypassPolicy) Can(ctx context.Context, claims *auth.Claims, action gate.Action, resource any) bool {
	if p.isAdminFunc(ctx, claims) {
		return true
	}
	return p.inner.Can(ctx, claims, action, resource)
}

// ClaimsAdmin reads the admin flag straight from the verified token.
func ClaimsAdmin(_ context.Context, claims *auth.Claims) bool {
	return claims.IsAdmin()
}
