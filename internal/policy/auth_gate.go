package policy

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/gate"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/handlers"
)

// Resource types registered on the gate.
const (
	ResourceClient = handlers.ResourceClient
	ResourceOrder  = handlers.ResourceOrder
)

// AuthGate is the central authorization point: per-route requirements plus
// per-resource policies evaluated against the verified token claims.
type AuthGate struct {
	Gate *gate.Gate[*auth.Claims]
}

// NewAuthGate registers ownership-with-admin-bypass for clients and orders.
func NewAuthGate() *AuthGate {
	ag := &AuthGate{Gate: gate.NewGate[*auth.Claims]()}
	owned := NewAdminBypassPolicy(NewOwnershipPolicy(), ClaimsAdmin)
	ag.RegisterPolicy(ResourceClient, owned)
	ag.RegisterPolicy(ResourceOrder, owned)
	return ag
}

// RegisterPolicy adds a policy for a resource type.
func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[*auth.Claims]) {
	ag.Gate.Register(resourceType, p)
}

// Authorize checks if the current subject can perform an action on a resource.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, claims, action, resourceType, resource)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// Require returns middleware enforcing req before the handler runs.
func (ag *AuthGate) Require(req gate.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := req.Check(Subject(r.Context())); err != nil {
				WriteAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Subject returns the request's claims as a gate.Subject, or a nil interface
// for anonymous requests.
func Subject(ctx context.Context) gate.Subject {
	if c, ok := auth.ClaimsFromContext(ctx); ok {
		return c
	}
	return nil
}

// WriteAuthError answers 401 for missing credentials and 403 otherwise.
func WriteAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, gate.ErrUnauthenticated) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="go-shop"`)
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
}
