// Package gate provides a small Gate/Policy authorization system plus
// per-route requirements. The Gate is a central registry of policies; each
// Policy defines authorization rules for a specific resource type. This
// package has no dependencies on domain models.
//
// The package uses generics to allow any subject type:
//   - Gate[uint] for simple id based auth
//   - Gate[*auth.Claims] for JWT claims based auth
package gate

import "context"

// Gate is the central authorization checkpoint.
// U is the subject type (must be comparable for zero-value check).
// Register policies by resource type name, then call Authorize or Can.
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource type (e.g., "order").
// Overwrites any existing policy for that type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize checks authorization and returns an error if denied.
// Returns ErrUnauthenticated for a zero-value subject, ErrForbidden for a
// denied action and ErrNoPolicyDefined if resourceType has no registered policy.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthenticated
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, user, action, resource) {
		return ErrForbidden
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// HasPolicy reports whether a policy is registered for resourceType.
func (g *Gate[U]) HasPolicy(resourceType string) bool {
	_, ok := g.policies[resourceType]
	return ok
}
