package gate

import "fmt"

// Subject is what a Requirement is checked against. A nil Subject means the
// request carried no valid credentials.
type Subject interface {
	SubjectRole() string
}

type requirementKind int

const (
	kindNone requirementKind = iota
	kindAuthenticated
	kindRole
)

// Requirement is the access rule attached to a route: None, Authenticated or Role(name).
type Requirement struct {
	kind requirementKind
	role string
}

// None lets anonymous callers through.
func None() Requirement { return Requirement{kind: kindNone} }

// Authenticated requires any valid subject.
func Authenticated() Requirement { return Requirement{kind: kindAuthenticated} }

// Role requires a valid subject carrying the named role.
func Role(name string) Requirement { return Requirement{kind: kindRole, role: name} }

// Check returns nil, ErrUnauthenticated or ErrForbidden.
func (r Requirement) Check(s Subject) error {
	switch r.kind {
	case kindNone:
		return nil
	case kindAuthenticated:
		if s == nil {
			return ErrUnauthenticated
		}
		return nil
	case kindRole:
		if s == nil {
			return ErrUnauthenticated
		}
		if s.SubjectRole() != r.role {
			return ErrForbidden
		}
		return nil
	}
	return ErrForbidden
}

func (r Requirement) String() string {
	switch r.kind {
	case kindNone:
		return "none"
	case kindAuthenticated:
		return "authenticated"
	case kindRole:
		return fmt.Sprintf("role(%s)", r.role)
	}
	return "unknown"
}
