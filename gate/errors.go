package gate

import "errors"

// Sentinel errors returned by Gate.Authorize and Requirement.Check.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)
