package services

import (
	"errors"

	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
)

var (
	ErrNotFound           = store.ErrNotFound
	ErrConflict           = store.ErrConflict
	ErrInvalidReference   = errors.New("invalid_reference")
	ErrInsufficientStock  = errors.New("insufficient_stock")
	ErrEmailTaken         = errors.New("email_already_registered")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// ValidationError carries per-field violations.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "validation_failed" }

// invalid returns a *ValidationError when v has violations, nil otherwise.
func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// ReferenceError names the field whose id did not resolve.
type ReferenceError struct {
	Field string
	ID    uint
}

func (e *ReferenceError) Error() string { return "invalid_reference: " + e.Field }

func (e *ReferenceError) Is(target error) bool { return target == ErrInvalidReference }
