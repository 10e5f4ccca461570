package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/go-shop/gate"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/diewo77/go-shop/internal/storage"
	"github.com/diewo77/go-shop/internal/store"
	"go.uber.org/zap"
)

// Resource types the handlers authorize against.
const (
	ResourceClient = "client"
	ResourceOrder  = "order"
)

// Authorizer checks a subject against a loaded resource.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

// writeError maps domain errors onto status codes and error codes.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *services.ValidationError
	var re *services.ReferenceError
	switch {
	case errors.As(err, &ve):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", ve.Violations)
	case errors.As(err, &re):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_reference", map[string]any{"field": re.Field, "id": re.ID})
	case errors.Is(err, services.ErrInvalidReference):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_reference", nil)
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.JSONError(w, http.StatusBadRequest, "insufficient_stock", nil)
	case errors.Is(err, services.ErrEmailTaken):
		httpx.JSONError(w, http.StatusBadRequest, "email_already_registered", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_credentials", nil)
	case errors.Is(err, store.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, store.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
	case errors.Is(err, store.ErrDuplicate):
		httpx.JSONError(w, http.StatusConflict, "already_exists", nil)
	case isStorageError(err):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_image", err.Error())
	case errors.Is(err, gate.ErrUnauthenticated):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, gate.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	default:
		log.Error("request failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// pathID parses the {name} path value; it answers 404 itself on bad input.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return 0, false
	}
	return uint(id), true
}

func invalidJSON(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

var errBadForm = errors.New("invalid_form")

// formError reports a multipart field that could not be parsed.
type formError struct{ field string }

func (e *formError) Error() string { return "invalid form field " + e.field }

func isStorageError(err error) bool {
	return errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrEmptyFile)
}
