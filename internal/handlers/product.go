package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/storage"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ProductHandler struct {
	db    *gorm.DB
	files *storage.Local
	log   *zap.Logger
}

func NewProductHandler(db *gorm.DB, files *storage.Local, log *zap.Logger) *ProductHandler {
	return &ProductHandler{db: db, files: files, log: orNop(log)}
}

// ProductPage is one page of the catalogue.
type ProductPage struct {
	Items  []ProductDTO `json:"items"`
	Total  int64        `json:"total"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	db := h.db.WithContext(r.Context()).Model(&models.Product{})
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		db = db.Where("LOWER(nom) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	var products []models.Product
	if err := db.Order("nom, id").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ProductPage{
		Items:  mapSlice(products, toProductDTO),
		Total:  total,
		Page:   page,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := store.First[models.Product](r.Context(), h.db, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductDTO(p))
}

// Create accepts JSON or a multipart form whose optional "image" part is stored
// as the product picture.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	patch, imageRef, err := h.readPatch(r)
	if err != nil {
		h.rejectPayload(w, err)
		return
	}

	v := validation.Violations{}
	if patch.Nom == nil {
		v["nom"] = "required"
	}
	if patch.Prix == nil {
		v["prix"] = "required"
	}
	validateProductPatch(patch, v)
	if !v.Empty() {
		h.discard(imageRef)
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var p models.Product
	patch.Apply(&p)
	if err := h.db.WithContext(r.Context()).Create(&p).Error; err != nil {
		h.discard(imageRef)
		writeError(w, h.log, store.Translate(err))
		return
	}
	h.log.Info("product created", zap.Uint("product_id", p.ID), zap.Int("stock", p.Stock))
	httpx.Created(w, fmt.Sprintf("/api/products/%d", p.ID), toProductDTO(&p))
}

// Update applies the fields present in the payload. A new image replaces and
// removes the previous one.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := store.First[models.Product](r.Context(), h.db, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	patch, imageRef, err := h.readPatch(r)
	if err != nil {
		h.rejectPayload(w, err)
		return
	}

	v := validation.Violations{}
	validateProductPatch(patch, v)
	if !v.Empty() {
		h.discard(imageRef)
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	previous := p.ImageURL
	if err := store.UpdateFields(r.Context(), h.db, p, patch.Apply(p)); err != nil {
		h.discard(imageRef)
		writeError(w, h.log, err)
		return
	}
	if imageRef != "" && previous != "" && previous != imageRef {
		h.discard(previous)
	}
	httpx.JSON(w, http.StatusOK, toProductDTO(p))
}

// Delete soft-deletes the product and removes its stored image. Existing order
// details keep their snapshot price.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := store.First[models.Product](r.Context(), h.db, id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(p).Error; err != nil {
		writeError(w, h.log, err)
		return
	}
	h.discard(p.ImageURL)
	h.log.Info("product deleted", zap.Uint("product_id", p.ID))
	httpx.NoContent(w)
}

// readPatch decodes the request body into a ProductPatch. For multipart
// requests the image, if any, is saved first and its reference returned.
func (h *ProductHandler) readPatch(r *http.Request) (models.ProductPatch, string, error) {
	var patch models.ProductPatch
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := httpx.DecodeJSON(r, &patch, maxJSONBody)
		return patch, "", err
	}

	limit := h.files.MaxBytes + maxJSONBody
	r.Body = http.MaxBytesReader(nil, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		return patch, "", errBadForm
	}
	if err := patchFromForm(r, &patch); err != nil {
		return patch, "", err
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return patch, "", nil
	}
	if err != nil {
		return patch, "", errBadForm
	}
	defer file.Close()
	ref, err := h.files.Save(file, header.Filename)
	if err != nil {
		return patch, "", err
	}
	patch.ImageURL = &ref
	return patch, ref, nil
}

func (h *ProductHandler) rejectPayload(w http.ResponseWriter, err error) {
	var fe *formError
	switch {
	case errors.Is(err, errBadForm):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
	case errors.As(err, &fe):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{fe.field: "invalid_number"})
	case isStorageError(err):
		writeError(w, h.log, err)
	default:
		invalidJSON(w)
	}
}

func (h *ProductHandler) discard(ref string) {
	if ref == "" {
		return
	}
	if err := h.files.Delete(ref); err != nil {
		h.log.Warn("image cleanup failed", zap.String("ref", ref), zap.Error(err))
	}
}

func validateProductPatch(p models.ProductPatch, v validation.Violations) {
	if p.Nom != nil {
		validation.Required("nom", *p.Nom, v)
		validation.MaxLength("nom", *p.Nom, 255, v)
	}
	if p.Prix != nil {
		validation.PositiveDecimal("prix", *p.Prix, v)
	}
	if p.Stock != nil {
		validation.NonNegativeInt("stock", *p.Stock, v)
	}
}

// patchFromForm copies the present form fields into p.
func patchFromForm(r *http.Request, p *models.ProductPatch) error {
	form := r.MultipartForm.Value
	if vals, ok := form["nom"]; ok && len(vals) > 0 {
		p.Nom = &vals[0]
	}
	if vals, ok := form["description"]; ok && len(vals) > 0 {
		p.Description = &vals[0]
	}
	if vals, ok := form["prix"]; ok && len(vals) > 0 {
		d, err := decimal.NewFromString(strings.TrimSpace(vals[0]))
		if err != nil {
			return &formError{field: "prix"}
		}
		p.Prix = &d
	}
	if vals, ok := form["stock"]; ok && len(vals) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(vals[0]))
		if err != nil {
			return &formError{field: "stock"}
		}
		p.Stock = &n
	}
	if vals, ok := form["categorie_id"]; ok && len(vals) > 0 {
		n, err := strconv.ParseUint(strings.TrimSpace(vals[0]), 10, 64)
		if err != nil {
			return &formError{field: "categorie_id"}
		}
		id := uint(n)
		p.CategorieID = &id
	}
	return nil
}
