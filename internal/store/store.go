// Package store holds the thin persistence helpers shared by services and
// handlers: gorm error translation, typed lookups and column-scoped updates.
package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not_found")
	ErrConflict  = errors.New("conflict")
	ErrDuplicate = errors.New("duplicate")
)

// Translate maps driver/gorm errors onto the package sentinels.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

// isUniqueViolation covers drivers that do not translate errors (TranslateError off).
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

// First loads the record of type T with the given primary key.
func First[T any](ctx context.Context, db *gorm.DB, id uint) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, Translate(err)
	}
	return &out, nil
}

// Exists reports whether a live record of type T has the given primary key.
func Exists[T any](ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateFields persists only cols of model. Zero affected rows means the row
// vanished between load and write: ErrConflict.
func UpdateFields(ctx context.Context, db *gorm.DB, model any, cols []string) error {
	if len(cols) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(model).Select(cols).Updates(model)
	if res.Error != nil {
		return Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
