// Package storage saves product images on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported_file_type")
	ErrTooLarge        = errors.New("file_too_large")
	ErrEmptyFile       = errors.New("empty_file")
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// Local stores files under Dir and returns references of the form
// URLPrefix/<uuid><ext>, which the server exposes as static files.
type Local struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

func NewLocal(dir, urlPrefix string, maxBytes int64) *Local {
	return &Local{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/"), MaxBytes: maxBytes}
}

// Save copies r into a new uniquely named file. originalName only supplies the extension.
func (l *Local) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	full := filepath.Join(l.Dir, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	src := r
	if l.MaxBytes > 0 {
		src = io.LimitReader(r, l.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("write file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("close file: %w", closeErr)
	case n == 0:
		err = ErrEmptyFile
	case l.MaxBytes > 0 && n > l.MaxBytes:
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return l.URLPrefix + "/" + name, nil
}

// Delete removes the file behind ref. Unknown or foreign references are ignored.
func (l *Local) Delete(ref string) error {
	name := l.nameFromRef(ref)
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(l.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// nameFromRef returns the bare file name for refs this store produced.
func (l *Local) nameFromRef(ref string) string {
	if ref == "" || !strings.HasPrefix(ref, l.URLPrefix+"/") {
		return ""
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name != strings.TrimPrefix(ref, l.URLPrefix+"/") {
		return ""
	}
	return name
}
