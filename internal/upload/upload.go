// Package upload stores image files on local disk and hands back the
// public URL they are served under.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNoFile reports a request without a file part.
	ErrNoFile = errors.New("no file in request")
	// ErrUnsupportedType reports a file that is not an allowed image type.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge reports a file over the configured size limit.
	ErrTooLarge = errors.New("file too large")
)

// extByType maps the accepted image content types to the stored extension.
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Saver writes uploaded images under Dir and reports them as BaseURL
// plus the generated file name.
type Saver struct {
	Dir      string
	MaxBytes int64
	BaseURL  string
}

// NewSaver ensures the upload directory exists.
func NewSaver(dir string, maxBytes int64, baseURL string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Saver{Dir: dir, MaxBytes: maxBytes, BaseURL: baseURL}, nil
}

// Save validates and persists one multipart file, returning its public URL.
func (s *Saver) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}
	if fh.Size > s.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, fh.Size)
	}
	ext, ok := extByType[fh.Header.Get("Content-Type")]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, fh.Header.Get("Content-Type"))
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%d%s", time.Now().UnixMilli(), ext)
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// MaxBytes+1 so an underreported Size is still caught.
	n, err := io.Copy(dst, io.LimitReader(src, s.MaxBytes+1))
	if err != nil {
		return "", err
	}
	if n > s.MaxBytes {
		os.Remove(dst.Name())
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	return s.BaseURL + "/uploads/" + name, nil
}
