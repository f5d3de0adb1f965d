// Package storage persists uploaded images flat on disk. Filenames are
// derived deterministically from the owning entity: <kind>_<id>.<ext>,
// where the extension comes from the request's Content-Type header, never
// from a client-supplied filename. No other metadata is persisted.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entity kinds used to derive filenames.
const (
	KindUser = "user"
	KindFilm = "film"
)

// ErrUnsupportedType is returned for content types outside the
// gif/jpeg/png allow-list.
var ErrUnsupportedType = errors.New("unsupported image content type")

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

var contentTypeByExt = map[string]string{
	"jpg": "image/jpeg",
	"png": "image/png",
	"gif": "image/gif",
}

// ImageStore reads and writes image files under a single directory.
type ImageStore struct {
	dir string
}

// New creates the storage directory if needed and returns a store.
func New(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{dir: dir}, nil
}

// Filename derives the stored name for an entity's image from its
// content type. ErrUnsupportedType when the type is not allow-listed.
func Filename(kind string, id int64, contentType string) (string, error) {
	ext, ok := extByContentType[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedType
	}
	return fmt.Sprintf("%s_%d.%s", kind, id, ext), nil
}

// ContentTypeFor resolves the response content type from a stored
// filename's extension.
func ContentTypeFor(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ct, ok := contentTypeByExt[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Path returns the absolute on-disk location of a stored filename.
func (s *ImageStore) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Write stores the raw bytes, replacing any existing file of the same
// name.
func (s *ImageStore) Write(filename string, data []byte) error {
	return os.WriteFile(s.Path(filename), data, 0o644)
}

// Read returns the raw bytes of a stored file.
func (s *ImageStore) Read(filename string) ([]byte, error) {
	return os.ReadFile(s.Path(filename))
}

// Remove deletes a stored file. A file that is already gone is not an
// error; the caller only needs the name to stop being reachable.
func (s *ImageStore) Remove(filename string) error {
	err := os.Remove(s.Path(filename))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
